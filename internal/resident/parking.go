package resident

import (
	"context"
	"strings"
	"time"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

const msgParkingIncomplete = "Please enter all parking card details"

// ParkingDraft is the parking card form. Empty VehicleType means motorbike,
// zero ExpireDate means the last day of the current year.
type ParkingDraft struct {
	LicensePlate string
	VehicleType  string
	OwnerName    string
	ExpireDate   time.Time
}

// CreateParkingCard registers a card that is active from today. The owner is
// also recorded as the relative.
func (s *Service) CreateParkingCard(ctx context.Context, d ParkingDraft, now time.Time) (domain.ParkingCard, Step, error) {
	req, err := d.request(now)
	if err != nil {
		return domain.ParkingCard{}, "", err
	}
	card, err := s.backend.CreateParkingCard(ctx, req)
	if err != nil {
		return domain.ParkingCard{}, "", err
	}
	return card, StepParkingList, nil
}

func (d ParkingDraft) request(now time.Time) (api.ParkingCardRequest, error) {
	plate := strings.TrimSpace(d.LicensePlate)
	owner := strings.TrimSpace(d.OwnerName)
	if plate == "" || owner == "" {
		return api.ParkingCardRequest{}, errs.Validation("", msgParkingIncomplete)
	}

	vehicle := d.VehicleType
	if vehicle == "" {
		vehicle = domain.VehicleMotorbike
	}
	if !domain.ValidVehicleType(vehicle) {
		return api.ParkingCardRequest{}, errs.Validation("vehicle_type", "Unknown vehicle type "+vehicle)
	}

	expire := d.ExpireDate
	if expire.IsZero() {
		expire = time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())
	}

	return api.ParkingCardRequest{
		LicensePlate: plate,
		VehicleType:  vehicle,
		OwnerName:    owner,
		RelativeName: owner,
		Status:       domain.ParkingActive,
		StartDate:    now.Format(domain.DateLayout),
		ExpireDate:   expire.Format(domain.DateLayout),
	}, nil
}
