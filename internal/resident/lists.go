package resident

import (
	"context"

	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/internal/pagination"
)

const (
	MsgApartmentsUnavailable = "Unable to load the apartment list."
	MsgParkingsUnavailable   = "Unable to load the parking card list."
	MsgLockerUnavailable     = "Unable to load the items in your smart locker."
	MsgComplaintsUnavailable = "Unable to load the complaint list."
	MsgSurveysUnavailable    = "Unable to load the survey list."
)

// Each call returns a fresh controller; they are not meant to be shared.

func (s *Service) NewApartmentList() *pagination.List[domain.Apartment] {
	fetch := func(ctx context.Context, page int) (pagination.Page[domain.Apartment], error) {
		raw, err := s.backend.ListApartments(ctx, page)
		if err != nil {
			return pagination.Page[domain.Apartment]{}, err
		}
		out := pagination.Page[domain.Apartment]{Count: raw.Count, Next: raw.Next}
		out.Results = make([]domain.Apartment, 0, len(raw.Results))
		for _, a := range raw.Results {
			out.Results = append(out.Results, domain.TransformApartment(a))
		}
		return out, nil
	}
	return pagination.New(fetch, s.listOpts(MsgApartmentsUnavailable)...)
}

func (s *Service) NewParkingList() *pagination.List[domain.ParkingCard] {
	return pagination.New(s.backend.ListParkings, s.listOpts(MsgParkingsUnavailable)...)
}

func (s *Service) NewLockerItemList() *pagination.List[domain.LockerItem] {
	return pagination.New(s.backend.ListLockerItems, s.listOpts(MsgLockerUnavailable)...)
}

func (s *Service) NewComplaintList() *pagination.List[domain.Complaint] {
	return pagination.New(s.backend.ListComplaints, s.listOpts(MsgComplaintsUnavailable)...)
}

func (s *Service) NewSurveyList() *pagination.List[domain.Survey] {
	return pagination.New(s.backend.ListSurveys, s.listOpts(MsgSurveysUnavailable)...)
}

func (s *Service) listOpts(msg string) []pagination.Option {
	return []pagination.Option{
		pagination.WithErrorMessage(msg),
		pagination.WithLogger(s.log),
	}
}

// LockerNumber returns the number of the resident's smart locker.
func (s *Service) LockerNumber(ctx context.Context) (string, error) {
	l, err := s.backend.LockerDetail(ctx)
	if err != nil {
		return "", err
	}
	return l.Number, nil
}
