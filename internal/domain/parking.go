package domain

const (
	VehicleMotorbike = "motorbike"
	VehicleCar       = "car"
	VehicleBicycle   = "bicycle"

	ParkingActive = "active"
)

// DateLayout is how the API encodes calendar dates.
const DateLayout = "2006-01-02"

type ParkingCard struct {
	ID                 int64  `json:"id"`
	LicensePlate       string `json:"license_plate"`
	VehicleType        string `json:"vehicle_type"`
	VehicleTypeDisplay string `json:"vehicle_type_display,omitempty"`
	OwnerName          string `json:"owner_name"`
	RelativeName       string `json:"relative_name"`
	Status             string `json:"status"`
	StatusDisplay      string `json:"status_display,omitempty"`
	StartDate          string `json:"start_date,omitempty"`
	ExpireDate         string `json:"expire_date,omitempty"`
}

func (p ParkingCard) Identity() int64 { return p.ID }

func ValidVehicleType(v string) bool {
	switch v {
	case VehicleMotorbike, VehicleCar, VehicleBicycle:
		return true
	}
	return false
}
