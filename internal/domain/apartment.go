package domain

type ApartmentUser struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

type Apartment struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	Image       string          `json:"image"`
	MaxCapacity int             `json:"maxCapacity"`
	Owner       ApartmentUser   `json:"owner"`
	Users       []ApartmentUser `json:"users"`
}

func (a Apartment) Identity() int64 { return a.ID }

type RawApartmentUser struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// RawApartment is the apartments/list/ item.
type RawApartment struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Address     string             `json:"address"`
	Image       string             `json:"image"`
	MaxCapacity int                `json:"max_capacity"`
	Owner       *RawApartmentUser  `json:"owner"`
	Users       []RawApartmentUser `json:"users"`
}

func (a RawApartment) Identity() int64 { return a.ID }

func TransformApartment(raw RawApartment) Apartment {
	a := Apartment{
		ID:          raw.ID,
		Name:        raw.Name,
		Address:     raw.Address,
		Image:       raw.Image,
		MaxCapacity: raw.MaxCapacity,
	}
	if raw.Owner != nil {
		a.Owner = transformApartmentUser(*raw.Owner)
	}
	for _, u := range raw.Users {
		a.Users = append(a.Users, transformApartmentUser(u))
	}
	return a
}

func transformApartmentUser(raw RawApartmentUser) ApartmentUser {
	return ApartmentUser{
		ID:          raw.ID,
		FirstName:   raw.FirstName,
		LastName:    raw.LastName,
		PhoneNumber: raw.PhoneNumber,
	}
}
