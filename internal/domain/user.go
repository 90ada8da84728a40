package domain

import "strings"

type UserID int64

// User is the client-side view of the current resident. It is also the
// JSON shape of the cached user blob on the device, hence camelCase.
type User struct {
	ID           UserID      `json:"id"`
	UserName     string      `json:"userName"`
	Email        string      `json:"email"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	PhoneNumber  string      `json:"phoneNumber"`
	Avatar       string      `json:"avatar"`
	Role         string      `json:"role"`
	IsActive     bool        `json:"isActive"`
	IsFirstLogin bool        `json:"isFirstLogin"`
	Apartments   []Apartment `json:"apartments"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.LastName + " " + u.FirstName)
}

// RawUser is the record returned by users/current-user/ and users/update/.
type RawUser struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	PhoneNumber  string         `json:"phone_number"`
	Avatar       string         `json:"avatar"`
	Role         string         `json:"role"`
	IsActive     bool           `json:"is_active"`
	IsFirstLogin bool           `json:"is_first_login"`
	Apartments   []RawApartment `json:"apartments"`
}

// TransformUser maps the server record to User. Last name is trimmed,
// the API pads it for some imported accounts.
func TransformUser(raw RawUser) User {
	u := User{
		ID:           UserID(raw.ID),
		UserName:     raw.Username,
		Email:        raw.Email,
		FirstName:    raw.FirstName,
		LastName:     strings.TrimSpace(raw.LastName),
		PhoneNumber:  raw.PhoneNumber,
		Avatar:       raw.Avatar,
		Role:         raw.Role,
		IsActive:     raw.IsActive,
		IsFirstLogin: raw.IsFirstLogin,
	}
	if len(raw.Apartments) > 0 {
		u.Apartments = make([]Apartment, 0, len(raw.Apartments))
		for _, a := range raw.Apartments {
			u.Apartments = append(u.Apartments, TransformApartment(a))
		}
	}
	return u
}
