package mockapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/apartment-mgmt/resident/internal/domain"
)

type account struct {
	user         domain.RawUser
	passwordHash string
	locker       domain.Locker
}

type surveyAnswer struct {
	userID   int64
	response domain.SurveyResponse
}

// data is the in-memory backing store. Every slice is kept in id order.
type data struct {
	mu sync.Mutex

	accounts   map[int64]*account
	byUsername map[string]int64
	apartments []domain.RawApartment

	parkings    map[int64][]domain.ParkingCard
	lockerItems map[int64][]domain.LockerItem
	complaints  map[int64][]domain.Complaint
	surveys     []domain.Survey
	answers     []surveyAnswer

	nextID int64
}

// SeedUser is a login the fake backend accepts.
type SeedUser struct {
	Username   string
	Password   string
	FirstName  string
	LastName   string
	FirstLogin bool
}

// DefaultUsers are seeded when no users are given.
var DefaultUsers = []SeedUser{
	{Username: "resident", Password: "resident123", FirstName: "Lan", LastName: "Nguyen "},
	{Username: "newcomer", Password: "welcome123", FirstName: "Minh", LastName: "Tran", FirstLogin: true},
}

func seed(users []SeedUser, cost int, now time.Time) (*data, error) {
	if len(users) == 0 {
		users = DefaultUsers
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	d := &data{
		accounts:    make(map[int64]*account),
		byUsername:  make(map[string]int64),
		parkings:    make(map[int64][]domain.ParkingCard),
		lockerItems: make(map[int64][]domain.LockerItem),
		complaints:  make(map[int64][]domain.Complaint),
		nextID:      100,
	}

	for i, su := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", su.Username, err)
		}
		uid := int64(i + 1)
		owner := domain.RawApartmentUser{ID: uid, FirstName: su.FirstName, LastName: su.LastName, PhoneNumber: fmt.Sprintf("09000000%02d", uid)}

		var owned []domain.RawApartment
		for j := 0; j < 2; j++ {
			a := domain.RawApartment{
				ID:          uid*10 + int64(j),
				Name:        fmt.Sprintf("Block %c - %d0%d", 'A'+rune(i), j+1, uid),
				Address:     fmt.Sprintf("%d Nguyen Hue, District 1", 10+j),
				MaxCapacity: 4,
				Owner:       &owner,
				Users:       []domain.RawApartmentUser{owner},
			}
			owned = append(owned, a)
			d.apartments = append(d.apartments, a)
		}

		d.accounts[uid] = &account{
			user: domain.RawUser{
				ID:           uid,
				Username:     su.Username,
				Email:        su.Username + "@example.com",
				FirstName:    su.FirstName,
				LastName:     su.LastName,
				PhoneNumber:  owner.PhoneNumber,
				Role:         "resident",
				IsActive:     true,
				IsFirstLogin: su.FirstLogin,
				Apartments:   owned,
			},
			passwordHash: string(hash),
			locker:       domain.Locker{ID: uid, Number: fmt.Sprintf("L-%03d", uid)},
		}
		d.byUsername[su.Username] = uid

		for k := 0; k < 12; k++ {
			d.lockerItems[uid] = append(d.lockerItems[uid], domain.LockerItem{
				ID:            uid*1000 + int64(k),
				ItemName:      fmt.Sprintf("Parcel #%d", k+1),
				Status:        "received",
				StatusDisplay: "Received",
				ReceivedAt:    now.AddDate(0, 0, -k).Format(time.RFC3339),
			})
		}
		d.parkings[uid] = []domain.ParkingCard{{
			ID:                 uid * 100,
			LicensePlate:       fmt.Sprintf("59-X%d 123.45", uid),
			VehicleType:        domain.VehicleMotorbike,
			VehicleTypeDisplay: "Motorbike",
			OwnerName:          su.FirstName,
			RelativeName:       su.FirstName,
			Status:             domain.ParkingActive,
			StatusDisplay:      "Active",
			StartDate:          now.AddDate(0, -1, 0).Format(domain.DateLayout),
			ExpireDate:         time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC).Format(domain.DateLayout),
		}}
	}

	d.surveys = []domain.Survey{
		{
			ID:          1,
			Title:       "Building services satisfaction",
			Description: "Tell us how we are doing.",
			Questions: []domain.Question{
				{ID: 1, Text: "How clean are the common areas?", Type: domain.QuestionMultipleChoice, Choices: []domain.Choice{
					{ID: 1, Text: "Very clean"}, {ID: 2, Text: "Acceptable"}, {ID: 3, Text: "Dirty"},
				}},
				{ID: 2, Text: "Anything else?", Type: domain.QuestionText},
			},
		},
		{
			ID:          2,
			Title:       "Parking lot hours",
			Description: "Should the parking lot stay open overnight?",
			Questions: []domain.Question{
				{ID: 3, Text: "Keep it open overnight?", Type: domain.QuestionMultipleChoice, Choices: []domain.Choice{
					{ID: 4, Text: "Yes"}, {ID: 5, Text: "No"},
				}},
			},
		},
	}
	return d, nil
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *data) accountByUsername(username string) (*account, bool) {
	uid, ok := d.byUsername[username]
	if !ok {
		return nil, false
	}
	return d.accounts[uid], true
}

func (d *data) apartmentsOf(uid int64) []domain.RawApartment {
	var out []domain.RawApartment
	for _, a := range d.apartments {
		if a.Owner != nil && a.Owner.ID == uid {
			out = append(out, a)
		}
	}
	return out
}

func (d *data) complaint(uid, id int64) (int, bool) {
	for i, c := range d.complaints[uid] {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (d *data) survey(id int64) (domain.Survey, bool) {
	i := sort.Search(len(d.surveys), func(i int) bool { return d.surveys[i].ID >= id })
	if i < len(d.surveys) && d.surveys[i].ID == id {
		return d.surveys[i], true
	}
	return domain.Survey{}, false
}
