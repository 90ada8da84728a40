// Package resident is the application layer a resident front end drives:
// list controllers per resource plus the create/update flows behind each
// form. It holds no UI state of its own.
package resident

import (
	"context"
	"errors"
	"log/slog"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/internal/pagination"
	"github.com/apartment-mgmt/resident/internal/session"
	"github.com/apartment-mgmt/resident/pkg/logger"
)

// Backend is the part of *api.Client the resident flows call. It must be the
// session-decorated client.
type Backend interface {
	ListApartments(ctx context.Context, page int) (pagination.Page[domain.RawApartment], error)
	ListParkings(ctx context.Context, page int) (pagination.Page[domain.ParkingCard], error)
	CreateParkingCard(ctx context.Context, in api.ParkingCardRequest) (domain.ParkingCard, error)
	ListLockerItems(ctx context.Context, page int) (pagination.Page[domain.LockerItem], error)
	LockerDetail(ctx context.Context) (domain.Locker, error)
	ListComplaints(ctx context.Context, page int) (pagination.Page[domain.Complaint], error)
	CreateComplaint(ctx context.Context, in api.ComplaintRequest) (domain.Complaint, error)
	GetComplaint(ctx context.Context, id int64) (domain.Complaint, error)
	UpdateComplaint(ctx context.Context, id int64, in api.ComplaintRequest) (domain.Complaint, error)
	ListSurveys(ctx context.Context, page int) (pagination.Page[domain.Survey], error)
	GetSurvey(ctx context.Context, id int64) (domain.Survey, error)
	SubmitSurveyResponse(ctx context.Context, surveyID int64, in domain.SurveyResponse) error
	UpdateProfile(ctx context.Context, in api.ProfileUpdate) (domain.RawUser, error)
	CurrentUser(ctx context.Context) (domain.RawUser, error)
}

// Session is what the profile flow needs from *session.Manager.
type Session interface {
	CurrentUser() *domain.User
	ReloadUser(ctx context.Context, src session.UserSource) (domain.User, error)
}

// Step names the screen a front end should show after a flow completes.
type Step string

const (
	StepHome          Step = "home"
	StepProfile       Step = "profile"
	StepUpdateProfile Step = "update-profile"
	StepComplaintList Step = "complaint-list"
	StepParkingList   Step = "parking-list"
	StepBack          Step = "back"
)

type Options struct {
	Backend Backend
	Session Session
	Log     *slog.Logger
}

type Service struct {
	backend Backend
	session Session
	log     *slog.Logger
}

func New(opts Options) (*Service, error) {
	if opts.Backend == nil {
		return nil, errors.New("resident: nil backend")
	}
	if opts.Session == nil {
		return nil, errors.New("resident: nil session")
	}
	if opts.Log == nil {
		opts.Log = logger.Component("resident")
	}
	return &Service{backend: opts.Backend, session: opts.Session, log: opts.Log}, nil
}

// LoginDestination is where a freshly signed-in resident goes: first-time
// accounts must set their name and password before anything else.
func LoginDestination(u *domain.User) Step {
	if u != nil && u.IsFirstLogin {
		return StepUpdateProfile
	}
	return StepHome
}
