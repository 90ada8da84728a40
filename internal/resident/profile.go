package resident

import (
	"context"
	"fmt"
	"strings"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

const (
	msgNameRequired     = "Please enter both first and last name"
	msgPasswordRequired = "Please enter the password and its confirmation"
)

type ProfileDraft struct {
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
	Avatar          *api.Upload
}

// UpdateProfile saves the profile, clears the first-login flag and reloads
// the cached user. A first-time resident must also set a password.
func (s *Service) UpdateProfile(ctx context.Context, d ProfileDraft) (domain.User, Step, error) {
	current := s.session.CurrentUser()
	firstLogin := current != nil && current.IsFirstLogin

	if strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "" {
		return domain.User{}, "", errs.Validation("name", msgNameRequired)
	}
	if firstLogin && (d.Password == "" || d.ConfirmPassword == "") {
		return domain.User{}, "", errs.Validation("password", msgPasswordRequired)
	}

	_, err := s.backend.UpdateProfile(ctx, api.ProfileUpdate{
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Password:        d.Password,
		ConfirmPassword: d.ConfirmPassword,
		IsFirstLogin:    false,
		Avatar:          d.Avatar,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.session.ReloadUser(ctx, s.backend)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("profile saved: %w", err)
	}

	if firstLogin {
		return u, StepHome, nil
	}
	return u, StepProfile, nil
}
