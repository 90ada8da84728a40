package resident

import (
	"context"
	"strings"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

const msgComplaintIncomplete = "Please fill in all the information"

type ComplaintDraft struct {
	Title   string
	Content string
}

func (d ComplaintDraft) validate() error {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Content) == "" {
		return errs.Validation("", msgComplaintIncomplete)
	}
	return nil
}

// CreateComplaint files a new complaint. New complaints always start pending.
func (s *Service) CreateComplaint(ctx context.Context, d ComplaintDraft) (domain.Complaint, Step, error) {
	if err := d.validate(); err != nil {
		return domain.Complaint{}, "", err
	}
	c, err := s.backend.CreateComplaint(ctx, api.ComplaintRequest{
		Title:   d.Title,
		Content: d.Content,
		Status:  domain.ComplaintPending,
	})
	if err != nil {
		return domain.Complaint{}, "", err
	}
	return c, StepComplaintList, nil
}

func (s *Service) Complaint(ctx context.Context, id int64) (domain.Complaint, error) {
	return s.backend.GetComplaint(ctx, id)
}

// UpdateComplaint edits title and content; the status is left to staff.
func (s *Service) UpdateComplaint(ctx context.Context, id int64, d ComplaintDraft) (domain.Complaint, Step, error) {
	if err := d.validate(); err != nil {
		return domain.Complaint{}, "", err
	}
	c, err := s.backend.UpdateComplaint(ctx, id, api.ComplaintRequest{Title: d.Title, Content: d.Content})
	if err != nil {
		return domain.Complaint{}, "", err
	}
	return c, StepComplaintList, nil
}
