package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/internal/pagination"
)

// The List* methods match pagination.FetchFunc and can be handed to
// pagination.New directly.

func (c *Client) ListApartments(ctx context.Context, page int) (pagination.Page[domain.RawApartment], error) {
	var out pagination.Page[domain.RawApartment]
	err := c.getJSON(ctx, "apartments/list/", pageQuery(page), &out)
	return out, err
}

func (c *Client) ListParkings(ctx context.Context, page int) (pagination.Page[domain.ParkingCard], error) {
	var out pagination.Page[domain.ParkingCard]
	err := c.getJSON(ctx, "parkings/list/", pageQuery(page), &out)
	return out, err
}

func (c *Client) CreateParkingCard(ctx context.Context, in ParkingCardRequest) (domain.ParkingCard, error) {
	var out domain.ParkingCard
	err := c.sendJSON(ctx, http.MethodPost, "parkings/create/", in, &out)
	return out, err
}

func (c *Client) ListLockerItems(ctx context.Context, page int) (pagination.Page[domain.LockerItem], error) {
	var out pagination.Page[domain.LockerItem]
	err := c.getJSON(ctx, "lockers/locker-items/", pageQuery(page), &out)
	return out, err
}

func (c *Client) LockerDetail(ctx context.Context) (domain.Locker, error) {
	var out domain.Locker
	err := c.getJSON(ctx, "lockers/locker/", nil, &out)
	return out, err
}

func (c *Client) ListComplaints(ctx context.Context, page int) (pagination.Page[domain.Complaint], error) {
	var out pagination.Page[domain.Complaint]
	err := c.getJSON(ctx, "complaints/list/", pageQuery(page), &out)
	return out, err
}

func (c *Client) CreateComplaint(ctx context.Context, in ComplaintRequest) (domain.Complaint, error) {
	var out domain.Complaint
	err := c.sendJSON(ctx, http.MethodPost, "complaints/create/", in, &out)
	return out, err
}

func (c *Client) GetComplaint(ctx context.Context, id int64) (domain.Complaint, error) {
	var out domain.Complaint
	err := c.getJSON(ctx, "complaints/"+strconv.FormatInt(id, 10)+"/", nil, &out)
	return out, err
}

func (c *Client) UpdateComplaint(ctx context.Context, id int64, in ComplaintRequest) (domain.Complaint, error) {
	var out domain.Complaint
	err := c.sendJSON(ctx, http.MethodPut, "complaints/"+strconv.FormatInt(id, 10)+"/update/", in, &out)
	return out, err
}

func (c *Client) ListSurveys(ctx context.Context, page int) (pagination.Page[domain.Survey], error) {
	var out pagination.Page[domain.Survey]
	err := c.getJSON(ctx, "surveys/list/", pageQuery(page), &out)
	return out, err
}

func (c *Client) GetSurvey(ctx context.Context, id int64) (domain.Survey, error) {
	var out domain.Survey
	err := c.getJSON(ctx, "surveys/"+strconv.FormatInt(id, 10)+"/", nil, &out)
	return out, err
}

func (c *Client) SubmitSurveyResponse(ctx context.Context, surveyID int64, in domain.SurveyResponse) error {
	return c.sendJSON(ctx, http.MethodPost, "surveys/"+strconv.FormatInt(surveyID, 10)+"/response/", in, nil)
}
