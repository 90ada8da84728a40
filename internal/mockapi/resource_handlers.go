package mockapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/pkg/httputil"
)

var vehicleDisplay = map[string]string{
	domain.VehicleMotorbike: "Motorbike",
	domain.VehicleCar:       "Car",
	domain.VehicleBicycle:   "Bicycle",
}

func (s *Server) listApartments(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	items := s.data.apartmentsOf(userIDFrom(r.Context()))
	s.data.mu.Unlock()
	writePage(w, r, items, s.cfg.PageSize)
}

func (s *Server) listParkings(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	items := slices.Clone(s.data.parkings[userIDFrom(r.Context())])
	s.data.mu.Unlock()
	writePage(w, r, items, s.cfg.PageSize)
}

func (s *Server) createParking(w http.ResponseWriter, r *http.Request) {
	var in api.ParkingCardRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.Detail(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	if strings.TrimSpace(in.LicensePlate) == "" || strings.TrimSpace(in.OwnerName) == "" {
		httputil.Detail(w, http.StatusBadRequest, "License plate and owner name are required.")
		return
	}
	display, ok := vehicleDisplay[in.VehicleType]
	if !ok {
		httputil.Detail(w, http.StatusBadRequest, "Invalid vehicle type.")
		return
	}

	uid := userIDFrom(r.Context())
	s.data.mu.Lock()
	card := domain.ParkingCard{
		ID:                 s.data.id(),
		LicensePlate:       in.LicensePlate,
		VehicleType:        in.VehicleType,
		VehicleTypeDisplay: display,
		OwnerName:          in.OwnerName,
		RelativeName:       in.RelativeName,
		Status:             in.Status,
		StartDate:          in.StartDate,
		ExpireDate:         in.ExpireDate,
	}
	s.data.parkings[uid] = append(s.data.parkings[uid], card)
	s.data.mu.Unlock()

	httputil.JSON(w, http.StatusCreated, card)
}

func (s *Server) lockerDetail(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	l := s.data.accounts[userIDFrom(r.Context())].locker
	s.data.mu.Unlock()
	httputil.JSON(w, http.StatusOK, l)
}

func (s *Server) listLockerItems(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	items := slices.Clone(s.data.lockerItems[userIDFrom(r.Context())])
	s.data.mu.Unlock()
	writePage(w, r, items, s.cfg.PageSize)
}

// listComplaints returns newest first.
func (s *Server) listComplaints(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	items := slices.Clone(s.data.complaints[userIDFrom(r.Context())])
	s.data.mu.Unlock()
	slices.Reverse(items)
	writePage(w, r, items, s.cfg.PageSize)
}

func decodeComplaint(w http.ResponseWriter, r *http.Request) (api.ComplaintRequest, bool) {
	var in api.ComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.Detail(w, http.StatusBadRequest, "Invalid JSON.")
		return in, false
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		httputil.Detail(w, http.StatusBadRequest, "Title and content are required.")
		return in, false
	}
	return in, true
}

func (s *Server) createComplaint(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeComplaint(w, r)
	if !ok {
		return
	}
	status := in.Status
	if status == "" {
		status = domain.ComplaintPending
	}

	uid := userIDFrom(r.Context())
	now := s.now().UTC().Format("2006-01-02T15:04:05Z")
	s.data.mu.Lock()
	c := domain.Complaint{
		ID:            s.data.id(),
		Title:         in.Title,
		Content:       in.Content,
		Status:        status,
		StatusDisplay: statusDisplay(status),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.data.complaints[uid] = append(s.data.complaints[uid], c)
	s.data.mu.Unlock()

	httputil.JSON(w, http.StatusCreated, c)
}

func (s *Server) getComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	uid := userIDFrom(r.Context())

	s.data.mu.Lock()
	i, found := s.data.complaint(uid, id)
	var c domain.Complaint
	if found {
		c = s.data.complaints[uid][i]
	}
	s.data.mu.Unlock()

	if !found {
		httputil.Detail(w, http.StatusNotFound, "No Complaint matches the given query.")
		return
	}
	httputil.JSON(w, http.StatusOK, c)
}

func (s *Server) updateComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeComplaint(w, r)
	if !ok {
		return
	}
	uid := userIDFrom(r.Context())

	s.data.mu.Lock()
	i, found := s.data.complaint(uid, id)
	var c domain.Complaint
	if found {
		c = s.data.complaints[uid][i]
		c.Title, c.Content = in.Title, in.Content
		c.UpdatedAt = s.now().UTC().Format("2006-01-02T15:04:05Z")
		s.data.complaints[uid][i] = c
	}
	s.data.mu.Unlock()

	if !found {
		httputil.Detail(w, http.StatusNotFound, "No Complaint matches the given query.")
		return
	}
	httputil.JSON(w, http.StatusOK, c)
}

func statusDisplay(status string) string {
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

// listSurveys lists surveys without their questions, like the real API.
func (s *Server) listSurveys(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	items := make([]domain.Survey, 0, len(s.data.surveys))
	for _, sv := range s.data.surveys {
		sv.Questions = nil
		items = append(items, sv)
	}
	s.data.mu.Unlock()
	writePage(w, r, items, s.cfg.PageSize)
}

func (s *Server) getSurvey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.data.mu.Lock()
	sv, found := s.data.survey(id)
	s.data.mu.Unlock()
	if !found {
		httputil.Detail(w, http.StatusNotFound, "No Survey matches the given query.")
		return
	}
	httputil.JSON(w, http.StatusOK, sv)
}

func (s *Server) submitSurvey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.SurveyResponse
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.Detail(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	uid := userIDFrom(r.Context())

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	sv, found := s.data.survey(id)
	if !found {
		httputil.Detail(w, http.StatusNotFound, "No Survey matches the given query.")
		return
	}
	if in.Survey != 0 && in.Survey != id {
		httputil.Detail(w, http.StatusBadRequest, "Survey id does not match the URL.")
		return
	}
	for _, a := range in.Answers {
		q, ok := sv.Question(a.QuestionID)
		if !ok {
			httputil.Detail(w, http.StatusBadRequest, "Unknown question "+strconv.FormatInt(a.QuestionID, 10)+".")
			return
		}
		if q.Type == domain.QuestionMultipleChoice && (a.ChoiceID == nil || !q.HasChoice(*a.ChoiceID)) {
			httputil.Detail(w, http.StatusBadRequest, "Invalid choice for question "+strconv.FormatInt(q.ID, 10)+".")
			return
		}
	}
	for _, prev := range s.data.answers {
		if prev.userID == uid && prev.response.Survey == id {
			httputil.Detail(w, http.StatusBadRequest, "You have already responded to this survey.")
			return
		}
	}

	in.Survey = id
	s.data.answers = append(s.data.answers, surveyAnswer{userID: uid, response: in})
	httputil.JSON(w, http.StatusCreated, in)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.Detail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}
