package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestListParkings_PageQueryAndBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/parkings/list/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "3" {
			t.Errorf("expected page=3, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer from ctx, got %q", got)
		}
		_, _ = io.WriteString(w, `{"count":1,"next":null,"results":[{"id":9,"license_plate":"30A-123.45","vehicle_type":"car"}]}`)
	})

	page, err := c.ListParkings(WithBearer(context.Background(), "tok"), 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.HasNext() || len(page.Results) != 1 || page.Results[0].LicensePlate != "30A-123.45" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
	})

	_, err := c.Login(context.Background(), LoginRequest{Username: "a", Password: "b"})
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if msg := errs.Message(err); msg != "No active account found with the given credentials" {
		t.Fatalf("server detail lost: %q", msg)
	}
}

func TestServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/complaints/1/":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Complaint not found"}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `<html>bad gateway</html>`)
		}
	})

	_, err := c.GetComplaint(context.Background(), 1)
	var se *errs.ServerError
	if !errors.As(err, &se) || se.Message != "Complaint not found" || !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected 404 server error, got %v", err)
	}

	_, err = c.GetComplaint(context.Background(), 2)
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway || se.Message != "Server error" {
		t.Fatalf("expected generic server error, got %v", err)
	}
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":`)
	})
	if _, err := c.CurrentUser(context.Background()); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestRefreshToken_RequiresAccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.RefreshToken(context.Background(), "r"); !errors.Is(err, errs.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	c, err := New(Options{
		BaseURL: "http://resident.invalid/api/",
		Doer: DoerFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: no route to host")
		}),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.LockerDetail(context.Background()); !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestSessionExpiredPassesThrough(t *testing.T) {
	c, _ := New(Options{
		BaseURL: "http://resident.invalid/api/",
		Doer: DoerFunc(func(*http.Request) (*http.Response, error) {
			return nil, errs.ErrSessionExpired
		}),
	})
	_, err := c.ListSurveys(context.Background(), 1)
	if !errors.Is(err, errs.ErrSessionExpired) || errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("expected bare ErrSessionExpired, got %v", err)
	}
}

func TestUpdateProfile_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("first_name") != "Lan" || r.FormValue("is_first_login") != "false" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("avatar")
		if err != nil {
			t.Errorf("avatar missing: %v", err)
			return
		}
		defer f.Close()
		if hdr.Filename != "me.jpg" || hdr.Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("unexpected avatar part %q %q", hdr.Filename, hdr.Header.Get("Content-Type"))
		}
		_, _ = io.WriteString(w, `{"id":7,"username":"a101","first_name":"Lan","last_name":"Nguyen"}`)
	})

	raw, err := c.UpdateProfile(context.Background(), ProfileUpdate{
		FirstName: "Lan",
		LastName:  "Nguyen",
		Avatar:    &Upload{Name: "/tmp/photos/me.jpg", Content: []byte{0xff, 0xd8}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if domain.TransformUser(raw).LastName != "Nguyen" {
		t.Fatalf("unexpected user %+v", raw)
	}
}

func TestSubmitSurveyResponse_Body(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if r.URL.Path != "/api/surveys/4/response/" || !strings.Contains(string(b), `"answer_text":"ok"`) {
			t.Errorf("unexpected request %s %s", r.URL.Path, b)
		}
		w.WriteHeader(http.StatusCreated)
	})
	text := "ok"
	err := c.SubmitSurveyResponse(context.Background(), 4, domain.SurveyResponse{
		Survey:  4,
		Answers: []domain.Answer{{QuestionID: 1, AnswerText: &text}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestImageContentType(t *testing.T) {
	cases := map[string]string{"a.jpg": "image/jpeg", "a.PNG": "image/png", "noext": "image/jpeg", "a.heic": "image/heic"}
	for name, want := range cases {
		if got := imageContentType(name); got != want {
			t.Fatalf("%s: got %s want %s", name, got, want)
		}
	}
}
