// Package mockapi is an in-memory stand-in for the resident REST API. It
// serves the same endpoints and payload shapes and is used by end-to-end
// tests and for running the client locally.
package mockapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/apartment-mgmt/resident/pkg/httputil"
	"github.com/apartment-mgmt/resident/pkg/logger"
)

type Options struct {
	Config Config
	Users  []SeedUser // default: DefaultUsers
	Log    *slog.Logger
	Now    func() time.Time
}

type Server struct {
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
	data    *data
	tokens  *tokenIssuer
	limiter *loginLimiter
}

func New(opts Options) (*Server, error) {
	cfg := opts.Config.withDefaults()
	if opts.Log == nil {
		opts.Log = logger.Component("mockapi")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d, err := seed(opts.Users, cfg.BcryptCost, opts.Now())
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:  cfg,
		log:  opts.Log,
		now:  opts.Now,
		data: d,
		tokens: &tokenIssuer{
			secret:     []byte(cfg.Secret),
			issuer:     cfg.Issuer,
			accessTTL:  cfg.AccessTTL,
			refreshTTL: cfg.RefreshTTL,
			now:        opts.Now,
		},
		limiter: newLoginLimiter(cfg.LoginRate, cfg.LoginBurst),
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging(s.log))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/users/login/", s.login)
	r.Post("/users/token/refresh/", s.refresh)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/users/current-user/", s.currentUser)
		r.Put("/users/update/", s.updateProfile)

		r.Get("/apartments/list/", s.listApartments)

		r.Get("/parkings/list/", s.listParkings)
		r.Post("/parkings/create/", s.createParking)

		r.Get("/lockers/locker/", s.lockerDetail)
		r.Get("/lockers/locker-items/", s.listLockerItems)

		r.Get("/complaints/list/", s.listComplaints)
		r.Post("/complaints/create/", s.createComplaint)
		r.Get("/complaints/{id}/", s.getComplaint)
		r.Put("/complaints/{id}/update/", s.updateComplaint)

		r.Get("/surveys/list/", s.listSurveys)
		r.Get("/surveys/{id}/", s.getSurvey)
		r.Post("/surveys/{id}/response/", s.submitSurvey)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Detail(w, http.StatusNotFound, "Not found.")
	})
	return r
}

type ctxKey struct{}

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKey{}).(int64)
	return id
}

// authenticate accepts only unexpired access tokens of existing accounts.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(authz, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			httputil.Detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		uid, err := s.tokens.parse(strings.TrimSpace(token), kindAccess)
		if err != nil {
			s.log.DebugContext(r.Context(), "rejected access token", slog.Any("err", err))
			httputil.Detail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		s.data.mu.Lock()
		_, exists := s.data.accounts[uid]
		s.data.mu.Unlock()
		if !exists {
			httputil.Detail(w, http.StatusUnauthorized, "User not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	})
}

var errInvalidPage = errors.New("invalid page")
