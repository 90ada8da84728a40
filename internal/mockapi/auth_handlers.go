package mockapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/apartment-mgmt/resident/internal/api"
	"github.com/apartment-mgmt/resident/pkg/httputil"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.Detail(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		httputil.Detail(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	if !s.limiter.allow(in.Username) {
		httputil.Detail(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
		return
	}

	s.data.mu.Lock()
	acc, ok := s.data.accountByUsername(in.Username)
	var hash string
	var uid int64
	if ok {
		hash, uid = acc.passwordHash, acc.user.ID
	}
	s.data.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)) != nil {
		s.log.InfoContext(r.Context(), "login rejected", slog.String("username", in.Username))
		httputil.Detail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, err := s.tokens.access(uid)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	refresh, err := s.tokens.refresh(uid)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, api.LoginResponse{Access: access, Refresh: refresh})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Refresh) == "" {
		httputil.Detail(w, http.StatusBadRequest, "refresh: This field is required.")
		return
	}

	uid, err := s.tokens.parse(strings.TrimSpace(in.Refresh), kindRefresh)
	if err != nil {
		httputil.Detail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	s.data.mu.Lock()
	_, exists := s.data.accounts[uid]
	s.data.mu.Unlock()
	if !exists {
		httputil.Detail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	var out api.RefreshResponse
	if out.Access, err = s.tokens.access(uid); err != nil {
		s.internalError(w, r, err)
		return
	}
	if s.cfg.RotateRefresh {
		if out.Refresh, err = s.tokens.refresh(uid); err != nil {
			s.internalError(w, r, err)
			return
		}
	}
	httputil.JSON(w, http.StatusOK, out)
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	uid := userIDFrom(r.Context())

	s.data.mu.Lock()
	u := s.data.accounts[uid].user
	u.Apartments = s.data.apartmentsOf(uid)
	s.data.mu.Unlock()

	httputil.JSON(w, http.StatusOK, u)
}

const maxAvatarBytes = 8 << 20

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httputil.Detail(w, http.StatusBadRequest, "Expected multipart form data.")
		return
	}
	first := strings.TrimSpace(r.FormValue("first_name"))
	last := strings.TrimSpace(r.FormValue("last_name"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if first == "" || last == "" {
		httputil.Detail(w, http.StatusBadRequest, "First name and last name are required.")
		return
	}
	if password != confirm {
		httputil.Detail(w, http.StatusBadRequest, "Passwords do not match.")
		return
	}

	var hash []byte
	if password != "" {
		var err error
		cost := s.cfg.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if hash, err = bcrypt.GenerateFromPassword([]byte(password), cost); err != nil {
			s.internalError(w, r, err)
			return
		}
	}

	uid := userIDFrom(r.Context())
	avatar := ""
	if f, hdr, err := r.FormFile("avatar"); err == nil {
		_ = f.Close()
		avatar = fmt.Sprintf("/media/avatars/%d/%s", uid, path.Base(hdr.Filename))
	}
	firstLogin, _ := strconv.ParseBool(r.FormValue("is_first_login"))

	s.data.mu.Lock()
	acc := s.data.accounts[uid]
	acc.user.FirstName = first
	acc.user.LastName = last
	acc.user.IsFirstLogin = firstLogin
	if avatar != "" {
		acc.user.Avatar = avatar
	}
	if hash != nil {
		acc.passwordHash = string(hash)
	}
	u := acc.user
	u.Apartments = s.data.apartmentsOf(uid)
	s.data.mu.Unlock()

	s.log.InfoContext(r.Context(), "profile updated", slog.Int64("user_id", uid), slog.Bool("password_changed", hash != nil))
	httputil.JSON(w, http.StatusOK, u)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "request failed", slog.Any("err", err))
	httputil.Detail(w, http.StatusInternalServerError, "Internal server error.")
}
