package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strconv"
	"strings"

	"github.com/apartment-mgmt/resident/internal/domain"
	"github.com/apartment-mgmt/resident/pkg/errs"
)

// Login exchanges credentials for tokens. A 400/401 answer is reported as
// errs.ErrInvalidCredentials, still carrying the server's message.
func (c *Client) Login(ctx context.Context, in LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.sendJSON(ctx, http.MethodPost, "users/login/", in, &out)
	if err != nil {
		var se *errs.ServerError
		if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized) {
			return LoginResponse{}, fmt.Errorf("%w: %w", errs.ErrInvalidCredentials, se)
		}
		return LoginResponse{}, err
	}
	return out, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	var out RefreshResponse
	if err := c.sendJSON(ctx, http.MethodPost, "users/token/refresh/", RefreshRequest{Refresh: refreshToken}, &out); err != nil {
		return RefreshResponse{}, err
	}
	if out.Access == "" {
		return RefreshResponse{}, fmt.Errorf("%w: refresh response without access token", errs.ErrMalformedResponse)
	}
	return out, nil
}

func (c *Client) CurrentUser(ctx context.Context) (domain.RawUser, error) {
	var out domain.RawUser
	if err := c.getJSON(ctx, "users/current-user/", nil, &out); err != nil {
		return domain.RawUser{}, err
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (domain.RawUser, error) {
	body, contentType, err := encodeProfile(in)
	if err != nil {
		return domain.RawUser{}, err
	}

	var out domain.RawUser
	if err := c.send(ctx, http.MethodPut, "users/update/", nil, contentType, body, &out); err != nil {
		return domain.RawUser{}, err
	}
	return out, nil
}

func encodeProfile(in ProfileUpdate) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"password", in.Password},
		{"confirm_password", in.ConfirmPassword},
		{"is_first_login", strconv.FormatBool(in.IsFirstLogin)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("encode profile field %s: %w", f[0], err)
		}
	}

	if in.Avatar != nil && len(in.Avatar.Content) > 0 {
		name := path.Base(in.Avatar.Name)
		if name == "." || name == "/" || name == "" {
			name = "avatar.jpg"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, name))
		h.Set("Content-Type", imageContentType(name))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("encode avatar: %w", err)
		}
		if _, err := part.Write(in.Avatar.Content); err != nil {
			return nil, "", fmt.Errorf("encode avatar: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func imageContentType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "", "jpg":
		ext = "jpeg"
	}
	return "image/" + ext
}
