package mockapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

var errTokenKind = errors.New("wrong token type")

type claims struct {
	Kind string `json:"token_type"`
	jwt.RegisteredClaims
}

// tokenIssuer signs HS256 access/refresh pairs the way SimpleJWT does:
// same secret, a token_type claim to tell them apart.
type tokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func (t *tokenIssuer) sign(userID int64, kind string, ttl time.Duration) (string, error) {
	now := t.now().UTC()
	c := claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *tokenIssuer) access(userID int64) (string, error) {
	return t.sign(userID, kindAccess, t.accessTTL)
}

func (t *tokenIssuer) refresh(userID int64) (string, error) {
	return t.sign(userID, kindRefresh, t.refreshTTL)
}

// parse validates signature, issuer, expiry and kind and returns the user id.
func (t *tokenIssuer) parse(token, kind string) (int64, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, err
	}
	if c.Kind != kind {
		return 0, errTokenKind
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token subject: %w", err)
	}
	return id, nil
}
