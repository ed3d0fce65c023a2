// Package utils provides token and password helpers shared by the auth
// service and the JWT middleware.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"
)

// ErrInvalidToken is returned for any access token that fails signature,
// issuer, audience or expiry checks, or that lacks a usable subject.
var ErrInvalidToken = errors.New("invalid token")

// TokenSettings are the signing parameters shared by issuer and verifier.
type TokenSettings struct {
	Secret   string
	Issuer   string
	Audience string
}

// Identity is the authenticated principal carried by an access token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Roles    []string
}

// HasRole reports whether code is among the identity's roles.
func (i Identity) HasRole(code string) bool {
	for _, r := range i.Roles {
		if r == code {
			return true
		}
	}
	return false
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is the raw refresh value handed to the client. Only its
// SHA-256 (see HashRefreshRaw) is stored.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken builds and signs an HS256 JWT carrying sub, username,
// roles, iss, aud, exp and iat.
func NewAccessToken(s TokenSettings, id Identity, now time.Time, ttl time.Duration) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":      id.UserID.String(),
		"username": id.Username,
		"roles":    id.Roles,
		"iss":      s.Issuer,
		"aud":      s.Audience,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.Secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and extracts the identity. Claim values are
// converted loosely so tokens minted by older builds (numeric or space
// separated roles) still parse.
func ParseAccessToken(s TokenSettings, raw string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.Issuer))
	}
	if s.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.Audience))
	}
	tok, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return []byte(s.Secret), nil
	}, opts...)
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	userID, err := uuid.FromString(cast.ToString(claims["sub"]))
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:   userID,
		Username: cast.ToString(claims["username"]),
		Roles:    cast.ToStringSlice(claims["roles"]),
	}, nil
}

// NewRefreshToken returns a random 96 hex character token valid for ttl.
func NewRefreshToken(now time.Time, ttl time.Duration) (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: raw, Exp: now.UTC().Add(ttl)}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
