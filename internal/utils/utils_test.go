package utils_test

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

var settings = utils.TokenSettings{Secret: "s3cret", Issuer: "fleet", Audience: "fleet-web"}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	id := utils.Identity{UserID: uuid.Must(uuid.NewV4()), Username: "dispatch1", Roles: []string{"DISPATCHER", "DRIVER"}}
	tok, err := utils.NewAccessToken(settings, id, time.Now(), time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), tok.Exp, 2*time.Second)

	got, err := utils.ParseAccessToken(settings, tok.Token)
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.True(t, got.HasRole("DRIVER"))
	require.False(t, got.HasRole("driver"))
}

func TestParseAccessTokenRejects(t *testing.T) {
	t.Parallel()
	id := utils.Identity{UserID: uuid.Must(uuid.NewV4()), Username: "u"}
	sign := func(s utils.TokenSettings, now time.Time) string {
		tok, err := utils.NewAccessToken(s, id, now, time.Minute)
		require.NoError(t, err)
		return tok.Token
	}
	wrongSecret, wrongIssuer, wrongAudience := settings, settings, settings
	wrongSecret.Secret = "other"
	wrongIssuer.Issuer = "someone"
	wrongAudience.Audience = "mobile"

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": settings.Issuer, "aud": settings.Audience, "exp": time.Now().Add(time.Minute).Unix(),
	})
	noSubToken, err := noSub.SignedString([]byte(settings.Secret))
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":        "abc.def.ghi",
		"wrong secret":   sign(wrongSecret, time.Now()),
		"wrong issuer":   sign(wrongIssuer, time.Now()),
		"wrong audience": sign(wrongAudience, time.Now()),
		"expired":        sign(settings, time.Now().Add(-time.Hour)),
		"no subject":     noSubToken,
	} {
		_, err := utils.ParseAccessToken(settings, raw)
		require.ErrorIs(t, err, utils.ErrInvalidToken, name)
	}
}

func TestParseAccessTokenAcceptsLooseRoles(t *testing.T) {
	t.Parallel()
	userID := uuid.Must(uuid.NewV4())
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(), "username": "legacy", "roles": "ADMIN DRIVER",
		"iss": settings.Issuer, "aud": settings.Audience, "exp": time.Now().Add(time.Minute).Unix(),
	})
	raw, err := tok.SignedString([]byte(settings.Secret))
	require.NoError(t, err)

	id, err := utils.ParseAccessToken(settings, raw)
	require.NoError(t, err)
	require.Equal(t, []string{"ADMIN", "DRIVER"}, id.Roles)
}

func TestRefreshTokens(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	a, err := utils.NewRefreshToken(now, time.Hour)
	require.NoError(t, err)
	b, err := utils.NewRefreshToken(now, time.Hour)
	require.NoError(t, err)

	require.Len(t, a.Raw, 96)
	require.NotEqual(t, a.Raw, b.Raw)
	require.Equal(t, now.Add(time.Hour), a.Exp)
	require.Len(t, utils.HashRefreshRaw(a.Raw), 64)
	require.Equal(t, utils.HashRefreshRaw(a.Raw), utils.HashRefreshRaw(a.Raw))
	require.NotEqual(t, a.Raw, utils.HashRefreshRaw(a.Raw))
}

func TestPasswordHasher(t *testing.T) {
	t.Parallel()
	h := utils.PasswordHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)
	require.True(t, h.Verify(hash, "correct-horse"))
	require.False(t, h.Verify(hash, "wrong-horse"))
	require.False(t, h.Verify("not-a-hash", "correct-horse"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)

	fallback, err := utils.PasswordHasher{Cost: 99}.Hash("x")
	require.NoError(t, err)
	cost, err = bcrypt.Cost([]byte(fallback))
	require.NoError(t, err)
	require.Equal(t, bcrypt.DefaultCost, cost)
}
