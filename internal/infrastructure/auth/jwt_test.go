package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "rentflow-identity",
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{Issuer: "rentflow"})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService(t)
	owner := uuid.New()

	token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
		UserID:   owner,
		Username: "landlord",
		Roles:    []string{RoleOwner},
		TTL:      15 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(15*time.Minute), expiresAt)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	got, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, owner, got)
	assert.Equal(t, "landlord", claims.Username)
	assert.True(t, claims.HasRole(RoleOwner))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestJWTService_Expiry(t *testing.T) {
	svc := newTestJWTService(t)
	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New(), TTL: time.Minute})
	require.NoError(t, err)

	// Inside the leeway the token is still accepted.
	svc.now = func() time.Time { return testNow.Add(time.Minute + 10*time.Second) }
	_, err = svc.ValidateAccessToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return testNow.Add(2 * time.Minute) }
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	svc.now = func() time.Time { return testNow.Add(-time.Hour) }
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestJWTService_Rejections(t *testing.T) {
	svc := newTestJWTService(t)
	sign := func(method jwt.SigningMethod, key any, claims *Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "rentflow-identity",
				ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(testNow),
			},
			UserID: uuid.NewString(),
		}
	}

	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	noUser := valid()
	noUser.UserID = ""
	badUser := valid()
	badUser.UserID = "not-a-uuid"

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.token", ErrInvalidToken},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other-secret"), valid()), ErrInvalidToken},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte("test-secret-key-at-least-32-chars"), valid()), ErrInvalidToken},
		{"wrong issuer", sign(jwt.SigningMethodHS256, svc.secret, wrongIssuer), ErrInvalidToken},
		{"no expiry", sign(jwt.SigningMethodHS256, svc.secret, noExpiry), ErrInvalidToken},
		{"missing user", sign(jwt.SigningMethodHS256, svc.secret, noUser), ErrMissingUserID},
		{"malformed user", sign(jwt.SigningMethodHS256, svc.secret, badUser), ErrInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
