package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-intake/internal/config"
	"github.com/jonathan/resume-intake/internal/types"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testJWTSecret,
		ExpirationHours: expirationHours,
	})
}

// signClaims signs arbitrary claims with the test secret
func signClaims(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := setupTestJWTService(t, 12)
	userID := uuid.New()

	token, err := service.GenerateToken(userID, types.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, types.RoleAdmin, claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_TokensDifferPerUser(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token1, err := service.GenerateToken(uuid.New(), types.RoleCandidate)
	require.NoError(t, err)
	token2, err := service.GenerateToken(uuid.New(), types.RoleCandidate)
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	service := setupTestJWTService(t, 24)
	now := time.Now()

	other := NewJWTService(&config.JWTConfig{Secret: "different-secret-key-for-jwt-signing-minimum-32-bytes", ExpirationHours: 24})
	foreign, err := other.GenerateToken(uuid.New(), types.RoleCandidate)
	require.NoError(t, err)

	expired := signClaims(t, &Claims{
		UserID: uuid.New(),
		Role:   types.RoleCandidate,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	})

	valid := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}
	noUser := signClaims(t, &Claims{Role: types.RoleAdmin, RegisteredClaims: valid})
	badRole := signClaims(t, &Claims{UserID: uuid.New(), Role: "superuser", RegisteredClaims: valid})

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: uuid.New(), Role: types.RoleAdmin, RegisteredClaims: valid,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		errPart string
	}{
		{name: "empty", token: "", errPart: "empty"},
		{name: "one part", token: "invalid"},
		{name: "four parts", token: "invalid.token.format.extra"},
		{name: "invalid base64", token: "invalid.base64.signature"},
		{name: "other secret", token: foreign, errPart: "signature"},
		{name: "expired", token: expired, errPart: "expired"},
		{name: "missing user", token: noUser, errPart: "identity"},
		{name: "unknown role", token: badRole, errPart: "identity"},
		{name: "unsigned", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			if tt.errPart != "" {
				assert.Contains(t, err.Error(), tt.errPart)
			}
		})
	}
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	userID := uuid.New()

	token, err := service.GenerateToken(userID, types.RoleRecruiter)
	require.NoError(t, err)

	principal, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.GetUserID())
	assert.Equal(t, types.RoleRecruiter, principal.GetRole())

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}
