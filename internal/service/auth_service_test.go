package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func newAuthServiceForTest() *AuthService {
	return NewAuthService(zap.NewNop(), AuthConfig{
		AccessTokenSecret: "access-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "sma-timetable",
	})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newAuthServiceForTest()

	token, expiresAt, err := svc.IssueToken("user-1", models.RoleAdmin, "admin@example.com", "Admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "sma-timetable", claims.Issuer)
}

func TestAuthServiceIssueTokenRejectsBadIdentity(t *testing.T) {
	svc := newAuthServiceForTest()

	_, _, err := svc.IssueToken("", models.RoleAdmin, "", "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.IssueToken("user-1", models.UserRole("JANITOR"), "", "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other-secret"})
	token, _, err := other.IssueToken("user-1", models.RoleTeacher, "", "")
	require.NoError(t, err)

	_, err = newAuthServiceForTest().ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenChecksIssuer(t *testing.T) {
	foreign := NewAuthService(nil, AuthConfig{AccessTokenSecret: "access-secret", Issuer: "another-portal"})
	token, _, err := foreign.IssueToken("user-1", models.RoleAdmin, "", "")
	require.NoError(t, err)

	_, err = newAuthServiceForTest().ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	anyIssuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "access-secret"})
	claims, err := anyIssuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "another-portal", claims.Issuer)
}

func TestAuthServiceValidateTokenRejectsExpired(t *testing.T) {
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = newAuthServiceForTest().ValidateToken(token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleAdmin}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = newAuthServiceForTest().ValidateToken(token)
	assert.Error(t, err)
}
