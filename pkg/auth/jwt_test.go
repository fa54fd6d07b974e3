package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/telehealth-api/internal/model"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	user := &model.User{
		Email: "doc@example.com",
		Role:  model.UserRoleDoctor,
	}
	user.ID = uuid.New()

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, user.Email, session.Email)
	assert.Equal(t, model.UserRoleDoctor, session.Role)
}

func TestJWTService_WrongSecretRejected(t *testing.T) {
	issuer := NewJWTService(JWTConfig{Secret: "secret-a", ExpiryHours: 1})
	verifier := NewJWTService(JWTConfig{Secret: "secret-b", ExpiryHours: 1})

	user := &model.User{Email: "p@example.com", Role: model.UserRolePatient}
	user.ID = uuid.New()

	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "test-secret", ExpiryHours: -1})

	user := &model.User{Email: "p@example.com", Role: model.UserRolePatient}
	user.ID = uuid.New()

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_GarbageRejected(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "test-secret", ExpiryHours: 1})

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
