package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)

	token, err := svc.GenerateToken("u1", "ann@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "u1", claims.Subject)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := New("one", time.Hour).GenerateToken("u1", "")
	require.NoError(t, err)

	_, err = New("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := New("secret", -time.Minute)
	token, err := svc.GenerateToken("u1", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsMissingUser(t *testing.T) {
	svc := New("secret", time.Hour)
	token, err := svc.GenerateToken("", "ann@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
