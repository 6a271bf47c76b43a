package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
)

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Minute, time.Hour)

	token, err := mgr.GenerateAccessToken("user-123")
	require.NoError(t, err)

	userID, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWTExpired(t *testing.T) {
	mgr := NewJWTManager("test-secret", -time.Minute, time.Hour)

	token, err := mgr.GenerateAccessToken("user-123")
	require.NoError(t, err)

	_, err = mgr.Validate(token)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestJWTWrongSecret(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Minute, time.Hour)
	other := NewJWTManager("other-secret", time.Minute, time.Hour)

	token, err := mgr.GenerateAccessToken("user-123")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestJWTGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Minute, time.Hour)
	_, err := mgr.Validate("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestGenerateOTP(t *testing.T) {
	code := GenerateOTP(6)
	require.Len(t, code, 6)
	for _, ch := range code {
		assert.True(t, ch >= '0' && ch <= '9')
	}
}
