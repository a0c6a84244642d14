package client

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "player-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestCheckToken(t *testing.T) {
	t.Run("empty token passes", func(t *testing.T) {
		assert.NoError(t, checkToken(""))
	})

	t.Run("opaque token passes", func(t *testing.T) {
		assert.NoError(t, checkToken("not-a-jwt"))
	})

	t.Run("valid jwt passes", func(t *testing.T) {
		assert.NoError(t, checkToken(signedToken(t, time.Now().Add(time.Hour))))
	})

	t.Run("expired jwt rejected", func(t *testing.T) {
		err := checkToken(signedToken(t, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("jwt without exp passes", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "player-1"})
		s, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		assert.NoError(t, checkToken(s))
	})
}
