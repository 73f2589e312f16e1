package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func TestTokenPairRoundTrip(t *testing.T) {
	access, refresh, err := GenerateTokenPair(42, testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	userID, tokenType, err := ParseToken(access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, TokenTypeAccess, tokenType)

	userID, tokenType, err = ParseToken(refresh, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, TokenTypeRefresh, tokenType)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	access, _, err := GenerateTokenPair(7, testSecret, time.Hour, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken(access, "a-different-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	access, _, err := GenerateTokenPair(7, testSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken(access, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, _, err := ParseToken("not.a.jwt", testSecret)
	assert.Error(t, err)
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
