package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	src := NewTokenSource("s3cret", "tester")
	require.NotNil(t, src)

	tok, err := src.Token()
	require.NoError(t, err)

	claims, err := Verify("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "tester", claims.Subject)
	assert.Equal(t, "chainview", claims.Client)

	_, err = Verify("other", tok)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	src := NewTokenSource("s3cret", "tester")
	src.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := src.Token()
	require.NoError(t, err)
	_, err = Verify("s3cret", tok)
	assert.Error(t, err)
}

func TestNoSecretNoSource(t *testing.T) {
	assert.Nil(t, NewTokenSource("", "tester"))
}

func TestWithTTL(t *testing.T) {
	src := NewTokenSource("secret", "cli").WithTTL(time.Hour)
	token, err := src.Token()
	require.NoError(t, err)
	claims, err := Verify("secret", token)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}
