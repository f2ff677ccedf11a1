// internal/pkg/token/token_test.go
package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(Config{
		Secret: "test-secret",
		Issuer: "instaup",
		TTL:    time.Hour,
	})
}

func TestGenerateAndVerify(t *testing.T) {
	m := testManager()

	signed, jti, expiresAt, err := m.Generate("u1")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := m.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, jti, claims.ID)
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, _, _, err := testManager().Generate("u1")
	require.NoError(t, err)

	other := NewManager(Config{Secret: "different", Issuer: "instaup", TTL: time.Hour})
	_, err = other.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyWrongIssuer(t *testing.T) {
	other := NewManager(Config{Secret: "test-secret", Issuer: "someone-else", TTL: time.Hour})
	signed, _, _, err := other.Generate("u1")
	require.NoError(t, err)

	_, err = testManager().Verify(signed)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager(Config{Secret: "test-secret", Issuer: "instaup", TTL: -time.Minute})
	signed, _, _, err := m.Generate("u1")
	require.NoError(t, err)

	_, err = testManager().Verify(signed)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := testManager().Verify("not.a.token")
	assert.Error(t, err)
}
