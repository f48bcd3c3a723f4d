package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "keep",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestPasswordHashing(t *testing.T) {
	tokens := testTokens()
	hash, err := tokens.HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=3,p=1$")

	assert.True(t, tokens.VerifyPassword("correct horse", hash))
	assert.False(t, tokens.VerifyPassword("wrong horse", hash))
}

func TestVerifyBcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, testTokens().VerifyPassword("legacy-pass", string(hash)))
}

func TestTokenPairRoundTrip(t *testing.T) {
	tokens := testTokens()
	pair, err := tokens.IssuePair(ownerID, "owner@example.com", "user")
	require.NoError(t, err)

	principal, email, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, ownerID, principal.ID)
	assert.Equal(t, "user", principal.Role)
	assert.Equal(t, "owner@example.com", email)

	subject, err := tokens.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, ownerID, subject)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	tokens := testTokens()
	pair, err := tokens.IssuePair(ownerID, "owner@example.com", "user")
	require.NoError(t, err)

	_, _, err = tokens.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tokens.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	forged := testTokens()
	forged.Secret = []byte("someone-else")
	pair, err := forged.IssuePair(ownerID, "owner@example.com", "admin")
	require.NoError(t, err)

	_, _, err = testTokens().ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
