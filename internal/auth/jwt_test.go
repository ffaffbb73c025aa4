package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("member-1", "org-1", "alice@example.com", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "member-1", claims.MemberID)
	assert.Equal(t, "org-1", claims.OrgID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "msgcore", claims.Issuer)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("member-1", "org-1", "", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("member-1", "org-1", "", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", "secret")
	assert.Error(t, err)
}
