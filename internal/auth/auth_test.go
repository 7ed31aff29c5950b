package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	tok, err := v.IssueToken("alice", time.Hour)
	require.NoError(t, err)

	assert.NoError(t, v.VerifyIdentity(tok, "alice"))
	assert.ErrorIs(t, v.VerifyIdentity(tok, "bob"), ErrAccountMismatch)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewTokenVerifier("s3cret")

	other, err := NewTokenVerifier("different").IssueToken("alice", time.Hour)
	require.NoError(t, err)
	assert.ErrorIs(t, v.VerifyIdentity(other, "alice"), ErrInvalidToken)

	expired, err := v.IssueToken("alice", -time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, v.VerifyIdentity(expired, "alice"), ErrInvalidToken)

	assert.ErrorIs(t, v.VerifyIdentity("", "alice"), ErrInvalidToken)
	assert.ErrorIs(t, v.VerifyIdentity("not-a-jwt", "alice"), ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"account_id": "alice"})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.ErrorIs(t, v.VerifyIdentity(none, "alice"), ErrInvalidToken)
}

func TestAdminToken(t *testing.T) {
	hash, err := HashAdminToken("letmein")
	require.NoError(t, err)

	assert.True(t, VerifyAdminToken(hash, "letmein"))
	assert.False(t, VerifyAdminToken(hash, "wrong"))
	assert.False(t, VerifyAdminToken("", "letmein"))
	assert.False(t, VerifyAdminToken(hash, ""))
}
