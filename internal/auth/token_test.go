package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, secret string, ttl time.Duration) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(secret, ttl)
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	issuer := newIssuer(t, "k", 0)
	assert.Equal(t, DefaultTokenTTL, issuer.ttl)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newIssuer(t, "super-secret", time.Hour)

	tok, err := issuer.Issue("user-123")
	require.NoError(t, err)

	id, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
}

func TestIssue_ExpiresOneHourAfterIssuance(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, fixed.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, "u1", claims.UserID)
}

func TestIssue_TokensAreFresh(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)

	first, err := issuer.Issue("u1")
	require.NoError(t, err)
	second, err := issuer.Issue("u1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestIssue_RequiresIdentity(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	_, err := issuer.Issue("")
	assert.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }

	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newIssuer(t, "right-secret", time.Hour).Issue("u2")
	require.NoError(t, err)

	_, err = newIssuer(t, "wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_TamperedPayload(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	other, err := issuer.Issue("admin")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	otherParts := strings.Split(other, ".")
	forged := strings.Join([]string{parts[0], otherParts[1], parts[2]}, ".")

	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "u1",
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	_, err := issuer.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_MissingUserID(t *testing.T) {
	issuer := newIssuer(t, "k", time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
