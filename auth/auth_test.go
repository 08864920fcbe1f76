package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "HS256")
	require.NoError(t, err)

	tok, err := v.Sign("alice")
	require.NoError(t, err)

	user, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "HS256")
	require.NoError(t, err)
	other, err := NewJWTVerifier("different", "HS256")
	require.NoError(t, err)
	foreign, err := other.Sign("alice")
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
	for _, tok := range []string{"garbage", foreign, noSub, wrongAlg} {
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestNewJWTVerifier_Config(t *testing.T) {
	_, err := NewJWTVerifier("", "HS256")
	assert.Error(t, err)
	_, err = NewJWTVerifier("k", "RS256")
	assert.Error(t, err)
	_, err = NewJWTVerifier("k", "HS384")
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", BearerToken(r))

	r.Header.Set("Authorization", "abc")
	assert.Equal(t, "abc", BearerToken(r))
}

func TestCookieToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", CookieToken(r, "token"))
	r.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	assert.Equal(t, "abc", CookieToken(r, "token"))
}
