package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier turns a token into the username it was issued to.
type Verifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier checks HMAC-signed tokens whose "sub" claim is the username.
type JWTVerifier struct {
	secret    []byte
	algorithm string
}

func NewJWTVerifier(secret, algorithm string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("secret key is empty")
	}
	if _, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &JWTVerifier{secret: []byte(secret), algorithm: algorithm}, nil
}

func (v *JWTVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{v.algorithm}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return sub, nil
}

// Sign issues a token for user. Useful for tooling and tests; the canvas
// itself never issues tokens.
func (v *JWTVerifier) Sign(user string) (string, error) {
	t := jwt.NewWithClaims(jwt.GetSigningMethod(v.algorithm), jwt.MapClaims{"sub": user})
	return t.SignedString(v.secret)
}

// BearerToken reads the Authorization header. Both "Bearer <token>" and a
// bare token are accepted.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// CookieToken reads the token cookie sent with a websocket handshake.
func CookieToken(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
