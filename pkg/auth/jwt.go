package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the identity embedded in a session token. The server
// keeps no session record; the signed token is the whole session.
type SessionClaims struct {
	Sub   string `json:"sub"` // user id
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var errInvalidToken = errors.New("invalid token")

// NewSessionToken mints a signed token binding a user identity for ttl.
func NewSessionToken(userID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Sub:   userID,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"menuqr-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken verifies signature and expiry. Callers get the
// embedded identity or an error; the error never says which check
// failed (bad signature, expired, malformed all look the same).
func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errInvalidToken
	}
	if claims, ok := tok.Claims.(*SessionClaims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errInvalidToken
}
