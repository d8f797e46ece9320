package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskboard/internal/config"
)

// TokenTTL is the fixed expiration window of issued tokens.
const TokenTTL = time.Hour

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// or a payload missing the subject or email claim.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the decoded token payload.
type Claims struct {
	UserID int
	Email  string
}

// IssueToken signs an HS256 token carrying the user id as subject and the
// email, expiring after TokenTTL.
func IssueToken(userID int, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(TokenTTL).Unix(),
	})
	return token.SignedString(config.SecretKey)
}

// VerifyToken validates the signature and expiry, then requires both sub and
// email to be present. A structurally valid token without them is rejected,
// which guards against malformed or legacy tokens.
func VerifyToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return config.SecretKey, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, ok := mapClaims["sub"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	email, ok := mapClaims["email"].(string)
	if !ok || email == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: int(sub), Email: email}, nil
}
