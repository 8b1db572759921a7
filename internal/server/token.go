package server

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const tokenCookie = "ft_token"

type sessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func issueToken(secret string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	return signed, errors.Wrap(err, "sign token")
}

func parseToken(secret, tokenStr string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
