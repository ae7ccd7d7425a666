package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

type JWTUtil interface {
	GenerateToken(userID uuid.UUID) (token string, exp time.Time, err error)
	ValidateToken(token string) (claims Claims, err error)
}
