package jwt

import (
	"errors"
	"time"

	customErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	jwt2 "github.com/feelflow/auth-service/internal/domain/auth/jwt"
	"github.com/feelflow/auth-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JwtUtilImpl struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty secret"), "NewJWTUtil")
	}
	if cfg.TokenTTL <= 0 {
		return nil, customErrors.WrapInternal(errors.New("non-positive ttl"), "NewJWTUtil")
	}

	return &JwtUtilImpl{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and validating.
func (j *JwtUtilImpl) WithClock(now func() time.Time) *JwtUtilImpl {
	cp := *j
	cp.now = now
	return &cp
}

func (j *JwtUtilImpl) GenerateToken(userID uuid.UUID) (string, time.Time, error) {
	now := j.now()

	claims := jwt2.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID: userID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) ValidateToken(raw string) (jwt2.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt2.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)

	if err != nil || !token.Valid {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.Claims)
	if !ok {
		return jwt2.Claims{}, customErrors.WrapInternal(
			errors.New("claims not Claims"), "ValidateToken",
		)
	}

	if _, err := uuid.Parse(claims.UserID); err != nil {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}
