package middleware

import (
	"strings"

	customErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
)

const TokenKey = "bearer_token"

// ExtractBearer returns the token from an Authorization header value.
// An absent header is ErrMissingToken; anything not shaped like
// "Bearer <token>" is ErrInvalidToken.
func ExtractBearer(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", customErrors.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", customErrors.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsRune(token, ' ') {
		return "", customErrors.ErrInvalidToken
	}
	return token, nil
}

// RequireBearer stores the bearer token under TokenKey or hands the
// extraction error to onError and aborts.
func RequireBearer(onError func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearer(c.GetHeader("Authorization"))
		if err != nil {
			onError(c, err)
			c.Abort()
			return
		}
		c.Set(TokenKey, token)
		c.Next()
	}
}
