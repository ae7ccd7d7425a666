package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/feelflow/auth-service/internal/adapters/transport/http/dto"
	"github.com/feelflow/auth-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/feelflow/auth-service/internal/app/auth/service"
	authErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	lg "github.com/feelflow/auth-service/internal/infra/log"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgMissingToken       = "Missing token"
	msgInvalidToken       = "Invalid token"
	msgUserNotFound       = "User not found"
	msgInternal           = "internal server error"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc appsvc.Service
	db  Pinger
	log *zap.Logger
	now func() time.Time
}

func NewHandler(svc appsvc.Service, db Pinger, log *zap.Logger) *Handler {
	return &Handler{svc: svc, db: db, log: log, now: time.Now}
}

func (h *Handler) Mount(r gin.IRouter) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/profile", middleware.RequireBearer(h.handleError), h.profile)
	r.POST("/verify", h.verify)
	r.POST("/logout", h.logout)
	r.GET("/health", h.health)
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	h.log.Info("/register", lg.Email(body.Email))

	sess, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, dto.RegisterResponse{
		Message: "User registered",
		UserID:  sess.UserID.String(),
		Token:   sess.Token,
	})
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	h.log.Info("/login", lg.Email(body.Email))

	sess, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, dto.LoginResponse{
		Message:   "Login successful",
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
}

func (h *Handler) profile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), c.GetString(middleware.TokenKey))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"profile": profile})
}

func (h *Handler) verify(c *gin.Context) {
	var body dto.VerifyDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(nethttp.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	identity, err := h.svc.Verify(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"user": identity})
}

// logout only acknowledges: tokens are stateless and stay valid until they
// expire, the client is responsible for dropping its copy.
func (h *Handler) logout(c *gin.Context) {
	c.JSON(nethttp.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health: store unavailable", zap.Error(err))
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"status": "ok", "time": h.now().Unix()})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(nethttp.StatusBadRequest, dto.ErrorResponse{Error: authErrors.ClientMessage(err)})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(nethttp.StatusUnauthorized, dto.ErrorResponse{Error: msgInvalidCredentials})
	case authErrors.IsMissingToken(err):
		c.JSON(nethttp.StatusUnauthorized, dto.ErrorResponse{Error: msgMissingToken})
	case authErrors.IsInvalidToken(err):
		c.JSON(nethttp.StatusForbidden, dto.ErrorResponse{Error: msgInvalidToken})
	case authErrors.IsNotFound(err):
		c.JSON(nethttp.StatusNotFound, dto.ErrorResponse{Error: msgUserNotFound})
	default:
		_ = c.Error(err)
		c.JSON(nethttp.StatusInternalServerError, dto.ErrorResponse{Error: msgInternal})
	}
}
