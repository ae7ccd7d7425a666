package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/feelflow/auth-service/internal/adapters/db/postgres"
	"github.com/feelflow/auth-service/internal/adapters/transport/http/dto"
	"github.com/feelflow/auth-service/internal/adapters/transport/http/middleware"
	"github.com/feelflow/auth-service/internal/app/auth/jwt"
	"github.com/feelflow/auth-service/internal/app/auth/password"
	appsvc "github.com/feelflow/auth-service/internal/app/auth/service"
	authErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	"github.com/feelflow/auth-service/internal/domain/auth/model"
	"github.com/feelflow/auth-service/internal/infra/config"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

/* ───────────────────────────── fixtures ───────────────────────────── */

type fixture struct {
	router *gin.Engine
	jwt    *jwt.JwtUtilImpl
	db     *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "handler-secret",
		TokenTTL:       time.Hour,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := testConfig()
	util, err := jwt.NewJWTUtil(cfg)
	require.NoError(t, err)

	repo := postgres.NewPostgresUserRepo(db)
	svc := appsvc.New(repo, util, password.NewBcrypt(bcrypt.MinCost), validator.New())

	reg := prometheus.NewRegistry()
	router := NewRouter(RouterDeps{
		Handler:  NewHandler(svc, repo, zap.NewNop()),
		Logger:   zap.NewNop(),
		Config:   cfg,
		Metrics:  middleware.NewMetrics(reg),
		Registry: reg,
	})
	return fixture{router: router, jwt: util, db: db}
}

func (f fixture) do(t *testing.T, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestHTTP_AliceScenario(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, "POST", "/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, w.Code)
	require.Equal(t, "User registered", body["message"])
	_, err := uuid.Parse(body["user_id"].(string))
	require.NoError(t, err)

	w, body = f.do(t, "POST", "/login", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	}, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.Equal(t, "Login successful", body["message"])
	token := body["token"].(string)
	require.NotEmpty(t, token)

	w, body = f.do(t, "GET", "/profile", nil, bearer(token))
	require.Equal(t, nethttp.StatusOK, w.Code)
	profile := body["profile"].(map[string]any)
	require.Equal(t, "alice", profile["username"])
	require.Equal(t, "alice@example.com", profile["email"])
	require.NotEmpty(t, profile["created_at"])
	require.NotContains(t, profile, "password_hash")
	require.NotContains(t, w.Body.String(), "$2a$")

	w, body = f.do(t, "POST", "/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	}, nil)
	require.Equal(t, nethttp.StatusUnauthorized, w.Code)
	require.Equal(t, map[string]any{"error": "Invalid credentials"}, body)
}

func TestHTTP_RegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	reg := map[string]string{"username": "bob", "email": "bob@example.com", "password": "pw"}

	w, _ := f.do(t, "POST", "/register", reg, nil)
	require.Equal(t, nethttp.StatusCreated, w.Code)

	w, body := f.do(t, "POST", "/register", reg, nil)
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	require.Equal(t, "email already registered", body["error"])
}

func TestHTTP_RegisterBadInput(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, "POST", "/register", map[string]string{"username": "bob", "email": "bob@example.com"}, nil)
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	require.Equal(t, "password is required", body["error"])

	req := httptest.NewRequest("POST", "/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestHTTP_LoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, "POST", "/login", map[string]string{
		"email": "ghost@example.com", "password": "whatever",
	}, nil)
	require.Equal(t, nethttp.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid credentials", body["error"])
}

func TestHTTP_ProfileTokenErrors(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, "GET", "/profile", nil, nil)
	require.Equal(t, nethttp.StatusUnauthorized, w.Code)
	require.Equal(t, "Missing token", body["error"])

	w, body = f.do(t, "GET", "/profile", nil, bearer("garbage"))
	require.Equal(t, nethttp.StatusForbidden, w.Code)
	require.Equal(t, "Invalid token", body["error"])

	w, _ = f.do(t, "GET", "/profile", nil, map[string]string{"Authorization": "Token abc"})
	require.Equal(t, nethttp.StatusForbidden, w.Code)

	expired, _, err := f.jwt.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}).GenerateToken(uuid.New())
	require.NoError(t, err)
	w, _ = f.do(t, "GET", "/profile", nil, bearer(expired))
	require.Equal(t, nethttp.StatusForbidden, w.Code)
}

func TestHTTP_ProfileUserGone(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, "POST", "/register", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "pw",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, w.Code)
	token := body["token"].(string)

	require.NoError(t, f.db.Where("email = ?", "carol@example.com").Delete(&model.User{}).Error)

	w, body = f.do(t, "GET", "/profile", nil, bearer(token))
	require.Equal(t, nethttp.StatusNotFound, w.Code)
	require.Equal(t, "User not found", body["error"])
}

func TestHTTP_VerifyAndLogout(t *testing.T) {
	f := newFixture(t)
	_, body := f.do(t, "POST", "/register", map[string]string{
		"username": "dave", "email": "dave@example.com", "password": "pw",
	}, nil)
	token := body["token"].(string)

	w, body := f.do(t, "POST", "/verify", map[string]string{"token": token}, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	user := body["user"].(map[string]any)
	require.Equal(t, "dave@example.com", user["email"])

	w, _ = f.do(t, "POST", "/verify", map[string]string{"token": "nope"}, nil)
	require.Equal(t, nethttp.StatusForbidden, w.Code)

	w, _ = f.do(t, "POST", "/verify", map[string]string{}, nil)
	require.Equal(t, nethttp.StatusBadRequest, w.Code)

	w, body = f.do(t, "POST", "/logout", nil, bearer(token))
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.Equal(t, "Logged out", body["message"])

	// no server-side revocation: the token keeps working until it expires
	w, _ = f.do(t, "GET", "/profile", nil, bearer(token))
	require.Equal(t, nethttp.StatusOK, w.Code)
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, "GET", "/health", nil, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.Equal(t, "ok", body["status"])

	w, _ = f.do(t, "GET", "/metrics", nil, nil)
	require.Equal(t, nethttp.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `feelflow_auth_http_requests_total{method="GET",route="/health",status="200"} 1`)

	sqlDB, _ := f.db.DB()
	require.NoError(t, sqlDB.Close())
	w, body = f.do(t, "GET", "/health", nil, nil)
	require.Equal(t, nethttp.StatusServiceUnavailable, w.Code)
	require.Equal(t, "unavailable", body["status"])
}

func TestHTTP_CORSPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("OPTIONS", "/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, nethttp.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

type failingSvc struct{}

func (failingSvc) Register(context.Context, dto.RegisterDTO) (model.Session, error) {
	return model.Session{}, authErrors.WrapInternal(errors.New("disk full"), "Register")
}
func (failingSvc) Login(context.Context, dto.LoginDTO) (model.Session, error) {
	return model.Session{}, errors.New("unclassified")
}
func (failingSvc) Profile(context.Context, string) (model.Profile, error) {
	return model.Profile{}, authErrors.ErrNotFound
}
func (failingSvc) Verify(context.Context, dto.VerifyDTO) (model.Identity, error) {
	return model.Identity{}, authErrors.ErrInvalidToken
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func TestHTTP_InternalErrorsDoNotLeak(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	f := fixture{router: NewRouter(RouterDeps{
		Handler:  NewHandler(failingSvc{}, okPinger{}, zap.NewNop()),
		Logger:   zap.NewNop(),
		Config:   testConfig(),
		Metrics:  middleware.NewMetrics(reg),
		Registry: reg,
	})}

	w, body := f.do(t, "POST", "/register", map[string]string{"username": "x", "email": "x@example.com", "password": "p"}, nil)
	require.Equal(t, nethttp.StatusInternalServerError, w.Code)
	require.Equal(t, "internal server error", body["error"])
	require.NotContains(t, w.Body.String(), "disk full")

	w, _ = f.do(t, "POST", "/login", map[string]string{"email": "x@example.com", "password": "p"}, nil)
	require.Equal(t, nethttp.StatusInternalServerError, w.Code)
}

func TestHTTP_RoutersShareRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)
	deps := RouterDeps{
		Handler:  NewHandler(failingSvc{}, okPinger{}, zap.NewNop()),
		Logger:   zap.NewNop(),
		Config:   testConfig(),
		Metrics:  metrics,
		Registry: reg,
	}

	var a, b *gin.Engine
	require.NotPanics(t, func() {
		a = NewRouter(deps)
		b = NewRouter(deps)
	})

	for _, r := range []*gin.Engine{a, b} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		require.Equal(t, nethttp.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, w.Body.String(), `feelflow_auth_http_requests_total{method="GET",route="/health",status="200"} 2`)
}
