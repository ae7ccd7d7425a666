// Package client is the programmatic side of the FeelFlow client shell: it
// talks to the auth service over HTTP and caches the issued token locally.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/feelflow/auth-service/internal/adapters/transport/http/dto"
	customErrors "github.com/feelflow/auth-service/internal/domain/auth/errors"
	"github.com/feelflow/auth-service/internal/domain/auth/model"
	"github.com/sethvargo/go-retry"
)

type Client struct {
	baseURL string
	hc      *http.Client
	store   TokenStore
	retries uint64
	backoff time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.store = s }
}

// WithRetries retries requests that failed to reach the service. Auth
// failures are never retried.
func WithRetries(n uint64, base time.Duration) Option {
	return func(c *Client) { c.retries, c.backoff = n, base }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 10 * time.Second},
		store:   NewMemoryStore(),
		backoff: 200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) IsAuthenticated() bool {
	_, ok := c.store.Load()
	return ok
}

// Register creates the account and signs the user in with the returned token.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var out dto.RegisterResponse
	err := c.do(ctx, http.MethodPost, "/register", "", dto.RegisterDTO{
		Username: username, Email: email, Password: password,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Token != "" {
		if err := c.store.Save(out.Token); err != nil {
			return "", customErrors.WrapInternal(err, "save token")
		}
	}
	return out.UserID, nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", "", dto.LoginDTO{Email: email, Password: password}, &out)
	if err != nil {
		return err
	}
	if err := c.store.Save(out.Token); err != nil {
		return customErrors.WrapInternal(err, "save token")
	}
	return nil
}

func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	token, ok := c.store.Load()
	if !ok {
		return model.Profile{}, customErrors.ErrMissingToken
	}

	var out struct {
		Profile model.Profile `json:"profile"`
	}
	err := c.do(ctx, http.MethodGet, "/profile", token, nil, &out)
	if customErrors.IsInvalidToken(err) {
		// expired or foreign token: fall back to signed-out
		_ = c.store.Clear()
	}
	if err != nil {
		return model.Profile{}, err
	}
	return out.Profile, nil
}

// Logout drops the cached token. The service is told as a courtesy; it keeps
// no session, so an unreachable service does not fail the logout.
func (c *Client) Logout(ctx context.Context) error {
	token, _ := c.store.Load()
	if err := c.store.Clear(); err != nil {
		return customErrors.WrapInternal(err, "clear token")
	}
	if token != "" {
		_ = c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return customErrors.WrapInternal(err, "encode request")
		}
		payload = b
	}

	attempt := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return customErrors.WrapInternal(err, "build request")
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return retry.RetryableError(customErrors.WrapNetwork(err, method+" "+path))
		}
		defer resp.Body.Close()
		return decode(resp, out)
	}

	// with zero retries the first network failure is returned unwrapped
	return retry.Do(ctx, retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff)), attempt)
}

func decode(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return customErrors.WrapNetwork(err, "read response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return customErrors.WrapInternal(err, "decode response")
		}
		return nil
	}

	var e dto.ErrorResponse
	_ = json.Unmarshal(body, &e)
	return statusError(resp.StatusCode, e.Error)
}

func statusError(code int, msg string) error {
	var kind error
	switch code {
	case http.StatusBadRequest:
		kind = customErrors.ErrInvalidArgument
	case http.StatusUnauthorized:
		kind = customErrors.ErrInvalidCredentials
		if msg == "Missing token" {
			kind = customErrors.ErrMissingToken
		}
	case http.StatusForbidden:
		kind = customErrors.ErrInvalidToken
	case http.StatusNotFound:
		kind = customErrors.ErrNotFound
	default:
		kind = customErrors.ErrInternal
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return fmt.Errorf("%w: %s", kind, msg)
}
