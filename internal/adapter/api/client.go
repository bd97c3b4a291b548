// Package api is the REST client for the planner server.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"astroplanner/internal/domain"
	"astroplanner/internal/logging"
	"astroplanner/internal/planner"
)

// Client talks to the planner REST API. Once a token is set it is attached
// to every request.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.RWMutex
	token      string
	httpClient *http.Client
}

var _ planner.API = (*Client)(nil)

// New creates a client for baseURL. A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("api"),
	}
	c.httpClient = c.baseClient()
	return c
}

func (c *Client) baseClient() *http.Client {
	return &http.Client{Timeout: c.timeout}
}

// SetToken attaches token to all subsequent requests. An empty token
// detaches it.
func (c *Client) SetToken(token string) {
	hc := c.baseClient()
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
		hc.Timeout = c.timeout
	}

	c.mu.Lock()
	c.token = token
	c.httpClient = hc
	c.mu.Unlock()
	c.logger.Debug("Token attached", zap.String("token", logging.RedactToken(token)))
}

// Token returns the attached token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) client() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpClient
}

type errorBody struct {
	Detail any `json:"detail"`
}

// apiError builds an APIError from a failed response body, keeping the
// server's detail message when it is a string.
func apiError(status int, body []byte) *domain.APIError {
	e := &domain.APIError{StatusCode: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if s, ok := eb.Detail.(string); ok {
			e.Detail = s
		}
	}
	return e
}

// request sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil). A *[]byte out receives the raw body.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("Request failed", zap.String("op", op), zap.Int("status", resp.StatusCode))
		return apiError(resp.StatusCode, payload)
	}

	switch o := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*o = payload
		return nil
	default:
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		return nil
	}
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.User, error) {
	in := map[string]string{"email": email, "password": password}
	var user domain.User
	if err := c.request(ctx, http.MethodPost, "/auth/register", nil, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for an access token with the OAuth2 password
// grant and attaches the token to the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	conf := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + "/auth/login",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.baseClient())

	tok, err := conf.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", apiError(re.Response.StatusCode, re.Body)
		}
		return "", &domain.TransportError{Op: "POST /auth/login", Err: err}
	}

	c.SetToken(tok.AccessToken)
	return tok.AccessToken, nil
}

// Logout revokes the attached token and detaches it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.request(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.request(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
