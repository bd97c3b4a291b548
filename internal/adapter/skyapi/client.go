// Package skyapi calls an external service that computes target altitudes
// and visibility for a place and instant.
package skyapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"astroplanner/internal/domain"
)

// Client implements domain.SkyProvider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ domain.SkyProvider = (*Client)(nil)

// NewClient creates a sky service client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("skyapi"),
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Targets returns the evaluated catalog for the given place and UTC instant.
// The result is passed through unmodified.
func (c *Client) Targets(ctx context.Context, latitude, longitude float64, at time.Time) ([]domain.VisibleTarget, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(latitude, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(longitude, 'f', -1, 64)},
		"at":  {at.UTC().Format(time.RFC3339)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/targets?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sky service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Sky service returned error", zap.Int("status", resp.StatusCode))
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Detail != "" {
			return nil, fmt.Errorf("sky service error: %d %s", resp.StatusCode, eb.Detail)
		}
		return nil, fmt.Errorf("sky service error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var targets []domain.VisibleTarget
	if err := json.Unmarshal(body, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return targets, nil
}
