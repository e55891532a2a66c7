// Package cnam is a best-effort outbound client for a third-party
// Caller Name lookup API. A lookup failure of any kind — timeout,
// non-2xx, missing fields — resolves to a nil record; it never raises
// to the dialplan resolver.
package cnam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

// Config is the process-wide, immutable CNAM provider configuration
// loaded once at startup.
type Config struct {
	ProjectID string
	APIToken  string
	SpaceHost string
}

// Record is a successful CNAM lookup result.
type Record struct {
	NationalNumberFormatted string
	CallerID                string
	Location                string
}

// Client looks up caller-name records. A nil *Client, the zero value,
// or a client built by New with any credential missing always returns
// a nil record with no error, so enrichment is a no-op when CNAM
// credentials are absent rather than a startup failure.
type Client struct {
	httpClient *http.Client
	cfg        Config
	enabled    bool
	scheme     string // "https" in production; overridden by tests
}

// New creates a CNAM client from cfg. If any of the three fields are
// empty, the returned client is disabled and Lookup always returns
// (nil, nil) without making a network call.
func New(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Second},
		cfg:        cfg,
		enabled:    cfg.ProjectID != "" && cfg.APIToken != "" && cfg.SpaceHost != "",
		scheme:     "https",
	}
}

var tenDigit = regexp.MustCompile(`^\d{10}$`)

// normalizeNumber gives a 10-digit input a leading +1.
func normalizeNumber(number string) string {
	if tenDigit.MatchString(number) {
		return "+1" + number
	}
	return number
}

type lookupResponse struct {
	NationalNumberFormatted string `json:"national_number_formatted"`
	CNAM                    struct {
		CallerID string `json:"caller_id"`
	} `json:"cnam"`
	Location string `json:"location"`
}

// Lookup queries the CNAM provider for number. It never returns an
// error the caller needs to treat as fatal: a disabled client, a
// context deadline, a non-2xx response, or an incomplete payload all
// yield (nil, nil). The returned error is informational only, useful
// for logging at the call site.
func (c *Client) Lookup(ctx context.Context, number string) (*Record, error) {
	if c == nil || !c.enabled {
		return nil, nil
	}

	url := fmt.Sprintf("%s://%s/api/cnam/%s?project_id=%s", c.scheme, c.cfg.SpaceHost, normalizeNumber(number), c.cfg.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cnam: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("cnam lookup failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		slog.Warn("cnam: reading response failed", "error", err)
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("cnam lookup returned non-2xx", "status", resp.StatusCode)
		return nil, nil
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Warn("cnam: decoding response failed", "error", err)
		return nil, nil
	}

	if parsed.CNAM.CallerID == "" {
		return nil, nil
	}

	return &Record{
		NationalNumberFormatted: parsed.NationalNumberFormatted,
		CallerID:                parsed.CNAM.CallerID,
		Location:                parsed.Location,
	}, nil
}

// Enabled reports whether the client has credentials and will attempt
// real lookups.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}
