package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	rosterrors "github.com/lumahq/roster/pkg/errors"
	"github.com/lumahq/roster/pkg/logging"
)

// Default client settings.
const (
	DefaultRequestTimeout = 15 * time.Second
)

// TokenProvider supplies the bearer token for directory requests.
// Token acquisition itself is out of scope; the credentials package
// provides an implementation.
type TokenProvider func() (string, error)

// StaticToken returns a TokenProvider that always yields the given token.
func StaticToken(token string) TokenProvider {
	return func() (string, error) { return token, nil }
}

// HTTPClient is a REST adapter implementing Client and PresenceProvider
// against a Graph-style directory API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	token   TokenProvider
	logger  logging.Logger
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	// BaseURL is the directory service root, e.g. "https://dir.internal".
	BaseURL string

	// Token supplies the bearer token per request. Optional.
	Token TokenProvider

	// Timeout bounds each request. Defaults to DefaultRequestTimeout.
	Timeout time.Duration

	// Logger defaults to a nop logger.
	Logger logging.Logger
}

// NewHTTPClient creates a directory client for the given options.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPClient{
		baseURL: opts.BaseURL,
		httpc:   &http.Client{Timeout: timeout},
		token:   opts.Token,
		logger:  logger.With(logging.F("component", "directory_client")),
	}
}

// Search returns candidates for a free-text query, best match first.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	u := fmt.Sprintf("%s/v1/people/search?q=%s", c.baseURL, url.QueryEscape(query))

	var body struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := c.get(ctx, u, &body); err != nil {
		return nil, fmt.Errorf("searching directory for %q: %w", query, err)
	}
	return body.Candidates, nil
}

// LookupByEmail returns the candidate holding the exact email address.
func (c *HTTPClient) LookupByEmail(ctx context.Context, email string) (*Candidate, error) {
	u := fmt.Sprintf("%s/v1/people/by-email/%s", c.baseURL, url.PathEscape(email))

	var candidate Candidate
	if err := c.get(ctx, u, &candidate); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", email, err)
	}
	return &candidate, nil
}

// GetPresence returns presence for a single identity.
func (c *HTTPClient) GetPresence(ctx context.Context, id string) (*Presence, error) {
	u := fmt.Sprintf("%s/v1/presence/%s", c.baseURL, url.PathEscape(id))

	var presence Presence
	if err := c.get(ctx, u, &presence); err != nil {
		return nil, fmt.Errorf("fetching presence for %s: %w", id, err)
	}
	return &presence, nil
}

// GetPresenceBatch returns presence for up to BatchLimit identities. The
// service omits identities the token is not authorized to observe.
func (c *HTTPClient) GetPresenceBatch(ctx context.Context, ids []string) (map[string]Presence, error) {
	if len(ids) > BatchLimit {
		return nil, fmt.Errorf("presence batch of %d exceeds limit of %d", len(ids), BatchLimit)
	}

	payload, err := json.Marshal(struct {
		IDs []string `json:"ids"`
	}{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encoding presence batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/presence/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building presence batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body struct {
		Results map[string]Presence `json:"results"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, fmt.Errorf("fetching presence batch: %w", err)
	}
	return body.Results, nil
}

// get issues a GET request and decodes the JSON response into out.
func (c *HTTPClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, out)
}

// do executes the request with auth attached and maps error statuses to
// domain sentinels.
func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return fmt.Errorf("getting token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return rosterrors.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return rosterrors.ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
