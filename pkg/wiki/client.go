// Package wiki provides a client for the Wikipedia action API and REST API.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/Mabumabu-01/it-terms/pkg/common"
)

const (
	// DefaultUserAgent follows Wikipedia's etiquette of identifying the
	// tool with a contact URL.
	DefaultUserAgent = "it-terms-harvester/0.1 (+https://github.com/Mabumabu-01/it-terms)"

	DefaultTimeout     = 30 * time.Second
	DefaultMinInterval = 800 * time.Millisecond

	// categoryPageSize is the cmlimit sent per listing request.
	categoryPageSize = 500
)

// RetryPolicy controls how transient transport failures are retried.
// Only the listed status codes are retried; anything else is returned to the
// caller on the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Statuses    []int
}

// DefaultRetryPolicy mirrors the upstream etiquette recommendations:
// up to 5 attempts with multiplicative backoff on rate-limit and server
// error statuses, honoring Retry-After when the server supplies one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseBackoff: 1200 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
		Statuses:    []int{429, 500, 502, 503, 504},
	}
}

func (p RetryPolicy) retryable(status int) bool {
	for _, s := range p.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// backoff returns the delay before the given retry (0-based), doubling from
// BaseBackoff and capped at MaxBackoff.
func (p RetryPolicy) backoff(retry int) time.Duration {
	d := p.BaseBackoff
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Summary is the subset of the REST page summary the harvester consumes.
type Summary struct {
	Title   string
	Type    string
	Extract string
	PageURL string
}

// Client talks to one language edition of Wikipedia.
type Client struct {
	lang       string
	actionURL  string
	restURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	retry      RetryPolicy
	userAgent  string
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURLs overrides the action API and REST API base URLs (tests).
func WithBaseURLs(actionURL, restURL string) ClientOption {
	return func(c *Client) {
		c.actionURL = actionURL
		c.restURL = restURL
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMinInterval sets the minimum spacing between outbound requests.
// A zero interval disables the throttle.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the given language edition (e.g. "ja").
func NewClient(lang string, opts ...ClientOption) *Client {
	c := &Client{
		lang:      lang,
		actionURL: fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		restURL:   fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1", lang),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:    common.NewSilentLogger(),
		limiter:   rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		retry:     DefaultRetryPolicy(),
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lang returns the language code the client was built for.
func (c *Client) Lang() string {
	return c.lang
}

// get performs a throttled GET with the client's retry policy. The returned
// response may carry any non-retryable status; the caller decides what a
// non-200 means. Exhausting retries is an error.
func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt+1 < c.retry.MaxAttempts {
				if err := c.sleep(ctx, c.retry.backoff(attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		if !c.retry.retryable(resp.StatusCode) {
			return resp, nil
		}

		wait := c.retry.backoff(attempt)
		if ra := parseRetryAfter(resp.Header.Get("Retry-After")); ra > wait {
			wait = ra
		}
		resp.Body.Close()
		lastErr = fmt.Errorf("%s returned status %s", reqURL, resp.Status)

		if attempt+1 < c.retry.MaxAttempts {
			c.logger.Debug().
				Int("attempt", attempt+1).
				Int("status", resp.StatusCode).
				Dur("wait", wait).
				Msg("retrying request")

			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter understands both forms of the Retry-After header:
// a delay in seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// CategoryMembers returns one page of article titles in the named category,
// plus the continuation token for the next page ("" when the listing is
// exhausted). Pages outside the article namespace are discarded.
func (c *Client) CategoryMembers(ctx context.Context, category, cont string) ([]string, string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "categorymembers")
	q.Set("cmtitle", "Category:"+category)
	q.Set("cmlimit", strconv.Itoa(categoryPageSize))
	q.Set("format", "json")
	if cont != "" {
		q.Set("cmcontinue", cont)
	}

	resp, err := c.get(ctx, c.actionURL+"?"+q.Encode())
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("category listing for %q returned status %s", category, resp.Status)
	}

	var payload struct {
		Query struct {
			CategoryMembers []struct {
				Title string `json:"title"`
				NS    int    `json:"ns"`
			} `json:"categorymembers"`
		} `json:"query"`
		Continue struct {
			CMContinue string `json:"cmcontinue"`
		} `json:"continue"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode category listing: %w", err)
	}

	var titles []string
	for _, m := range payload.Query.CategoryMembers {
		if m.NS != 0 {
			continue
		}
		titles = append(titles, m.Title)
	}

	c.logger.Debug().
		Str("category", category).
		Int("titles", len(titles)).
		Bool("more", payload.Continue.CMContinue != "").
		Msg("category page fetched")

	return titles, payload.Continue.CMContinue, nil
}

// Summary fetches the REST page summary for a title. A page that has no
// usable summary (any non-200 status, e.g. 404 for a missing page) yields
// (nil, nil) rather than an error; only transport failures that exhaust the
// retry policy are errors.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	reqURL := c.restURL + "/page/summary/" + url.PathEscape(title)

	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Str("title", title).Int("status", resp.StatusCode).Msg("no summary")
		return nil, nil
	}

	var payload struct {
		Title       string `json:"title"`
		Type        string `json:"type"`
		Extract     string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode summary for %q: %w", title, err)
	}

	return &Summary{
		Title:   payload.Title,
		Type:    payload.Type,
		Extract: payload.Extract,
		PageURL: payload.ContentURLs.Desktop.Page,
	}, nil
}
