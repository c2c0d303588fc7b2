// Package tracker reads transaction history from a remote tracker web app.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pwabucket/pwa-ai-earn/internal/resilience"
)

var tracer = otel.Tracer("tracker")

var (
	// ErrInvalidURL is returned for tracker links without usable web app data.
	ErrInvalidURL = errors.New("invalid tracker url")
	// ErrCircuitOpen is returned while the tracker circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("tracker unavailable")
)

// Options configures how a Client talks to the tracker.
type Options struct {
	HTTPClient *http.Client
	Breaker    *gobreaker.CircuitBreaker
	Resilience resilience.Config
	// ProxyURL, when set, receives every request as ?url=<original>.
	ProxyURL string
}

// Client talks to one tracker link on behalf of one user.
type Client struct {
	target   *url.URL
	proxy    *url.URL
	initData string
	userID   string
	custom   string
	opts     Options
}

// NewClient parses the tracker link and the web app data in its fragment.
func NewClient(rawURL string, opts Options) (*Client, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	initData, userID, err := parseWebAppData(target.EscapedFragment())
	if err != nil {
		return nil, err
	}

	c := &Client{
		target:   target,
		initData: initData,
		userID:   userID,
		opts:     opts,
	}
	if c.opts.HTTPClient == nil {
		c.opts.HTTPClient = http.DefaultClient
	}
	if opts.ProxyURL != "" {
		if c.proxy, err = url.Parse(opts.ProxyURL); err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
	}
	return c, nil
}

func parseWebAppData(fragment string) (string, string, error) {
	params, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	initData := params.Get("tgWebAppData")
	if initData == "" {
		return "", "", fmt.Errorf("%w: missing tgWebAppData", ErrInvalidURL)
	}

	data, err := url.ParseQuery(initData)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	var user struct {
		ID int64 `json:"id"`
	}
	if raw := data.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return "", "", fmt.Errorf("%w: invalid user: %v", ErrInvalidURL, err)
		}
	}
	if user.ID == 0 {
		return "", "", fmt.Errorf("%w: missing user id", ErrInvalidURL)
	}
	return initData, strconv.FormatInt(user.ID, 10), nil
}

// Origin is the scheme and host of the tracker link.
func (c *Client) Origin() string {
	return c.target.Scheme + "://" + c.target.Host
}

// UserID is the numeric id of the user the link belongs to.
func (c *Client) UserID() string {
	return c.userID
}

// SetCustomCode sets the value of the "custom" header sent with API calls.
func (c *Client) SetCustomCode(code string) {
	c.custom = code
}

type page[T any] struct {
	Data struct {
		List     []T `json:"list"`
		LastPage int `json:"lastPage"`
	} `json:"data"`
}

// FetchRecords reads every page of the transaction history.
func (c *Client) FetchRecords(ctx context.Context, pageSize int) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "tracker.Client.FetchRecords")
	defer span.End()
	span.SetAttributes(attribute.String("tracker.origin", c.Origin()))

	var records []Record
	for n := 1; ; n++ {
		q := url.Values{}
		q.Set("tg_id", c.userID)
		q.Set("page", strconv.Itoa(n))
		q.Set("pageSize", strconv.Itoa(pageSize))

		var p page[Record]
		if err := c.call(ctx, http.MethodGet, "/api/transactions?"+q.Encode(), nil, &p); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			return nil, err
		}
		records = append(records, p.Data.List...)
		if n >= p.Data.LastPage {
			break
		}
	}

	span.SetAttributes(attribute.Int("tracker.records", len(records)))
	return records, nil
}

// FetchInterests reads every page of the daily interest history.
func (c *Client) FetchInterests(ctx context.Context) ([]InterestRecord, error) {
	ctx, span := tracer.Start(ctx, "tracker.Client.FetchInterests")
	defer span.End()

	var records []InterestRecord
	for n := 1; ; n++ {
		body := map[string]any{"page": n, "pageSize": 5, "tg_id": c.userID}

		var p page[InterestRecord]
		if err := c.call(ctx, http.MethodPost, "/api/interest", body, &p); err != nil {
			span.RecordError(err)
			return nil, err
		}
		records = append(records, p.Data.List...)
		if n >= p.Data.LastPage {
			break
		}
	}
	return records, nil
}

// FetchPage downloads an absolute or origin-relative resource as text.
func (c *Client) FetchPage(ctx context.Context, ref string) (string, error) {
	var body string
	err := c.call(ctx, http.MethodGet, ref, nil, &body)
	return body, err
}

// call runs one request through the circuit breaker and retry loop.
// out may be *string for raw bodies; anything else is decoded as JSON.
func (c *Client) call(ctx context.Context, method, ref string, body, out any) error {
	run := func() error {
		return resilience.RetryWithBackoff(ctx, c.opts.Resilience, func() error {
			return c.do(ctx, method, ref, body, out)
		})
	}

	var err error
	if c.opts.Breaker != nil {
		_, err = c.opts.Breaker.Execute(func() (any, error) { return nil, run() })
	} else {
		err = run()
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, ref string, body, out any) error {
	target, err := c.resolve(ref)
	if err != nil {
		return resilience.Permanent(err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return resilience.Permanent(fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Authorization", c.initData)
	if c.custom != "" {
		req.Header.Set("custom", c.custom)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("tracker returned status %d for %s", resp.StatusCode, ref)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resilience.Permanent(err)
		}
		return err
	}

	if s, ok := out.(*string); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*s = string(b)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resilience.Permanent(fmt.Errorf("failed to decode tracker response: %w", err))
	}
	return nil
}

// resolve turns ref into an absolute URL on the tracker origin, wrapped by the proxy if set.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	abs := c.target.ResolveReference(u)
	if c.proxy == nil {
		return abs.String(), nil
	}

	p := *c.proxy
	q := p.Query()
	q.Set("url", abs.String())
	p.RawQuery = q.Encode()
	return p.String(), nil
}
