package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/fhr/attendance-engine/attendance"
)

// =============================================================================
// GOV OPEN-DATA CLIENT - Remote source with retry/backoff
// =============================================================================

const defaultBaseURL = "https://data.gov.tw/api/v1/rest/datastore_search"

// GovOptions tunes the open-data client. Zero values take the defaults:
// three retries, 500ms initial backoff, 8s cap.
type GovOptions struct {
	BaseURL     string
	MaxRetries  int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
	HTTPClient  *http.Client
}

type GovClient struct {
	baseURL     string
	maxRetries  uint64
	backoffBase time.Duration
	maxBackoff  time.Duration
	http        *http.Client
	log         zerolog.Logger
}

func NewGovClient(opts GovOptions, log zerolog.Logger) *GovClient {
	c := &GovClient{
		baseURL:     defaultBaseURL,
		maxRetries:  3,
		backoffBase: 500 * time.Millisecond,
		maxBackoff:  8 * time.Second,
		http:        &http.Client{Timeout: 10 * time.Second},
		log:         log.With().Str("component", "holiday-api").Logger(),
	}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if opts.MaxRetries > 0 {
		c.maxRetries = uint64(opts.MaxRetries)
	}
	if opts.BackoffBase > 0 {
		c.backoffBase = opts.BackoffBase
	}
	if opts.MaxBackoff > 0 {
		c.maxBackoff = opts.MaxBackoff
	}
	if opts.HTTPClient != nil {
		c.http = opts.HTTPClient
	}
	return c
}

type govResponse struct {
	Result struct {
		Records []struct {
			Date      string `json:"date"`
			IsHoliday int    `json:"isHoliday"`
		} `json:"records"`
	} `json:"result"`
}

// Load fetches one year of holidays. Transient failures (connection errors,
// 429, 5xx, an empty record set) are retried with exponential backoff and
// jitter; other HTTP statuses fail immediately.
func (c *GovClient) Load(ctx context.Context, year int) (Set, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoffBase
	policy.MaxInterval = c.maxBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0.1

	var out Set
	attempt := 0
	op := func() error {
		attempt++
		c.log.Info().Int("year", year).Int("attempt", attempt).Msg("loading holidays")
		set, err := c.fetch(ctx, year)
		if err != nil {
			return err
		}
		if len(set) == 0 {
			return fmt.Errorf("holiday API returned no holiday records for %d", year)
		}
		out = set
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GovClient) fetch(ctx context.Context, year int) (Set, error) {
	q := url.Values{}
	q.Set("resource_id", "W2")
	q.Set("filters", fmt.Sprintf(`{"date":"%d"}`, year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build holiday request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday request: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("holiday API transient status %d", resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("holiday API status %d", resp.StatusCode))
	}

	var body govResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode holiday response: %w", err)
	}

	out := make(Set)
	for _, rec := range body.Result.Records {
		if rec.IsHoliday != 1 || rec.Date == "" {
			continue
		}
		d, err := time.Parse(attendance.DateOnly, rec.Date)
		if err != nil {
			c.log.Warn().Str("date", rec.Date).Msg("skipping malformed holiday date")
			continue
		}
		out[attendance.Day(d)] = struct{}{}
	}
	return out, nil
}
