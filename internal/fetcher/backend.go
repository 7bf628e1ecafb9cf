package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"betdesk/internal/domain"
)

const (
	opportunitiesPath = "/opportunities"
	betsPath          = "/bets"

	defaultUserAgent = "betdesk/1.0"
)

// BackendOptions parameterise the REST backend client.
type BackendOptions struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	UserAgent string
}

// Backend fetches records from the betting REST service.
type Backend struct {
	opts    BackendOptions
	logger  zerolog.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewBackend constructs a backend client. A zero rate limit disables throttling.
func NewBackend(opts BackendOptions, logger zerolog.Logger) *Backend {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Backend{
		opts:    opts,
		logger:  logger.With().Str("component", "backend_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// FetchOpportunities retrieves the opportunity list.
func (b *Backend) FetchOpportunities(ctx context.Context) ([]domain.Opportunity, error) {
	var out []domain.Opportunity
	if err := b.getList(ctx, opportunitiesPath, "opportunities", &out); err != nil {
		return nil, fmt.Errorf("fetch opportunities: %w", err)
	}
	return out, nil
}

// FetchBets retrieves placed bets.
func (b *Backend) FetchBets(ctx context.Context) ([]domain.Bet, error) {
	var out []domain.Bet
	if err := b.getList(ctx, betsPath, "bets", &out); err != nil {
		return nil, fmt.Errorf("fetch bets: %w", err)
	}
	return out, nil
}

// getList decodes either a bare JSON array or an object wrapping the array
// under envelopeKey.
func (b *Backend) getList(ctx context.Context, path, envelopeKey string, dst any) error {
	if b.baseURL == "" {
		return errors.New("backend base url not configured")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp.StatusCode, payload)
	}

	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(payload, dst)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return err
	}
	raw, ok := envelope[envelopeKey]
	if !ok {
		return fmt.Errorf("response missing %q field", envelopeKey)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}

	b.logger.Debug().Str("path", path).Int("bytes", len(payload)).Msg("backend list fetched")
	return nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("backend error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("backend error (%d): %s", status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("backend error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("backend error (%d)", status)
}

var _ Source = (*Backend)(nil)
