package venueclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
	"github.com/denniswon/pm-endgame-sweep/internal/metrics"
)

// WireAdapter is the venue-specific wire protocol, intentionally the only
// part of a venue integration that is not part of the core contract
// (spec.md §6). A venue plug-in implements this against its own JSON shape;
// HTTPClient supplies the shared retry, rate-limit, circuit-break, and
// normalization middleware around it.
type WireAdapter interface {
	DiscoverPage(ctx context.Context, httpClient *http.Client, baseURL, cursor string) (Page, error)
	FetchQuotes(ctx context.Context, httpClient *http.Client, baseURL string, marketIDs []string) ([]QuoteResult, error)
	FetchRule(ctx context.Context, httpClient *http.Client, baseURL, marketID string) (string, error)
}

// HTTPClient is a generic Client built around a WireAdapter, wrapping every
// call with a per-venue rate limiter, per-operation circuit breaker, and
// the retry policy from spec.md §4.A.
type HTTPClient struct {
	venue   string
	cfg     config.VenueConfig
	adapter WireAdapter
	http    *http.Client
	limiter *RateLimiter
	retry   RetryPolicy

	discoverBreaker *Breaker
	quotesBreaker   *Breaker
	ruleBreaker     *Breaker

	metrics *metrics.Registry
}

// NewHTTPClient builds a venue client for one venue, wiring defaults from
// cfg onto the shared retry/rate-limit/circuit-breaker primitives.
func NewHTTPClient(venue string, cfg config.VenueConfig, adapter WireAdapter) *HTTPClient {
	retry := DefaultRetryPolicy()
	if cfg.Backoff.BaseMS > 0 {
		retry.Base = time.Duration(cfg.Backoff.BaseMS) * time.Millisecond
	}
	if cfg.Backoff.MaxMS > 0 {
		retry.Cap = time.Duration(cfg.Backoff.MaxMS) * time.Millisecond
	}
	if cfg.Backoff.JitterPct > 0 {
		retry.JitterPct = cfg.Backoff.JitterPct
	}
	if cfg.Backoff.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Backoff.MaxAttempts
	}

	breakerCfg := DefaultBreakerConfig(venue)
	if cfg.Circuit.ConsecutiveFailures > 0 {
		breakerCfg.ConsecutiveFailures = uint32(cfg.Circuit.ConsecutiveFailures)
	}
	if cfg.Circuit.CooldownSec > 0 {
		breakerCfg.Cooldown = time.Duration(cfg.Circuit.CooldownSec) * time.Second
	}

	return &HTTPClient{
		venue:           venue,
		cfg:             cfg,
		adapter:         adapter,
		http:            &http.Client{Timeout: 30 * time.Second},
		limiter:         NewRateLimiter(),
		retry:           retry,
		discoverBreaker: NewBreaker(namedBreakerConfig(breakerCfg, venue+".discover")),
		quotesBreaker:   NewBreaker(namedBreakerConfig(breakerCfg, venue+".quotes")),
		ruleBreaker:     NewBreaker(namedBreakerConfig(breakerCfg, venue+".rule")),
	}
}

func namedBreakerConfig(base BreakerConfig, name string) BreakerConfig {
	base.Name = name
	return base
}

func (c *HTTPClient) Name() string { return c.venue }

// BreakerStatus reports the current state of each per-operation circuit
// breaker, for operator-facing status output (e.g. `pmsweep scan-once
// --verbose`). It is not part of the Client interface since most callers
// never need it.
func (c *HTTPClient) BreakerStatus() map[string]string {
	return map[string]string{
		"discover": c.discoverBreaker.State(),
		"quotes":   c.quotesBreaker.State(),
		"rule":     c.ruleBreaker.State(),
	}
}

// SetMetrics wires this client's venue failures, retry attempts, and
// breaker trips into reg. Called once at startup after construction; a
// client with no metrics set (e.g. in unit tests) simply skips recording.
func (c *HTTPClient) SetMetrics(reg *metrics.Registry) {
	c.metrics = reg
	c.discoverBreaker.SetOnOpen(func() { reg.BreakerTrips.WithLabelValues(c.venue, "discover").Inc() })
	c.quotesBreaker.SetOnOpen(func() { reg.BreakerTrips.WithLabelValues(c.venue, "quotes").Inc() })
	c.ruleBreaker.SetOnOpen(func() { reg.BreakerTrips.WithLabelValues(c.venue, "rule").Inc() })
}

// recordOutcome increments venue-failure and retry-attempt counters for one
// Do() call, given the number of attempts it took and its final error.
func (c *HTTPClient) recordOutcome(op string, attempts int, err error) {
	if c.metrics == nil {
		return
	}
	if attempts > 1 {
		c.metrics.RetryAttempts.WithLabelValues(c.venue, op).Add(float64(attempts - 1))
	}
	if ve, ok := err.(*VenueError); ok {
		c.metrics.VenueFailures.WithLabelValues(c.venue, op, ve.Kind.String()).Inc()
	}
}

func (c *HTTPClient) rps() float64 {
	if c.cfg.RPS > 0 {
		return c.cfg.RPS
	}
	return 5
}

func (c *HTTPClient) burst() int {
	if c.cfg.Burst > 0 {
		return c.cfg.Burst
	}
	return 5
}

// Discover fetches one page of the venue's market catalog, carrying the
// default 15s discovery deadline from spec.md §5.
func (c *HTTPClient) Discover(ctx context.Context, cursor string) (Page, error) {
	var page Page
	op := "discover"
	attempts := 0
	err := Do(ctx, c.retry, func(ctx context.Context) error {
		attempts++
		if err := c.limiter.Wait(ctx, c.venue, c.rps(), c.burst()); err != nil {
			return err
		}
		deadline := 15 * time.Second
		if c.cfg.QuoteTimeoutSec > 0 {
			deadline = time.Duration(c.cfg.QuoteTimeoutSec) * time.Second
		}
		cctx, cancel := contextDeadline(ctx, deadline)
		defer cancel()

		return c.discoverBreaker.Execute(c.venue, op, func() error {
			p, err := c.adapter.DiscoverPage(cctx, c.http, c.cfg.BaseURL, cursor)
			if err != nil {
				return classifyTransportErr(c.venue, op, err)
			}
			page = p
			return nil
		})
	})
	c.recordOutcome(op, attempts, err)
	if err != nil {
		log.Warn().Str("venue", c.venue).Str("op", op).Err(err).Msg("venue discover failed")
		return Page{}, err
	}
	return page, nil
}

// Quotes fetches a batch of quotes, bounded by the caller to cfg.BatchLimit.
func (c *HTTPClient) Quotes(ctx context.Context, marketIDs []string) ([]QuoteResult, error) {
	if c.cfg.BatchLimit > 0 && len(marketIDs) > c.cfg.BatchLimit {
		return nil, classify(c.venue, "quotes", KindPermanent,
			fmt.Errorf("batch of %d exceeds venue limit %d", len(marketIDs), c.cfg.BatchLimit))
	}

	var quotes []QuoteResult
	op := "quotes"
	attempts := 0
	err := Do(ctx, c.retry, func(ctx context.Context) error {
		attempts++
		if err := c.limiter.Wait(ctx, c.venue, c.rps(), c.burst()); err != nil {
			return err
		}
		deadline := 15 * time.Second
		if c.cfg.QuoteTimeoutSec > 0 {
			deadline = time.Duration(c.cfg.QuoteTimeoutSec) * time.Second
		}
		cctx, cancel := contextDeadline(ctx, deadline)
		defer cancel()

		return c.quotesBreaker.Execute(c.venue, op, func() error {
			q, err := c.adapter.FetchQuotes(cctx, c.http, c.cfg.BaseURL, marketIDs)
			if err != nil {
				return classifyTransportErr(c.venue, op, err)
			}
			quotes = normalizeQuotes(c.venue, q)
			return nil
		})
	})
	c.recordOutcome(op, attempts, err)
	if err != nil {
		log.Warn().Str("venue", c.venue).Str("op", op).Err(err).Msg("venue quotes failed")
		return nil, err
	}
	return quotes, nil
}

// Rule fetches the resolution rule text for a single market, carrying the
// default 30s rule-fetch deadline from spec.md §5.
func (c *HTTPClient) Rule(ctx context.Context, marketID string) (string, error) {
	var text string
	op := "rule"
	attempts := 0
	err := Do(ctx, c.retry, func(ctx context.Context) error {
		attempts++
		if err := c.limiter.Wait(ctx, c.venue, c.rps(), c.burst()); err != nil {
			return err
		}
		deadline := 30 * time.Second
		if c.cfg.RuleTimeoutSec > 0 {
			deadline = time.Duration(c.cfg.RuleTimeoutSec) * time.Second
		}
		cctx, cancel := contextDeadline(ctx, deadline)
		defer cancel()

		return c.ruleBreaker.Execute(c.venue, op, func() error {
			t, err := c.adapter.FetchRule(cctx, c.http, c.cfg.BaseURL, marketID)
			if err != nil {
				return classifyTransportErr(c.venue, op, err)
			}
			text = t
			return nil
		})
	})
	c.recordOutcome(op, attempts, err)
	if err != nil {
		log.Warn().Str("venue", c.venue).Str("op", op).Err(err).Msg("venue rule fetch failed")
		return "", err
	}
	return text, nil
}

// classifyTransportErr maps a raw adapter error into the taxonomy from
// spec.md §7. Adapters return *httpStatusError for wire-level failures and
// *malformedPayloadError for payloads that failed to decode into the
// declared shape; anything else is a transport-level failure and eligible
// for retry.
func classifyTransportErr(venue, op string, err error) error {
	if ve, ok := err.(*VenueError); ok {
		return ve
	}
	if _, ok := err.(*malformedPayloadError); ok {
		return classify(venue, op, KindMalformed, err)
	}
	if se, ok := err.(*httpStatusError); ok {
		if se.status == http.StatusTooManyRequests || se.status >= 500 {
			return classify(venue, op, KindTransient, err)
		}
		return classify(venue, op, KindPermanent, err)
	}
	return classify(venue, op, KindTransient, err)
}

// httpStatusError carries an HTTP status code so classifyTransportErr can
// distinguish retryable from permanent wire failures.
type httpStatusError struct {
	status int
	err    error
}

func (e *httpStatusError) Error() string { return fmt.Sprintf("http %d: %v", e.status, e.err) }
func (e *httpStatusError) Unwrap() error { return e.err }

// NewHTTPStatusError lets a WireAdapter report an HTTP status code without
// importing this package's unexported classification details.
func NewHTTPStatusError(status int, err error) error {
	return &httpStatusError{status: status, err: err}
}

// malformedPayloadError marks a payload that failed to decode into the
// shape a WireAdapter expects. It is always classified KindMalformed and is
// never retried, since retrying cannot change a venue's response shape.
type malformedPayloadError struct {
	err error
}

func (e *malformedPayloadError) Error() string { return fmt.Sprintf("malformed payload: %v", e.err) }
func (e *malformedPayloadError) Unwrap() error { return e.err }

// NewMalformedPayloadError lets a WireAdapter report a decode/shape failure
// without importing this package's unexported classification details.
func NewMalformedPayloadError(err error) error {
	return &malformedPayloadError{err: err}
}

// normalizeQuotes coerces every price into [0.0, 1.0] by clamping and every
// timestamp into UTC, per spec.md §4.A. Every input quote is kept:
// out-of-range legs are clamped, not dropped, and nil legs stay nil.
func normalizeQuotes(venue string, in []QuoteResult) []QuoteResult {
	out := make([]QuoteResult, 0, len(in))
	for _, q := range in {
		q.AsOf = q.AsOf.UTC()
		q.YesBid = clampUnit(q.YesBid)
		q.YesAsk = clampUnit(q.YesAsk)
		q.NoBid = clampUnit(q.NoBid)
		q.NoAsk = clampUnit(q.NoAsk)
		out = append(out, q)
	}
	if len(in) != len(out) {
		log.Warn().Str("venue", venue).Int("dropped", len(in)-len(out)).Msg("quotes skipped at normalization")
	}
	return out
}

func clampUnit(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}
