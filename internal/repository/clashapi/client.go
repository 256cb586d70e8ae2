package clashapi

import (
	"clanManager/domain"
	"clanManager/pkg/metrics"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	requestTimeout = 10 * time.Second
	battleTimeFmt  = "20060102T150405.000Z"
	membersTTL     = time.Minute
)

type ClashAPIConfig struct {
	BaseURL string
	Token   string
	// requests per second
	RateLimit float64
}

// Cache is an optional response cache for short lived data such as member lists.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type ClashAPIRepository struct {
	cfg        ClashAPIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	now        func() time.Time
}

func NewClashAPIRepository(cfg ClashAPIConfig, cache Cache) *ClashAPIRepository {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &ClashAPIRepository{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		now:        time.Now,
	}
}

// escapeTag turns "#ABC" into the path segment "%23ABC".
func escapeTag(tag string) string {
	return url.PathEscape("#" + strings.TrimPrefix(tag, "#"))
}

func parseBattleTime(s string) (time.Time, error) {
	t, err := time.Parse(battleTimeFmt, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid battle time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// get performs a rate limited GET and decodes the JSON body into result.
// 404 maps to domain.ErrNotFound, any other failure to domain.ErrUpstreamUnavailable.
func (r *ClashAPIRepository) get(ctx context.Context, endpoint, path string, result any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.Token)

	start := time.Now()
	res, err := r.httpClient.Do(req)
	metrics.ClashAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClashAPIRequests.WithLabelValues(endpoint, "error").Inc()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer res.Body.Close()

	metrics.ClashAPIRequests.WithLabelValues(endpoint, strconv.Itoa(res.StatusCode)).Inc()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	default:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: unexpected status code %d: %s", domain.ErrUpstreamUnavailable, res.StatusCode, string(body))
	}

	if err := json.NewDecoder(res.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", domain.ErrUpstreamUnavailable, err)
	}

	return nil
}
