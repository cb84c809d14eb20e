// Package catalog は映画カタログAPI(TMDB)のクライアントを提供します。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/cj-movies/internal/platform/retry"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "en-US"

	maxBodyBytes = 4 << 20
)

// ErrNotFound はカタログに該当する映画がないことを表します。
var ErrNotFound = errors.New("movie not found")

// StatusError はカタログAPIが 2xx 以外を返したことを表します。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Body)
}

// Is は 404 を ErrNotFound として扱います。
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Observer は呼び出し結果を受け取ります。
type Observer interface {
	CatalogRequest(operation, result string)
}

// Config はクライアントの設定です。
type Config struct {
	BaseURL     string
	Token       string
	Language    string
	Timeout     time.Duration
	MaxAttempts int
	// Backoff は再試行の初期待ち時間です。0 なら 200ms。
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Client はカタログAPIのクライアントです。呼び出しは再試行とサーキットブレーカーを通ります。
type Client struct {
	baseURL  string
	token    string
	language string
	timeout  time.Duration

	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	policy   retry.Policy
	popular  singleflight.Group
	observer Observer
	logger   *slog.Logger
}

// Option は Client の設定です。
type Option func(*Client)

// WithObserver は呼び出し結果の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger はロガーを設定します。
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient は Client を作成します。
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		http:     cfg.HTTPClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.policy = retry.Policy{
		MaxAttempts:      cfg.MaxAttempts,
		InitialBackoff:   cfg.Backoff,
		RateLimitBackoff: 4 * cfg.Backoff,
		OnRetry: func(ctx context.Context, attempt int, err error, backoff time.Duration) {
			c.logger.WarnContext(ctx, "catalog request failed, retrying",
				"attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 404 などの恒久的な失敗ではブレーカーを開かない
		IsSuccessful: func(err error) bool {
			return err == nil || classify(err) == retry.Stop
		},
	})
	return c
}

// GetPopular は人気の映画一覧をカタログAPIのJSONのまま返します。
// 同時に来た呼び出しは1回のリクエストにまとめます。
func (c *Client) GetPopular(ctx context.Context) (json.RawMessage, error) {
	// まとめた取得は個々の呼び出し元のキャンセルに引きずられない
	shared := context.WithoutCancel(ctx)
	ch := c.popular.DoChan("popular", func() (any, error) {
		query := url.Values{"language": {c.language}, "page": {"1"}}
		return c.get(shared, "popular", "/movie/popular", query)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	body := res.Val.([]byte)
	if !json.Valid(body) {
		return nil, fmt.Errorf("catalog returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

// GetMovieByID は映画の詳細を返します。存在しない場合は ErrNotFound を包んだエラーです。
func (c *Client) GetMovieByID(ctx context.Context, id int64) (*Movie, error) {
	query := url.Values{"language": {c.language}}
	body, err := c.get(ctx, "movie", "/movie/"+strconv.FormatInt(id, 10), query)
	if err != nil {
		return nil, err
	}
	var m Movie
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to decode movie %d: %w", id, err)
	}
	return &m, nil
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := retry.Do(ctx, c.policy, classify, func(ctx context.Context) ([]byte, error) {
		from := c.breaker.State()
		v, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetch(ctx, path, query)
		})
		if to := c.breaker.State(); to != from {
			c.logger.WarnContext(ctx, "circuit breaker state changed",
				"component", c.breaker.Name(), "from", from.String(), "to", to.String())
		}
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	})
	c.observe(operation, err)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", operation, err)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func (c *Client) observe(operation string, err error) {
	if c.observer == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	default:
		result = "error"
	}
	c.observer.CatalogRequest(operation, result)
}

// classify は 429 を長めの待ち、5xx と通信エラーを再試行、それ以外を中断に分類します。
func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.Stop
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return retry.After
		case statusErr.StatusCode >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	return retry.Retry
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
