// Package retry は分類付きの再試行を提供します。
package retry

import (
	"context"
	"fmt"
	"time"
)

// Action は失敗時の扱いです。
type Action int

const (
	Stop  Action = iota // 恒久的な失敗。即座に中断する
	Retry               // 一時的な失敗。通常のバックオフで再試行する
	After               // レート制限。長めのバックオフで再試行する
)

// Policy は再試行の設定です。
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
	OnRetry          func(ctx context.Context, attempt int, err error, backoff time.Duration)
}

// Classify はエラーを Action に分類します。
type Classify func(err error) Action

// Operation は再試行の対象です。
type Operation[T any] func(ctx context.Context) (T, error)

// Do は op を Policy に従って実行します。
// Stop に分類された失敗は *PermanentError で包んで返します。
func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt >= attempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", attempts, err)
		}

		wait := backoff
		if action == After && p.RateLimitBackoff > 0 {
			wait = p.RateLimitBackoff
		}
		if p.OnRetry != nil {
			p.OnRetry(ctx, attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			backoff *= 2
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

// PermanentError は再試行しなかった失敗です。
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
