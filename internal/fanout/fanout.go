// Package fanout は部分的な失敗を許容する並行実行を提供します。
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Gather は items の各要素に fn を並行して適用し、成功した結果だけを返します。
// 同時実行数は limit までです（0 以下なら無制限）。
// 失敗した要素は onErr に渡して捨てます。全体としては失敗しません。
// 結果の順序は完了順で、入力順とは一致しません。
func Gather[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error), onErr func(T, error)) []R {
	results := make([]R, 0, len(items))
	if len(items) == 0 {
		return results
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if limit > 0 {
		g.SetLimit(limit)
	}

	report := func(item T, err error) {
		if onErr == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onErr(item, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report(item, err)
			continue
		}
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				report(item, err)
				return nil
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
