// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package asyncutil

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type Result[T any] struct {
	Index int
	Value T
	Err   error
}

type Summary[T any] struct {
	Results   []Result[T]
	Succeeded int
	Failed    int
}

// Err joins every item error, nil when all items succeeded.
func (s Summary[T]) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", r.Index, r.Err))
		}
	}
	return errors.Join(errs...)
}

// SettleAll runs fn for every item with at most limit in flight (limit <= 0 means unbounded)
// and waits for all of them. A failing or panicking item never stops its siblings; each
// outcome is reported at the item's index.
func SettleAll[I any, T any](ctx context.Context, limit int, items []I, fn func(ctx context.Context, item I) (T, error)) Summary[T] {
	results := make([]Result[T], len(items))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range items {
		i := i
		g.Go(func() error {
			results[i] = settleOne(ctx, i, items[i], fn)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary[T]{Results: results}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

func settleOne[I any, T any](ctx context.Context, index int, item I, fn func(ctx context.Context, item I) (T, error)) (result Result[T]) {
	result.Index = index
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	result.Value, result.Err = fn(ctx, item)
	return result
}
