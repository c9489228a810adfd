// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package asyncutil

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTimeout = errors.New("operation timed out")

// WithTimeout runs op under a deadline of d. When the deadline passes first, the
// operation's context is cancelled, its eventual result is dropped, and an error
// wrapping ErrTimeout is returned.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	// buffered so the losing goroutine can always deliver and exit
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o.err = fmt.Errorf("panic: %v", r)
			}
			done <- o
		}()
		o.value, o.err = op(ctx)
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
		}
		return zero, ctx.Err()
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
