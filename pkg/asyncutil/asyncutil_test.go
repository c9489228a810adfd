// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package asyncutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name      string
		delay     time.Duration
		opErr     error
		wantValue int
		wantErr   error
	}
	testCases := []testCase{
		{name: "finishes in time", delay: 0, wantValue: 7},
		{name: "operation error", delay: 0, opErr: errors.New("boom"), wantErr: errors.New("boom")},
		{name: "deadline exceeded", delay: time.Second, wantErr: ErrTimeout},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := WithTimeout(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
				select {
				case <-time.After(tc.delay):
				case <-ctx.Done():
					return 0, ctx.Err()
				}
				return 7, tc.opErr
			})
			switch {
			case tc.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, tc.wantValue, got)
			case errors.Is(tc.wantErr, ErrTimeout):
				require.ErrorIs(t, err, ErrTimeout)
			default:
				require.EqualError(t, err, tc.wantErr.Error())
			}
		})
	}
}

func TestWithTimeout_CancelsLoser(t *testing.T) {
	t.Parallel()

	cancelled := make(chan struct{})
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (struct{}, error) {
		<-ctx.Done()
		close(cancelled)
		return struct{}{}, ctx.Err()
	})
	require.ErrorIs(t, err, ErrTimeout)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("operation context was not cancelled")
	}
}

func TestWithTimeout_RecoversPanic(t *testing.T) {
	t.Parallel()

	_, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		panic("bad input")
	})
	require.ErrorContains(t, err, "bad input")
}

func TestSettleAll_IsolatesFailures(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}
	summary := SettleAll(context.Background(), 2, items, func(ctx context.Context, item int) (int, error) {
		if item == 3 {
			return 0, errors.New("three failed")
		}
		if item == 4 {
			panic("four panicked")
		}
		return item * 10, nil
	})

	require.Len(t, summary.Results, len(items))
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 10, summary.Results[0].Value)
	assert.Equal(t, 50, summary.Results[4].Value)
	assert.EqualError(t, summary.Results[2].Err, "three failed")
	assert.ErrorContains(t, summary.Results[3].Err, "four panicked")
	assert.Error(t, summary.Err())
}

func TestSettleAll_RespectsLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak int32
	items := make([]int, 20)
	SettleAll(context.Background(), 3, items, func(ctx context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestSettleAll_Empty(t *testing.T) {
	t.Parallel()

	summary := SettleAll(context.Background(), 0, []string{}, func(ctx context.Context, _ string) (int, error) {
		return 0, nil
	})
	assert.Empty(t, summary.Results)
	assert.NoError(t, summary.Err())
}
