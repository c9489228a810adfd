// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package guildops

import (
	"container/heap"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_RunsAndReturnsErrors(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1000, 10)
	defer l.Close()

	require.NoError(t, l.Do(context.Background(), 1, func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, l.Do(context.Background(), 1, func(context.Context) error { return boom }), boom)
}

func TestLimiter_CanceledContext(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1000, 1)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Do(ctx, 1, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiter_Closed(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1000, 1)
	l.Close()
	l.Close()
	assert.ErrorIs(t, l.Do(context.Background(), 1, func(context.Context) error { return nil }), ErrLimiterClosed)
}

func TestRequestHeapOrder(t *testing.T) {
	t.Parallel()

	h := requestHeap{}
	for i, p := range []int{3, 9, 9, 1} {
		h = append(h, &request{priority: p, seq: uint64(i)})
	}
	sorted := make([]*request, 0, len(h))
	heap.Init(&h)
	for h.Len() > 0 {
		sorted = append(sorted, heap.Pop(&h).(*request))
	}
	got := make([][2]int, len(sorted))
	for i, r := range sorted {
		got[i] = [2]int{r.priority, int(r.seq)}
	}
	assert.Equal(t, [][2]int{{9, 1}, {9, 2}, {3, 0}, {1, 3}}, got)
}
