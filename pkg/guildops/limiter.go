// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package guildops

import (
	"container/heap"
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

var ErrLimiterClosed = errors.New("guild operation limiter closed")

type request struct {
	priority int
	seq      uint64
	ctx      context.Context
	fn       func(ctx context.Context) error
	result   chan error
}

// requestHeap pops the highest priority first, FIFO among equals.
type requestHeap []*request

func (h requestHeap) Len() int { return len(h) }
func (h requestHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *requestHeap) Push(x any)   { *h = append(*h, x.(*request)) }
func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Limiter hands out rate tokens in priority order. A single dispatcher
// goroutine owns token acquisition; the calls themselves run concurrently.
type Limiter struct {
	rate *rate.Limiter

	mu      sync.Mutex
	pending requestHeap
	seq     uint64
	closed  bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		rate: rate.NewLimiter(rate.Limit(perSecond), burst),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.dispatch()
	return l
}

// Do queues fn and waits for its result.
func (l *Limiter) Do(ctx context.Context, priority int, fn func(ctx context.Context) error) error {
	req := &request{
		priority: priority,
		ctx:      ctx,
		fn:       fn,
		result:   make(chan error, 1),
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLimiterClosed
	}
	l.seq++
	req.seq = l.seq
	heap.Push(&l.pending, req)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending is the number of queued requests not yet dispatched.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.Len()
}

func (l *Limiter) next() *request {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending.Len() == 0 {
		return nil
	}
	return heap.Pop(&l.pending).(*request)
}

func (l *Limiter) dispatch() {
	defer l.wg.Done()
	for {
		req := l.next()
		if req == nil {
			select {
			case <-l.wake:
				continue
			case <-l.done:
				return
			}
		}

		if err := req.ctx.Err(); err != nil {
			req.result <- err
			continue
		}
		if err := l.rate.Wait(req.ctx); err != nil {
			req.result <- err
			continue
		}
		l.wg.Add(1)
		go func(req *request) {
			defer l.wg.Done()
			req.result <- req.fn(req.ctx)
		}(req)
	}
}

// Close stops dispatching. Queued requests fail with ErrLimiterClosed.
func (l *Limiter) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.done)
	l.mu.Unlock()

	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	for l.pending.Len() > 0 {
		req := heap.Pop(&l.pending).(*request)
		req.result <- ErrLimiterClosed
	}
}
