package sampler

import (
	"context"
	"sync"
)

// Feed is a subscribable stream of values. Each subscriber sees the latest
// value on subscribe (if any) and then every value published afterwards;
// a subscriber that falls behind only misses intermediate values, never the
// newest one. Publish never blocks.
type Feed[T any] struct {
	mu      sync.Mutex
	last    T
	hasLast bool
	subs    map[chan T]struct{}
}

// NewFeed creates an empty feed
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[chan T]struct{})}
}

// Publish delivers v to every subscriber
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last, f.hasLast = v, true
	for ch := range f.subs {
		offer(ch, v)
	}
}

// offer replaces a pending undelivered value with v
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Last returns the most recently published value
func (f *Feed[T]) Last() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.hasLast
}

// Subscribe returns a channel of values that closes when ctx is done
func (f *Feed[T]) Subscribe(ctx context.Context) <-chan T {
	in := make(chan T, 1)
	f.mu.Lock()
	if f.hasLast {
		in <- f.last
	}
	f.subs[in] = struct{}{}
	f.mu.Unlock()

	out := make(chan T)
	go func() {
		defer close(out)
		defer func() {
			f.mu.Lock()
			delete(f.subs, in)
			f.mu.Unlock()
		}()
		for {
			select {
			case v := <-in:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Subscribers returns the number of active subscriptions
func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
