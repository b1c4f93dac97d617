package geolocation

import (
	"context"
	"sync"
)

// Feed is a push source: clients that own the real device (a browser, a
// phone app) post their samples and permission failures, and Feed relays
// them to the active subscription.
type Feed struct {
	mu     sync.Mutex
	active *stream
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Watch(ctx context.Context, opts Options) (Subscription, error) {
	s := newStream(ctx, opts, nil)
	s.onStop = func() {
		f.mu.Lock()
		if f.active == s {
			f.active = nil
		}
		f.mu.Unlock()
	}

	f.mu.Lock()
	prev := f.active
	f.active = s
	f.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	return s, nil
}

// Push delivers a client-side sample.
func (f *Feed) Push(sample PositionSample) error {
	if !sample.Coord.Valid() {
		return ErrInvalidSample
	}
	s := f.current()
	if s == nil || !s.deliver(sample) {
		return ErrNotWatching
	}
	return nil
}

// Fail relays a client-side geolocation error.
func (f *Feed) Fail(err error) error {
	s := f.current()
	if s == nil || !s.fail(err) {
		return ErrNotWatching
	}
	return nil
}

// Active reports whether a subscription is currently open.
func (f *Feed) Active() bool {
	return f.current() != nil
}

func (f *Feed) current() *stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}
