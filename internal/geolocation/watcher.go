package geolocation

import (
	"context"
	"sync"
	"time"
)

// Watcher starts position subscriptions. Implementations keep at most one
// active subscription: calling Watch again stops the previous one first.
type Watcher interface {
	Watch(ctx context.Context, opts Options) (Subscription, error)
}

// Subscription delivers samples until Stop is called or the source fails.
// Stop is synchronous and safe to call more than once.
type Subscription interface {
	Samples() <-chan PositionSample
	Errors() <-chan error
	// Done is closed once the subscription has been stopped.
	Done() <-chan struct{}
	Stop()
}

// stream is the Subscription shared by every source. It owns the timeout
// watchdog and the stop bookkeeping.
type stream struct {
	samples chan PositionSample
	errs    chan error
	done    chan struct{}

	mu      sync.Mutex
	stopped bool
	timeout time.Duration
	timer   *time.Timer
	onStop  func()
}

func newStream(ctx context.Context, opts Options, onStop func()) *stream {
	s := &stream{
		samples: make(chan PositionSample, 64),
		errs:    make(chan error, 4),
		done:    make(chan struct{}),
		timeout: opts.Timeout,
		onStop:  onStop,
	}
	if s.timeout > 0 {
		s.timer = time.AfterFunc(s.timeout, func() {
			s.fail(newError(CodeTimeout, nil))
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()
	return s
}

func (s *stream) Samples() <-chan PositionSample { return s.samples }

func (s *stream) Errors() <-chan error { return s.errs }

func (s *stream) Done() <-chan struct{} { return s.done }

func (s *stream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.done)
	onStop := s.onStop
	s.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

func (s *stream) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// deliver hands a sample to the consumer and re-arms the watchdog.
func (s *stream) deliver(sample PositionSample) bool {
	if s.isStopped() {
		return false
	}
	select {
	case s.samples <- sample:
	case <-s.done:
		return false
	}

	s.mu.Lock()
	if !s.stopped && s.timer != nil {
		s.timer.Reset(s.timeout)
	}
	s.mu.Unlock()
	return true
}

func (s *stream) fail(err error) bool {
	if s.isStopped() {
		return false
	}
	select {
	case s.errs <- err:
		return true
	case <-s.done:
		return false
	}
}
