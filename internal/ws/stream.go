package ws

import (
	"sync"

	"social-client/internal/observability"
)

const subscriberBuffer = 64

// Stream is a publish-only multicast of events. New subscribers first receive up to
// replay recent events, then live ones. A full subscriber buffer drops the event
// instead of blocking the producer.
type Stream[T any] struct {
	name    string
	replay  int
	mu      sync.Mutex
	history []T
	subs    map[*Subscription[T]]struct{}
}

// Subscription delivers stream events on C until cancelled.
type Subscription[T any] struct {
	C      <-chan T
	ch     chan T
	stream *Stream[T]
	closed bool
}

func NewStream[T any](name string, replay int) *Stream[T] {
	return &Stream[T]{
		name:   name,
		replay: replay,
		subs:   make(map[*Subscription[T]]struct{}),
	}
}

// Publish delivers v to every subscriber in arrival order.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replay > 0 {
		s.history = append(s.history, v)
		if len(s.history) > s.replay {
			s.history = s.history[len(s.history)-s.replay:]
		}
	}
	for sub := range s.subs {
		select {
		case sub.ch <- v:
		default:
			observability.IncStreamDropped(s.name)
		}
	}
}

func (s *Stream[T]) Subscribe() *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, max(subscriberBuffer, s.replay))
	for _, v := range s.history {
		ch <- v
	}
	sub := &Subscription[T]{C: ch, ch: ch, stream: s}
	s.subs[sub] = struct{}{}
	return sub
}

// Cancel stops delivery and closes C. It is safe to call more than once.
func (sub *Subscription[T]) Cancel() {
	if sub == nil {
		return
	}
	s := sub.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.closeLocked()
}

// Closed reports whether the subscription was cancelled or its stream reset.
func (sub *Subscription[T]) Closed() bool {
	if sub == nil {
		return true
	}
	sub.stream.mu.Lock()
	defer sub.stream.mu.Unlock()
	return sub.closed
}

func (sub *Subscription[T]) closeLocked() {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(sub.stream.subs, sub)
	close(sub.ch)
}

// Reset cancels every subscription and forgets the replay buffer.
func (s *Stream[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		sub.closeLocked()
	}
	s.history = nil
}

// Subscribers returns the number of live subscriptions.
func (s *Stream[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
