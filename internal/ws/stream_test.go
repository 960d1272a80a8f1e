package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](sub *Subscription[T]) []T {
	var out []T
	for {
		select {
		case v, ok := <-sub.C:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestStreamReplayIsBounded(t *testing.T) {
	s := NewStream[int]("test", 3)
	for i := 1; i <= 5; i++ {
		s.Publish(i)
	}

	sub := s.Subscribe()
	assert.Equal(t, []int{3, 4, 5}, drain(sub))

	s.Publish(6)
	assert.Equal(t, []int{6}, drain(sub))
}

func TestStreamDeliversInOrderToEverySubscriber(t *testing.T) {
	s := NewStream[int]("test", 0)
	a, b := s.Subscribe(), s.Subscribe()

	for i := 0; i < 5; i++ {
		s.Publish(i)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, drain(a))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, drain(b))
}

func TestStreamSlowSubscriberDoesNotBlock(t *testing.T) {
	s := NewStream[int]("test", 1)
	slow := s.Subscribe()

	for i := 0; i < subscriberBuffer*2; i++ {
		s.Publish(i)
	}

	got := drain(slow)
	require.Len(t, got, subscriberBuffer)
	assert.Equal(t, 0, got[0])
}

func TestSubscriptionCancel(t *testing.T) {
	s := NewStream[int]("test", 1)
	sub := s.Subscribe()
	sub.Cancel()
	sub.Cancel()
	assert.True(t, sub.Closed())

	s.Publish(1)
	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, s.Subscribers())
}

func TestStreamResetClosesSubscribers(t *testing.T) {
	s := NewStream[int]("test", 2)
	s.Publish(1)
	sub := s.Subscribe()
	assert.False(t, sub.Closed())

	s.Reset()

	assert.True(t, sub.Closed())
	assert.Equal(t, []int{1}, drain(sub))
	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Empty(t, drain(s.Subscribe()))
}
