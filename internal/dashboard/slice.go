package dashboard

import (
	"sync"
	"time"
)

// Ticket identifies one fetch issued through a Slice.
type Ticket struct {
	Key string
	seq uint64
}

// SliceState is a point-in-time copy of a Slice.
type SliceState[T any] struct {
	Key       string
	Loading   bool
	Err       error
	Data      T
	HasData   bool
	UpdatedAt time.Time
}

// Slice holds the result of a keyed fetch. A result is applied only if it
// answers the latest request for the current key; anything else is dropped.
type Slice[T any] struct {
	mu    sync.Mutex
	state SliceState[T]
	seq   uint64
	now   func() time.Time
}

// Begin starts a fetch for key. Switching key discards the previous data.
func (s *Slice[T]) Begin(key string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != s.state.Key {
		s.state = SliceState[T]{Key: key}
	}
	s.seq++
	s.state.Loading = true
	s.state.Err = nil
	return Ticket{Key: key, seq: s.seq}
}

// Resolve applies the outcome of the fetch identified by t and reports
// whether it was applied. On error the last good data for the key is kept.
func (s *Slice[T]) Resolve(t Ticket, v T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Key != s.state.Key || t.seq != s.seq {
		return false
	}
	s.state.Loading = false
	if err != nil {
		s.state.Err = err
		return true
	}
	s.state.Data = v
	s.state.HasData = true
	s.state.Err = nil
	s.state.UpdatedAt = s.clock()
	return true
}

// State returns a copy of the current state.
func (s *Slice[T]) State() SliceState[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fresh reports whether the slice holds data for key younger than ttl.
func (s *Slice[T]) Fresh(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Key == key && s.state.HasData && s.clock().Sub(s.state.UpdatedAt) < ttl
}

func (s *Slice[T]) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
