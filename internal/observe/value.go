// Package observe holds owned values that publish every change to subscribers.
package observe

import (
	"reflect"
	"sync"
)

// Value owns a single value and notifies subscribers when it changes
type Value[T any] struct {
	mu    sync.Mutex
	value T
	equal func(a, b T) bool
	subs  map[*Subscription[T]]struct{}
}

// NewValue creates a value with an initial state. A nil equal falls back to reflect.DeepEqual.
func NewValue[T any](initial T, equal func(a, b T) bool) *Value[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Value[T]{
		value: initial,
		equal: equal,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores next and publishes it, unless it equals the current value.
// It reports whether anything was published.
func (v *Value[T]) Set(next T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setLocked(next)
}

// Update applies fn to the current value and publishes the result the same way Set does.
// fn runs under the value lock and must not touch v.
func (v *Value[T]) Update(fn func(current T) T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.setLocked(fn(v.value))
}

func (v *Value[T]) setLocked(next T) bool {
	if v.equal(v.value, next) {
		return false
	}
	v.value = next
	for sub := range v.subs {
		sub.push(next)
	}
	return true
}

// Subscribe registers a subscriber. The current value is delivered first,
// followed by every change in publish order.
// Each subscription runs a delivery goroutine until Close is called.
func (v *Value[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		done: make(chan struct{}),
	}
	sub.detach = func() {
		v.mu.Lock()
		delete(v.subs, sub)
		v.mu.Unlock()
	}

	v.mu.Lock()
	sub.push(v.value)
	v.subs[sub] = struct{}{}
	v.mu.Unlock()

	go sub.run()
	return sub
}

// Subscription delivers published values in order. Values queue without bound,
// so a slow reader never blocks the publisher and never misses an update.
type Subscription[T any] struct {
	mu     sync.Mutex
	queue  []T
	wake   chan struct{}
	out    chan T
	done   chan struct{}
	once   sync.Once
	detach func()
}

// C returns the delivery channel. It is closed after Close.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close stops delivery and releases the subscription
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.detach()
		close(s.done)
	})
}

func (s *Subscription[T]) push(value T) {
	s.mu.Lock()
	s.queue = append(s.queue, value)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
