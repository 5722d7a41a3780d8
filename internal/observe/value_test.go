package observe

import (
	"testing"
	"time"
)

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestValueDeliversCurrentThenChanges(t *testing.T) {
	v := NewValue(1, nil)
	sub := v.Subscribe()
	defer sub.Close()

	v.Set(2)
	v.Set(3)

	for _, want := range []int{1, 2, 3} {
		if got := receive(t, sub); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestValueSkipsUnchanged(t *testing.T) {
	v := NewValue([]string{"a"}, nil)
	sub := v.Subscribe()
	defer sub.Close()

	if v.Set([]string{"a"}) {
		t.Fatal("expected equal value to be skipped")
	}
	if !v.Set([]string{"b"}) {
		t.Fatal("expected changed value to publish")
	}

	if got := receive(t, sub); got[0] != "a" {
		t.Fatalf("expected initial value, got %v", got)
	}
	if got := receive(t, sub); got[0] != "b" {
		t.Fatalf("expected changed value, got %v", got)
	}

	select {
	case extra := <-sub.C():
		t.Fatalf("unexpected extra emission %v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestValueSlowSubscriberMissesNothing(t *testing.T) {
	v := NewValue(0, nil)
	sub := v.Subscribe()
	defer sub.Close()

	for i := 1; i <= 500; i++ {
		v.Set(i)
	}

	for want := 0; want <= 500; want++ {
		if got := receive(t, sub); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestValueUpdate(t *testing.T) {
	v := NewValue(10, nil)
	v.Update(func(current int) int { return current + 5 })
	if got := v.Get(); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}

func TestSubscriptionClose(t *testing.T) {
	v := NewValue("x", nil)
	sub := v.Subscribe()
	sub.Close()
	sub.Close()

	v.Set("y")

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected channel to close")
		}
	}
}
