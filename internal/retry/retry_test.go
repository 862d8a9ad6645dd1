package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayDoublesAndCaps(t *testing.T) {
	p := Policy{Base: 500 * time.Millisecond, Max: 8 * time.Second}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 8 * time.Second},
		{6, 8 * time.Second},
		{50, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.retry); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestDelayDefaults(t *testing.T) {
	var p Policy
	if got := p.Delay(1); got != 500*time.Millisecond {
		t.Errorf("Delay(1) = %v, want 500ms", got)
	}
	if got := p.Delay(20); got != 30*time.Second {
		t.Errorf("Delay(20) = %v, want 30s", got)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 5,
		Base:        time.Second,
		Max:         time.Minute,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still failing")
	p := Policy{
		MaxAttempts: 3,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Do returned %v, want %v", err, sentinel)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	fatal := errors.New("bad request")
	p := Policy{
		MaxAttempts: 5,
		Permanent:   func(err error) bool { return errors.Is(err, fatal) },
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Errorf("Do returned %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5}

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("Do returned nil, want error")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
