package backoff

import (
	"testing"
	"time"
)

func TestExponentialJitterNoJitter(t *testing.T) {
	s := ExponentialJitter{}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
	}

	for _, tt := range tests {
		got := s.Calculate(tt.attempt, 100*time.Millisecond, 10*time.Second, 2.0, 0)
		if got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestExponentialJitterCapped(t *testing.T) {
	s := ExponentialJitter{}

	got := s.Calculate(10, time.Second, 5*time.Second, 2.0, 0)
	if got != 5*time.Second {
		t.Errorf("expected cap at 5s, got %v", got)
	}
}

func TestExponentialJitterNegativeAttempt(t *testing.T) {
	s := ExponentialJitter{}

	got := s.Calculate(-3, 100*time.Millisecond, time.Second, 2.0, 0)
	if got != 100*time.Millisecond {
		t.Errorf("expected initial delay for negative attempt, got %v", got)
	}
}

func TestExponentialJitterBounds(t *testing.T) {
	s := ExponentialJitter{}

	for i := 0; i < 100; i++ {
		got := s.Calculate(2, 100*time.Millisecond, 10*time.Second, 2.0, 0.5)
		if got < 400*time.Millisecond {
			t.Fatalf("jittered delay %v below base 400ms", got)
		}
		if got > 600*time.Millisecond {
			t.Fatalf("jittered delay %v above base*1.5", got)
		}
	}
}

func TestDecorrelatedJitterFirstAttempt(t *testing.T) {
	s := DecorrelatedJitter{}

	got := s.Calculate(0, 100*time.Millisecond, 10*time.Second, 2.0, 0)
	if got != 100*time.Millisecond {
		t.Errorf("expected initial delay on attempt 0, got %v", got)
	}
}

func TestDecorrelatedJitterBounds(t *testing.T) {
	s := DecorrelatedJitter{}

	for i := 0; i < 100; i++ {
		got := s.Calculate(3, 100*time.Millisecond, 2*time.Second, 2.0, 0)
		if got < 100*time.Millisecond {
			t.Fatalf("delay %v below base", got)
		}
		if got > 2*time.Second {
			t.Fatalf("delay %v above cap", got)
		}
	}
}

func TestClampJitter(t *testing.T) {
	if clampJitter(-1) != 0 {
		t.Error("expected negative jitter clamped to 0")
	}
	if clampJitter(2) != 1 {
		t.Error("expected jitter above 1 clamped to 1")
	}
	if clampJitter(0.3) != 0.3 {
		t.Error("expected in-range jitter unchanged")
	}
}
