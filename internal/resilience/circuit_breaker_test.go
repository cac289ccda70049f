package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state Closed, got %d", cb.GetState())
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateClosed {
		t.Error("Expected Closed after 2 of 3 failures")
	}

	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Error("Expected Open after 3 failures")
	}
}

func TestCircuitBreaker_OpenRejectsCalls(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	cb.RecordResult(false)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Function must not run while the circuit is open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Second)

	cb.RecordResult(false)
	cb.RecordResult(true)
	cb.RecordResult(false)

	if cb.GetState() != StateClosed {
		t.Error("Expected Closed, successes reset the failure streak")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	cb.RecordResult(false)

	if cb.GetState() != StateOpen {
		t.Fatal("Expected Open")
	}

	time.Sleep(20 * time.Millisecond)

	// probes succeed: three of them close the circuit again
	for i := 0; i < 3; i++ {
		err := cb.Call(func() error { return nil })
		if err != nil {
			t.Fatalf("Probe call %d failed: %v", i, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected Closed after successful probes, got %d", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	cb.RecordResult(false)

	time.Sleep(20 * time.Millisecond)

	cb.Call(func() error { return errors.New("still down") })

	if cb.GetState() != StateOpen {
		t.Errorf("Expected Open after a failed probe, got %d", cb.GetState())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	cb.RecordResult(false)

	cb.Reset()

	if cb.GetState() != StateClosed {
		t.Error("Expected Closed after Reset")
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker("test", 5, time.Second)

	cb.RecordResult(true)
	cb.RecordResult(false)
	cb.RecordResult(true)

	_, calls, failures := cb.GetStats()
	if calls != 3 || failures != 1 {
		t.Errorf("Stats = (%d calls, %d failures), want (3, 1)", calls, failures)
	}
}
