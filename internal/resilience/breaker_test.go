package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []bool
		expectedState State
	}{
		{
			name: "stays closed on successes",
			settings: Settings{
				MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute,
			},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute,
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
			},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", tt.settings)
			for _, success := range tt.requests {
				_, _ = breaker.Execute(func() (interface{}, error) {
					if success {
						return "ok", nil
					}
					return nil, errors.New("failed")
				})
			}
			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerOpenStateFailsFast(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})

	for i := 0; i < 2; i++ {
		_, _ = breaker.Execute(func() (interface{}, error) { return nil, errors.New("failed") })
	}
	require.Equal(t, StateOpen, breaker.State())

	_, err := breaker.Execute(func() (interface{}, error) { return "ok", nil })
	assert.Equal(t, ErrCircuitOpen, err)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 2, Interval: time.Minute, Timeout: 30 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})

	for i := 0; i < 2; i++ {
		_, _ = breaker.Execute(func() (interface{}, error) { return nil, errors.New("failed") })
	}
	require.Equal(t, StateOpen, breaker.State())

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(func() (interface{}, error) { return "ok", nil })
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, breaker.State())
}
