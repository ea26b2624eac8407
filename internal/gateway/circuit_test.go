package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
		FailureWindow:    time.Minute,
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 3; i++ {
		assert.True(t, cb.Allow())
		cb.Record(&ServerError{StatusCode: 500})
	}

	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerIgnoresNonRetryableErrors(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 10; i++ {
		cb.Record(&RequestError{Message: "bad input"})
		cb.Record(&AuthError{})
	}

	assert.Equal(t, CircuitClosed, cb.State(), "4xx responses say nothing about service health")
	assert.True(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 3; i++ {
		cb.Record(&ConnectionError{Operation: "GET", Err: errors.New("refused")})
	}
	assert.Equal(t, CircuitOpen, cb.State())

	time.Sleep(25 * time.Millisecond)

	// First probe transitions to half-open.
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.Record(nil)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	cb.Record(nil)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 3; i++ {
		cb.Record(&ServerError{StatusCode: 503})
	}
	time.Sleep(25 * time.Millisecond)
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.Record(&ServerError{StatusCode: 503})
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerSuccessClearsFailures(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	cb.Record(&ServerError{StatusCode: 500})
	cb.Record(&ServerError{StatusCode: 500})
	cb.Record(nil)
	cb.Record(&ServerError{StatusCode: 500})
	cb.Record(&ServerError{StatusCode: 500})

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		cb.Record(&ServerError{StatusCode: 500})
	}
	assert.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.True(t, cb.Allow())
}
