package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errBroker = errors.New("broker down")

func fail() (int, error) { return 0, errBroker }

func TestNew_OpensAfterMaxFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cb := New[int](Settings{Name: "test", MaxFailures: 2}, zap.New(core))

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(fail)
		assert.ErrorIs(t, err, errBroker)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.True(t, IsOpen(err))

	entries := logs.FilterMessage("circuit breaker state changed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "open", entries[0].ContextMap()["to"])
	}
}

func TestNew_HalfOpenProbe(t *testing.T) {
	cb := New[int](Settings{Name: "test", MaxFailures: 1, OpenTimeout: 10 * time.Millisecond}, nil)

	_, _ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	v, err := cb.Execute(func() (int, error) { return 7, nil })
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNew_Defaults(t *testing.T) {
	cb := New[int](Settings{Name: "defaults"}, nil)

	for i := 0; i < DefaultMaxFailures-1; i++ {
		_, _ = cb.Execute(fail)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	_, _ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen(gobreaker.ErrOpenState))
	assert.True(t, IsOpen(gobreaker.ErrTooManyRequests))
	assert.False(t, IsOpen(errBroker))
	assert.False(t, IsOpen(nil))
}
