package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/equitle/enrichment-cli/internal/config"
)

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	l := NewAdaptiveLimiter(10, 1)
	require.NotNil(t, l)

	for i := 0; i < 20; i++ {
		l.OnSuccess()
	}
	assert.InDelta(t, 20.0, float64(l.Limit()), 0.0001)

	for i := 0; i < 20; i++ {
		l.OnRateLimit()
	}
	assert.InDelta(t, 2.5, float64(l.Limit()), 0.0001)
}

func TestAdaptiveLimiter_Observe(t *testing.T) {
	l := NewAdaptiveLimiter(10, 1)

	l.Observe(statusErr(429))
	assert.InDelta(t, 5.0, float64(l.Limit()), 0.0001)

	l.Observe(errors.New("not found"))
	assert.InDelta(t, 5.0, float64(l.Limit()), 0.0001)

	l.Observe(nil)
	assert.InDelta(t, 6.0, float64(l.Limit()), 0.0001)
}

func TestAdaptiveLimiter_Nil(t *testing.T) {
	l := NewAdaptiveLimiter(0, 1)
	assert.Nil(t, l)

	require.NoError(t, l.Wait(context.Background()))
	l.Observe(nil)
	l.Observe(statusErr(429))
	assert.Equal(t, rate.Inf, l.Limit())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestAdaptiveLimiter_WaitHonoursContext(t *testing.T) {
	l := NewAdaptiveLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.ResilienceConfig{
		MaxAttempts:      5,
		InitialBackoffMs: 100,
		MaxBackoffMs:     2000,
		Multiplier:       3,
		JitterFraction:   0,
		FailureThreshold: 7,
		ResetTimeoutSecs: 60,
	}, 4)

	assert.Equal(t, 5, p.Retry.MaxAttempts)
	assert.Equal(t, int64(100), p.Retry.InitialBackoff.Milliseconds())
	assert.Equal(t, int64(2000), p.Retry.MaxBackoff.Milliseconds())
	assert.Equal(t, 3.0, p.Retry.Multiplier)
	assert.Zero(t, p.Retry.JitterFraction)
	assert.Equal(t, 7, p.Circuit.FailureThreshold)
	assert.Equal(t, float64(60), p.Circuit.ResetTimeout.Seconds())
	assert.Equal(t, rate.Limit(4), p.RateLimit)
}

func TestPolicyFromConfig_Defaults(t *testing.T) {
	p := PolicyFromConfig(config.ResilienceConfig{JitterFraction: -1}, 0)

	assert.Equal(t, DefaultRetryConfig().MaxAttempts, p.Retry.MaxAttempts)
	assert.Equal(t, DefaultRetryConfig().JitterFraction, p.Retry.JitterFraction)
	assert.Equal(t, DefaultCircuitBreakerConfig().FailureThreshold, p.Circuit.FailureThreshold)
	assert.Zero(t, p.RateLimit)
}
