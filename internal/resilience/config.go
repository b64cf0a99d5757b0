package resilience

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/equitle/enrichment-cli/internal/config"
)

// Policy bundles the resilience settings applied to one provider.
type Policy struct {
	Retry   RetryConfig
	Circuit CircuitBreakerConfig
	// RateLimit is the initial request rate. Zero disables limiting.
	RateLimit rate.Limit
}

// PolicyFromConfig builds a Policy from configuration. Unset values keep
// their defaults.
func PolicyFromConfig(cfg config.ResilienceConfig, rps float64) Policy {
	p := Policy{
		Retry:   DefaultRetryConfig(),
		Circuit: DefaultCircuitBreakerConfig(),
	}
	if cfg.MaxAttempts > 0 {
		p.Retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMs > 0 {
		p.Retry.InitialBackoff = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		p.Retry.MaxBackoff = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	if cfg.Multiplier > 0 {
		p.Retry.Multiplier = cfg.Multiplier
	}
	if cfg.JitterFraction >= 0 {
		p.Retry.JitterFraction = cfg.JitterFraction
	}
	if cfg.FailureThreshold > 0 {
		p.Circuit.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.ResetTimeoutSecs > 0 {
		p.Circuit.ResetTimeout = time.Duration(cfg.ResetTimeoutSecs) * time.Second
	}
	if rps > 0 {
		p.RateLimit = rate.Limit(rps)
	}
	return p
}
