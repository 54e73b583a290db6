package resilience

import "time"

type BreakerConfig struct {
	FailureThreshold int
	OpenTimeout      time.Duration
}

type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 10,
		OpenTimeout:      30 * time.Second,
	}
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxTries:        5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsed:      30 * time.Second,
	}
}

func (c BreakerConfig) Normalize() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaults.OpenTimeout
	}
	return c
}

func (c RetryConfig) Normalize() RetryConfig {
	defaults := DefaultRetryConfig()
	if c.MaxTries == 0 {
		c.MaxTries = defaults.MaxTries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaults.InitialInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = max(defaults.MaxInterval, c.InitialInterval)
	}
	if c.MaxElapsed <= 0 {
		c.MaxElapsed = defaults.MaxElapsed
	}
	return c
}
