package resilience

import "time"

// Circuit breaker configuration constants
const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// Frame sources: a run of misses trips the breaker, the reset timeout is
	// how long a dead source rests before a reopen attempt
	SourceThreshold         = 30
	SourceResetTimeout      = 2 * time.Second
	SourceHalfOpenSuccesses = 5
)

// Config holds circuit breaker settings.
type Config struct {
	Name              string        // shows up in logs
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
}

// DefaultConfig returns general-purpose defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
	}
}

// SourceConfig returns settings for supervising a frame source.
func SourceConfig(threshold int, reset time.Duration) Config {
	return Config{
		Name:              "source",
		Threshold:         threshold,
		ResetTimeout:      reset,
		HalfOpenSuccesses: SourceHalfOpenSuccesses,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return c
}
