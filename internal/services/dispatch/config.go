package dispatch

import (
	"fmt"
	"time"
)

type Config struct {
	// SimulatedDelay is how long a disabled category "thinks" before the
	// canned reply, so the pending indicator is visible.
	SimulatedDelay time.Duration
}

func (c *Config) Validate() error {
	if c.SimulatedDelay < 0 {
		return fmt.Errorf("simulated_delay cannot be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		SimulatedDelay: time.Second,
	}
}
