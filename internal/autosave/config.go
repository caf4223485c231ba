package autosave

import "time"

// Config controls the draft flush loop.
type Config struct {
	// FlushInterval is how often dirty drafts are pushed through the
	// normal save path.
	FlushInterval time.Duration
	// FlushTimeout bounds a single flush pass.
	FlushTimeout time.Duration
	// DraftTTL bounds how long an abandoned draft survives.
	DraftTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		FlushInterval: time.Minute,
		FlushTimeout:  30 * time.Second,
		DraftTTL:      30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaults.FlushInterval
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = defaults.FlushTimeout
	}
	if c.DraftTTL <= 0 {
		c.DraftTTL = defaults.DraftTTL
	}
	return c
}
