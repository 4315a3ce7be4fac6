package projector

import (
	"time"

	"github.com/muurk/projctl/internal/sources"
)

// DefaultTimeout bounds how long a round trip waits for a reply.
const DefaultTimeout = 5 * time.Second

// Config holds the session configuration.
type Config struct {
	// Timeout is the overall deadline for reading one reply
	Timeout time.Duration

	// Clock returns the current time; used to compute read deadlines
	Clock func() time.Time

	// Table resolves source names and codes for the bound model
	Table *sources.Table
}

func defaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
		Clock:   time.Now,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithTimeout sets the reply timeout. Non-positive values are ignored.
//
// Example:
//
//	session, err := projector.New("EH470", port, projector.WithTimeout(2*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithClock replaces the time source used for read deadlines.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Clock = now
		}
	}
}

// WithTable sets the source table. The embedded catalog is used by default.
func WithTable(table *sources.Table) Option {
	return func(c *Config) {
		c.Table = table
	}
}
