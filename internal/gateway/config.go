package gateway

import "time"

// Config holds the HTTP server settings.
type Config struct {
	Listen string `yaml:"listen"`

	// AdminToken protects /status and the /api session endpoints; when
	// empty those routes are not mounted.
	AdminToken string `yaml:"admin_token"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		// Streaming completions hold the response open well past a
		// typical request timeout.
		c.WriteTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}
