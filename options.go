package tablastic

import "time"

// clientConfig collects option values before wiring.
type clientConfig struct {
	addresses []string
	username  string
	password  string
	timeout   time.Duration
	maxDepth  int
}

// Option configures the client.
type Option func(*clientConfig)

// WithAddresses sets the engine node addresses (http:// or https://).
func WithAddresses(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addresses = append(c.addresses, addrs...)
	}
}

// WithBasicAuth sets engine credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithTimeout bounds each engine request. Zero disables the bound and a
// hung engine blocks the caller indefinitely. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithMaxDepth overrides the flattening recursion guard (default 32).
func WithMaxDepth(depth int) Option {
	return func(c *clientConfig) {
		c.maxDepth = depth
	}
}
