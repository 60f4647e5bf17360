// Package config holds the small set of tunables the catalog core reads,
// using the same functional-options shape the teacher's mapper package
// configures itself with: a struct of defaults plus With... closures.
package config

// Config holds the tunables the branch state machine reads.
type Config struct {
	// P2CommitAttempts bounds collapseIntentionLog's optimistic retry
	// loop. Recommended >= 5.
	P2CommitAttempts int

	// WaitOnCollapse selects whether ensureAvailable blocks on the
	// scheduled collapse or returns as soon as the derived L1s are saved.
	WaitOnCollapse bool

	// EnableTracing opts into span emission at collapseIntentionLog and
	// each retry attempt.
	EnableTracing bool

	// CompressEntities opts a Store implementation into zstd-compressing
	// entity bytes at rest. Small catalog records rarely benefit, so it
	// defaults off; a store backing large L1/L2/L3 trees can turn it on.
	CompressEntities bool
}

// Default returns the recommended configuration: five collapse attempts,
// synchronous collapse, tracing off, compression off.
func Default() Config {
	return Config{
		P2CommitAttempts: 5,
		WaitOnCollapse:   true,
		EnableTracing:    false,
		CompressEntities: false,
	}
}

// Option mutates a Config in place.
type Option func(*Config)

// WithP2CommitAttempts overrides the collapse retry budget.
func WithP2CommitAttempts(n int) Option {
	return func(c *Config) { c.P2CommitAttempts = n }
}

// WithWaitOnCollapse overrides whether ensureAvailable blocks on collapse.
func WithWaitOnCollapse(wait bool) Option {
	return func(c *Config) { c.WaitOnCollapse = wait }
}

// WithTracing overrides whether spans are emitted.
func WithTracing(enabled bool) Option {
	return func(c *Config) { c.EnableTracing = enabled }
}

// WithCompressEntities overrides whether a Store backing this Config
// zstd-compresses entity bytes at rest.
func WithCompressEntities(enabled bool) Option {
	return func(c *Config) { c.CompressEntities = enabled }
}

// New builds a Config starting from Default and applying opts in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
