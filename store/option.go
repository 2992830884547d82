package store

import "time"

// config and its functional Option setters follow the teacher's own
// store/option.go pattern (gsfa/store), adapted from hand-rolled
// index/primary/freelist file-size tuning to bbolt's own knobs.
const (
	defaultOpenTimeout  = time.Second
	defaultMaxMapSize   = 1 << 30 // 1 GiB, bbolt grows this on demand
	defaultRetryAttempts = 5
	defaultRetryBackoffMin = 50 * time.Millisecond
	defaultRetryBackoffMax = 1000 * time.Millisecond
)

type config struct {
	openTimeout     time.Duration
	maxMapSize      int
	readOnly        bool
	noSync          bool
	retryAttempts   int
	retryBackoffMin time.Duration
	retryBackoffMax time.Duration
}

// Option configures Open.
type Option func(*config)

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func defaultConfig() config {
	return config{
		openTimeout:     defaultOpenTimeout,
		maxMapSize:      defaultMaxMapSize,
		retryAttempts:   defaultRetryAttempts,
		retryBackoffMin: defaultRetryBackoffMin,
		retryBackoffMax: defaultRetryBackoffMax,
	}
}

// OpenTimeout bounds how long Open waits to acquire bbolt's exclusive file
// lock before retrying (see RetryAttempts).
func OpenTimeout(d time.Duration) Option {
	return func(c *config) { c.openTimeout = d }
}

// MaxMapSize sets the maximum size the memory-mapped database file may grow
// to; exceeding it surfaces as ErrMapFull per §4.5's failure semantics.
func MaxMapSize(bytes int) Option {
	return func(c *config) { c.maxMapSize = bytes }
}

// ReadOnly opens the database without acquiring the writer lock, for a
// process that only ever reads (e.g. a diagnostic CLI).
func ReadOnly(yes bool) Option {
	return func(c *config) { c.readOnly = yes }
}

// NoSync disables fsync after every commit; throughput over durability, for
// bulk-load or test scenarios.
func NoSync(yes bool) Option {
	return func(c *config) { c.noSync = yes }
}

// RetryAttempts sets how many times Open retries acquiring the exclusive
// lock before giving up with ErrLockTimeout (§4.5: "up to 5 attempts").
func RetryAttempts(n int) Option {
	return func(c *config) { c.retryAttempts = n }
}

// RetryBackoff sets the min/max backoff range between lock-acquisition
// retries (§4.5: "50-1000 ms").
func RetryBackoff(min, max time.Duration) Option {
	return func(c *config) { c.retryBackoffMin, c.retryBackoffMax = min, max }
}
