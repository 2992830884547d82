package linkspace

import (
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/store"
)

// config and its functional Option setters follow the same shape as
// store.Option (itself following the teacher's gsfa/store/option.go
// pattern): a private config struct, zero-value defaults, and small
// setter functions applied in order.
type config struct {
	publicGroup [packet.GroupSize]byte
	storeOpts   []store.Option
}

// Option configures Open.
type Option func(*config)

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func defaultConfig() config {
	return config{publicGroup: packet.DefaultPublicGroup}
}

// PublicGroup overrides the deployment's designated broadcastable group
// (§6.2); the zero-configuration default is packet.DefaultPublicGroup.
func PublicGroup(g [packet.GroupSize]byte) Option {
	return func(c *config) { c.publicGroup = g }
}

// WithStoreOptions passes options straight through to store.Open (e.g.
// store.ReadOnly, store.MaxMapSize, store.RetryAttempts).
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *config) { c.storeOpts = append(c.storeOpts, opts...) }
}
