// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := render.New(dev,
//	    render.WithUploadBufferSize(4<<20),
//	    render.WithFilter("nearest"),
//	)
type Option func(*Config)

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(c Config) Option {
	return func(dst *Config) {
		*dst = c
	}
}

// WithUploadBufferSize sets the initial upload arena size in bytes.
func WithUploadBufferSize(n uint64) Option {
	return func(c *Config) {
		c.UploadBufferSize = n
	}
}

// WithVertexBufferSize sets the initial vertex buffer size in bytes.
func WithVertexBufferSize(n uint64) Option {
	return func(c *Config) {
		c.VertexBufferSize = n
	}
}

// WithIndexBufferSize sets the initial index buffer size in bytes.
func WithIndexBufferSize(n uint64) Option {
	return func(c *Config) {
		c.IndexBufferSize = n
	}
}

// WithGrowthFactor sets the buffer growth factor.
func WithGrowthFactor(f float64) Option {
	return func(c *Config) {
		c.GrowthFactor = f
	}
}

// WithRetireLatency sets how many frame sessions retired resources stay alive.
// Hosts that keep more than one frame in flight must raise it to match.
func WithRetireLatency(frames int) Option {
	return func(c *Config) {
		c.RetireLatency = frames
	}
}

// WithFilter sets the texture filter, "linear" or "nearest".
func WithFilter(filter string) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}
