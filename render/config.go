// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"strings"

	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/internal/stream"
)

// Default sizes, matching what a typical menu frame needs without growing.
const (
	DefaultUploadBufferSize       = 1024 * 1024
	DefaultVertexBufferSize       = 512 * VertexSize
	DefaultIndexBufferSize        = 1024 * IndexSize
	DefaultRowAlignment           = 256
	DefaultTextureOffsetAlignment = 512
)

// Config holds the renderer's buffer sizes and upload policy.
// The yaml tags let the same struct be loaded from a configuration file.
type Config struct {
	// UploadBufferSize is the initial size of the per-frame upload arena in bytes.
	// Default: 1 MiB
	UploadBufferSize uint64 `yaml:"upload_buffer_size"`

	// VertexBufferSize is the initial vertex buffer size in bytes.
	// Default: 512 vertices
	VertexBufferSize uint64 `yaml:"vertex_buffer_size"`

	// IndexBufferSize is the initial index buffer size in bytes.
	// Default: 1024 indices
	IndexBufferSize uint64 `yaml:"index_buffer_size"`

	// GrowthFactor multiplies the triggering requirement when a buffer grows.
	// Default: 1.5
	GrowthFactor float64 `yaml:"growth_factor"`

	// RowAlignment is the byte multiple texture rows are padded to in the
	// upload arena.
	// Default: 256
	RowAlignment uint32 `yaml:"row_alignment"`

	// TextureOffsetAlignment is the alignment of texture data in the upload arena.
	// Default: 512
	TextureOffsetAlignment uint64 `yaml:"texture_offset_alignment"`

	// RetireLatency is the number of frame sessions superseded buffers and
	// released textures stay alive.
	// Default: 1
	RetireLatency int `yaml:"retire_latency"`

	// Filter is the texture filter, "linear" or "nearest".
	// Default: "linear"
	Filter string `yaml:"filter"`

	// TargetFormat is the render target format, "rgba8" or "bgra8".
	// Empty means the format the device reports.
	TargetFormat string `yaml:"target_format"`
}

// DefaultConfig returns the default renderer configuration.
func DefaultConfig() Config {
	return Config{
		UploadBufferSize:       DefaultUploadBufferSize,
		VertexBufferSize:       DefaultVertexBufferSize,
		IndexBufferSize:        DefaultIndexBufferSize,
		GrowthFactor:           stream.DefaultGrowthFactor,
		RowAlignment:           DefaultRowAlignment,
		TextureOffsetAlignment: DefaultTextureOffsetAlignment,
		RetireLatency:          stream.DefaultRetireLatency,
		Filter:                 "linear",
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.UploadBufferSize == 0 {
		return &ConfigError{Field: "UploadBufferSize", Reason: "must be positive"}
	}
	if c.VertexBufferSize == 0 {
		return &ConfigError{Field: "VertexBufferSize", Reason: "must be positive"}
	}
	if c.IndexBufferSize == 0 {
		return &ConfigError{Field: "IndexBufferSize", Reason: "must be positive"}
	}
	if c.GrowthFactor <= 1 {
		return &ConfigError{Field: "GrowthFactor", Reason: "must be greater than 1"}
	}
	if c.RowAlignment == 0 || c.RowAlignment%BytesPerPixel != 0 {
		return &ConfigError{Field: "RowAlignment", Reason: fmt.Sprintf("must be a positive multiple of %d", BytesPerPixel)}
	}
	if c.TextureOffsetAlignment == 0 {
		return &ConfigError{Field: "TextureOffsetAlignment", Reason: "must be positive"}
	}
	if c.RetireLatency < 1 {
		return &ConfigError{Field: "RetireLatency", Reason: "must be at least 1"}
	}
	if _, err := c.filterMode(); err != nil {
		return err
	}
	if _, err := c.targetFormat(gpucore.TextureFormatBGRA8Unorm); err != nil {
		return err
	}
	return nil
}

func (c *Config) filterMode() (gpucore.FilterMode, error) {
	switch strings.ToLower(c.Filter) {
	case "", "linear":
		return gpucore.FilterLinear, nil
	case "nearest":
		return gpucore.FilterNearest, nil
	default:
		return 0, &ConfigError{Field: "Filter", Reason: fmt.Sprintf("unknown filter %q", c.Filter)}
	}
}

func (c *Config) targetFormat(device gpucore.TextureFormat) (gpucore.TextureFormat, error) {
	switch strings.ToLower(c.TargetFormat) {
	case "":
		return device, nil
	case "rgba8":
		return gpucore.TextureFormatRGBA8Unorm, nil
	case "bgra8":
		return gpucore.TextureFormatBGRA8Unorm, nil
	default:
		return 0, &ConfigError{Field: "TargetFormat", Reason: fmt.Sprintf("unknown format %q", c.TargetFormat)}
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "render: invalid config." + e.Field + ": " + e.Reason
}
