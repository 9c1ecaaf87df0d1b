// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "github.com/gogpu/uirender/gpucore"

// Default capabilities of a HAL device.
const (
	DefaultShaderFormat   = gpucore.ShaderFormatWGSL
	DefaultTargetFormat   = gpucore.TextureFormatBGRA8Unorm
	DefaultMaxTextureSize = 8192
)

// Option configures a HALDevice.
type Option func(*options)

type options struct {
	caps gpucore.Capabilities
}

func defaultOptions() options {
	return options{caps: gpucore.Capabilities{
		ShaderFormat:   DefaultShaderFormat,
		TargetFormat:   DefaultTargetFormat,
		MaxTextureSize: DefaultMaxTextureSize,
	}}
}

// WithShaderFormat selects the shader representation passed to the HAL.
func WithShaderFormat(format gpucore.ShaderFormat) Option {
	return func(o *options) {
		o.caps.ShaderFormat = format
	}
}

// WithTargetFormat sets the color format of the render target.
func WithTargetFormat(format gpucore.TextureFormat) Option {
	return func(o *options) {
		o.caps.TargetFormat = format
	}
}

// WithMaxTextureSize sets the reported maximum texture dimension.
func WithMaxTextureSize(size uint32) Option {
	return func(o *options) {
		o.caps.MaxTextureSize = size
	}
}
