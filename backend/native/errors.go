// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "errors"

// Package errors for the HAL device.
var (
	// ErrNoHALDevice is returned when a device provider does not expose HAL objects.
	ErrNoHALDevice = errors.New("native: provider does not expose a HAL device")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("native: device closed")

	// ErrUnknownResource is returned for IDs that were never created or were destroyed.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrNotMappable is returned when mapping a buffer created without BufferUsageMapWrite.
	ErrNotMappable = errors.New("native: buffer is not mappable")

	// ErrUnsupportedFormat is returned for formats the device cannot translate.
	ErrUnsupportedFormat = errors.New("native: unsupported format")

	// ErrPushConstantsTooLarge is returned for layouts whose push constant
	// block does not fit one constants slot.
	ErrPushConstantsTooLarge = errors.New("native: push constants too large")

	// ErrInvalidDescriptor is returned for descriptors the HAL would reject.
	ErrInvalidDescriptor = errors.New("native: invalid descriptor")
)
