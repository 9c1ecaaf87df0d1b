// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/uirender/backend/native"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/internal/config"
)

// nativeTarget drives backend/native on the HAL's noop backend, rendering
// into an offscreen texture.
type nativeTarget struct {
	instance hal.Instance
	open     hal.OpenDevice
	dev      *native.HALDevice
	rec      *native.Recorder
	texture  hal.Texture
	view     hal.TextureView
}

func init() {
	registerTarget(config.BackendNative, func(cfg config.Demo) (target, error) {
		return newNativeTarget(cfg.Width, cfg.Height)
	})
}

func newNativeTarget(width, height int) (target, error) {
	instance, err := noop.API{}.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("uidemo: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("uidemo: no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("uidemo: open device: %w", err)
	}
	t := &nativeTarget{instance: instance, open: open}

	t.texture, err = open.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         "uidemo.target",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("uidemo: create target: %w", err)
	}
	t.view, err = open.Device.CreateTextureView(t.texture, &hal.TextureViewDescriptor{
		Label:           "uidemo.target",
		Format:          gputypes.TextureFormatBGRA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("uidemo: create target view: %w", err)
	}

	t.dev, err = native.New(open.Device, open.Queue, native.WithTargetFormat(gpucore.TextureFormatBGRA8Unorm))
	if err != nil {
		t.Close()
		return nil, err
	}
	t.rec = t.dev.NewRecorder()
	return t, nil
}

func (t *nativeTarget) Device() gpucore.Device            { return t.dev }
func (t *nativeTarget) Recorder() gpucore.CommandRecorder { return t.rec }

// Present submits the frame into the offscreen target.
func (t *nativeTarget) Present() error {
	return t.rec.Submit(t.view)
}

// Close releases the device wrapper first, then the HAL objects it borrowed.
func (t *nativeTarget) Close() error {
	var err error
	if t.dev != nil {
		err = t.dev.Close()
	}
	if t.view != nil {
		t.open.Device.DestroyTextureView(t.view)
	}
	if t.texture != nil {
		t.open.Device.DestroyTexture(t.texture)
	}
	t.open.Device.Destroy()
	t.instance.Destroy()
	return err
}
