// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/internal/config"
	"github.com/gogpu/uirender/internal/gputest"
)

// target is a device plus the recorder frames are drawn into.
type target interface {
	Device() gpucore.Device
	Recorder() gpucore.CommandRecorder
	// Present hands the recorded frame to the device.
	Present() error
	Close() error
}

// targetFactory opens a target for the demo configuration.
type targetFactory func(cfg config.Demo) (target, error)

// targets maps backend names to factories. Backends that need build tags
// register themselves from init.
var targets = map[string]targetFactory{
	config.BackendRecording: func(config.Demo) (target, error) { return newRecordingTarget(), nil },
}

func registerTarget(name string, factory targetFactory) {
	targets[name] = factory
}

// openTarget opens the backend named by cfg.Backend.
func openTarget(cfg config.Demo) (target, error) {
	factory, ok := targets[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("uidemo: backend %q not available in this build (have %s)",
			cfg.Backend, strings.Join(slices.Sorted(maps.Keys(targets)), ", "))
	}
	return factory(cfg)
}

// recordingTarget runs frames against the in-memory device, which executes
// copies immediately and validates every draw.
type recordingTarget struct {
	dev   *gputest.Device
	rec   *gputest.Recorder
	draws int
}

func newRecordingTarget() *recordingTarget {
	dev := gputest.NewDevice()
	return &recordingTarget{dev: dev, rec: gputest.NewRecorder(dev)}
}

func (t *recordingTarget) Device() gpucore.Device            { return t.dev }
func (t *recordingTarget) Recorder() gpucore.CommandRecorder { return t.rec }

// Present reports the validation errors of the frame and clears the recorder.
func (t *recordingTarget) Present() error {
	defer t.rec.Reset()
	t.draws += len(t.rec.Draws())
	return t.rec.Err()
}

func (t *recordingTarget) Close() error { return nil }
