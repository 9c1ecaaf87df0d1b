// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the YAML configuration of the uidemo command.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default:
//
//	log_level: debug
//	render:
//	  upload_buffer_size: 4194304
//	  filter: nearest
//	demo:
//	  frames: 120
//	  launcher: assets/launcher.yaml
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/uirender/render"
)

// ErrInvalid is wrapped by every validation error Load and Validate return.
var ErrInvalid = errors.New("config: invalid")

// maxFileSize bounds what Load reads.
const maxFileSize = 1 << 20

// Backends the demo can drive.
const (
	BackendRecording = "recording"
	BackendNative    = "native"
)

// Config is the whole configuration file.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Render configures the renderer.
	Render render.Config `yaml:"render"`

	// Demo configures the frame loop.
	Demo Demo `yaml:"demo"`
}

// Demo configures the demo's frame loop.
type Demo struct {
	// Backend is "recording" (in-memory device) or "native" (HAL device).
	Backend string `yaml:"backend"`

	// Width and Height are the render target size in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Frames is the number of frames to draw.
	Frames int `yaml:"frames"`

	// Launcher is the document shown by the launcher menu.
	Launcher string `yaml:"launcher"`

	// Watch enables reloading documents when files below the launcher
	// document's directory change.
	Watch bool `yaml:"watch"`

	// ReloadAt lists frames at which the reload key is pressed.
	ReloadAt []int `yaml:"reload_at,omitempty"`

	// HideAt is the frame at which the menu is closed, 0 for never.
	HideAt int `yaml:"hide_at,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Render:   render.DefaultConfig(),
		Demo: Demo{
			Backend:  BackendRecording,
			Width:    1280,
			Height:   720,
			Frames:   60,
			Launcher: "assets/launcher.yaml",
		},
	}
}

// Load reads the file at path on top of Default and validates the result.
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("%w: %s is %d bytes, max %d", ErrInvalid, path, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// keys are errors. Empty input yields Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return enc.Close()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	d := &c.Demo
	switch d.Backend {
	case BackendRecording, BackendNative:
	default:
		return fmt.Errorf("%w: demo.backend %q", ErrInvalid, d.Backend)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: demo size %dx%d", ErrInvalid, d.Width, d.Height)
	}
	if d.Frames < 0 {
		return fmt.Errorf("%w: demo.frames %d", ErrInvalid, d.Frames)
	}
	if d.Launcher == "" {
		return fmt.Errorf("%w: demo.launcher is empty", ErrInvalid)
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}
