// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/uirender/render"
)

func TestParseEmpty(t *testing.T) {
	got, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("Parse(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverrides(t *testing.T) {
	src := `
log_level: debug
render:
  filter: nearest
  upload_buffer_size: 4194304
demo:
  frames: 5
  reload_at: [2, 4]
`
	got, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Default()
	want.LogLevel = "debug"
	want.Render.Filter = "nearest"
	want.Render.UploadBufferSize = 4 << 20
	want.Demo.Frames = 5
	want.Demo.ReloadAt = []int{2, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		invalid bool
	}{
		{"unknown key", "render:\n  colour: red\n", false},
		{"not yaml", "render: [", false},
		{"log level", "log_level: loud\n", true},
		{"growth", "render:\n  growth_factor: 1\n", true},
		{"filter", "render:\n  filter: cubic\n", true},
		{"backend", "demo:\n  backend: vulkan\n", true},
		{"size", "demo:\n  width: 0\n", true},
		{"frames", "demo:\n  frames: -1\n", true},
		{"launcher", "demo:\n  launcher: \"\"\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(%v, ErrInvalid) = %v, want %v", err, got, tt.invalid)
			}
		})
	}
}

func TestRenderErrorKeepsField(t *testing.T) {
	_, err := Parse([]byte("render:\n  retire_latency: 0\n"))
	var ce *render.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *render.ConfigError", err)
	}
	if ce.Field != "RetireLatency" {
		t.Errorf("Field = %q, want RetireLatency", ce.Field)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uidemo.yaml")
	if err := os.WriteFile(path, []byte("demo:\n  backend: native\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Demo.Backend != BackendNative {
		t.Errorf("Backend = %q, want %q", cfg.Demo.Backend, BackendNative)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v, want fs.ErrNotExist", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Demo.ReloadAt = []int{10}
	cfg.Demo.HideAt = 20
	cfg.Render.TargetFormat = "rgba8"

	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse(Write()): %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		c := Config{LogLevel: tt.in}
		got, err := c.Level()
		if err != nil || got != tt.want {
			t.Errorf("Level(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
