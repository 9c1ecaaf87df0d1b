// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command uidemo drives the UI renderer headlessly.
//
// It loads a launcher document, a list of colored and textured boxes, and
// renders it for a number of frames while a pointer sweeps across the
// target. The recording backend executes every frame on an in-memory device
// and validates it; the native backend runs the HAL device wrapper on the
// HAL's noop backend.
//
// Usage:
//
//	uidemo -init demo            # write demo/uidemo.yaml and demo/assets/
//	uidemo -config demo/uidemo.yaml
//	uidemo -config demo/uidemo.yaml -backend native -frames 10
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/frame"
	"github.com/gogpu/uirender/internal/config"
	"github.com/gogpu/uirender/render"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("uidemo", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML configuration file")
		frames     = fs.Int("frames", -1, "number of frames, overrides the configuration")
		backend    = fs.String("backend", "", "recording or native, overrides the configuration")
		initDir    = fs.String("init", "", "write a sample configuration and assets into `dir` and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *initDir != "" {
		return writeSample(*initDir)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
		if !filepath.IsAbs(cfg.Demo.Launcher) {
			cfg.Demo.Launcher = filepath.Join(filepath.Dir(*configPath), cfg.Demo.Launcher)
		}
	}
	if *frames >= 0 {
		cfg.Demo.Frames = *frames
	}
	if *backend != "" {
		cfg.Demo.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	uirender.SetLogger(logger)
	defer uirender.SetLogger(nil)

	res, err := runDemo(cfg)
	if err != nil {
		return err
	}
	logger.Info("uidemo: done",
		"backend", cfg.Demo.Backend,
		"frames", res.frames,
		"draws", res.stats.Draws,
		"textures", res.stats.Textures,
		"upload_bytes", res.stats.UploadCapacity,
		"upload_grows", res.stats.UploadGrows,
		"frame_errors", res.frameErrors)
	return nil
}

// result summarizes a run.
type result struct {
	frames      uint64
	stats       render.Stats
	frameErrors int
}

// runDemo renders cfg.Demo.Frames frames of the launcher document.
func runDemo(cfg config.Config) (result, error) {
	d := cfg.Demo
	t, err := openTarget(d)
	if err != nil {
		return result{}, err
	}
	defer t.Close()

	r, err := render.New(t.Device(), render.WithConfig(cfg.Render))
	if err != nil {
		return result{}, err
	}
	defer r.Close()

	ui := newDemoUI()
	ctrl := frame.NewController[pointerEvent](ui, r, map[frame.Menu]string{frame.MenuLauncher: d.Launcher})
	defer ctrl.Close()
	if err := ctrl.LoadDocuments(); err != nil {
		return result{}, err
	}
	if d.Watch {
		w, err := ctrl.WatchAssets(filepath.Dir(d.Launcher))
		if err != nil {
			uirender.Logger().Warn("uidemo: asset watching disabled", "err", err)
		} else {
			defer w.Close()
		}
	}

	// Input arrives from another goroutine, as it would from a window system.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepPointer(ctrl, d)
	}()
	defer wg.Wait()

	var res result
	for i := 1; i <= d.Frames; i++ {
		ctrl.ObserveReloadKey(slices.Contains(d.ReloadAt, i))
		if i == d.HideAt {
			ctrl.SetMenu(frame.MenuNone)
		}
		if err := ctrl.Draw(t.Recorder(), d.Width, d.Height); err != nil {
			res.frameErrors++
			uirender.Logger().Warn("uidemo: frame failed", "frame", i, "err", err)
		}
		if err := t.Present(); err != nil {
			return res, fmt.Errorf("uidemo: present frame %d: %w", i, err)
		}
	}
	res.frames = ctrl.Frames()
	res.stats = r.Stats()
	return res, nil
}

// sweepPointer queues one pointer event per frame along the target's diagonal.
func sweepPointer(ctrl *frame.Controller[pointerEvent], d config.Demo) {
	n := max(d.Frames, 1)
	for i := 0; i < d.Frames; i++ {
		ctrl.QueueEvent(pointerEvent{
			X: float32(d.Width*i) / float32(n),
			Y: float32(d.Height*i) / float32(n),
		})
	}
}
