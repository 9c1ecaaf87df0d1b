// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/gogpu/uirender/internal/config"
	"github.com/gogpu/uirender/internal/tga"
)

// sampleLauncher is the launcher document written by -init.
const sampleLauncher = `hover: "#ffcc00ff"
boxes:
  - name: background
    rect: [0, 0, 1280, 720]
    color: "#1e1e2aff"
  - name: panel
    rect: [40, 40, 400, 640]
    color: "#2e2e40ff"
    clip: true
  - name: icon
    rect: [60, 60, 64, 64]
    texture: icon.tga
  - name: shade
    rect: [40, 600, 400, 80]
    color: "#000000ff"
    gradient: true
  - name: button
    rect: [60, 140, 360, 48]
    color: "#4060c0ff"
`

// writeSample writes a configuration, a launcher document and its icon
// below dir.
func writeSample(dir string) error {
	assets := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assets, 0o755); err != nil {
		return fmt.Errorf("uidemo: %w", err)
	}

	if err := os.WriteFile(filepath.Join(assets, "launcher.yaml"), []byte(sampleLauncher), 0o644); err != nil {
		return fmt.Errorf("uidemo: %w", err)
	}

	icon, err := os.Create(filepath.Join(assets, "icon.tga"))
	if err != nil {
		return fmt.Errorf("uidemo: %w", err)
	}
	if err := tga.Encode(icon, checker(64, 8)); err != nil {
		icon.Close()
		return fmt.Errorf("uidemo: encode icon: %w", err)
	}
	if err := icon.Close(); err != nil {
		return fmt.Errorf("uidemo: %w", err)
	}

	cfg := config.Default()
	cfg.Demo.Launcher = "assets/launcher.yaml"
	cfg.Demo.ReloadAt = []int{cfg.Demo.Frames / 2}
	f, err := os.Create(filepath.Join(dir, "uidemo.yaml"))
	if err != nil {
		return fmt.Errorf("uidemo: %w", err)
	}
	if err := config.Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// checker returns a size×size two-color checkerboard of cell-sized squares.
func checker(size, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	light := color.NRGBA{R: 230, G: 230, B: 240, A: 255}
	dark := color.NRGBA{R: 70, G: 90, B: 160, A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dark
			if (x/cell+y/cell)%2 == 0 {
				c = light
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
