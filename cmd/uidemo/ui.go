// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/math/f32"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/frame"
	"github.com/gogpu/uirender/render"
)

// pointerEvent is the demo's only input event.
type pointerEvent struct {
	X, Y float32
}

// boxSpec is one rectangle of a document file.
type boxSpec struct {
	Name  string     `yaml:"name"`
	Rect  [4]float32 `yaml:"rect"`
	Color string     `yaml:"color"`

	// Texture is a .tga file relative to the document.
	Texture string `yaml:"texture,omitempty"`

	// Gradient fills the box with a generated texture.
	Gradient bool `yaml:"gradient,omitempty"`

	// Clip restricts the boxes after this one to its rectangle.
	Clip bool `yaml:"clip,omitempty"`
}

// docSpec is the content of a document file.
type docSpec struct {
	Hover string    `yaml:"hover"`
	Scale float32   `yaml:"scale,omitempty"`
	Boxes []boxSpec `yaml:"boxes"`
}

// textureRef is a cached texture. A failed load is cached as handle 0, the
// white fallback, so it is reported once.
type textureRef struct {
	handle render.TextureHandle
	size   image.Point
}

// demoUI is a tiny layout engine: documents are lists of colored, optionally
// textured boxes, and the box under the pointer is highlighted.
type demoUI struct {
	width, height int
	pointer       f32.Vec2
	hovered       int
	shown         *document

	backend  render.Backend
	textures map[string]textureRef

	draws int
}

var _ frame.UIContext[pointerEvent] = (*demoUI)(nil)

func newDemoUI() *demoUI {
	return &demoUI{hovered: -1, textures: make(map[string]textureRef)}
}

// LoadDocument parses the document file at path.
func (ui *demoUI) LoadDocument(path string) (frame.Document, error) {
	d := &document{ui: ui, path: path}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

// SetDimensions records the target size.
func (ui *demoUI) SetDimensions(width, height int) {
	ui.width, ui.height = width, height
	uirender.Logger().Debug("uidemo: dimensions", "width", width, "height", height)
}

// ProcessEvent moves the pointer.
func (ui *demoUI) ProcessEvent(ev pointerEvent) {
	ui.pointer = f32.Vec2{ev.X, ev.Y}
}

// Update finds the topmost box under the pointer.
func (ui *demoUI) Update() {
	ui.hovered = -1
	d := ui.shown
	if d == nil {
		return
	}
	p := ui.pointer
	if s := d.scale(); s != 1 {
		p = f32.Vec2{p[0] / s, p[1] / s}
	}
	for i := len(d.boxes) - 1; i >= 0; i-- {
		r := d.boxes[i].spec.Rect
		if p[0] >= r[0] && p[0] < r[0]+r[2] && p[1] >= r[1] && p[1] < r[1]+r[3] {
			ui.hovered = i
			return
		}
	}
}

// Render draws the shown document through b.
func (ui *demoUI) Render(b render.Backend) error {
	d := ui.shown
	if d == nil {
		return nil
	}
	ui.backend = b

	if s := d.scale(); s != 1 {
		m := render.Scale(s, s)
		b.SetTransform(&m)
		defer b.SetTransform(nil)
	}

	var errs []error
	clipped := false
	for i := range d.boxes {
		bx := &d.boxes[i]
		tex := ui.texture(b, d, bx)
		c := bx.color
		if i == ui.hovered {
			c = d.hover
		}
		r := bx.spec.Rect
		vs, is := quad(r[2], r[3], c)
		if err := b.RenderGeometry(vs, is, tex, f32.Vec2{r[0], r[1]}); err != nil {
			errs = append(errs, fmt.Errorf("box %q: %w", bx.spec.Name, err))
			continue
		}
		ui.draws++
		if bx.spec.Clip {
			b.SetScissorRegion(int(r[0]), int(r[1]), int(r[2]), int(r[3]))
			b.EnableScissorRegion(true)
			clipped = true
		}
	}
	if clipped {
		b.EnableScissorRegion(false)
	}
	return errors.Join(errs...)
}

// ReleaseTextures releases every cached texture.
func (ui *demoUI) ReleaseTextures() {
	for key, ref := range ui.textures {
		if ref.handle != 0 && ui.backend != nil {
			ui.backend.ReleaseTexture(ref.handle)
		}
		delete(ui.textures, key)
	}
}

// texture returns the handle for a box, loading or generating it on first use.
func (ui *demoUI) texture(b render.Backend, d *document, bx *box) render.TextureHandle {
	switch {
	case bx.spec.Texture != "":
		source := filepath.Join(filepath.Dir(d.path), bx.spec.Texture)
		if ref, ok := ui.textures[source]; ok {
			return ref.handle
		}
		handle, size, err := b.LoadTexture(source)
		if err != nil {
			// Logged by the renderer; draw untextured from now on.
			handle = 0
		}
		ui.textures[source] = textureRef{handle: handle, size: size}
		return handle
	case bx.spec.Gradient:
		key := "gradient:" + bx.spec.Name
		if ref, ok := ui.textures[key]; ok {
			return ref.handle
		}
		size := image.Pt(16, 16)
		handle, err := b.GenerateTexture(gradient(size), size)
		if err != nil {
			uirender.Logger().Warn("uidemo: generate texture failed", "box", bx.spec.Name, "err", err)
			handle = 0
		}
		ui.textures[key] = textureRef{handle: handle, size: size}
		return handle
	default:
		return 0
	}
}

// document is a loaded document file.
type document struct {
	ui    *demoUI
	path  string
	spec  docSpec
	boxes []box
	hover color.RGBA
}

// box is a boxSpec with its color parsed.
type box struct {
	spec  boxSpec
	color color.RGBA
}

var _ frame.Document = (*document)(nil)

func (d *document) load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("uidemo: %w", err)
	}
	var spec docSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("uidemo: %s: %w", d.path, err)
	}
	hover, err := parseColor(spec.Hover)
	if err != nil {
		return fmt.Errorf("uidemo: %s: hover: %w", d.path, err)
	}
	boxes := make([]box, len(spec.Boxes))
	for i, s := range spec.Boxes {
		c, err := parseColor(s.Color)
		if err != nil {
			return fmt.Errorf("uidemo: %s: box %q: %w", d.path, s.Name, err)
		}
		boxes[i] = box{spec: s, color: c}
	}
	d.spec, d.boxes, d.hover = spec, boxes, hover
	return nil
}

func (d *document) scale() float32 {
	if d.spec.Scale <= 0 {
		return 1
	}
	return d.spec.Scale
}

// Show makes d the rendered document.
func (d *document) Show() { d.ui.shown = d }

// Hide stops rendering d.
func (d *document) Hide() {
	if d.ui.shown == d {
		d.ui.shown = nil
	}
}

// Close hides d.
func (d *document) Close() { d.Hide() }

// ReloadStyleSheet re-reads the document's colors. On failure the old ones stay.
func (d *document) ReloadStyleSheet() {
	if err := d.load(); err != nil {
		uirender.Logger().Warn("uidemo: style reload failed", "path", d.path, "err", err)
	}
}

// quad returns a w×h rectangle at the origin with full texture coordinates.
func quad(w, h float32, c color.RGBA) ([]render.Vertex, []uint32) {
	vs := []render.Vertex{
		{Position: f32.Vec2{0, 0}, Color: c, TexCoord: f32.Vec2{0, 0}},
		{Position: f32.Vec2{w, 0}, Color: c, TexCoord: f32.Vec2{1, 0}},
		{Position: f32.Vec2{w, h}, Color: c, TexCoord: f32.Vec2{1, 1}},
		{Position: f32.Vec2{0, h}, Color: c, TexCoord: f32.Vec2{0, 1}},
	}
	return vs, []uint32{0, 1, 2, 0, 2, 3}
}

// gradient returns top-down RGBA pixels fading from transparent to white.
func gradient(size image.Point) []byte {
	pix := make([]byte, size.X*size.Y*render.BytesPerPixel)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			a := byte(255 * x / max(size.X-1, 1))
			i := (y*size.X + x) * render.BytesPerPixel
			pix[i], pix[i+1], pix[i+2], pix[i+3] = 255, 255, 255, a
		}
	}
	return pix
}

// parseColor parses #rrggbb or #rrggbbaa. The empty string is opaque white.
func parseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.RGBA{}, fmt.Errorf("color %q is not #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: byte(v >> 24), G: byte(v >> 16), B: byte(v >> 8), A: byte(v)}, nil
}
