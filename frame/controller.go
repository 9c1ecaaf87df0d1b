// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/events"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/render"
)

// Menu selects which document is shown.
type Menu int32

// Menus.
const (
	// MenuNone hides every document and skips rendering.
	MenuNone Menu = iota
	// MenuLauncher is the launcher screen.
	MenuLauncher
)

// String returns the menu name.
func (m Menu) String() string {
	switch m {
	case MenuNone:
		return "none"
	case MenuLauncher:
		return "launcher"
	default:
		return fmt.Sprintf("Menu(%d)", int32(m))
	}
}

// Document is a loaded UI document.
type Document interface {
	Show()
	Hide()
	Close()
	ReloadStyleSheet()
}

// UIContext is the layout engine context that owns documents and renders
// them through a render.Backend.
type UIContext[E any] interface {
	LoadDocument(path string) (Document, error)
	SetDimensions(width, height int)
	ProcessEvent(ev E)
	Update()
	Render(backend render.Backend) error
	// ReleaseTextures drops every texture the context holds.
	ReleaseTextures()
}

// Renderer is a render backend with frame sessions, such as *render.Renderer.
type Renderer interface {
	render.Backend
	Start(rec gpucore.CommandRecorder, width, height int) error
	End() error
}

var _ Renderer = (*render.Renderer)(nil)

// Controller drives one UI context. See the package documentation.
type Controller[E any] struct {
	ui       UIContext[E]
	renderer Renderer
	events   *events.Bridge[E]

	paths     map[Menu]string
	documents map[Menu]Document
	current   Document

	openMenu   atomic.Int32
	reload     atomic.Bool
	reloadHeld atomic.Bool

	prevMenu   Menu
	prevWidth  int
	prevHeight int
	frames     uint64
}

// NewController returns a controller for ui rendering through renderer.
// paths maps each menu to the document file loaded for it. The launcher
// menu is open initially.
func NewController[E any](ui UIContext[E], renderer Renderer, paths map[Menu]string) *Controller[E] {
	c := &Controller[E]{
		ui:        ui,
		renderer:  renderer,
		events:    events.NewBridge[E](),
		paths:     make(map[Menu]string, len(paths)),
		documents: make(map[Menu]Document),
		prevMenu:  MenuNone,
	}
	for m, p := range paths {
		c.paths[m] = p
	}
	c.openMenu.Store(int32(MenuLauncher))
	return c
}

// SetMenu requests menu for the next frame.
func (c *Controller[E]) SetMenu(menu Menu) {
	c.openMenu.Store(int32(menu))
}

// Menu returns the requested menu.
func (c *Controller[E]) Menu() Menu {
	return Menu(c.openMenu.Load())
}

// QueueEvent hands an input event to the next frame. It never blocks.
func (c *Controller[E]) QueueEvent(ev E) {
	c.events.Push(ev)
}

// RequestReload makes the next frame reload every document.
func (c *Controller[E]) RequestReload() {
	c.reload.Store(true)
}

// ObserveReloadKey feeds the state of the reload key. A reload is requested
// when the key goes from released to held.
func (c *Controller[E]) ObserveReloadKey(held bool) {
	if was := c.reloadHeld.Swap(held); held && !was {
		c.RequestReload()
	}
}

// Frames returns the number of frames that rendered a document.
func (c *Controller[E]) Frames() uint64 { return c.frames }

// Current returns the shown document, or nil.
func (c *Controller[E]) Current() Document { return c.current }

// LoadDocuments loads the document of every menu. Documents already loaded
// get their style sheets reloaded and are then closed, and the UI context
// releases its textures before the fresh load. A document that fails to
// load is skipped; the failures are returned joined.
func (c *Controller[E]) LoadDocuments() error {
	if len(c.documents) > 0 {
		for _, m := range sortedMenus(c.documents) {
			c.documents[m].ReloadStyleSheet()
		}
		c.ui.ReleaseTextures()
		c.closeDocuments()
	}

	var errs []error
	for _, m := range sortedMenus(c.paths) {
		doc, err := c.ui.LoadDocument(c.paths[m])
		if err != nil {
			uirender.Logger().Warn("frame: document load failed", "menu", m.String(), "path", c.paths[m], "err", err)
			errs = append(errs, fmt.Errorf("frame: load %s document %q: %w", m, c.paths[m], err))
			continue
		}
		c.documents[m] = doc
	}
	uirender.Logger().Debug("frame: documents loaded", "count", len(c.documents))
	return errors.Join(errs...)
}

// Draw runs one frame: a pending reload, a menu change, input events, then
// layout and rendering of the shown document into rec. Nothing is recorded
// while MenuNone is requested.
func (c *Controller[E]) Draw(rec gpucore.CommandRecorder, width, height int) error {
	cur := c.Menu()

	var loadErr error
	if c.reload.Swap(false) {
		loadErr = c.LoadDocuments()
		c.prevMenu = MenuNone
	}
	if cur != c.prevMenu {
		c.swapDocument(cur)
	}
	c.prevMenu = cur

	c.events.Drain(c.ui.ProcessEvent)

	if cur == MenuNone {
		return loadErr
	}
	if err := c.renderer.Start(rec, width, height); err != nil {
		return errors.Join(loadErr, err)
	}
	if width != c.prevWidth || height != c.prevHeight {
		c.ui.SetDimensions(width, height)
	}
	c.prevWidth, c.prevHeight = width, height

	c.ui.Update()
	renderErr := c.ui.Render(c.renderer)
	endErr := c.renderer.End()
	c.frames++
	return errors.Join(loadErr, renderErr, endErr)
}

// Close hides and closes every loaded document.
func (c *Controller[E]) Close() {
	c.closeDocuments()
	c.prevMenu = MenuNone
}

func (c *Controller[E]) swapDocument(menu Menu) {
	if c.current != nil {
		c.current.Hide()
	}
	doc, ok := c.documents[menu]
	if !ok {
		c.current = nil
		return
	}
	c.current = doc
	doc.Show()
}

func (c *Controller[E]) closeDocuments() {
	if c.current != nil {
		c.current.Hide()
		c.current = nil
	}
	for _, m := range sortedMenus(c.documents) {
		c.documents[m].Close()
	}
	clear(c.documents)
}

// sortedMenus returns the keys of m in ascending order.
func sortedMenus[V any](m map[Menu]V) []Menu {
	return slices.Sorted(maps.Keys(m))
}
