// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package preview rasterizes retained render items to an image.
//
// The renderer reads buffers and shader parameters back from a [Source]
// (the memory adapter implements it) and draws each enabled item with
// gogpu/gg using a top-down orthographic projection onto the XZ plane.
// The view is fitted to the bounds of everything drawn.
//
// Frames are rendered at a multiple of the output size and downsampled
// with Catmull-Rom filtering.
package preview

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/subscene/backend/memory"
	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/item"
)

// ErrMissingBuffer is returned when an item references a buffer the source
// does not hold.
var ErrMissingBuffer = errors.New("preview: missing buffer")

// Source provides read access to uploaded resources.
type Source interface {
	Buffer(id gpucore.BufferID) (memory.Buffer, bool)
	ShaderParam(id gpucore.ShaderID, name string) ([]float32, bool)
}

var _ Source = (*memory.Adapter)(nil)

// Option configures a Renderer.
type Option func(*options)

type options struct {
	width, height int
	supersample   int
	mode          item.DrawMode
	background    gg.RGBA
	margin        float64
	legend        bool
}

func defaultOptions() options {
	return options{
		width:       512,
		height:      512,
		supersample: 2,
		mode:        item.AllModes,
		background:  gg.RGB(0.12, 0.12, 0.14),
		margin:      0.1,
	}
}

// WithSize sets the output size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithSupersample sets the supersampling factor. 1 disables it.
func WithSupersample(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.supersample = n
		}
	}
}

// WithMode draws only items enabled in one of the modes of m.
func WithMode(m item.DrawMode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithBackground sets the clear color.
func WithBackground(c gg.RGBA) Option {
	return func(o *options) {
		o.background = c
	}
}

// WithLegend draws the name and primitive count of every drawn item in
// the top-left corner.
func WithLegend(on bool) Option {
	return func(o *options) {
		o.legend = on
	}
}

// Renderer draws items read back from a Source.
type Renderer struct {
	src  Source
	opts options
}

// New creates a renderer reading from src.
func New(src Source, opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{src: src, opts: o}
}

// prepared is an item with its geometry decoded and transformed.
type prepared struct {
	it      item.Item
	pts     []mgl32.Vec3
	indices []uint32
}

// Visible returns the items Render would draw, in draw order: lower depth
// priority first, ties by name.
func (r *Renderer) Visible(items []item.Item) []item.Item {
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if it.Enabled && it.Bound() && it.IndexCount > 0 && it.Mode&r.opts.mode != 0 {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b item.Item) int {
		if c := cmp.Compare(a.Depth, b.Depth); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Render draws items and returns the downsampled frame.
func (r *Renderer) Render(items []item.Item) (image.Image, error) {
	visible := r.Visible(items)
	preps := make([]prepared, 0, len(visible))
	var all []mgl32.Vec3
	for _, it := range visible {
		p, err := r.prepare(it)
		if err != nil {
			return nil, err
		}
		preps = append(preps, p)
		all = append(all, p.pts...)
	}

	ss := r.opts.supersample
	w, h := r.opts.width*ss, r.opts.height*ss
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(r.opts.background)

	proj := fit(geometry.BoundsOf(all), w, h, r.opts.margin)
	for _, p := range preps {
		if err := r.draw(dc, p, proj, float64(ss)); err != nil {
			return nil, fmt.Errorf("preview: item %s: %w", p.it.Name, err)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.opts.width, r.opts.height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), dc.Image(), image.Rect(0, 0, w, h), xdraw.Src, nil)
	if r.opts.legend {
		drawLegend(dst, preps)
	}
	return dst, nil
}

// EncodePNG renders items and writes the frame as PNG.
func (r *Renderer) EncodePNG(w io.Writer, items []item.Item) error {
	img, err := r.Render(items)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SavePNG renders items into a PNG file.
func (r *Renderer) SavePNG(path string, items []item.Item) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return r.EncodePNG(f, items)
}

func (r *Renderer) prepare(it item.Item) (prepared, error) {
	vb, ok := r.src.Buffer(it.VertexBuffer)
	if !ok {
		return prepared{}, fmt.Errorf("%w: vertex buffer %d of %s", ErrMissingBuffer, it.VertexBuffer, it.Name)
	}
	ib, ok := r.src.Buffer(it.IndexBuffer)
	if !ok {
		return prepared{}, fmt.Errorf("%w: index buffer %d of %s", ErrMissingBuffer, it.IndexBuffer, it.Name)
	}

	m := it.Transform
	if m == (mgl32.Mat4{}) {
		m = mgl32.Ident4()
	}
	pts := geometry.DecodePositions(vb.Data)
	for i, p := range pts {
		pts[i] = mgl32.TransformCoordinate(p, m)
	}
	indices := geometry.DecodeIndices(ib.Data)
	if it.IndexCount < len(indices) {
		indices = indices[:it.IndexCount]
	}
	return prepared{it: it, pts: pts, indices: indices}, nil
}

func (r *Renderer) param(id gpucore.ShaderID, name string, def float64) float64 {
	v, ok := r.src.ShaderParam(id, name)
	if !ok || len(v) == 0 {
		return def
	}
	return float64(v[0])
}

func (r *Renderer) draw(dc *gg.Context, p prepared, proj projection, ss float64) error {
	c := gpucore.RGBA(1, 1, 1, 1)
	if v, ok := r.src.ShaderParam(p.it.Shader, gpucore.ParamSolidColor); ok && len(v) == 4 {
		c = gpucore.RGBA(v[0], v[1], v[2], v[3])
	}
	dc.SetRGBA(float64(c.R), float64(c.G), float64(c.B), float64(c.A))

	n := uint32(len(p.pts))
	valid := func(idx []uint32) bool {
		for _, i := range idx {
			if i >= n {
				return false
			}
		}
		return true
	}

	switch p.it.Kind {
	case item.Lines:
		dc.SetLineWidth(r.param(p.it.Shader, gpucore.ParamLineWidth, 1) * ss)
		for i := 0; i+1 < len(p.indices); i += 2 {
			seg := p.indices[i : i+2]
			if !valid(seg) {
				continue
			}
			x0, y0 := proj.apply(p.pts[seg[0]])
			x1, y1 := proj.apply(p.pts[seg[1]])
			dc.MoveTo(x0, y0)
			dc.LineTo(x1, y1)
		}
		return dc.Stroke()

	case item.Triangles:
		// Each triangle is filled on its own so that overlapping
		// triangles of opposite winding do not cancel out.
		for i := 0; i+2 < len(p.indices); i += 3 {
			tri := p.indices[i : i+3]
			if !valid(tri) {
				continue
			}
			for k, vi := range tri {
				x, y := proj.apply(p.pts[vi])
				if k == 0 {
					dc.MoveTo(x, y)
				} else {
					dc.LineTo(x, y)
				}
			}
			dc.ClosePath()
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		return nil

	default:
		radius := r.param(p.it.Shader, gpucore.ParamPointSize, 4) * ss / 2
		for _, vi := range p.indices {
			if vi >= n {
				continue
			}
			x, y := proj.apply(p.pts[vi])
			dc.DrawPoint(x, y, radius)
		}
		return dc.Fill()
	}
}

// projection maps world XZ to pixel coordinates.
type projection struct {
	cx, cz float64
	scale  float64
	ox, oy float64
}

func fit(b geometry.Bounds, w, h int, margin float64) projection {
	ext := max(float64(b.Max.X()-b.Min.X()), float64(b.Max.Z()-b.Min.Z()))
	if ext <= 0 {
		ext = 1
	}
	side := float64(min(w, h)) * (1 - 2*margin)
	c := b.Center()
	return projection{
		cx:    float64(c.X()),
		cz:    float64(c.Z()),
		scale: side / ext,
		ox:    float64(w) / 2,
		oy:    float64(h) / 2,
	}
}

func (p projection) apply(v mgl32.Vec3) (x, y float64) {
	return p.ox + (float64(v.X())-p.cx)*p.scale, p.oy + (float64(v.Z())-p.cz)*p.scale
}

func drawLegend(dst *image.RGBA, preps []prepared) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	line := basicfont.Face7x13.Metrics().Height
	y := fixed.I(4) + line
	for _, p := range preps {
		d.Dot = fixed.Point26_6{X: fixed.I(4), Y: y}
		d.DrawString(fmt.Sprintf("%s %s x%d", p.it.Name, p.it.Kind, p.it.Primitives()))
		y += line
	}
}
