// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package apimesh

import (
	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/shader"
)

// Render item names.
const (
	WireName         = "apiMeshWire"
	SelectName       = "apiMeshSelect"
	BoxName          = "apiMeshBox"
	ShadedName       = "apiMeshShaded"
	ActiveVertexName = "apiMeshActiveVertex"
	ActiveEdgeName   = "apiMeshActiveEdge"
	ActiveFaceName   = "apiMeshActiveFace"
)

const (
	streamWire     = "wire"
	streamShaded   = "shaded"
	streamBox      = "box"
	streamVertices = "activeVertices"
	streamEdges    = "activeEdges"
	streamFaces    = "activeFaces"
)

// Component highlight colors.
var (
	ActiveVertexColor = gpucore.RGBA(1, 1, 0, 1)
	ActiveEdgeColor   = gpucore.RGBA(1, 1, 1, 1)
	ActiveFaceColor   = gpucore.RGBA(0, 1, 1, 1)
)

// Layout is the sub-scene layout of a mesh.
type Layout struct {
	// ThickLineWidth is the width of the selection wire and active edges.
	ThickLineWidth float32

	// PointSize is the size of active vertex points.
	PointSize float32

	// ShadedColor is the flat color of the shaded item.
	ShadedColor gpucore.Color

	// ShowBounds adds a bounding box item.
	ShowBounds bool
}

// DefaultLayout returns the layout used when none is configured.
func DefaultLayout() Layout {
	return Layout{
		ThickLineWidth: 2,
		PointSize:      5,
		ShadedColor:    gpucore.RGBA(0.7, 0.7, 0.7, 1),
	}
}

var _ subscene.Layout = Layout{}

// Items implements subscene.Layout.
//
// The plain wire is drawn for dormant and hilited instances and the thick
// selection wire for selected ones; both stay in the set and are toggled.
// Component items exist only while components of their type are selected.
func (l Layout) Items(st instance.DrawState) []subscene.ItemSpec {
	hilite := st.Status == instance.StatusHilite
	thick := st.Status.Active() && !hilite
	wireDepth := item.DormantWire
	if hilite {
		wireDepth = item.HiliteWire
	}

	specs := []subscene.ItemSpec{
		{
			Name:    WireName,
			Kind:    item.Lines,
			Mode:    item.Wireframe,
			Shader:  shader.SolidFingerprint(st.Color),
			Depth:   wireDepth,
			Stream:  streamWire,
			Enabled: !thick,
		},
		{
			Name:    SelectName,
			Kind:    item.Lines,
			Mode:    item.AllModes,
			Shader:  shader.ThickLineFingerprint(st.Color, l.ThickLineWidth),
			Depth:   item.ActiveWire,
			Stream:  streamWire,
			Enabled: thick,
		},
		{
			Name:    ShadedName,
			Kind:    item.Triangles,
			Mode:    item.Shaded | item.Textured,
			Shader:  shader.SolidFingerprint(l.ShadedColor),
			Depth:   item.DormantFilled,
			Stream:  streamShaded,
			Enabled: true,
		},
	}
	if l.ShowBounds {
		specs = append(specs, subscene.ItemSpec{
			Name:    BoxName,
			Kind:    item.Lines,
			Mode:    item.AllModes,
			Shader:  shader.SolidFingerprint(st.Color),
			Depth:   item.PriorityFor(st.Status),
			Stream:  streamBox,
			Enabled: true,
		})
	}

	comps := SplitComponents(st.Selected)
	if len(comps.Vertices) > 0 {
		specs = append(specs, subscene.ItemSpec{
			Name:        ActiveVertexName,
			Kind:        item.Points,
			Mode:        item.AllModes,
			Shader:      shader.FatPointFingerprint(ActiveVertexColor, l.PointSize),
			Depth:       item.ActivePoint,
			Stream:      streamVertices,
			PerInstance: true,
			Enabled:     true,
		})
	}
	if len(comps.Edges) > 0 {
		specs = append(specs, subscene.ItemSpec{
			Name:        ActiveEdgeName,
			Kind:        item.Lines,
			Mode:        item.AllModes,
			Shader:      shader.ThickLineFingerprint(ActiveEdgeColor, l.ThickLineWidth),
			Depth:       item.ActiveLine,
			Stream:      streamEdges,
			PerInstance: true,
			Enabled:     true,
		})
	}
	if len(comps.Faces) > 0 {
		specs = append(specs, subscene.ItemSpec{
			Name:        ActiveFaceName,
			Kind:        item.Triangles,
			Mode:        item.Shaded | item.Textured,
			Shader:      shader.SolidFingerprint(ActiveFaceColor),
			Depth:       item.ActiveLine,
			Stream:      streamFaces,
			PerInstance: true,
			Enabled:     true,
		})
	}
	return specs
}

// Stream implements subscene.Layout.
func (l Layout) Stream(name string, view *geometry.View, st instance.DrawState) subscene.StreamData {
	switch name {
	case streamWire:
		return subscene.StreamData{Indices: geometry.FaceEdgeIndices(view.Faces)}
	case streamShaded:
		return subscene.StreamData{Indices: geometry.FaceFanIndices(view.Faces)}
	case streamBox:
		return subscene.StreamData{
			Positions: geometry.BoxPositions(view.Bounds()),
			Indices:   geometry.BoxLineIndices(),
		}
	case streamVertices:
		return subscene.StreamData{Indices: activeVertexIndices(view, SplitComponents(st.Selected).Vertices)}
	case streamEdges:
		return subscene.StreamData{Indices: activeEdgeIndices(view, SplitComponents(st.Selected).Edges)}
	case streamFaces:
		return subscene.StreamData{Indices: activeFaceIndices(view, SplitComponents(st.Selected).Faces)}
	default:
		return subscene.StreamData{}
	}
}

func activeVertexIndices(view *geometry.View, sel []int) []uint32 {
	out := make([]uint32, 0, len(sel))
	for _, v := range sel {
		if v < view.VertexCount() {
			out = append(out, uint32(v))
		}
	}
	return out
}

// activeEdgeIndices selects edges by their position in the wire stream.
func activeEdgeIndices(view *geometry.View, sel []int) []uint32 {
	edges := geometry.FaceEdgeIndices(view.Faces)
	out := make([]uint32, 0, 2*len(sel))
	for _, e := range sel {
		if 2*e+1 < len(edges) {
			out = append(out, edges[2*e], edges[2*e+1])
		}
	}
	return out
}

func activeFaceIndices(view *geometry.View, sel []int) []uint32 {
	faces := make([][]uint32, 0, len(sel))
	for _, f := range sel {
		if f < len(view.Faces) {
			faces = append(faces, view.Faces[f])
		}
	}
	return geometry.FaceFanIndices(faces)
}

// Register adds a mesh shape to p.
func Register(p *subscene.Plugin, name string, m *Mesh, host subscene.Host, l Layout, opts ...subscene.OverrideOption) (*subscene.Override, error) {
	return p.Register(name, m, host, l, opts...)
}
