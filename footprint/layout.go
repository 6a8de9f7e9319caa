// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package footprint

import (
	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/instance"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/shader"
)

// Render item names.
const (
	WireframeItemName = "footPrintLocatorWires"
	ShadedItemName    = "footPrintLocatorTriangles"
)

const (
	streamOutline = "outline"
	streamFan     = "fan"
)

// Layout draws a footprint as a wireframe outline and a filled fan, both in
// the instance's wireframe color.
type Layout struct{}

var _ subscene.Layout = Layout{}

// Items implements subscene.Layout.
func (Layout) Items(st instance.DrawState) []subscene.ItemSpec {
	fp := shader.SolidFingerprint(st.Color)
	depth := item.PriorityFor(st.Status)
	return []subscene.ItemSpec{
		{
			Name:    WireframeItemName,
			Kind:    item.Lines,
			Mode:    item.Wireframe,
			Shader:  fp,
			Depth:   depth,
			Stream:  streamOutline,
			Enabled: true,
		},
		{
			Name:    ShadedItemName,
			Kind:    item.Triangles,
			Mode:    item.Shaded | item.Textured,
			Shader:  fp,
			Depth:   depth,
			Stream:  streamFan,
			Enabled: true,
		},
	}
}

// Stream implements subscene.Layout.
func (Layout) Stream(name string, view *geometry.View, _ instance.DrawState) subscene.StreamData {
	switch name {
	case streamOutline:
		return subscene.StreamData{Indices: geometry.LineIndices(view.Runs)}
	case streamFan:
		return subscene.StreamData{Indices: geometry.FanIndices(view.Runs)}
	default:
		return subscene.StreamData{}
	}
}

// Register adds a footprint shape to p.
func Register(p *subscene.Plugin, name string, n *Node, host subscene.Host, opts ...subscene.OverrideOption) (*subscene.Override, error) {
	return p.Register(name, n, host, Layout{}, opts...)
}
