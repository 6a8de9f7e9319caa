// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/shader"
)

// Plugin owns the lifecycle of every override and of the shader cache
// they share. The cache is created by NewPlugin and released by Unload.
type Plugin struct {
	adapter gpucore.GPUAdapter
	shaders *shader.Cache
	opts    pluginOptions

	mu        sync.Mutex
	overrides map[string]*Override
	unloaded  bool
}

// NewPlugin loads a plugin on adapter.
func NewPlugin(adapter gpucore.GPUAdapter, opts ...PluginOption) (*Plugin, error) {
	if adapter == nil {
		return nil, fmt.Errorf("subscene: plugin: %w", ErrResourceUnavailable)
	}
	o := defaultPluginOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Plugin{
		adapter:   adapter,
		shaders:   shader.NewCache(adapter),
		opts:      o,
		overrides: make(map[string]*Override),
	}
	Logger().Info("subscene: plugin loaded")
	return p, nil
}

// Register creates the override for a shape. Names are unique per plugin.
func (p *Plugin) Register(name string, node Node, host Host, layout Layout, opts ...OverrideOption) (*Override, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unloaded {
		return nil, ErrPluginUnloaded
	}
	if _, dup := p.overrides[name]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateShape, name)
	}

	all := make([]OverrideOption, 0, len(opts)+2)
	all = append(all, WithID(p.opts.newID()))
	if p.opts.trace {
		all = append(all, WithTrace())
	}
	all = append(all, opts...)

	ov, err := NewOverride(name, node, host, layout, p.adapter, p.shaders, all...)
	if err != nil {
		return nil, err
	}
	p.overrides[name] = ov
	Logger().Debug("subscene: shape registered", "shape", name, "id", ov.ID().String())
	return ov, nil
}

// Deregister closes and forgets the override of a shape.
func (p *Plugin) Deregister(name string) error {
	p.mu.Lock()
	ov, ok := p.overrides[name]
	delete(p.overrides, name)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: shape %q", ErrKeyNotFound, name)
	}
	return ov.Close()
}

// Override returns the override of a shape.
func (p *Plugin) Override(name string) (*Override, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ov, ok := p.overrides[name]
	return ov, ok
}

// Shapes returns the registered shape names, sorted.
func (p *Plugin) Shapes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.overrides))
	for name := range p.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update synchronizes every shape for ec in name order.
func (p *Plugin) Update(ec evalctx.ID) []Report {
	p.mu.Lock()
	if p.unloaded {
		p.mu.Unlock()
		return nil
	}
	ovs := make([]*Override, 0, len(p.overrides))
	for _, ov := range p.overrides {
		ovs = append(ovs, ov)
	}
	p.mu.Unlock()

	sort.Slice(ovs, func(i, j int) bool { return ovs[i].Name() < ovs[j].Name() })
	reports := make([]Report, 0, len(ovs))
	for _, ov := range ovs {
		reports = append(reports, ov.Update(ec))
	}
	return reports
}

// Shaders returns the shared shader cache.
func (p *Plugin) Shaders() *shader.Cache {
	return p.shaders
}

// Adapter returns the adapter the plugin was loaded on.
func (p *Plugin) Adapter() gpucore.GPUAdapter {
	return p.adapter
}

// Unload closes every override and releases the shader cache. It runs
// once; later calls return ErrPluginUnloaded.
func (p *Plugin) Unload() error {
	p.mu.Lock()
	if p.unloaded {
		p.mu.Unlock()
		return ErrPluginUnloaded
	}
	p.unloaded = true
	ovs := p.overrides
	p.overrides = make(map[string]*Override)
	p.mu.Unlock()

	var firstErr error
	for _, ov := range ovs {
		if err := ov.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	released := p.shaders.ReleaseAll()
	Logger().Info("subscene: plugin unloaded", "shapes", len(ovs), "shaders", released)
	return firstErr
}
