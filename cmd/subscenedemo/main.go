// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command subscenedemo loads a TOML scene, keeps its render items in sync
// with a GPU adapter and optionally writes a preview image of the result.
//
// Usage:
//
//	subscenedemo -scene scene.toml -png frame.png
//	subscenedemo -scene scene.toml -watch -v
//
// Without -scene a built-in scene with one footprint and one cube is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/backend/memory"
	_ "github.com/gogpu/subscene/backend/native"
	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/preview"
	"github.com/gogpu/subscene/scenefile"
)

const builtinScene = `
[[shape]]
name = "footPrint1"
type = "footprint"
size = 1.0

  [[shape.instance]]
  key = 1
  color = [0.0, 0.2, 0.8]

  [[shape.instance]]
  key = 2
  status = "lead"
  color = [0.3, 1.0, 0.6]
  translate = [0.6, 0.0, 0.0]
  rotate_y = 30.0

[[shape]]
name = "box1"
type = "cube"
size = 0.5
show_bounds = true

  [[shape.instance]]
  key = 1
  status = "activeComponent"
  translate = [-0.8, 0.0, 0.0]
  vertices = [0, 5]
  faces = [3]
`

type config struct {
	scene   string
	backend string
	frames  int
	watch   bool
	png     string
	size    int
	legend  bool
	verbose bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scene, "scene", "", "scene file (TOML); built-in scene if empty")
	flag.StringVar(&cfg.backend, "backend", memory.Name,
		"GPU adapter: "+strings.Join(gpucore.Adapters(), ", "))
	flag.IntVar(&cfg.frames, "frames", 2, "synchronization cycles to run")
	flag.BoolVar(&cfg.watch, "watch", false, "reload the scene file on change until interrupted")
	flag.StringVar(&cfg.png, "png", "", "write a preview image to this file (memory backend only)")
	flag.IntVar(&cfg.size, "size", 512, "preview image size in pixels")
	flag.BoolVar(&cfg.legend, "legend", false, "label drawn items in the preview")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "subscene",
	})
	if cfg.verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}
	subscene.SetLogger(slog.New(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("demo failed", "err", err)
	}
}

func run(ctx context.Context, cfg config) error {
	if cfg.watch && cfg.scene == "" {
		return errors.New("-watch needs -scene")
	}

	sc, err := loadScene(cfg.scene)
	if err != nil {
		return err
	}

	adapter, err := gpucore.NewAdapter(cfg.backend)
	if err != nil {
		return err
	}
	if c, ok := adapter.(gpucore.Closer); ok {
		defer c.Close()
	}

	var popts []subscene.PluginOption
	if cfg.verbose {
		popts = append(popts, subscene.WithPluginTrace())
	}
	p, err := subscene.NewPlugin(adapter, popts...)
	if err != nil {
		return err
	}
	defer p.Unload()

	w, err := scenefile.NewWorld(p, sc)
	if err != nil {
		return err
	}

	for i := range max(cfg.frames, 1) {
		logReports(i, w.Update(evalctx.Normal))
	}
	if err := writePreview(cfg, adapter, w); err != nil {
		return err
	}
	if !cfg.watch {
		return nil
	}

	log := subscene.Logger()
	log.Info("watching scene", "path", cfg.scene)
	frame := max(cfg.frames, 1)
	return scenefile.Watch(ctx, cfg.scene, func(next *scenefile.Scene, err error) {
		if err != nil {
			log.Warn("scene reload failed", "err", err)
			return
		}
		if err := w.Apply(next); err != nil {
			log.Warn("scene apply failed", "err", err)
			return
		}
		logReports(frame, w.Update(evalctx.Normal))
		frame++
		if err := writePreview(cfg, adapter, w); err != nil {
			log.Warn("preview failed", "err", err)
		}
	})
}

func loadScene(path string) (*scenefile.Scene, error) {
	if path == "" {
		return scenefile.Parse([]byte(builtinScene))
	}
	return scenefile.Load(path)
}

func logReports(frame int, reports []subscene.Report) {
	log := subscene.Logger()
	for _, r := range reports {
		attrs := []any{
			"frame", frame,
			"shape", r.Shape,
			"visible", r.Visible,
			"items", fmt.Sprintf("+%d ~%d -%d", r.ItemsCreated, r.ItemsUpdated, r.ItemsRemoved),
			"mutations", r.Mutations(),
		}
		if r.Err != nil {
			log.Warn("cycle degraded", append(attrs, "err", r.Err)...)
			continue
		}
		log.Info("cycle", attrs...)
	}
}

func writePreview(cfg config, adapter gpucore.GPUAdapter, w *scenefile.World) error {
	if cfg.png == "" {
		return nil
	}
	mem, ok := adapter.(*memory.Adapter)
	if !ok {
		return fmt.Errorf("-png needs the %s backend, have %s", memory.Name, cfg.backend)
	}

	var items []item.Item
	for _, name := range w.Shapes() {
		ov, _ := w.Override(name)
		items = append(items, ov.Items()...)
	}
	r := preview.New(mem, preview.WithSize(cfg.size, cfg.size), preview.WithLegend(cfg.legend))
	if err := r.SavePNG(cfg.png, items); err != nil {
		return err
	}
	subscene.Logger().Info("preview written", "path", cfg.png, "items", len(r.Visible(items)))
	return nil
}
