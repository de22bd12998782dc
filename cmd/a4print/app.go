package main

import (
	"context"
	"fmt"
	"log/slog"

	"a4print/internal/config"
	"a4print/internal/enhance"
	"a4print/internal/lifecycle"
	"a4print/internal/notifications"
	"a4print/internal/pdf"
	"a4print/internal/pipeline"
	"a4print/internal/queue"
	"a4print/internal/render"
	"a4print/internal/workflow"
)

// exportApp holds the wired export engine for one command invocation.
type exportApp struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service
	presence *lifecycle.Presence
	manager  *workflow.Manager
}

func (c *commandContext) openApp(ctx context.Context) (*exportApp, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.log()

	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	presence, err := lifecycle.NewPresence(ctx, store, cfg.Lifecycle.ExportInBackground)
	if err != nil {
		store.Close()
		return nil, err
	}

	stage, err := pipeline.New(pipeline.Options{
		Enhancer:    enhance.New(cfg, enhance.WithLogger(logger)),
		Renderer:    render.NewCanvas(cfg.Paths.StagingDir, logger),
		Writer:      pdf.NewWriter(),
		Namer:       pdf.NewNamer(cfg.Paths.ExportDir),
		StepTimeout: cfg.StepTimeout(),
		Logger:      logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	notifier := notifications.NewService(cfg)
	manager, err := workflow.NewManager(workflow.Options{
		Store:    store,
		Exporter: stage,
		Policy:   presence,
		History:  store,
		Notifier: notifier,
		Logger:   logger,
		DPI:      cfg.Export.DPI,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &exportApp{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		notifier: notifier,
		presence: presence,
		manager:  manager,
	}, nil
}

func (a *exportApp) Close() error {
	return a.store.Close()
}
