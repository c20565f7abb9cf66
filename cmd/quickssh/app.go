package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ganot/quickssh/internal/codec"
	"github.com/ganot/quickssh/internal/config"
	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/filestore"
	"github.com/ganot/quickssh/internal/launcher"
	"github.com/ganot/quickssh/internal/sqlite"
)

// app holds the services built from one configuration.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	codec    *codec.Codec
	file     *filestore.File // nil for the sqlite backend
	store    *store.Service
	activity *activity.Service
}

// newApp wires the store. Dry-run launches are printed to out.
func newApp(cfg config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	c, err := codec.New(cfg.Codec.KeyOne, cfg.Codec.KeyTwo, codec.WithRadix(cfg.Codec.Radix))
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}

	if err := ensureDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	format, err := store.ParseFormat(cfg.Store.Format)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: db, codec: c}

	var (
		backend   store.Backend
		menu      store.MenuSink
		storeName string
	)
	switch cfg.Store.Backend {
	case "sqlite":
		docs := sqlite.NewDocumentBackend(sqlite.NewDocumentRepository(db), cfg.Store.Name, string(format))
		backend, menu, storeName = docs, docs, cfg.Store.Name
	default:
		a.file = filestore.New(cfg.Store.SessionsPath, cfg.Store.MenuPath)
		backend, storeName = a.file, a.file.Path()
		if cfg.Store.MenuPath != "" {
			menu = a.file
		}
	}

	a.activity = activity.NewService(sqlite.NewActivityRepository(db), storeName, logger)

	var l store.Launcher = launcher.NewExec(logger)
	if cfg.Launcher.DryRun {
		l = launcher.NewDryRun(out)
	}

	a.store, err = store.NewService(store.Dependencies{
		Codec:    c,
		Backend:  backend,
		Menu:     menu,
		Launcher: l,
		Activity: a.activity,
	}, store.Options{
		Format:       format,
		Command:      cfg.Launcher.Command,
		SessionsFile: storeName,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// watcher returns a file watcher that reloads the store, or nil when the
// backend is not a file.
func (a *app) watcher() *filestore.Watcher {
	if a.file == nil {
		return nil
	}
	return filestore.NewWatcher(a.file.Path(), a.cfg.Watch.Debounce, func(ctx context.Context) error {
		_, err := a.store.Reload(ctx)
		return err
	}, a.logger)
}

func (a *app) Close() error {
	return a.db.Close()
}
