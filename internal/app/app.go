package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/ctxlog"
	"github.com/specialistvlad/ctybind/internal/host"
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/specialistvlad/ctybind/internal/shelf"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	shelf    shelf.Store
	host     *host.Host
}

// NewApp is the constructor for the main application. Script output goes
// to outW and logs to logW. Startup failures are programmer or
// environment errors and panic.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New()
	if err := reg.Load(ctx, modules); err != nil {
		panic(err)
	}

	var opts []host.Option
	format, err := bind.ParseFormat(cfg.PickleFormat)
	if err != nil {
		panic(err)
	}
	opts = append(opts, host.WithPickleFormat(format))

	var store shelf.Store
	if cfg.ShelfPath != "" {
		store, err = shelf.Open(ctx, cfg.ShelfPath)
		if err != nil {
			panic(fmt.Errorf("failed to open shelf: %w", err))
		}
		opts = append(opts, host.WithShelf(store))
		logger.Debug("Shelf opened.", "path", cfg.ShelfPath)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		shelf:    store,
		host:     host.New(reg, opts...),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Host returns the script host.
func (a *App) Host() *host.Host {
	return a.host
}

// Close releases the shelf, if one is open.
func (a *App) Close() error {
	if a.shelf == nil {
		return nil
	}
	a.logger.Debug("Closing shelf.")
	return a.shelf.Close()
}
