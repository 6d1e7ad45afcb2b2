package injector

import (
	"github.com/gdamore/tcell/v2"
	"github.com/google/wire"

	"github.com/zeusync/cavefish/internal/app"
	"github.com/zeusync/cavefish/internal/config"
	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/world"
	"github.com/zeusync/cavefish/internal/server"
	"github.com/zeusync/cavefish/internal/viewer"
)

// Options are runtime switches that do not live in the scene file.
type Options struct {
	// TUI opens the terminal viewer.
	TUI bool
	// Screen overrides the terminal, e.g. with a simulation screen in tests.
	Screen tcell.Screen
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideEventBus,
	ProvideScene,
	ProvideWorld,
	ProvideServer,
	ProvideViewer,
	app.New,
)

// ProvideLogger builds the logger from the file. The terminal viewer owns
// the screen, so logging is discarded while it runs.
func ProvideLogger(f *config.File, opts Options) (log.Log, func(), error) {
	if opts.TUI {
		return log.Nop(), func() {}, nil
	}
	logger, err := f.Log.Logger()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideEventBus() (bus.EventBus, func()) {
	events := bus.New()
	return events, func() { _ = events.Close() }
}

func ProvideScene(f *config.File) (*physics.Scene, error) {
	return f.Scene()
}

// ProvideWorld builds the world and spawns everything the file lists.
func ProvideWorld(f *config.File, scene *physics.Scene, events bus.EventBus, logger log.Log) (*world.World, error) {
	w, err := world.New(f.WorldConfig(), scene, events, logger)
	if err != nil {
		return nil, err
	}
	if err := f.Populate(w); err != nil {
		return nil, err
	}
	return w, nil
}

// ProvideServer returns nil when the file sets no listen address.
func ProvideServer(f *config.File, w *world.World, events bus.EventBus, logger log.Log) (*server.Server, error) {
	if f.Server.Listen == "" {
		return nil, nil
	}
	cfg := server.DefaultServerConfig()
	cfg.ListenAddr = f.Server.Listen
	cfg.SendBuffer = f.Server.SendBuffer
	cfg.MaxClients = f.Server.MaxClients
	cfg.Token = f.Server.Token
	return server.NewServer(cfg, w, events, logger)
}

// ProvideViewer returns nil unless the TUI is requested.
func ProvideViewer(opts Options, logger log.Log) (*viewer.Viewer, error) {
	if !opts.TUI {
		return nil, nil
	}
	screen := opts.Screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, err
		}
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return viewer.New(screen, logger), nil
}
