// Package app runs the world together with its optional server and viewer.
package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/world"
	"github.com/zeusync/cavefish/internal/server"
	"github.com/zeusync/cavefish/internal/viewer"
)

type App struct {
	World  *world.World
	Events bus.EventBus
	// Server and Viewer are nil when disabled.
	Server *server.Server
	Viewer *viewer.Viewer
	Logger log.Log
}

func New(w *world.World, events bus.EventBus, srv *server.Server, v *viewer.Viewer, logger log.Log) *App {
	if logger == nil {
		logger = log.Nop()
	}
	return &App{World: w, Events: events, Server: srv, Viewer: v, Logger: logger}
}

// Run drives every component until ctx is done, the world's duration
// elapses or the viewer is closed. The first failure stops the rest.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.Viewer != nil {
		sub, err := a.Events.Subscribe(world.EventTick, a.Viewer.OnEvent)
		if err != nil {
			return err
		}
		defer func() { _ = sub.Cancel() }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the world finishing ends the run
		defer cancel()
		return a.World.Run(gctx)
	})
	if a.Server != nil {
		g.Go(func() error { return a.Server.Run(gctx) })
	}
	if a.Viewer != nil {
		g.Go(func() error { return a.Viewer.Run(gctx) })
	}

	err := g.Wait()
	a.World.Stop()
	if errors.Is(err, viewer.ErrQuit) {
		err = nil
	}
	if err != nil {
		a.Logger.Error("run failed", log.Error(err))
		return err
	}
	frame := a.World.Snapshot()
	a.Logger.Info("run finished", log.Uint64("tick", frame.Tick), log.Float64("time", frame.Time), log.Int("fish", len(frame.Fish)))
	return nil
}
