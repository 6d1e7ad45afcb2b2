package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/zeusync/cavefish/internal/config"
	"github.com/zeusync/cavefish/internal/injector"
)

func main() {
	if err := makeapp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cavefish:", err)
		os.Exit(1)
	}
}

var configFlag = cli.StringFlag{Name: "config, c", Usage: "Scene file (.yaml, .yml or .json)"}

func makeapp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "cavefish"
	app.Usage = "Cave fish steering and submarine simulation"
	app.Writer = out

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "Run a scene",
			Flags: []cli.Flag{
				configFlag,
				cli.BoolFlag{Name: "tui", Usage: "Show the top-down terminal view"},
				cli.StringFlag{Name: "listen", Usage: "HTTP address for /ws and /snapshot; overrides the scene"},
				cli.Float64Flag{Name: "duration", Usage: "Seconds to run; overrides the scene"},
				cli.Uint64Flag{Name: "seed", Usage: "Random seed; overrides the scene"},
				cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error; overrides the scene"},
			},
			Action: runAction,
		},
		{
			Name:   "validate",
			Usage:  "Check a scene file",
			Flags:  []cli.Flag{configFlag},
			Action: validateAction,
		},
		{
			Name:  "schema",
			Usage: "Print the JSON schema of scene files",
			Action: func(c *cli.Context) error {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(config.Schema())
			},
		},
		{
			Name:  "defaults",
			Usage: "Print a scene with one default school and submarine",
			Action: func(c *cli.Context) error {
				return config.WriteYAML(c.App.Writer, defaultScene())
			},
		},
	}
	return app
}

func loadConfig(c *cli.Context) (*config.File, error) {
	path := c.String("config")
	if path == "" {
		return nil, errors.New("--config is required")
	}
	return config.LoadFile(path)
}

func runAction(c *cli.Context) error {
	f, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("listen") {
		f.Server.Listen = c.String("listen")
	}
	if c.IsSet("duration") {
		f.World.Duration = c.Float64("duration")
	}
	if c.IsSet("seed") {
		f.World.Seed = c.Uint64("seed")
	}
	if c.IsSet("log-level") {
		f.Log.Level = c.String("log-level")
	}
	if err := f.Validate(); err != nil {
		return err
	}

	a, cleanup, err := injector.InitializeApp(f, injector.Options{TUI: c.Bool("tui")})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}

func validateAction(c *cli.Context) error {
	f, err := loadConfig(c)
	if err != nil {
		return err
	}
	fish := 0
	for _, s := range f.Schools {
		fish += s.Count
	}
	_, err = fmt.Fprintf(c.App.Writer, "ok: %d schools, %d fish, %d submarines, %d obstacles\n",
		len(f.Schools), fish, len(f.Submarines), len(f.Obstacles))
	return err
}

func defaultScene() config.File {
	f := config.Defaults()
	f.Tank = &config.Tank{Min: config.Vec3{-20, -6, -30}, Max: config.Vec3{20, 6, 30}}
	school := config.DefaultSchool()
	school.Name = "school"
	school.Count = 8
	school.Spawn.Min = config.Vec3{-10, -3, -10}
	school.Spawn.Max = config.Vec3{10, 3, 10}
	f.Schools = []config.School{school}
	sub := config.DefaultSubmarine()
	sub.ID = "submarine"
	sub.Position = config.Vec3{0, 0, -25}
	f.Submarines = []config.Submarine{sub}
	return f
}
