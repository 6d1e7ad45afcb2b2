package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/vehicle"
)

// Validate reports every problem in the file at once.
func (f File) Validate() error {
	var errs []error
	add := func(err error, format string, args ...any) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, fmt.Sprintf(format, args...), err))
		}
	}

	add(f.WorldConfig().Validate(), "world")
	if f.World.Workers < 0 {
		add(fmt.Errorf("must not be negative, got %d", f.World.Workers), "world workers")
	}

	if f.Tank != nil {
		add(f.Tank.bounds().Validate(), "tank")
	}
	for i, o := range f.Obstacles {
		sh, err := o.shape()
		if err == nil {
			err = sh.Validate()
		}
		add(err, "obstacle %d", i)
	}

	schools := make(map[string]bool, len(f.Schools))
	for i, s := range f.Schools {
		if s.Name == "" {
			add(errors.New("name is required"), "school %d", i)
		} else if schools[s.Name] {
			add(errors.New("duplicate name"), "school %q", s.Name)
		}
		schools[s.Name] = true
		if s.Count < 0 {
			add(fmt.Errorf("count must not be negative, got %d", s.Count), "school %q", s.Name)
		}
		for axis := 0; axis < 3; axis++ {
			if s.Spawn.Min[axis] > s.Spawn.Max[axis] {
				add(fmt.Errorf("spawn min above max on axis %d", axis), "school %q", s.Name)
			}
		}
		_, err := s.Fish.Params()
		add(err, "school %q", s.Name)
	}

	subs := make(map[string]bool, len(f.Submarines))
	for i, s := range f.Submarines {
		if s.ID == "" {
			add(errors.New("id is required"), "submarine %d", i)
		} else if subs[s.ID] {
			add(errors.New("duplicate id"), "submarine %q", s.ID)
		}
		subs[s.ID] = true
		add(s.Tuning.Params().Validate(), "submarine %q", s.ID)
		for j, k := range s.Script {
			if k.At < 0 || math.IsNaN(k.At) {
				add(fmt.Errorf("at %v", k.At), "submarine %q keyframe %d", s.ID, j)
			}
			for name := range k.Axes {
				if _, err := vehicle.ParseAction(name); err != nil {
					add(fmt.Errorf("%w: %s", err, name), "submarine %q keyframe %d", s.ID, j)
				}
			}
		}
	}

	if f.Server.SendBuffer < 1 {
		add(fmt.Errorf("must be positive, got %d", f.Server.SendBuffer), "server send buffer")
	}
	if f.Server.MaxClients < 1 {
		add(fmt.Errorf("must be positive, got %d", f.Server.MaxClients), "server max clients")
	}
	_, err := log.ParseLevel(f.Log.Level)
	add(err, "log level")
	if f.Log.Format != "console" && f.Log.Format != "json" {
		add(fmt.Errorf("unknown format %q", f.Log.Format), "log")
	}
	return errors.Join(errs...)
}
