package ecs

import (
	"context"
	"fmt"
)

// System is one unit of per-frame application logic.
type System interface {
	Name() string
	Run(ctx context.Context, w *World) error
}

// SystemFunc adapts a function to System.
type SystemFunc struct {
	Label string
	Fn    func(ctx context.Context, w *World) error
}

func (s SystemFunc) Name() string { return s.Label }

func (s SystemFunc) Run(ctx context.Context, w *World) error {
	return s.Fn(ctx, w)
}

// Schedule runs systems strictly in insertion order. Each Run call is a
// barrier: no system overlaps another.
type Schedule struct {
	systems []System
}

func NewSchedule(systems ...System) *Schedule {
	return &Schedule{systems: systems}
}

func (s *Schedule) Add(sys System) {
	s.systems = append(s.systems, sys)
}

func (s *Schedule) Len() int {
	return len(s.systems)
}

func (s *Schedule) Run(ctx context.Context, w *World) error {
	for _, sys := range s.systems {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sys.Run(ctx, w); err != nil {
			return fmt.Errorf("system %s: %w", sys.Name(), err)
		}
	}
	return nil
}
