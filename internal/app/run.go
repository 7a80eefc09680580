package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/pipeline"
	"github.com/specialistvlad/flowgridgo/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// Run loads and builds the pipeline, then executes it next to the health
// check server, if one is configured.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.load(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(gctx, g, done); err != nil {
			return err
		}
	}
	g.Go(func() error {
		defer close(done)
		return a.execute(gctx)
	})

	err := g.Wait()
	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) load(ctx context.Context) error {
	model, err := a.loader.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	a.logger.Debug("Configuration loaded and translated into unified model.")

	p, err := pipeline.Build(ctx, model, a.handlers)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	a.pipeline = p
	a.logger.Info("Pipeline loaded.", "stages", len(p.Stages()), "sources", len(p.Sources()), "sinks", len(p.Sinks()))
	return nil
}

func (a *App) execute(ctx context.Context) error {
	if len(a.pipeline.Stages()) == 0 {
		a.logger.Warn("No stages found in pipeline, execution not required.")
		return nil
	}

	s := scheduler.New(ctx, scheduler.Config{Name: "pipeline", MaxThreads: a.config.MaxThreads})
	defer s.Close()

	capacity := s.Available()
	for _, st := range a.pipeline.Stages() {
		if !capacity.CanAccommodate(st.ResourcePool()) {
			return fmt.Errorf("stage '%s' requests %s but the scheduler only has %s",
				st.Name(), st.ResourcePool().String(), capacity.String())
		}
	}

	a.logger.Info("Starting pipeline execution.",
		"mode", a.config.Mode,
		"capacity", s.Available().String(),
		"iterations", a.config.Iterations,
		"rebalance", a.config.Rebalance,
	)
	for i := 1; i <= a.config.Iterations; i++ {
		if a.config.Rebalance {
			for _, sink := range a.pipeline.Sinks() {
				if err := s.RescheduleNetwork(ctx, sink); err != nil {
					return fmt.Errorf("rebalancing from '%s': %w", sink.Name(), err)
				}
			}
		}

		start := time.Now()
		if err := a.runOnce(ctx, s); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		a.logger.Info("Pipeline iteration finished.", "iteration", i, "duration", time.Since(start))
	}

	return a.writeReport(s)
}

func (a *App) runOnce(ctx context.Context, s *scheduler.Scheduler) error {
	switch a.config.Mode {
	case ModePush:
		if err := s.SchedulePropagate(ctx, a.pipeline.Sources(), nil); err != nil {
			return err
		}
		if err := s.WaitUntilAllDone(ctx); err != nil {
			return err
		}
		// Propagated executions are not waited on individually.
		var errs []error
		for _, st := range a.pipeline.Stages() {
			if err := st.Err(); err != nil {
				errs = append(errs, fmt.Errorf("stage '%s': %w", st.Name(), err))
			}
		}
		return errors.Join(errs...)
	default:
		return s.Pull(ctx, a.pipeline.Sinks(), nil)
	}
}
