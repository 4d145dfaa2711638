package emulator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Result summarises a scenario run.
type Result struct {
	Broadcasts  int
	Deliveries  int
	TimersFired int
	Elapsed     time.Duration
}

// Runner plays scenarios against a host.
type Runner struct {
	host   *Host
	logger *zap.Logger
}

// NewRunner creates a runner for host.
func NewRunner(host *Host, logger *zap.Logger) *Runner {
	return &Runner{
		host:   host,
		logger: logger.With(zap.String("component", "runner")),
	}
}

// Prepare applies the scenario's table, view, settings and options. Call it
// before loading the plugin so OnLoad sees them.
func (r *Runner) Prepare(s *Scenario) {
	d := r.host.Domain()
	d.SetTableInfo(s.Table.tableInfo())
	if s.View != nil {
		_ = d.SetActiveViewSetup(s.View.viewSetup())
	}
	for _, set := range s.Settings {
		r.host.SetSetting(set.Namespace, set.Name, set.Value)
	}
	for key, v := range s.Options {
		d.SetOverride(key, v)
	}
}

// Run plays the steps in order. Cancelling ctx stops the run between
// deliveries; the partial result is returned with ctx's error.
func (r *Runner) Run(ctx context.Context, s *Scenario) (res Result, err error) {
	start := r.host.Now()
	defer func() { res.Elapsed = r.host.Now() - start }()

	r.logger.Info("Running scenario", zap.String("name", s.Name), zap.Int("steps", len(s.Steps)))

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		switch {
		case step.Broadcast != "":
			namespace, name, msgErr := step.Message()
			if msgErr != nil {
				return res, msgErr
			}
			repeat := max(step.Repeat, 1)
			for n := 0; n < repeat; n++ {
				if err := ctx.Err(); err != nil {
					return res, err
				}
				delivered, err := r.host.BroadcastName(namespace, name, nil)
				if err != nil {
					return res, err
				}
				res.Broadcasts++
				res.Deliveries += delivered
				if step.Every > 0 {
					res.TimersFired += r.host.Advance(time.Duration(step.Every))
				}
			}

		case step.Advance > 0:
			res.TimersFired += r.host.Advance(time.Duration(step.Advance))

		case step.SetOption != nil:
			delivered, err := r.host.SetOption(step.SetOption.Key, step.SetOption.Value)
			if err != nil {
				return res, err
			}
			res.Broadcasts++
			res.Deliveries += delivered
		}

		r.logger.Debug("Step done", zap.Int("step", i+1))
	}

	r.logger.Info("Scenario finished",
		zap.String("name", s.Name),
		zap.Int("broadcasts", res.Broadcasts),
		zap.Int("deliveries", res.Deliveries),
	)
	return res, nil
}
