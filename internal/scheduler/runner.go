package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

// DefaultInterval is how often the runner sweeps
const DefaultInterval = 30 * time.Second

// RunnerConfig configures a Runner
type RunnerConfig struct {
	Sweeper  *Sweeper
	Interval time.Duration
	// RecoverOnStart runs Sweeper.Recover once before the first sweep
	RecoverOnStart bool
}

// Runner sweeps on a fixed schedule. A sweep still running when the next
// one is due causes that tick to be skipped.
type Runner struct {
	sweeper        *Sweeper
	interval       time.Duration
	recoverOnStart bool
}

// NewRunner creates a Runner
func NewRunner(cfg *RunnerConfig) (*Runner, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}

	vb := errors.NewValidationBuilder()
	if cfg.Sweeper == nil {
		vb.RequiredField("Sweeper")
	}
	if cfg.Interval < 0 {
		vb.Field("Interval", "must not be negative")
	}
	if err := vb.Build(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	return &Runner{
		sweeper:        cfg.Sweeper,
		interval:       interval,
		recoverOnStart: cfg.RecoverOnStart,
	}, nil
}

// Run blocks until ctx is cancelled, then waits for an in-flight sweep
func (r *Runner) Run(ctx context.Context) error {
	if r.recoverOnStart {
		if _, err := r.sweeper.Recover(ctx); err != nil {
			slog.ErrorContext(ctx, "startup recovery failed", "error", err)
		}
	}

	logger := cronLogger{ctx: ctx}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := c.AddFunc(spec, func() {
		// errors are logged per battle by the sweeper
		_, _ = r.sweeper.Sweep(ctx)
	}); err != nil {
		return errors.Wrapf(err, "failed to schedule sweep %q", spec)
	}

	slog.InfoContext(ctx, "sweep runner started", "interval", r.interval)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "sweep runner stopped")

	return nil
}

// cronLogger routes cron's logging to slog
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.DebugContext(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.ErrorContext(l.ctx, "cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
