// Package scheduler drives the time based battle transitions: turn
// timeouts, challenge expiry and recovery after a restart.
package scheduler

//go:generate mockgen -destination=mock/mock_battle_service.go -package=schedulermock github.com/KirkDiggler/rpg-battle/internal/scheduler BattleService

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/metrics"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/battle"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/clock"
)

// Sweep names reported to metrics
const (
	SweepTurnTimeouts     = "turn_timeouts"
	SweepExpiredChallenge = "expired_challenges"
	SweepRecover          = "recover"
)

// DefaultConcurrency bounds how many battles a sweep processes at once
const DefaultConcurrency = 8

// RecoverAbortReason is recorded on battles aborted by Recover
const RecoverAbortReason = "abandoned before restart"

// BattleService is the part of the battle orchestrator the sweeper drives
type BattleService interface {
	ListBattles(ctx context.Context, input *battle.ListBattlesInput) (*battle.ListBattlesOutput, error)
	TimeoutTurn(ctx context.Context, input *battle.TimeoutTurnInput) (*battle.TimeoutTurnOutput, error)
	ExpireChallenge(ctx context.Context, input *battle.ExpireChallengeInput) (*battle.ExpireChallengeOutput, error)
	AbortBattle(ctx context.Context, input *battle.AbortBattleInput) (*battle.AbortBattleOutput, error)
}

var _ BattleService = (battle.Service)(nil)

// Config holds the dependencies of a Sweeper
type Config struct {
	Battles     BattleService
	TurnTimeout time.Duration
	// Concurrency bounds parallel transitions; zero uses DefaultConcurrency
	Concurrency int
	Metrics     metrics.Recorder
	Clock       clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Battles == nil {
		vb.RequiredField("Battles")
	}
	errors.ValidatePositive("TurnTimeout", int64(c.TurnTimeout), vb)
	if c.Concurrency < 0 {
		vb.Field("Concurrency", "must not be negative")
	}

	return vb.Build()
}

// Result summarizes one pass over the open battles
type Result struct {
	Name string
	// Candidates is the number of battles due for a transition
	Candidates int
	Processed  int
	// Skipped counts battles that moved on before the transition ran
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Sweeper applies time based transitions through the battle orchestrator.
// Every transition is re-validated by the orchestrator, so overlapping or
// repeated sweeps leave the same end state.
type Sweeper struct {
	battles     BattleService
	turnTimeout time.Duration
	concurrency int
	metrics     metrics.Recorder
	clock       clock.Clock
}

// NewSweeper creates a Sweeper
func NewSweeper(cfg *Config) (*Sweeper, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	s := &Sweeper{
		battles:     cfg.Battles,
		turnTimeout: cfg.TurnTimeout,
		concurrency: cfg.Concurrency,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
	}
	if s.concurrency == 0 {
		s.concurrency = DefaultConcurrency
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.clock == nil {
		s.clock = clock.New()
	}

	return s, nil
}

// Sweep times out stalled turns, then expires stale challenges. A listing
// failure in one pass does not prevent the other.
func (s *Sweeper) Sweep(ctx context.Context) ([]*Result, error) {
	var firstErr error

	turns, err := s.SweepTurnTimeouts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "turn timeout sweep failed", "error", err)
		firstErr = err
	}

	challenges, err := s.SweepExpiredChallenges(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "challenge expiry sweep failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	var results []*Result
	for _, r := range []*Result{turns, challenges} {
		if r != nil {
			results = append(results, r)
		}
	}

	return results, firstErr
}

// SweepTurnTimeouts times out every ACTIVE battle whose player to move has
// been idle for at least the turn timeout
func (s *Sweeper) SweepTurnTimeouts(ctx context.Context) (*Result, error) {
	now := s.clock.Now()
	active, err := s.list(ctx, entities.BattleStatusActive)
	if err != nil {
		return nil, err
	}

	var due []*entities.Battle
	for _, b := range active {
		if now.Sub(b.LastActionAt) >= s.turnTimeout {
			due = append(due, b)
		}
	}

	return s.run(ctx, SweepTurnTimeouts, due, func(ctx context.Context, b *entities.Battle) error {
		out, err := s.battles.TimeoutTurn(ctx, &battle.TimeoutTurnInput{
			BattleID:             b.ID,
			ObservedLastActionAt: b.LastActionAt,
		})
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "turn timed out by sweep",
			"battle_id", b.ID,
			"user_id", out.TimedOutUserID,
			"ended", out.Ended)
		return nil
	}), nil
}

// SweepExpiredChallenges expires every PENDING battle past its deadline
func (s *Sweeper) SweepExpiredChallenges(ctx context.Context) (*Result, error) {
	now := s.clock.Now()
	pending, err := s.list(ctx, entities.BattleStatusPending)
	if err != nil {
		return nil, err
	}

	var due []*entities.Battle
	for _, b := range pending {
		if !now.Before(b.ExpiresAt) {
			due = append(due, b)
		}
	}

	return s.run(ctx, SweepExpiredChallenge, due, func(ctx context.Context, b *entities.Battle) error {
		_, err := s.battles.ExpireChallenge(ctx, &battle.ExpireChallengeInput{BattleID: b.ID})
		return err
	}), nil
}

// Recover cleans up after a previous process. ACTIVE battles idle for more
// than twice the turn timeout are aborted without rewards and overdue
// challenges are expired.
func (s *Sweeper) Recover(ctx context.Context) ([]*Result, error) {
	now := s.clock.Now()
	active, err := s.list(ctx, entities.BattleStatusActive)
	if err != nil {
		return nil, err
	}

	var stale []*entities.Battle
	for _, b := range active {
		if now.Sub(b.LastActionAt) > 2*s.turnTimeout {
			stale = append(stale, b)
		}
	}

	aborted := s.run(ctx, SweepRecover, stale, func(ctx context.Context, b *entities.Battle) error {
		_, err := s.battles.AbortBattle(ctx, &battle.AbortBattleInput{
			BattleID: b.ID,
			Reason:   RecoverAbortReason,
		})
		return err
	})

	expired, err := s.SweepExpiredChallenges(ctx)
	if err != nil {
		return []*Result{aborted}, err
	}

	return []*Result{aborted, expired}, nil
}

func (s *Sweeper) list(ctx context.Context, status entities.BattleStatus) ([]*entities.Battle, error) {
	out, err := s.battles.ListBattles(ctx, &battle.ListBattlesInput{Status: status})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s battles", status)
	}
	s.metrics.SetOpenBattles(status, len(out.Battles))
	return out.Battles, nil
}

// run applies transition to every battle with bounded concurrency. A
// FailedPrecondition means the battle changed after it was listed and is
// counted as skipped.
func (s *Sweeper) run(ctx context.Context, name string, due []*entities.Battle,
	transition func(context.Context, *entities.Battle) error) *Result {
	start := time.Now()
	var processed, skipped, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, b := range due {
		g.Go(func() error {
			err := transition(ctx, b)
			switch {
			case err == nil:
				processed.Add(1)
			case errors.IsFailedPrecondition(err):
				skipped.Add(1)
				slog.DebugContext(ctx, "sweep skipped battle",
					"sweep", name,
					"battle_id", b.ID,
					"reason", errors.GetReason(err))
			default:
				failed.Add(1)
				slog.ErrorContext(ctx, "sweep failed for battle",
					"sweep", name,
					"battle_id", b.ID,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{
		Name:       name,
		Candidates: len(due),
		Processed:  int(processed.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
		Duration:   time.Since(start),
	}
	s.metrics.RecordSweep(name, result.Processed, result.Failed, result.Duration)

	if result.Candidates > 0 {
		slog.InfoContext(ctx, "sweep finished",
			"sweep", name,
			"candidates", result.Candidates,
			"processed", result.Processed,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"duration", result.Duration)
	}

	return result
}
