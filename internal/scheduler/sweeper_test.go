package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	metricsmock "github.com/KirkDiggler/rpg-battle/internal/metrics/mock"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/battle"
	"github.com/KirkDiggler/rpg-battle/internal/scheduler"
	schedulermock "github.com/KirkDiggler/rpg-battle/internal/scheduler/mock"
	"github.com/KirkDiggler/rpg-battle/internal/testutils"
	"github.com/KirkDiggler/rpg-battle/internal/testutils/builders"
	"github.com/KirkDiggler/rpg-battle/internal/testutils/mocks"
)

type SweeperTestSuite struct {
	suite.Suite
	ctx         context.Context
	ctrl        *gomock.Controller
	clock       *testutils.FakeClock
	mockBattles *schedulermock.MockBattleService
	mockMetrics *metricsmock.MockRecorder
	sweeper     *scheduler.Sweeper
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperTestSuite))
}

func (s *SweeperTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.clock = testutils.NewFakeClock(testutils.TestEpoch)
	s.mockBattles = schedulermock.NewMockBattleService(s.ctrl)
	s.mockMetrics = metricsmock.NewMockRecorder(s.ctrl)

	var err error
	s.sweeper, err = scheduler.NewSweeper(&scheduler.Config{
		Battles:     s.mockBattles,
		TurnTimeout: 45 * time.Second,
		Concurrency: 2,
		Metrics:     s.mockMetrics,
		Clock:       s.clock,
	})
	s.Require().NoError(err)
}

func (s *SweeperTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SweeperTestSuite) activeBattle(id string, idle time.Duration) *entities.Battle {
	now := s.clock.Now()
	return builders.NewBattleBuilder(now.Add(-time.Hour)).
		WithID(id).
		Active(now.Add(-time.Hour), 13).
		LastActionAt(now.Add(-idle)).
		Build()
}

func (s *SweeperTestSuite) pendingBattle(id string, expiresIn time.Duration) *entities.Battle {
	now := s.clock.Now()
	return builders.NewBattleBuilder(now).
		WithID(id).
		ExpiresAt(now.Add(expiresIn)).
		Build()
}

func (s *SweeperTestSuite) expectList(status entities.BattleStatus, battles ...*entities.Battle) {
	s.mockBattles.EXPECT().
		ListBattles(gomock.Any(), &battle.ListBattlesInput{Status: status}).
		Return(&battle.ListBattlesOutput{Battles: battles}, nil)
}

func (s *SweeperTestSuite) TestNewSweeperValidatesConfig() {
	_, err := scheduler.NewSweeper(nil)
	s.Assert().True(errors.IsInvalidArgument(err))

	_, err = scheduler.NewSweeper(&scheduler.Config{Concurrency: -1})
	s.Require().Error(err)
	s.Assert().Contains(err.Error(), "Battles")
	s.Assert().Contains(err.Error(), "TurnTimeout")
	s.Assert().Contains(err.Error(), "Concurrency")
}

func (s *SweeperTestSuite) TestSweepTurnTimeoutsOnlyTouchesIdleBattles() {
	due := s.activeBattle("battle_1", 45*time.Second)
	fresh := s.activeBattle("battle_2", 44*time.Second)
	s.expectList(entities.BattleStatusActive, due, fresh)

	s.mockBattles.EXPECT().
		TimeoutTurn(gomock.Any(), &battle.TimeoutTurnInput{
			BattleID:             due.ID,
			ObservedLastActionAt: due.LastActionAt,
		}).
		Return(&battle.TimeoutTurnOutput{Battle: due, TimedOutUserID: "u1", Ended: true}, nil)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusActive, 2, scheduler.SweepTurnTimeouts, 1, 0)

	result, err := s.sweeper.SweepTurnTimeouts(s.ctx)

	s.Require().NoError(err)
	s.Assert().Equal(1, result.Candidates)
	s.Assert().Equal(1, result.Processed)
	s.Assert().Zero(result.Failed)
}

func (s *SweeperTestSuite) TestSweepCountsSkippedAndFailed() {
	moved := s.activeBattle("battle_1", time.Minute)
	broken := s.activeBattle("battle_2", time.Minute)
	s.expectList(entities.BattleStatusActive, moved, broken)

	s.mockBattles.EXPECT().
		TimeoutTurn(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *battle.TimeoutTurnInput) (*battle.TimeoutTurnOutput, error) {
			if input.BattleID == moved.ID {
				return nil, errors.IllegalState(battle.ReasonStaleTimeout, "battle has moved on")
			}
			return nil, errors.Internal("redis unavailable")
		}).
		Times(2)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusActive, 2, scheduler.SweepTurnTimeouts, 0, 1)

	result, err := s.sweeper.SweepTurnTimeouts(s.ctx)

	s.Require().NoError(err)
	s.Assert().Equal(2, result.Candidates)
	s.Assert().Equal(1, result.Skipped)
	s.Assert().Equal(1, result.Failed)
}

func (s *SweeperTestSuite) TestSweepExpiredChallenges() {
	overdue := s.pendingBattle("battle_1", 0)
	open := s.pendingBattle("battle_2", time.Second)
	s.expectList(entities.BattleStatusPending, overdue, open)

	s.mockBattles.EXPECT().
		ExpireChallenge(gomock.Any(), &battle.ExpireChallengeInput{BattleID: overdue.ID}).
		Return(&battle.ExpireChallengeOutput{Battle: overdue}, nil)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusPending, 2, scheduler.SweepExpiredChallenge, 1, 0)

	result, err := s.sweeper.SweepExpiredChallenges(s.ctx)

	s.Require().NoError(err)
	s.Assert().Equal(1, result.Processed)
}

func (s *SweeperTestSuite) TestSweepContinuesAfterListFailure() {
	s.mockBattles.EXPECT().
		ListBattles(gomock.Any(), &battle.ListBattlesInput{Status: entities.BattleStatusActive}).
		Return(nil, errors.Internal("redis unavailable"))
	s.expectList(entities.BattleStatusPending)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusPending, 0, scheduler.SweepExpiredChallenge, 0, 0)

	results, err := s.sweeper.Sweep(s.ctx)

	s.Require().Error(err)
	s.Assert().True(errors.IsInternal(err))
	s.Require().Len(results, 1)
	s.Assert().Equal(scheduler.SweepExpiredChallenge, results[0].Name)
}

func (s *SweeperTestSuite) TestRecoverAbortsAbandonedBattles() {
	abandoned := s.activeBattle("battle_1", 91*time.Second)
	slow := s.activeBattle("battle_2", 90*time.Second)
	s.expectList(entities.BattleStatusActive, abandoned, slow)
	s.mockBattles.EXPECT().
		AbortBattle(gomock.Any(), &battle.AbortBattleInput{
			BattleID: abandoned.ID,
			Reason:   scheduler.RecoverAbortReason,
		}).
		Return(&battle.AbortBattleOutput{Battle: abandoned}, nil)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusActive, 2, scheduler.SweepRecover, 1, 0)

	s.expectList(entities.BattleStatusPending)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusPending, 0, scheduler.SweepExpiredChallenge, 0, 0)

	results, err := s.sweeper.Recover(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Assert().Equal(1, results[0].Processed)
}

func (s *SweeperTestSuite) TestNewRunnerValidatesConfig() {
	_, err := scheduler.NewRunner(&scheduler.RunnerConfig{})
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))

	runner, err := scheduler.NewRunner(&scheduler.RunnerConfig{Sweeper: s.sweeper})
	s.Require().NoError(err)
	s.Assert().NotNil(runner)
}

func (s *SweeperTestSuite) TestRunnerRecoversAndStopsOnCancel() {
	s.expectList(entities.BattleStatusActive)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusActive, 0, scheduler.SweepRecover, 0, 0)
	s.expectList(entities.BattleStatusPending)
	mocks.ExpectSweep(s.mockMetrics, entities.BattleStatusPending, 0, scheduler.SweepExpiredChallenge, 0, 0)

	runner, err := scheduler.NewRunner(&scheduler.RunnerConfig{
		Sweeper:        s.sweeper,
		Interval:       time.Hour,
		RecoverOnStart: true,
	})
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		s.Assert().NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("runner did not stop")
	}
}
