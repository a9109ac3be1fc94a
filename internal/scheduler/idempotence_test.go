package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/battle"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression"
	"github.com/KirkDiggler/rpg-battle/internal/permission"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/idgen"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
	"github.com/KirkDiggler/rpg-battle/internal/scheduler"
	"github.com/KirkDiggler/rpg-battle/internal/testutils"
)

// SweepIdempotenceTestSuite runs sweeps against a real orchestrator
type SweepIdempotenceTestSuite struct {
	suite.Suite
	ctx           context.Context
	clock         *testutils.FakeClock
	characterRepo characterrepo.Repository
	battles       battle.Service
	sweeper       *scheduler.Sweeper
	cleanup       func()
}

func TestSweepIdempotenceSuite(t *testing.T) {
	suite.Run(t, new(SweepIdempotenceTestSuite))
}

func (s *SweepIdempotenceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = testutils.NewFakeClock(testutils.TestEpoch)
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	var err error
	s.characterRepo, err = characterrepo.NewRedis(&characterrepo.RedisConfig{Client: client, Clock: s.clock})
	s.Require().NoError(err)
	battleRepo, err := battlerepo.NewRedis(&battlerepo.RedisConfig{Client: client, Clock: s.clock})
	s.Require().NoError(err)
	abilities, err := abilityrepo.NewDefault()
	s.Require().NoError(err)

	roller := testutils.NewSequenceRoller()
	progress, err := progression.NewOrchestrator(&progression.Config{
		CharacterRepo: s.characterRepo,
		Balance:       rules.DefaultBalance(),
		Roller:        roller,
		Clock:         s.clock,
	})
	s.Require().NoError(err)

	s.battles, err = battle.NewOrchestrator(&battle.Config{
		BattleRepo:    battleRepo,
		CharacterRepo: s.characterRepo,
		AbilityRepo:   abilities,
		Progression:   progress,
		Permission:    permission.NewStatic(nil),
		Roller:        roller,
		Balance:       rules.DefaultBalance(),
		Settings:      battle.DefaultSettings(),
		Clock:         s.clock,
		IDGenerator:   idgen.NewSequential("battle"),
	})
	s.Require().NoError(err)

	s.sweeper, err = scheduler.NewSweeper(&scheduler.Config{
		Battles:     s.battles,
		TurnTimeout: battle.DefaultSettings().TurnTimeout,
		Clock:       s.clock,
	})
	s.Require().NoError(err)
}

func (s *SweepIdempotenceTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *SweepIdempotenceTestSuite) createCharacter(userID string) {
	_, err := s.characterRepo.Create(s.ctx, characterrepo.CreateInput{
		Character: testutils.CreateTestCharacter(testutils.TestGuildID, userID),
	})
	s.Require().NoError(err)
}

func (s *SweepIdempotenceTestSuite) challenge(challenger, opponent string) *entities.Battle {
	out, err := s.battles.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID:      testutils.TestGuildID,
		ChallengerID: challenger,
		OpponentID:   opponent,
	})
	s.Require().NoError(err)
	return out.Battle
}

func (s *SweepIdempotenceTestSuite) elo(userID string) int {
	out, err := s.characterRepo.Get(s.ctx, characterrepo.GetInput{GuildID: testutils.TestGuildID, UserID: userID})
	s.Require().NoError(err)
	return out.Character.Elo
}

func (s *SweepIdempotenceTestSuite) TestRepeatedSweepsSettleOnce() {
	for _, id := range []string{"a", "b", "c"} {
		s.createCharacter(id)
	}
	active := s.challenge("a", "b")
	_, err := s.battles.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: active.ID, UserID: "b"})
	s.Require().NoError(err)
	pending := s.challenge("c", "d")

	s.clock.Advance(2 * time.Minute)

	first, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.Assert().Equal(1, first[0].Processed)
	s.Assert().Equal(1, first[1].Processed)

	second, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Assert().Zero(second[0].Candidates)
	s.Assert().Zero(second[1].Candidates)

	timedOut, err := s.battles.GetBattle(s.ctx, &battle.GetBattleInput{BattleID: active.ID})
	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusTimeout, timedOut.Battle.Status)
	s.Assert().Equal("b", timedOut.Battle.WinnerID)
	s.Assert().Equal(1016, s.elo("b"))
	s.Assert().Equal(984, s.elo("a"))

	expired, err := s.battles.GetBattle(s.ctx, &battle.GetBattleInput{BattleID: pending.ID})
	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusExpired, expired.Battle.Status)
}

func (s *SweepIdempotenceTestSuite) TestSweepBetweenActionsIsNoop() {
	s.createCharacter("a")
	s.createCharacter("b")
	b := s.challenge("a", "b")
	_, err := s.battles.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: "b"})
	s.Require().NoError(err)

	s.clock.Advance(30 * time.Second)
	for range 2 {
		results, err := s.sweeper.Sweep(s.ctx)
		s.Require().NoError(err)
		s.Assert().Zero(results[0].Candidates)
	}

	stored, err := s.battles.GetBattle(s.ctx, &battle.GetBattleInput{BattleID: b.ID})
	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusActive, stored.Battle.Status)
	s.Assert().Equal(int64(1), stored.Battle.Version)
}

func (s *SweepIdempotenceTestSuite) TestRecoverAbortsWithoutRewards() {
	s.createCharacter("a")
	s.createCharacter("b")
	b := s.challenge("a", "b")
	_, err := s.battles.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: "b"})
	s.Require().NoError(err)

	s.clock.Advance(91 * time.Second)
	_, err = s.sweeper.Recover(s.ctx)
	s.Require().NoError(err)

	stored, err := s.battles.GetBattle(s.ctx, &battle.GetBattleInput{BattleID: b.ID})
	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusAborted, stored.Battle.Status)
	s.Assert().Empty(stored.Battle.WinnerID)
	s.Assert().Equal(1000, s.elo("a"))
	s.Assert().Equal(1000, s.elo("b"))
}
