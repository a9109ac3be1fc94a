package battle_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	metricsmock "github.com/KirkDiggler/rpg-battle/internal/metrics/mock"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/battle"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression"
	permissionmock "github.com/KirkDiggler/rpg-battle/internal/permission/mock"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/idgen"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
	"github.com/KirkDiggler/rpg-battle/internal/testutils"
)

const (
	testGuildID  = testutils.TestGuildID
	challengerID = testutils.TestChallengerID
	opponentID   = testutils.TestOpponentID
	adminID      = testutils.TestAdminID
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx            context.Context
	ctrl           *gomock.Controller
	clock          *testutils.FakeClock
	roller         *testutils.SequenceRoller
	mockMetrics    *metricsmock.MockRecorder
	mockPermission *permissionmock.MockChecker
	bus            events.EventBus
	battleRepo     battlerepo.Repository
	characterRepo  characterrepo.Repository
	abilityRepo    abilityrepo.Repository
	progression    progression.Service
	settings       battle.Settings
	orchestrator   battle.Service
	cleanup        func()
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.clock = testutils.NewFakeClock(testutils.TestEpoch)
	s.roller = testutils.NewSequenceRoller()
	s.mockMetrics = metricsmock.NewMockRecorder(s.ctrl)
	s.mockPermission = permissionmock.NewMockChecker(s.ctrl)
	s.bus = events.NewBus()

	s.mockMetrics.EXPECT().RecordTurnLatency(gomock.Any(), gomock.Any()).AnyTimes()

	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	var err error
	s.characterRepo, err = characterrepo.NewRedis(&characterrepo.RedisConfig{Client: client, Clock: s.clock})
	s.Require().NoError(err)
	s.battleRepo, err = battlerepo.NewRedis(&battlerepo.RedisConfig{Client: client, Clock: s.clock})
	s.Require().NoError(err)
	s.abilityRepo, err = abilityrepo.NewDefault()
	s.Require().NoError(err)

	s.progression, err = progression.NewOrchestrator(&progression.Config{
		CharacterRepo: s.characterRepo,
		Balance:       rules.DefaultBalance(),
		Roller:        s.roller,
		Clock:         s.clock,
	})
	s.Require().NoError(err)

	s.settings = battle.DefaultSettings()
	s.build()
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
	s.cleanup()
}

func (s *OrchestratorTestSuite) build() {
	o, err := battle.NewOrchestrator(&battle.Config{
		BattleRepo:    s.battleRepo,
		CharacterRepo: s.characterRepo,
		AbilityRepo:   s.abilityRepo,
		Progression:   s.progression,
		Permission:    s.mockPermission,
		Roller:        s.roller,
		Balance:       rules.DefaultBalance(),
		Settings:      s.settings,
		Metrics:       s.mockMetrics,
		EventBus:      s.bus,
		Clock:         s.clock,
		IDGenerator:   idgen.NewSequential("battle"),
	})
	s.Require().NoError(err)
	s.orchestrator = o
}

func (s *OrchestratorTestSuite) createCharacter(userID string) {
	_, err := s.characterRepo.Create(s.ctx, characterrepo.CreateInput{
		Character: testutils.CreateTestCharacter(testGuildID, userID),
	})
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) character(userID string) *entities.Character {
	out, err := s.characterRepo.Get(s.ctx, characterrepo.GetInput{GuildID: testGuildID, UserID: userID})
	s.Require().NoError(err)
	return out.Character
}

func (s *OrchestratorTestSuite) get(id string) *entities.Battle {
	out, err := s.orchestrator.GetBattle(s.ctx, &battle.GetBattleInput{BattleID: id})
	s.Require().NoError(err)
	return out.Battle
}

func (s *OrchestratorTestSuite) challenge(challenger, opponent string) *entities.Battle {
	s.mockMetrics.EXPECT().RecordChallengeCreated(testGuildID)
	out, err := s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID:      testGuildID,
		ChallengerID: challenger,
		OpponentID:   opponent,
	})
	s.Require().NoError(err)
	return out.Battle
}

// startBattle creates both characters and returns an accepted battle with
// the challenger to move
func (s *OrchestratorTestSuite) startBattle() *entities.Battle {
	s.createCharacter(challengerID)
	s.createCharacter(opponentID)
	b := s.challenge(challengerID, opponentID)

	s.mockMetrics.EXPECT().RecordChallengeAccepted(testGuildID)
	out, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)
	return out.Battle
}

func (s *OrchestratorTestSuite) attack(battleID, userID string, rolls ...int) (*battle.PerformActionOutput, error) {
	s.roller.Push(rolls...)
	return s.orchestrator.PerformAttack(s.ctx, &battle.PerformAttackInput{BattleID: battleID, UserID: userID})
}

// learn links abilities to a stored character, skipping the learn rules
func (s *OrchestratorTestSuite) learn(userID string, keys ...string) {
	for _, key := range keys {
		_, err := s.characterRepo.AddAbility(s.ctx, characterrepo.AddAbilityInput{
			Link: &entities.CharacterAbility{GuildID: testGuildID, UserID: userID, AbilityKey: key},
		})
		s.Require().NoError(err)
	}
}

// startMageBattle is startBattle with a level 1 mage as the challenger
func (s *OrchestratorTestSuite) startMageBattle() *entities.Battle {
	mage := testutils.CreateTestCharacter(testGuildID, challengerID)
	mage.Class = entities.ClassMage
	mage.MaxHP, mage.CurrentHP = 7, 7
	_, err := s.characterRepo.Create(s.ctx, characterrepo.CreateInput{Character: mage})
	s.Require().NoError(err)
	s.createCharacter(opponentID)
	b := s.challenge(challengerID, opponentID)

	s.mockMetrics.EXPECT().RecordChallengeAccepted(testGuildID)
	out, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)
	return out.Battle
}

func (s *OrchestratorTestSuite) cast(battleID, userID, key string, rolls ...int) (*battle.PerformActionOutput, error) {
	s.roller.Push(rolls...)
	return s.orchestrator.PerformSpell(s.ctx, &battle.PerformSpellInput{BattleID: battleID, UserID: userID, AbilityKey: key})
}

func (s *OrchestratorTestSuite) assertReason(err error, reason string) {
	s.Require().Error(err)
	s.Assert().True(errors.IsFailedPrecondition(err), err.Error())
	s.Assert().Equal(reason, errors.GetReason(err))
}

func (s *OrchestratorTestSuite) TestNewOrchestratorValidatesConfig() {
	_, err := battle.NewOrchestrator(&battle.Config{Settings: battle.Settings{TimeoutPolicy: "coin_flip"}})
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))
	s.Assert().Contains(err.Error(), "BattleRepo")
	s.Assert().Contains(err.Error(), "Settings.TimeoutPolicy")
}

func (s *OrchestratorTestSuite) TestCreateChallenge() {
	s.createCharacter(challengerID)

	b := s.challenge(challengerID, opponentID)

	s.Assert().Equal("battle_1", b.ID)
	s.Assert().Equal(entities.BattleStatusPending, b.Status)
	s.Assert().Equal(challengerID, b.CurrentTurnUserID)
	s.Assert().Equal(testutils.TestEpoch.Add(120*time.Second), b.ExpiresAt)

	found, err := s.orchestrator.FindPendingBattleForOpponent(s.ctx, &battle.FindPendingBattleForOpponentInput{
		GuildID: testGuildID,
		UserID:  opponentID,
	})
	s.Require().NoError(err)
	s.Assert().Equal(b.ID, found.Battle.ID)

	_, err = s.orchestrator.FindPendingBattleForOpponent(s.ctx, &battle.FindPendingBattleForOpponentInput{
		GuildID: testGuildID,
		UserID:  challengerID,
	})
	s.Assert().True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestCreateChallengeRejectsBadOpponents() {
	s.createCharacter(challengerID)

	_, err := s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID: testGuildID, ChallengerID: challengerID, OpponentID: challengerID,
	})
	s.Assert().True(errors.IsInvalidArgument(err))

	_, err = s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID: testGuildID, ChallengerID: challengerID, OpponentID: "bot", OpponentIsBot: true,
	})
	s.Assert().True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestCreateChallengeNeedsChallengerCharacter() {
	_, err := s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID: testGuildID, ChallengerID: challengerID, OpponentID: opponentID,
	})

	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))
	s.Assert().Contains(err.Error(), "missing character")
}

func (s *OrchestratorTestSuite) TestCreateChallengeWhenParticipantBusy() {
	s.createCharacter(challengerID)
	s.createCharacter("third")
	s.challenge(challengerID, opponentID)

	_, err := s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID: testGuildID, ChallengerID: "third", OpponentID: opponentID,
	})

	s.assertReason(err, battlerepo.ReasonParticipantBusy)
}

func (s *OrchestratorTestSuite) TestCreateChallengeAtGuildCapacity() {
	s.settings.MaxConcurrentPerGuild = 1
	s.build()
	s.createCharacter(challengerID)
	s.createCharacter("third")
	s.challenge(challengerID, opponentID)

	_, err := s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID: testGuildID, ChallengerID: "third", OpponentID: "fourth",
	})

	s.assertReason(err, battlerepo.ReasonGuildAtCapacity)
}

func (s *OrchestratorTestSuite) TestAcceptChallenge() {
	b := s.startBattle()

	s.Assert().Equal(entities.BattleStatusActive, b.Status)
	s.Assert().Equal(13, b.ChallengerHP)
	s.Assert().Equal(13, b.ChallengerMaxHP)
	s.Assert().Equal(13, b.OpponentHP)
	s.Assert().Equal(challengerID, b.CurrentTurnUserID)
	s.Assert().Equal(1, b.TurnNumber)
	s.Assert().Equal(testutils.TestEpoch, b.StartedAt)
	s.Require().Len(b.Log, 1)
	s.Assert().Equal(entities.ActionStart, b.Log[0].Action)

	active, err := s.orchestrator.FindActiveBattleForUser(s.ctx, &battle.FindActiveBattleForUserInput{
		GuildID: testGuildID,
		UserID:  challengerID,
	})
	s.Require().NoError(err)
	s.Assert().Equal(b.ID, active.Battle.ID)
}

func (s *OrchestratorTestSuite) TestDoubleAcceptChangesStatusOnce() {
	b := s.startBattle()

	_, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})

	s.assertReason(err, battle.ReasonNotPending)
	stored := s.get(b.ID)
	s.Assert().Equal(int64(1), stored.Version)
	s.Assert().Len(stored.Log, 1)
}

func (s *OrchestratorTestSuite) TestAcceptByChallengerFails() {
	s.createCharacter(challengerID)
	s.createCharacter(opponentID)
	b := s.challenge(challengerID, opponentID)

	_, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: challengerID})

	s.assertReason(err, battle.ReasonNotOpponent)
	s.Assert().Equal(entities.BattleStatusPending, s.get(b.ID).Status)
}

func (s *OrchestratorTestSuite) TestAcceptAfterExpiryFailsWithoutWrite() {
	s.createCharacter(challengerID)
	s.createCharacter(opponentID)
	b := s.challenge(challengerID, opponentID)
	s.clock.Advance(120 * time.Second)

	_, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})

	s.assertReason(err, battle.ReasonChallengeExpired)
	stored := s.get(b.ID)
	s.Assert().Equal(entities.BattleStatusPending, stored.Status)
	s.Assert().Zero(stored.Version)
}

func (s *OrchestratorTestSuite) TestAcceptNeedsOpponentCharacter() {
	s.createCharacter(challengerID)
	b := s.challenge(challengerID, opponentID)

	_, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})

	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))
	s.Assert().Contains(err.Error(), "missing character")
	s.Assert().Equal(entities.BattleStatusPending, s.get(b.ID).Status)

	s.createCharacter(opponentID)
	s.mockMetrics.EXPECT().RecordChallengeAccepted(testGuildID)
	out, err := s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})

	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusActive, out.Battle.Status)
	s.Assert().Equal(challengerID, out.Battle.CurrentTurnUserID)
}

func (s *OrchestratorTestSuite) TestAttackMissPassesTurn() {
	b := s.startBattle()

	out, err := s.attack(b.ID, challengerID, 2)

	s.Require().NoError(err)
	s.Assert().False(out.Attack.Hit)
	s.Assert().Equal(6, out.Attack.AttackTotal)
	s.Assert().Equal(12, out.Attack.DefenderAC)
	s.Assert().False(out.Ended)
	s.Assert().Equal(opponentID, out.Battle.CurrentTurnUserID)
	s.Assert().Equal(2, out.Battle.TurnNumber)
	s.Assert().Equal(13, out.Battle.OpponentHP)
	s.Require().Len(out.Battle.Log, 2)
	s.Assert().Equal(entities.ActionAttack, out.Battle.Log[1].Action)
	s.Assert().Equal(1, out.Battle.Log[1].Turn)
}

func (s *OrchestratorTestSuite) TestAttackHitDealsDamage() {
	b := s.startBattle()

	out, err := s.attack(b.ID, challengerID, 15, 3)

	s.Require().NoError(err)
	s.Assert().True(out.Attack.Hit)
	s.Assert().Equal(5, out.Attack.Damage)
	s.Assert().Equal(8, out.Battle.OpponentHP)
	s.Assert().Equal(opponentID, out.Battle.CurrentTurnUserID)
	s.Assert().Equal(8, out.Battle.Log[1].OpponentHP)
}

func (s *OrchestratorTestSuite) TestAttackOutOfTurn() {
	b := s.startBattle()

	_, err := s.attack(b.ID, opponentID)

	s.assertReason(err, battle.ReasonNotYourTurn)
	s.Assert().Equal(int64(1), s.get(b.ID).Version)
}

func (s *OrchestratorTestSuite) TestKillingBlowCompletesBattle() {
	b := s.startBattle()

	s.mockMetrics.EXPECT().RecordCriticalHit(testGuildID)
	out, err := s.attack(b.ID, challengerID, 20, 3)
	s.Require().NoError(err)
	s.Assert().True(out.Attack.Crit)
	s.Assert().Equal(10, out.Attack.Damage)
	s.Assert().Equal(3, out.Battle.OpponentHP)

	s.clock.Advance(5 * time.Second)
	_, err = s.attack(b.ID, opponentID, 1)
	s.Require().NoError(err)

	s.clock.Advance(5 * time.Second)
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusCompleted, 10*time.Second)
	out, err = s.attack(b.ID, challengerID, 15, 1)

	s.Require().NoError(err)
	s.Assert().True(out.Ended)
	s.Assert().Equal(entities.BattleStatusCompleted, out.Battle.Status)
	s.Assert().Equal(challengerID, out.Battle.WinnerID)
	s.Assert().Zero(out.Battle.OpponentHP)
	s.Require().NotNil(out.Rewards)
	s.Assert().Equal(16, out.Rewards.Winner.EloDelta)

	s.Assert().Equal(1016, s.character(challengerID).Elo)
	s.Assert().Equal(1, s.character(opponentID).Losses)

	cooldown, err := s.battleRepo.GetCooldown(s.ctx, battlerepo.GetCooldownInput{GuildID: testGuildID, UserID: opponentID})
	s.Require().NoError(err)
	s.Assert().Equal(60*time.Second, cooldown.Remaining)

	_, err = s.attack(b.ID, opponentID)
	s.assertReason(err, battle.ReasonNotActive)
}

func (s *OrchestratorTestSuite) TestCooldownBlocksRematch() {
	b := s.startBattle()
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusForfeited, gomock.Any())
	_, err := s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)

	s.clock.Advance(15 * time.Second)
	_, err = s.orchestrator.CreateChallenge(s.ctx, &battle.CreateChallengeInput{
		GuildID: testGuildID, ChallengerID: challengerID, OpponentID: opponentID,
	})
	s.assertReason(err, battlerepo.ReasonOnCooldown)
	s.Assert().Contains(err.Error(), "45 more seconds")

	s.clock.Advance(45 * time.Second)
	s.challenge(challengerID, opponentID)
}

func (s *OrchestratorTestSuite) TestDefendRaisesArmorUntilNextAction() {
	b := s.startBattle()

	out, err := s.orchestrator.PerformDefend(s.ctx, &battle.PerformDefendInput{BattleID: b.ID, UserID: challengerID})
	s.Require().NoError(err)
	s.Assert().True(out.Battle.IsDefending(challengerID))
	s.Assert().Equal(opponentID, out.Battle.CurrentTurnUserID)

	// 9 + 4 beats AC 12 but not the defended 14
	out, err = s.attack(b.ID, opponentID, 9)
	s.Require().NoError(err)
	s.Assert().Equal(14, out.Attack.DefenderAC)
	s.Assert().False(out.Attack.Hit)

	out, err = s.attack(b.ID, challengerID, 1)
	s.Require().NoError(err)
	s.Assert().False(out.Battle.IsDefending(challengerID))
}

func (s *OrchestratorTestSuite) TestForfeitAwardsOtherParticipant() {
	b := s.startBattle()
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusForfeited, gomock.Any())

	out, err := s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: opponentID})

	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusForfeited, out.Battle.Status)
	s.Assert().Equal(challengerID, out.Battle.WinnerID)
	s.Require().NotNil(out.Rewards)
	s.Assert().Equal(1016, s.character(challengerID).Elo)
}

func (s *OrchestratorTestSuite) TestDoubleForfeitFails() {
	b := s.startBattle()
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusForfeited, gomock.Any()).Times(1)

	_, err := s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)

	_, err = s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: opponentID})
	s.assertReason(err, battle.ReasonAlreadyEnded)

	s.Assert().Equal(1, s.character(challengerID).Wins)
}

func (s *OrchestratorTestSuite) TestForfeitPendingWithoutOpponentCharacter() {
	s.createCharacter(challengerID)
	b := s.challenge(challengerID, opponentID)
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusForfeited, gomock.Any())

	out, err := s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: challengerID})

	s.Require().NoError(err)
	s.Assert().Equal(opponentID, out.Battle.WinnerID)
	s.Require().NotNil(out.Rewards)
	s.Assert().True(out.Rewards.Skipped)
	s.Assert().Equal(1000, s.character(challengerID).Elo)
}

func (s *OrchestratorTestSuite) TestForfeitByOutsider() {
	b := s.startBattle()

	_, err := s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: "stranger"})

	s.assertReason(err, battle.ReasonNotParticipant)
}

func (s *OrchestratorTestSuite) TestDeclineChallenge() {
	s.createCharacter(challengerID)
	b := s.challenge(challengerID, opponentID)

	_, err := s.orchestrator.DeclineChallenge(s.ctx, &battle.DeclineChallengeInput{BattleID: b.ID, UserID: challengerID})
	s.assertReason(err, battle.ReasonNotOpponent)

	s.mockMetrics.EXPECT().RecordChallengeDeclined(testGuildID)
	out, err := s.orchestrator.DeclineChallenge(s.ctx, &battle.DeclineChallengeInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusDeclined, out.Battle.Status)
	s.Assert().Empty(out.Battle.WinnerID)

	// declining releases both participants without a cooldown
	s.challenge(challengerID, opponentID)
}

func (s *OrchestratorTestSuite) TestAdminCancelRequiresPermission() {
	b := s.startBattle()
	s.mockPermission.EXPECT().HasAdminPermission(gomock.Any(), testGuildID, "pretender").Return(false, nil)

	_, err := s.orchestrator.AdminCancelBattle(s.ctx, &battle.AdminCancelBattleInput{BattleID: b.ID, AdminID: "pretender"})

	s.Require().Error(err)
	s.Assert().True(errors.IsPermissionDenied(err))
	s.Assert().Equal(entities.BattleStatusActive, s.get(b.ID).Status)
}

func (s *OrchestratorTestSuite) TestAdminCancel() {
	b := s.startBattle()
	s.mockPermission.EXPECT().HasAdminPermission(gomock.Any(), testGuildID, adminID).Return(true, nil)
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusAborted, gomock.Any())

	out, err := s.orchestrator.AdminCancelBattle(s.ctx, &battle.AdminCancelBattleInput{BattleID: b.ID, AdminID: adminID})

	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusAborted, out.Battle.Status)
	s.Assert().Empty(out.Battle.WinnerID)
	s.Assert().Equal(1000, s.character(challengerID).Elo)
	s.Assert().Zero(s.character(opponentID).BattlesPlayed())
	s.Assert().Equal("cancelled by "+adminID, out.Battle.Log[len(out.Battle.Log)-1].Note)
}

func (s *OrchestratorTestSuite) TestTimeoutForfeitsBattle() {
	b := s.startBattle()
	s.clock.Advance(45 * time.Second)
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusTimeout, gomock.Any()).Times(1)

	input := &battle.TimeoutTurnInput{BattleID: b.ID, ObservedLastActionAt: b.LastActionAt}
	out, err := s.orchestrator.TimeoutTurn(s.ctx, input)

	s.Require().NoError(err)
	s.Assert().True(out.Ended)
	s.Assert().Equal(challengerID, out.TimedOutUserID)
	s.Assert().Equal(entities.BattleStatusTimeout, out.Battle.Status)
	s.Assert().Equal(opponentID, out.Battle.WinnerID)

	// a second sweep over the same snapshot changes nothing
	_, err = s.orchestrator.TimeoutTurn(s.ctx, input)
	s.assertReason(err, battle.ReasonNotActive)
	s.Assert().Equal(1016, s.character(opponentID).Elo)
	s.Assert().Equal(1, s.character(opponentID).Wins)
}

func (s *OrchestratorTestSuite) TestTimeoutRejectedBeforeDeadline() {
	b := s.startBattle()
	s.clock.Advance(44 * time.Second)

	_, err := s.orchestrator.TimeoutTurn(s.ctx, &battle.TimeoutTurnInput{BattleID: b.ID, ObservedLastActionAt: b.LastActionAt})

	s.assertReason(err, battle.ReasonTurnNotElapsed)
}

func (s *OrchestratorTestSuite) TestTimeoutRejectedWhenBattleMovedOn() {
	b := s.startBattle()
	s.clock.Advance(30 * time.Second)
	_, err := s.attack(b.ID, challengerID, 1)
	s.Require().NoError(err)
	s.clock.Advance(50 * time.Second)

	_, err = s.orchestrator.TimeoutTurn(s.ctx, &battle.TimeoutTurnInput{BattleID: b.ID, ObservedLastActionAt: b.LastActionAt})

	s.assertReason(err, battle.ReasonStaleTimeout)
}

func (s *OrchestratorTestSuite) TestSkipTurnPolicy() {
	s.settings.TimeoutPolicy = battle.TimeoutPolicySkipTurn
	s.settings.MaxMissedTurns = 2
	s.build()
	b := s.startBattle()

	timeout := func() *battle.TimeoutTurnOutput {
		s.clock.Advance(45 * time.Second)
		current := s.get(b.ID)
		out, err := s.orchestrator.TimeoutTurn(s.ctx, &battle.TimeoutTurnInput{
			BattleID:             b.ID,
			ObservedLastActionAt: current.LastActionAt,
		})
		s.Require().NoError(err)
		return out
	}

	out := timeout()
	s.Assert().False(out.Ended)
	s.Assert().Equal(challengerID, out.TimedOutUserID)
	s.Assert().Equal(opponentID, out.Battle.CurrentTurnUserID)
	s.Assert().Equal(1, out.Battle.MissedTurns[challengerID])

	out = timeout()
	s.Assert().False(out.Ended)
	s.Assert().Equal(opponentID, out.TimedOutUserID)

	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusTimeout, gomock.Any())
	out = timeout()
	s.Assert().True(out.Ended)
	s.Assert().Equal(opponentID, out.Battle.WinnerID)
}

func (s *OrchestratorTestSuite) TestSkipTurnResetsOnAction() {
	s.settings.TimeoutPolicy = battle.TimeoutPolicySkipTurn
	s.settings.MaxMissedTurns = 2
	s.build()
	b := s.startBattle()

	s.clock.Advance(45 * time.Second)
	_, err := s.orchestrator.TimeoutTurn(s.ctx, &battle.TimeoutTurnInput{BattleID: b.ID})
	s.Require().NoError(err)
	_, err = s.attack(b.ID, opponentID, 1)
	s.Require().NoError(err)
	_, err = s.attack(b.ID, challengerID, 1)
	s.Require().NoError(err)

	s.Assert().Zero(s.get(b.ID).MissedTurns[challengerID])
}

func (s *OrchestratorTestSuite) TestExpireChallenge() {
	s.createCharacter(challengerID)
	b := s.challenge(challengerID, opponentID)

	_, err := s.orchestrator.ExpireChallenge(s.ctx, &battle.ExpireChallengeInput{BattleID: b.ID})
	s.assertReason(err, battle.ReasonNotExpired)

	s.clock.Advance(121 * time.Second)
	s.mockMetrics.EXPECT().RecordChallengeExpired(testGuildID)
	out, err := s.orchestrator.ExpireChallenge(s.ctx, &battle.ExpireChallengeInput{BattleID: b.ID})

	s.Require().NoError(err)
	s.Assert().Equal(entities.BattleStatusExpired, out.Battle.Status)
	s.Assert().Empty(out.Battle.WinnerID)

	_, err = s.orchestrator.ExpireChallenge(s.ctx, &battle.ExpireChallengeInput{BattleID: b.ID})
	s.assertReason(err, battle.ReasonNotPending)
}

func (s *OrchestratorTestSuite) TestAttackRacingTimeoutTransitionsOnce() {
	b := s.startBattle()
	s.clock.Advance(45 * time.Second)
	s.roller.Push(1, 1, 1, 1)
	s.mockMetrics.EXPECT().RecordBattleCompleted(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	var (
		wg         sync.WaitGroup
		attackErr  error
		timeoutErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, attackErr = s.orchestrator.PerformAttack(s.ctx, &battle.PerformAttackInput{BattleID: b.ID, UserID: challengerID})
	}()
	go func() {
		defer wg.Done()
		_, timeoutErr = s.orchestrator.TimeoutTurn(s.ctx, &battle.TimeoutTurnInput{
			BattleID:             b.ID,
			ObservedLastActionAt: b.LastActionAt,
		})
	}()
	wg.Wait()

	s.Require().True((attackErr == nil) != (timeoutErr == nil), "attack: %v, timeout: %v", attackErr, timeoutErr)

	stored := s.get(b.ID)
	s.Assert().Equal(int64(2), stored.Version)
	if attackErr == nil {
		s.Assert().True(errors.IsFailedPrecondition(timeoutErr))
		s.Assert().Equal(entities.BattleStatusActive, stored.Status)
		s.Assert().Equal(opponentID, stored.CurrentTurnUserID)
	} else {
		s.Assert().True(errors.IsFailedPrecondition(attackErr))
		s.Assert().Equal(entities.BattleStatusTimeout, stored.Status)
	}
}

func (s *OrchestratorTestSuite) TestPerformActionDispatch() {
	b := s.startBattle()

	_, err := s.orchestrator.PerformAction(s.ctx, &battle.PerformActionInput{
		BattleID: b.ID, UserID: challengerID, Action: entities.ActionTimeout,
	})
	s.Assert().True(errors.IsInvalidArgument(err))

	s.roller.Push(1)
	out, err := s.orchestrator.PerformAction(s.ctx, &battle.PerformActionInput{
		BattleID: b.ID, UserID: challengerID, Action: entities.ActionAttack,
	})
	s.Require().NoError(err)
	s.Assert().NotNil(out.Attack)

	out, err = s.orchestrator.PerformAction(s.ctx, &battle.PerformActionInput{
		BattleID: b.ID, UserID: opponentID, Action: entities.ActionDefend,
	})
	s.Require().NoError(err)
	s.Assert().True(out.Battle.IsDefending(opponentID))

	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusForfeited, gomock.Any())
	out, err = s.orchestrator.PerformAction(s.ctx, &battle.PerformActionInput{
		BattleID: b.ID, UserID: challengerID, Action: entities.ActionForfeit,
	})
	s.Require().NoError(err)
	s.Assert().True(out.Ended)
	s.Assert().Equal(opponentID, out.Battle.WinnerID)
}

func (s *OrchestratorTestSuite) TestCastSpellDealsSpellDamage() {
	b := s.startMageBattle()
	s.Assert().Equal(7, b.ChallengerHP)
	s.learn(challengerID, "arcane-focus", "fireball")

	out, err := s.cast(b.ID, challengerID, "fireball", 15, 3)

	s.Require().NoError(err)
	s.Require().NotNil(out.Attack)
	s.Assert().True(out.Attack.Hit)
	// d20 + proficiency 2 + INT 1
	s.Assert().Equal(18, out.Attack.AttackTotal)
	// d6 + INT 1 + SPELL_DAMAGE 4
	s.Assert().Equal(8, out.Attack.Damage)
	s.Assert().Equal(5, out.Battle.OpponentHP)
	s.Assert().Equal(opponentID, out.Battle.CurrentTurnUserID)
	s.Assert().Equal(1, out.Battle.SpellSlotsSpent(challengerID))

	s.Require().Len(out.Battle.Log, 2)
	s.Assert().Equal(entities.ActionSpell, out.Battle.Log[1].Action)
	s.Assert().Equal("fireball", out.Battle.Log[1].AbilityKey)
	s.Assert().Equal([]int{20, 6}, s.roller.Sizes())
}

func (s *OrchestratorTestSuite) TestCastRunsOutOfSpellSlots() {
	b := s.startMageBattle()
	s.learn(challengerID, "arcane-focus", "fireball")

	for i := 0; i < 2; i++ {
		_, err := s.cast(b.ID, challengerID, "fireball", 2)
		s.Require().NoError(err)
		_, err = s.orchestrator.PerformDefend(s.ctx, &battle.PerformDefendInput{BattleID: b.ID, UserID: opponentID})
		s.Require().NoError(err)
	}
	before := s.get(b.ID)
	s.Assert().Equal(2, before.SpellSlotsSpent(challengerID))

	_, err := s.cast(b.ID, challengerID, "fireball")
	s.assertReason(err, battle.ReasonNoSpellSlots)

	after := s.get(b.ID)
	s.Assert().Equal(challengerID, after.CurrentTurnUserID)
	s.Assert().Equal(before.TurnNumber, after.TurnNumber)
	s.Assert().Len(after.Log, len(before.Log))
	s.Assert().Equal(2, after.SpellSlotsSpent(challengerID))

	// spells without a slot level are always castable
	out, err := s.cast(b.ID, challengerID, "arcane-focus", 2)
	s.Require().NoError(err)
	s.Assert().Equal(2, out.Battle.SpellSlotsSpent(challengerID))
	s.Assert().Equal(opponentID, out.Battle.CurrentTurnUserID)
}

func (s *OrchestratorTestSuite) TestCastWithoutSlotsForClass() {
	b := s.startBattle()
	s.learn(challengerID, "fireball")

	_, err := s.cast(b.ID, challengerID, "fireball")

	s.assertReason(err, battle.ReasonNoSpellSlots)
	s.Assert().Equal(0, s.get(b.ID).SpellSlotsSpent(challengerID))
}

func (s *OrchestratorTestSuite) TestCastRejectsUnusableAbilities() {
	b := s.startMageBattle()
	s.learn(challengerID, "power-strike")

	_, err := s.cast(b.ID, challengerID, "fireball")
	s.assertReason(err, battle.ReasonNotLearned)

	_, err = s.cast(b.ID, challengerID, "power-strike")
	s.assertReason(err, battle.ReasonNotASpell)

	_, err = s.cast(b.ID, challengerID, "meteor-swarm")
	s.Assert().True(errors.IsInvalidArgument(err))

	_, err = s.cast(b.ID, challengerID, "")
	s.Assert().True(errors.IsInvalidArgument(err))

	s.learn(opponentID, "arcane-focus")
	_, err = s.cast(b.ID, opponentID, "arcane-focus")
	s.assertReason(err, battle.ReasonNotYourTurn)

	after := s.get(b.ID)
	s.Assert().Equal(challengerID, after.CurrentTurnUserID)
	s.Assert().Len(after.Log, 1)
}

func (s *OrchestratorTestSuite) TestPerformActionDispatchesSpell() {
	b := s.startMageBattle()
	s.learn(challengerID, "arcane-focus")

	s.roller.Push(2)
	out, err := s.orchestrator.PerformAction(s.ctx, &battle.PerformActionInput{
		BattleID: b.ID, UserID: challengerID, Action: entities.ActionSpell, AbilityKey: "arcane-focus",
	})

	s.Require().NoError(err)
	s.Require().NotNil(out.Attack)
	s.Assert().False(out.Attack.Hit)
	s.Assert().Equal(entities.ActionSpell, out.Battle.Log[1].Action)
	s.Assert().Equal("arcane-focus", out.Battle.Log[1].AbilityKey)
}

func (s *OrchestratorTestSuite) TestGetBattleNotFound() {
	_, err := s.orchestrator.GetBattle(s.ctx, &battle.GetBattleInput{BattleID: "battle_404"})

	s.Require().Error(err)
	s.Assert().True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestFindOpenBattles() {
	s.createCharacter(challengerID)
	b := s.challenge(challengerID, opponentID)

	pending, err := s.orchestrator.FindPendingBattleForOpponent(s.ctx, &battle.FindPendingBattleForOpponentInput{
		GuildID: testGuildID,
		UserID:  opponentID,
	})
	s.Require().NoError(err)
	s.Assert().Equal(b.ID, pending.Battle.ID)

	// the challenger is not the one who has to answer
	_, err = s.orchestrator.FindPendingBattleForOpponent(s.ctx, &battle.FindPendingBattleForOpponentInput{
		GuildID: testGuildID,
		UserID:  challengerID,
	})
	s.Assert().True(errors.IsNotFound(err))

	_, err = s.orchestrator.FindActiveBattleForUser(s.ctx, &battle.FindActiveBattleForUserInput{
		GuildID: testGuildID,
		UserID:  challengerID,
	})
	s.Assert().True(errors.IsNotFound(err))

	s.createCharacter(opponentID)
	s.mockMetrics.EXPECT().RecordChallengeAccepted(testGuildID)
	_, err = s.orchestrator.AcceptChallenge(s.ctx, &battle.AcceptChallengeInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)

	active, err := s.orchestrator.FindActiveBattleForUser(s.ctx, &battle.FindActiveBattleForUserInput{
		GuildID: testGuildID,
		UserID:  challengerID,
	})
	s.Require().NoError(err)
	s.Assert().Equal(b.ID, active.Battle.ID)

	_, err = s.orchestrator.FindActiveBattleForUser(s.ctx, &battle.FindActiveBattleForUserInput{
		GuildID: testGuildID,
		UserID:  "stranger",
	})
	s.Assert().True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestListBattles() {
	active := s.startBattle()
	s.createCharacter("third")
	pending := s.challenge("third", "fourth")

	out, err := s.orchestrator.ListBattles(s.ctx, &battle.ListBattlesInput{Status: entities.BattleStatusActive})
	s.Require().NoError(err)
	s.Require().Len(out.Battles, 1)
	s.Assert().Equal(active.ID, out.Battles[0].ID)

	out, err = s.orchestrator.ListBattles(s.ctx, &battle.ListBattlesInput{Status: entities.BattleStatusPending})
	s.Require().NoError(err)
	s.Require().Len(out.Battles, 1)
	s.Assert().Equal(pending.ID, out.Battles[0].ID)
}

func (s *OrchestratorTestSuite) TestLifecycleEventsArePublished() {
	var (
		mu       sync.Mutex
		received []string
	)
	for _, eventType := range battle.EventTypes {
		s.bus.SubscribeFunc(eventType, 0, func(_ context.Context, event events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, event.Type())
			return nil
		})
	}
	battle.SubscribeAuditLog(s.bus)

	b := s.startBattle()
	_, err := s.attack(b.ID, challengerID, 1)
	s.Require().NoError(err)
	s.mockMetrics.EXPECT().RecordBattleCompleted(testGuildID, entities.BattleStatusForfeited, gomock.Any())
	_, err = s.orchestrator.Forfeit(s.ctx, &battle.ForfeitInput{BattleID: b.ID, UserID: opponentID})
	s.Require().NoError(err)

	mu.Lock()
	defer mu.Unlock()
	s.Assert().Equal([]string{
		battle.EventChallengeCreated,
		battle.EventStarted,
		battle.EventAction,
		battle.EventEnded,
	}, received)
}
