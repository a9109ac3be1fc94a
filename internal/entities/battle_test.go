package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

type BattleTestSuite struct {
	suite.Suite
	battle *entities.Battle
}

func TestBattleSuite(t *testing.T) {
	suite.Run(t, new(BattleTestSuite))
}

func (s *BattleTestSuite) SetupTest() {
	s.battle = &entities.Battle{
		ID:           "battle_1",
		GuildID:      "g1",
		ChallengerID: "u1",
		OpponentID:   "u2",
		Status:       entities.BattleStatusActive,
		ChallengerHP: 10,
		OpponentHP:   9,
	}
}

func (s *BattleTestSuite) TestTerminalStatuses() {
	s.Assert().False(entities.BattleStatusPending.IsTerminal())
	s.Assert().False(entities.BattleStatusActive.IsTerminal())
	for _, status := range []entities.BattleStatus{
		entities.BattleStatusCompleted,
		entities.BattleStatusForfeited,
		entities.BattleStatusTimeout,
		entities.BattleStatusAborted,
		entities.BattleStatusDeclined,
		entities.BattleStatusExpired,
	} {
		s.Assert().True(status.IsTerminal(), status)
	}
}

func (s *BattleTestSuite) TestParticipants() {
	s.Assert().True(s.battle.IsParticipant("u1"))
	s.Assert().True(s.battle.IsParticipant("u2"))
	s.Assert().False(s.battle.IsParticipant("u3"))
	s.Assert().Equal("u2", s.battle.OtherParticipant("u1"))
	s.Assert().Equal("u1", s.battle.OtherParticipant("u2"))
}

func (s *BattleTestSuite) TestSetHPFloorsAtZero() {
	s.battle.SetHP("u2", -4)
	s.Assert().Equal(0, s.battle.HP("u2"))
	s.Assert().Equal(10, s.battle.HP("u1"))
}

func (s *BattleTestSuite) TestDefendFlag() {
	s.Assert().False(s.battle.IsDefending("u1"))
	s.battle.SetDefending("u1", true)
	s.Assert().True(s.battle.IsDefending("u1"))
	s.battle.SetDefending("u1", false)
	s.Assert().False(s.battle.IsDefending("u1"))
}

func (s *BattleTestSuite) TestAppendStampsTurnAndHP() {
	s.battle.TurnNumber = 3
	s.battle.Append(entities.LogEntry{ActorID: "u1", Action: entities.ActionDefend})

	s.Require().Len(s.battle.Log, 1)
	entry := s.battle.Log[0]
	s.Assert().Equal(3, entry.Turn)
	s.Assert().Equal(10, entry.ChallengerHP)
	s.Assert().Equal(9, entry.OpponentHP)
}

func (s *BattleTestSuite) TestDuration() {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.battle.CreatedAt = created
	s.Assert().Equal(time.Minute, s.battle.Duration(created.Add(time.Minute)))

	s.battle.StartedAt = created.Add(30 * time.Second)
	s.battle.EndedAt = created.Add(2 * time.Minute)
	s.Assert().Equal(90*time.Second, s.battle.Duration(created.Add(time.Hour)))
}

func (s *BattleTestSuite) TestCharacterEntity() {
	c := &entities.Character{GuildID: "g1", UserID: "u1", Wins: 2, Losses: 1, Draws: 1}
	s.Assert().Equal("g1:u1", c.GetID())
	s.Assert().Equal(entities.EntityTypeCharacter, c.GetType())
	s.Assert().Equal(4, c.BattlesPlayed())
}
