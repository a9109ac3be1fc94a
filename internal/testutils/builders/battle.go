// Package builders provides fluent constructors for test entities
package builders

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// BattleBuilder provides a fluent interface for building test battles
type BattleBuilder struct {
	battle *entities.Battle
}

// NewBattleBuilder creates a pending challenge between two users created at
// the given time, with the default two minute expiry
func NewBattleBuilder(createdAt time.Time) *BattleBuilder {
	return &BattleBuilder{
		battle: &entities.Battle{
			ID:                "battle-test-1",
			GuildID:           "guild-1",
			ChallengerID:      "user-challenger",
			OpponentID:        "user-opponent",
			Status:            entities.BattleStatusPending,
			CurrentTurnUserID: "user-challenger",
			CreatedAt:         createdAt,
			ExpiresAt:         createdAt.Add(2 * time.Minute),
			LastActionAt:      createdAt,
		},
	}
}

// WithID sets the battle ID
func (b *BattleBuilder) WithID(id string) *BattleBuilder {
	b.battle.ID = id
	return b
}

// WithGuild sets the guild ID
func (b *BattleBuilder) WithGuild(guildID string) *BattleBuilder {
	b.battle.GuildID = guildID
	return b
}

// WithParticipants sets the challenger and the opponent
func (b *BattleBuilder) WithParticipants(challengerID, opponentID string) *BattleBuilder {
	b.battle.ChallengerID = challengerID
	b.battle.OpponentID = opponentID
	b.battle.CurrentTurnUserID = challengerID
	return b
}

// ExpiresAt sets the challenge deadline
func (b *BattleBuilder) ExpiresAt(t time.Time) *BattleBuilder {
	b.battle.ExpiresAt = t
	return b
}

// Active marks the battle accepted at startedAt with both participants at hp
func (b *BattleBuilder) Active(startedAt time.Time, hp int) *BattleBuilder {
	b.battle.Status = entities.BattleStatusActive
	b.battle.StartedAt = startedAt
	b.battle.LastActionAt = startedAt
	b.battle.TurnNumber = 1
	b.battle.ChallengerHP, b.battle.ChallengerMaxHP = hp, hp
	b.battle.OpponentHP, b.battle.OpponentMaxHP = hp, hp
	return b
}

// LastActionAt sets when the player to move was last active
func (b *BattleBuilder) LastActionAt(t time.Time) *BattleBuilder {
	b.battle.LastActionAt = t
	return b
}

// Build returns the battle
func (b *BattleBuilder) Build() *entities.Battle {
	return b.battle
}
