package testutils

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// Fixture identifiers shared across package tests
const (
	TestGuildID      = "guild-1"
	TestChallengerID = "user-challenger"
	TestOpponentID   = "user-opponent"
	TestAdminID      = "user-admin"
)

// TestEpoch is the default fake clock start
var TestEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// StandardScores is a legal 27 point array
func StandardScores() entities.AbilityScores {
	return entities.AbilityScores{
		Strength:     15,
		Dexterity:    14,
		Constitution: 13,
		Intelligence: 12,
		Wisdom:       10,
		Charisma:     8,
	}
}

// CreateTestCharacter returns a level 1 warrior with the standard array.
// Derived stats match the default balance.
func CreateTestCharacter(guildID, userID string) *entities.Character {
	return &entities.Character{
		GuildID:       guildID,
		UserID:        userID,
		Class:         entities.ClassWarrior,
		Race:          entities.RaceHuman,
		AbilityScores: StandardScores(),
		Level:         1,
		CurrentHP:     13,
		MaxHP:         13,
		ArmorClass:    12,
		Elo:           1000,
		CreatedAt:     TestEpoch,
		UpdatedAt:     TestEpoch,
	}
}

// CreateTestAbility returns a catalog entry with no restrictions
func CreateTestAbility(key, effect string) *entities.Ability {
	return &entities.Ability{
		Key:      key,
		Name:     key,
		Type:     entities.AbilityTypeTalent,
		MinLevel: 1,
		Effect:   effect,
	}
}
