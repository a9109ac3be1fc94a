package builders

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// CharacterBuilder provides a fluent interface for building test characters
type CharacterBuilder struct {
	character *entities.Character
}

// NewCharacterBuilder creates a level 1 human warrior with the standard
// array and default balance stats
func NewCharacterBuilder(guildID, userID string) *CharacterBuilder {
	now := time.Now()
	return &CharacterBuilder{
		character: &entities.Character{
			GuildID: guildID,
			UserID:  userID,
			Class:   entities.ClassWarrior,
			Race:    entities.RaceHuman,
			AbilityScores: entities.AbilityScores{
				Strength:     15,
				Dexterity:    14,
				Constitution: 13,
				Intelligence: 12,
				Wisdom:       10,
				Charisma:     8,
			},
			Level:      1,
			CurrentHP:  13,
			MaxHP:      13,
			ArmorClass: 12,
			Elo:        1000,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// WithClass sets the class
func (b *CharacterBuilder) WithClass(class string) *CharacterBuilder {
	b.character.Class = class
	return b
}

// WithLevel sets the level
func (b *CharacterBuilder) WithLevel(level int) *CharacterBuilder {
	b.character.Level = level
	return b
}

// WithXP sets the experience points
func (b *CharacterBuilder) WithXP(xp int64) *CharacterBuilder {
	b.character.XP = xp
	return b
}

// WithElo sets the rating
func (b *CharacterBuilder) WithElo(elo int) *CharacterBuilder {
	b.character.Elo = elo
	return b
}

// WithRecord sets the win, loss and draw counters
func (b *CharacterBuilder) WithRecord(wins, losses, draws int) *CharacterBuilder {
	b.character.Wins = wins
	b.character.Losses = losses
	b.character.Draws = draws
	return b
}

// Build returns the character
func (b *CharacterBuilder) Build() *entities.Character {
	return b.character
}
