// Package entities provides the core data structures of the battle engine.
package entities

import (
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"
)

// EntityTypeCharacter is the core.Entity type of a Character
const EntityTypeCharacter = "character"

// Character classes
const (
	ClassWarrior = "Warrior"
	ClassRogue   = "Rogue"
	ClassMage    = "Mage"
	ClassCleric  = "Cleric"
)

// Character races
const (
	RaceHuman    = "Human"
	RaceElf      = "Elf"
	RaceDwarf    = "Dwarf"
	RaceHalfling = "Halfling"
)

// ValidClasses lists the playable classes
var ValidClasses = []string{ClassWarrior, ClassRogue, ClassMage, ClassCleric}

// ValidRaces lists the playable races
var ValidRaces = []string{RaceHuman, RaceElf, RaceDwarf, RaceHalfling}

var _ core.Entity = (*Character)(nil)

// Character is the per guild progression record of a user. Class, race and
// ability scores are fixed at creation.
type Character struct {
	GuildID       string        `json:"guild_id"`
	UserID        string        `json:"user_id"`
	Class         string        `json:"class"`
	Race          string        `json:"race"`
	AbilityScores AbilityScores `json:"ability_scores"`
	Level         int           `json:"level"`
	XP            int64         `json:"xp"`
	CurrentHP     int           `json:"current_hp"`
	MaxHP         int           `json:"max_hp"`
	ArmorClass    int           `json:"armor_class"`
	Elo           int           `json:"elo"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
	Draws         int           `json:"draws"`
	LastChatXPAt  time.Time     `json:"last_chat_xp_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AbilityScores holds the six core ability scores
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Values returns the scores in STR, DEX, CON, INT, WIS, CHA order
func (a AbilityScores) Values() []int {
	return []int{a.Strength, a.Dexterity, a.Constitution, a.Intelligence, a.Wisdom, a.Charisma}
}

// GetID returns the guild scoped identifier guild:user
func (c *Character) GetID() string {
	return CharacterID(c.GuildID, c.UserID)
}

// GetType implements core.Entity
func (c *Character) GetType() string {
	return EntityTypeCharacter
}

// BattlesPlayed is the activity measure used by the leaderboard
func (c *Character) BattlesPlayed() int {
	return c.Wins + c.Losses + c.Draws
}

// CharacterID builds the identifier of the character a user owns in a guild
func CharacterID(guildID, userID string) string {
	return guildID + ":" + userID
}
