package character

import (
	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
)

// Leaderboard page size bounds
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// CreateCharacterInput defines the request for creating a character
type CreateCharacterInput struct {
	GuildID string
	UserID  string
	// Class and Race are matched case-insensitively
	Class         string
	Race          string
	AbilityScores entities.AbilityScores
}

// CreateCharacterOutput defines the response for creating a character
type CreateCharacterOutput struct {
	Character *entities.Character
}

// HasCharacterInput defines the request for checking a character
type HasCharacterInput struct {
	GuildID string
	UserID  string
}

// HasCharacterOutput defines the response for checking a character
type HasCharacterOutput struct {
	Exists bool
}

// GetCharacterInput defines the request for getting a character
type GetCharacterInput struct {
	GuildID string
	UserID  string
}

// GetCharacterOutput defines the response for getting a character
type GetCharacterOutput struct {
	Character *entities.Character
	// Abilities are the learned catalog entries in learn order
	Abilities []*entities.Ability
	// Stats are the effective combat numbers with ability effects applied
	Stats rules.CombatStats
}

// FindTopInput defines a leaderboard page request. A zero Limit means
// DefaultLeaderboardLimit.
type FindTopInput struct {
	GuildID string
	Offset  int
	Limit   int
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	// Rank is 1 based and accounts for Offset
	Rank      int
	Character *entities.Character
}

// FindTopOutput defines a leaderboard page
type FindTopOutput struct {
	Entries []*LeaderboardEntry
	Total   int64
}

// DeleteCharacterInput defines the request for deleting a character
type DeleteCharacterInput struct {
	GuildID string
	UserID  string
}

// DeleteCharacterOutput defines the response for deleting a character
type DeleteCharacterOutput struct{}

// PurgeGuildInput defines the request for removing every character of a guild
type PurgeGuildInput struct {
	GuildID string
}

// PurgeGuildOutput defines the response for removing a guild's characters
type PurgeGuildOutput struct {
	Deleted int
}
