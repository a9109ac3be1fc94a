// Package character provides the interface for character persistence
package character

//go:generate mockgen -destination=mock/mock_repository.go -package=charactermock github.com/KirkDiggler/rpg-battle/internal/repositories/character Repository

import (
	"context"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// Metric selects a leaderboard ordering
type Metric string

// Leaderboard metrics. Level ranks by total XP so characters of equal level
// are ordered by progress within it.
const (
	MetricElo      Metric = "elo"
	MetricWins     Metric = "wins"
	MetricLevel    Metric = "level"
	MetricActivity Metric = "activity"
)

// Metrics lists every leaderboard metric
var Metrics = []Metric{MetricElo, MetricWins, MetricLevel, MetricActivity}

// Score returns the leaderboard score of c under m
func (m Metric) Score(c *entities.Character) float64 {
	switch m {
	case MetricElo:
		return float64(c.Elo)
	case MetricWins:
		return float64(c.Wins)
	case MetricLevel:
		return float64(c.XP)
	case MetricActivity:
		return float64(c.BattlesPlayed())
	default:
		return 0
	}
}

// MutateFunc changes a character in place. Returning an error leaves the
// stored character untouched.
type MutateFunc func(c *entities.Character) error

// Repository defines the interface for character persistence
type Repository interface {
	// Create stores a new character
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.AlreadyExists if the user already has a character in the guild
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves the character of a user in a guild
	// Returns errors.NotFound if the character doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Exists reports whether the user has a character in the guild
	Exists(ctx context.Context, input ExistsInput) (*ExistsOutput, error)

	// Update applies Mutate to the freshest stored copy and writes it back
	// atomically, retrying when a concurrent write wins
	// Returns errors.NotFound if the character doesn't exist
	// Returns errors.Aborted when retries are exhausted
	// Returns coded errors of Mutate unchanged when it rejects the change
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// Delete removes a character together with its learned abilities and
	// leaderboard entries
	// Returns errors.NotFound if the character doesn't exist
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// ListByGuild returns every character of a guild
	ListByGuild(ctx context.Context, input ListByGuildInput) (*ListByGuildOutput, error)

	// AddAbility links a learned ability to a character
	// Returns errors.AlreadyExists if the ability was already learned
	AddAbility(ctx context.Context, input AddAbilityInput) (*AddAbilityOutput, error)

	// ListAbilities returns learned abilities in learn order
	ListAbilities(ctx context.Context, input ListAbilitiesInput) (*ListAbilitiesOutput, error)

	// Leaderboard returns one page of a guild ranking, highest first
	// Returns errors.InvalidArgument for unknown metrics or bad pagination
	Leaderboard(ctx context.Context, input LeaderboardInput) (*LeaderboardOutput, error)
}

// CreateInput defines the input for creating a character
type CreateInput struct {
	Character *entities.Character
}

// CreateOutput defines the output for creating a character
type CreateOutput struct {
	Character *entities.Character
}

// GetInput defines the input for getting a character
type GetInput struct {
	GuildID string
	UserID  string
}

// GetOutput defines the output for getting a character
type GetOutput struct {
	Character *entities.Character
}

// ExistsInput defines the input for checking a character
type ExistsInput struct {
	GuildID string
	UserID  string
}

// ExistsOutput defines the output for checking a character
type ExistsOutput struct {
	Exists bool
}

// UpdateInput defines the input for updating a character
type UpdateInput struct {
	GuildID string
	UserID  string
	Mutate  MutateFunc
}

// UpdateOutput defines the output for updating a character
type UpdateOutput struct {
	Character *entities.Character
}

// DeleteInput defines the input for deleting a character
type DeleteInput struct {
	GuildID string
	UserID  string
}

// DeleteOutput defines the output for deleting a character
type DeleteOutput struct{}

// ListByGuildInput defines the input for listing a guild's characters
type ListByGuildInput struct {
	GuildID string
}

// ListByGuildOutput defines the output for listing a guild's characters
type ListByGuildOutput struct {
	Characters []*entities.Character
}

// AddAbilityInput defines the input for linking a learned ability
type AddAbilityInput struct {
	Link *entities.CharacterAbility
}

// AddAbilityOutput defines the output for linking a learned ability
type AddAbilityOutput struct {
	Link *entities.CharacterAbility
}

// ListAbilitiesInput defines the input for listing learned abilities
type ListAbilitiesInput struct {
	GuildID string
	UserID  string
}

// ListAbilitiesOutput defines the output for listing learned abilities
type ListAbilitiesOutput struct {
	Links []*entities.CharacterAbility
}

// LeaderboardInput defines the input for reading a ranking page
type LeaderboardInput struct {
	GuildID string
	Metric  Metric
	Offset  int
	Limit   int
}

// LeaderboardOutput defines the output for reading a ranking page
type LeaderboardOutput struct {
	Characters []*entities.Character
	// Total is the number of ranked characters in the guild
	Total int64
}
