// Package battle provides the interface for battle persistence
package battle

//go:generate mockgen -destination=mock/mock_repository.go -package=battlemock github.com/KirkDiggler/rpg-battle/internal/repositories/battle Repository

import (
	"context"
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// Reasons attached to illegal state errors raised by the repository
const (
	ReasonParticipantBusy = "participant_busy"
	ReasonGuildAtCapacity = "guild_at_capacity"
	ReasonOnCooldown      = "on_cooldown"
)

// MutateFunc changes a battle in place. It always receives the freshest
// stored copy and may run more than once. Returning an error leaves the
// stored battle untouched.
type MutateFunc func(b *entities.Battle) error

// Repository defines the interface for battle persistence
type Repository interface {
	// Create stores a new PENDING battle. Both participants must be idle in
	// the guild, off cooldown, and the guild below MaxOpenPerGuild; all three
	// are checked atomically with the write.
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.FailedPrecondition with reason participant_busy,
	// guild_at_capacity or on_cooldown
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a battle by ID
	// Returns errors.NotFound if the battle doesn't exist or was purged
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update applies Mutate under optimistic concurrency and maintains the
	// status, participant and guild indexes. Terminal battles are kept for the
	// retention window and then expire.
	// Returns errors.NotFound if the battle doesn't exist
	// Returns errors.Aborted when retries are exhausted
	// Returns coded errors of Mutate unchanged
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// ListByStatus returns every battle currently in a non-terminal status,
	// oldest first
	ListByStatus(ctx context.Context, input ListByStatusInput) (*ListByStatusOutput, error)

	// FindOpenForUser returns the non-terminal battle of a user in a guild
	// Returns errors.NotFound when the user is idle
	FindOpenForUser(ctx context.Context, input FindOpenForUserInput) (*FindOpenForUserOutput, error)

	// StartCooldown blocks new challenges involving the users until the
	// duration elapses
	StartCooldown(ctx context.Context, input StartCooldownInput) (*StartCooldownOutput, error)

	// GetCooldown returns the remaining cooldown of a user, zero when none
	GetCooldown(ctx context.Context, input GetCooldownInput) (*GetCooldownOutput, error)
}

// CreateInput defines the input for creating a battle
type CreateInput struct {
	Battle          *entities.Battle
	MaxOpenPerGuild int
}

// CreateOutput defines the output for creating a battle
type CreateOutput struct {
	Battle *entities.Battle
}

// GetInput defines the input for getting a battle
type GetInput struct {
	ID string
}

// GetOutput defines the output for getting a battle
type GetOutput struct {
	Battle *entities.Battle
}

// UpdateInput defines the input for updating a battle
type UpdateInput struct {
	ID     string
	Mutate MutateFunc
}

// UpdateOutput defines the output for updating a battle
type UpdateOutput struct {
	Battle *entities.Battle
	// PreviousStatus is the status the mutation started from
	PreviousStatus entities.BattleStatus
}

// ListByStatusInput defines the input for listing battles
type ListByStatusInput struct {
	Status entities.BattleStatus
}

// ListByStatusOutput defines the output for listing battles
type ListByStatusOutput struct {
	Battles []*entities.Battle
}

// FindOpenForUserInput defines the input for finding a user's battle
type FindOpenForUserInput struct {
	GuildID string
	UserID  string
}

// FindOpenForUserOutput defines the output for finding a user's battle
type FindOpenForUserOutput struct {
	Battle *entities.Battle
}

// StartCooldownInput defines the input for starting cooldowns
type StartCooldownInput struct {
	GuildID  string
	UserIDs  []string
	Duration time.Duration
}

// StartCooldownOutput defines the output for starting cooldowns
type StartCooldownOutput struct{}

// GetCooldownInput defines the input for reading a cooldown
type GetCooldownInput struct {
	GuildID string
	UserID  string
}

// GetCooldownOutput defines the output for reading a cooldown
type GetCooldownOutput struct {
	Remaining time.Duration
}
