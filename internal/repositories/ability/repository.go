// Package ability provides the read-only ability catalog
package ability

//go:generate mockgen -destination=mock/mock_repository.go -package=abilitymock github.com/KirkDiggler/rpg-battle/internal/repositories/ability Repository

import (
	"context"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// Repository defines the interface for reading the ability catalog
type Repository interface {
	// List returns every ability in catalog order
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// Get retrieves an ability by key
	// Returns errors.NotFound if the key is not in the catalog
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
}

// ListInput defines the input for listing abilities
type ListInput struct{}

// ListOutput defines the output for listing abilities
type ListOutput struct {
	Abilities []*entities.Ability
}

// GetInput defines the input for getting an ability
type GetInput struct {
	Key string
}

// GetOutput defines the output for getting an ability
type GetOutput struct {
	Ability *entities.Ability
}
