package ability

import "github.com/KirkDiggler/rpg-battle/internal/entities"

// Reasons carried by FailedPrecondition errors of LearnAbility
const (
	ReasonClassRestricted      = "class_restricted"
	ReasonLevelTooLow          = "level_too_low"
	ReasonMissingPrerequisites = "missing_prerequisites"
	ReasonAlreadyLearned       = "already_learned"
)

// ListAvailableForCharacterInput defines the request for listing learnable abilities
type ListAvailableForCharacterInput struct {
	Character *entities.Character
}

// ListAvailableForCharacterOutput defines the response for listing learnable abilities
type ListAvailableForCharacterOutput struct {
	// Abilities are in catalog order
	Abilities []*entities.Ability
}

// LearnAbilityInput defines the request for learning an ability
type LearnAbilityInput struct {
	GuildID    string
	UserID     string
	AbilityKey string
}

// LearnAbilityOutput defines the response for learning an ability
type LearnAbilityOutput struct {
	Link    *entities.CharacterAbility
	Ability *entities.Ability
}

// ListLearnedInput defines the request for listing learned abilities
type ListLearnedInput struct {
	GuildID string
	UserID  string
}

// ListLearnedOutput defines the response for listing learned abilities
type ListLearnedOutput struct {
	// Links are in learn order
	Links []*entities.CharacterAbility
}
