// Package ability implements ability listing and learning
package ability

//go:generate mockgen -destination=mock/mock_service.go -package=abilitymock github.com/KirkDiggler/rpg-battle/internal/orchestrators/ability Service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/metrics"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
)

// Service defines the interface for ability operations
type Service interface {
	// ListAvailableForCharacter returns the abilities the character could
	// learn right now, in catalog order
	ListAvailableForCharacter(ctx context.Context, input *ListAvailableForCharacterInput) (*ListAvailableForCharacterOutput, error)

	// LearnAbility links an ability to a character
	// Returns errors.NotFound if the character doesn't exist
	// Returns errors.InvalidArgument for unknown ability keys
	// Returns errors.FailedPrecondition when a class, level or prerequisite
	// gate fails or the ability was already learned
	LearnAbility(ctx context.Context, input *LearnAbilityInput) (*LearnAbilityOutput, error)

	// ListLearned returns learned abilities in learn order
	ListLearned(ctx context.Context, input *ListLearnedInput) (*ListLearnedOutput, error)
}

// Config holds the dependencies for the ability orchestrator
type Config struct {
	CharacterRepo characterrepo.Repository
	AbilityRepo   abilityrepo.Repository
	Metrics       metrics.Recorder
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.AbilityRepo == nil {
		vb.RequiredField("AbilityRepo")
	}

	return vb.Build()
}

type orchestrator struct {
	characterRepo characterrepo.Repository
	abilityRepo   abilityrepo.Repository
	metrics       metrics.Recorder
}

// NewOrchestrator creates a new ability orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	return &orchestrator{
		characterRepo: cfg.CharacterRepo,
		abilityRepo:   cfg.AbilityRepo,
		metrics:       recorder,
	}, nil
}

func (o *orchestrator) ListAvailableForCharacter(
	ctx context.Context,
	input *ListAvailableForCharacterInput,
) (*ListAvailableForCharacterOutput, error) {
	if input == nil || input.Character == nil {
		return nil, errors.InvalidArgument("character is required")
	}
	c := input.Character

	learned, err := o.learnedKeys(ctx, c.GuildID, c.UserID)
	if err != nil {
		return nil, err
	}

	catalog, err := o.abilityRepo.List(ctx, abilityrepo.ListInput{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list abilities")
	}

	available := make([]*entities.Ability, 0, len(catalog.Abilities))
	for _, a := range catalog.Abilities {
		if !a.AllowsClass(c.Class) || a.MinLevel > c.Level || learned[a.Key] {
			continue
		}
		available = append(available, a)
	}

	return &ListAvailableForCharacterOutput{Abilities: available}, nil
}

func (o *orchestrator) LearnAbility(ctx context.Context, input *LearnAbilityInput) (*LearnAbilityOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	errors.ValidateRequired("UserID", input.UserID, vb)
	errors.ValidateRequired("AbilityKey", input.AbilityKey, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	charOut, err := o.characterRepo.Get(ctx, characterrepo.GetInput{GuildID: input.GuildID, UserID: input.UserID})
	if err != nil {
		return nil, err
	}
	c := charOut.Character

	abilityOut, err := o.abilityRepo.Get(ctx, abilityrepo.GetInput{Key: input.AbilityKey})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidArgumentf("unknown ability %q", input.AbilityKey)
		}
		return nil, err
	}
	a := abilityOut.Ability

	if !a.AllowsClass(c.Class) {
		return nil, errors.IllegalStatef(ReasonClassRestricted,
			"%s is restricted to the %s class", a.Name, a.ClassRestriction)
	}
	if c.Level < a.MinLevel {
		return nil, errors.IllegalStatef(ReasonLevelTooLow,
			"%s requires level %d, character is level %d", a.Name, a.MinLevel, c.Level)
	}

	learned, err := o.learnedKeys(ctx, c.GuildID, c.UserID)
	if err != nil {
		return nil, err
	}
	if learned[a.Key] {
		return nil, errors.IllegalStatef(ReasonAlreadyLearned, "%s already learned", a.Name)
	}

	var missing []string
	for _, prereq := range a.Prerequisites {
		if !learned[prereq] {
			missing = append(missing, prereq)
		}
	}
	if len(missing) > 0 {
		return nil, errors.IllegalStatef(ReasonMissingPrerequisites,
			"%s requires %s", a.Name, strings.Join(missing, ", "))
	}

	linkOut, err := o.characterRepo.AddAbility(ctx, characterrepo.AddAbilityInput{
		Link: &entities.CharacterAbility{
			GuildID:    c.GuildID,
			UserID:     c.UserID,
			AbilityKey: a.Key,
		},
	})
	if err != nil {
		// a concurrent request won the ZADD NX
		if errors.IsAlreadyExists(err) {
			return nil, errors.IllegalStatef(ReasonAlreadyLearned, "%s already learned", a.Name)
		}
		return nil, errors.Wrapf(err, "failed to learn ability")
	}

	o.metrics.RecordAbilityLearned(a.Type)
	slog.InfoContext(ctx, "ability learned",
		"guild_id", c.GuildID,
		"user_id", c.UserID,
		"ability_key", a.Key)

	return &LearnAbilityOutput{Link: linkOut.Link, Ability: a}, nil
}

func (o *orchestrator) ListLearned(ctx context.Context, input *ListLearnedInput) (*ListLearnedOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	errors.ValidateRequired("UserID", input.UserID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	out, err := o.characterRepo.ListAbilities(ctx, characterrepo.ListAbilitiesInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list learned abilities")
	}

	return &ListLearnedOutput{Links: out.Links}, nil
}

func (o *orchestrator) learnedKeys(ctx context.Context, guildID, userID string) (map[string]bool, error) {
	out, err := o.characterRepo.ListAbilities(ctx, characterrepo.ListAbilitiesInput{GuildID: guildID, UserID: userID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list learned abilities")
	}

	keys := make(map[string]bool, len(out.Links))
	for _, link := range out.Links {
		keys[link.AbilityKey] = true
	}
	return keys, nil
}
