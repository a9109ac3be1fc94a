// Package character implements character creation, lookup, leaderboards and
// guild cleanup
package character

//go:generate mockgen -destination=mock/mock_service.go -package=charactermock github.com/KirkDiggler/rpg-battle/internal/orchestrators/character Service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
)

// Service defines the interface for character operations
type Service interface {
	CreateCharacter(ctx context.Context, input *CreateCharacterInput) (*CreateCharacterOutput, error)
	HasCharacter(ctx context.Context, input *HasCharacterInput) (*HasCharacterOutput, error)
	GetCharacter(ctx context.Context, input *GetCharacterInput) (*GetCharacterOutput, error)

	// Leaderboards, highest first
	FindTopByElo(ctx context.Context, input *FindTopInput) (*FindTopOutput, error)
	FindTopByWins(ctx context.Context, input *FindTopInput) (*FindTopOutput, error)
	FindTopByLevel(ctx context.Context, input *FindTopInput) (*FindTopOutput, error)
	FindTopByActivity(ctx context.Context, input *FindTopInput) (*FindTopOutput, error)

	// Guild leave cleanup
	DeleteCharacter(ctx context.Context, input *DeleteCharacterInput) (*DeleteCharacterOutput, error)
	PurgeGuild(ctx context.Context, input *PurgeGuildInput) (*PurgeGuildOutput, error)
}

// Config holds the dependencies for the character orchestrator
type Config struct {
	CharacterRepo characterrepo.Repository
	AbilityRepo   abilityrepo.Repository
	Balance       rules.Balance
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
	balance       rules.Balance
}

// NewOrchestrator creates a new character orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		characterRepo: cfg.CharacterRepo,
		abilityRepo:   cfg.AbilityRepo,
		balance:       cfg.Balance,
	}, nil
}

func validateUser(guildID, userID string) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", guildID, vb)
	errors.ValidateRequired("UserID", userID, vb)
	return vb.Build()
}

// canonical returns the spelling from allowed that matches value ignoring
// case, or value unchanged
func canonical(value string, allowed []string) string {
	for _, a := range allowed {
		if strings.EqualFold(a, strings.TrimSpace(value)) {
			return a
		}
	}
	return value
}

func (o *orchestrator) CreateCharacter(ctx context.Context, input *CreateCharacterInput) (*CreateCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateUser(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	class := canonical(input.Class, entities.ValidClasses)
	race := canonical(input.Race, entities.ValidRaces)
	if err := o.balance.PointBuy.Validate(class, race, input.AbilityScores); err != nil {
		return nil, err
	}

	c := o.balance.NewCharacter(input.GuildID, input.UserID, class, race, input.AbilityScores)

	out, err := o.characterRepo.Create(ctx, characterrepo.CreateInput{Character: c})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create character")
	}

	slog.InfoContext(ctx, "character created",
		"guild_id", input.GuildID,
		"user_id", input.UserID,
		"class", class,
		"race", race,
		"max_hp", c.MaxHP)

	return &CreateCharacterOutput{Character: out.Character}, nil
}

func (o *orchestrator) HasCharacter(ctx context.Context, input *HasCharacterInput) (*HasCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateUser(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	out, err := o.characterRepo.Exists(ctx, characterrepo.ExistsInput{GuildID: input.GuildID, UserID: input.UserID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check character")
	}

	return &HasCharacterOutput{Exists: out.Exists}, nil
}

func (o *orchestrator) GetCharacter(ctx context.Context, input *GetCharacterInput) (*GetCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateUser(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	out, err := o.characterRepo.Get(ctx, characterrepo.GetInput{GuildID: input.GuildID, UserID: input.UserID})
	if err != nil {
		return nil, err
	}

	links, err := o.characterRepo.ListAbilities(ctx, characterrepo.ListAbilitiesInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list learned abilities")
	}

	abilities := make([]*entities.Ability, 0, len(links.Links))
	for _, link := range links.Links {
		a, err := o.abilityRepo.Get(ctx, abilityrepo.GetInput{Key: link.AbilityKey})
		if err != nil {
			if errors.IsNotFound(err) {
				// retired catalog entries stay linked but no longer apply
				slog.WarnContext(ctx, "learned ability missing from catalog",
					"guild_id", input.GuildID,
					"user_id", input.UserID,
					"ability_key", link.AbilityKey)
				continue
			}
			return nil, err
		}
		abilities = append(abilities, a.Ability)
	}

	return &GetCharacterOutput{
		Character: out.Character,
		Abilities: abilities,
		Stats:     o.balance.CombatStats(out.Character, abilities),
	}, nil
}

func (o *orchestrator) FindTopByElo(ctx context.Context, input *FindTopInput) (*FindTopOutput, error) {
	return o.findTop(ctx, characterrepo.MetricElo, input)
}

func (o *orchestrator) FindTopByWins(ctx context.Context, input *FindTopInput) (*FindTopOutput, error) {
	return o.findTop(ctx, characterrepo.MetricWins, input)
}

func (o *orchestrator) FindTopByLevel(ctx context.Context, input *FindTopInput) (*FindTopOutput, error) {
	return o.findTop(ctx, characterrepo.MetricLevel, input)
}

func (o *orchestrator) FindTopByActivity(ctx context.Context, input *FindTopInput) (*FindTopOutput, error) {
	return o.findTop(ctx, characterrepo.MetricActivity, input)
}

func (o *orchestrator) findTop(ctx context.Context, metric characterrepo.Metric, input *FindTopInput) (*FindTopOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultLeaderboardLimit
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	if input.Offset < 0 {
		vb.Field("Offset", "must not be negative")
	}
	errors.ValidateRange("Limit", limit, 1, MaxLeaderboardLimit, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	out, err := o.characterRepo.Leaderboard(ctx, characterrepo.LeaderboardInput{
		GuildID: input.GuildID,
		Metric:  metric,
		Offset:  input.Offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s leaderboard", metric)
	}

	entries := make([]*LeaderboardEntry, len(out.Characters))
	for i, c := range out.Characters {
		entries[i] = &LeaderboardEntry{Rank: input.Offset + i + 1, Character: c}
	}

	return &FindTopOutput{Entries: entries, Total: out.Total}, nil
}

func (o *orchestrator) DeleteCharacter(ctx context.Context, input *DeleteCharacterInput) (*DeleteCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateUser(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	if _, err := o.characterRepo.Delete(ctx, characterrepo.DeleteInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
	}); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "character deleted",
		"guild_id", input.GuildID,
		"user_id", input.UserID)

	return &DeleteCharacterOutput{}, nil
}

func (o *orchestrator) PurgeGuild(ctx context.Context, input *PurgeGuildInput) (*PurgeGuildOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.GuildID == "" {
		return nil, errors.InvalidArgument("GuildID is required")
	}

	list, err := o.characterRepo.ListByGuild(ctx, characterrepo.ListByGuildInput{GuildID: input.GuildID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list guild characters")
	}

	deleted := 0
	for _, c := range list.Characters {
		_, err := o.characterRepo.Delete(ctx, characterrepo.DeleteInput{GuildID: c.GuildID, UserID: c.UserID})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, errors.Wrapf(err, "failed to delete character of %s", c.UserID)
		}
		deleted++
	}

	slog.InfoContext(ctx, "guild characters purged",
		"guild_id", input.GuildID,
		"deleted", deleted)

	return &PurgeGuildOutput{Deleted: deleted}, nil
}
