// Package battle implements the battle state machine. Every state change goes
// through the battle repository's optimistic update so concurrent callers
// (players, the timeout sweep, administrators) can never both win.
package battle

//go:generate mockgen -destination=mock/mock_service.go -package=battlemock github.com/KirkDiggler/rpg-battle/internal/orchestrators/battle Service

import (
	"context"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-battle/internal/combat"
	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/metrics"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression"
	"github.com/KirkDiggler/rpg-battle/internal/permission"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/idgen"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
)

// Service defines the interface for battle operations
type Service interface {
	// Challenge lifecycle
	CreateChallenge(ctx context.Context, input *CreateChallengeInput) (*CreateChallengeOutput, error)
	AcceptChallenge(ctx context.Context, input *AcceptChallengeInput) (*AcceptChallengeOutput, error)
	DeclineChallenge(ctx context.Context, input *DeclineChallengeInput) (*DeclineChallengeOutput, error)
	ExpireChallenge(ctx context.Context, input *ExpireChallengeInput) (*ExpireChallengeOutput, error)

	// Ending a battle early
	Forfeit(ctx context.Context, input *ForfeitInput) (*ForfeitOutput, error)
	AdminCancelBattle(ctx context.Context, input *AdminCancelBattleInput) (*AdminCancelBattleOutput, error)
	AbortBattle(ctx context.Context, input *AbortBattleInput) (*AbortBattleOutput, error)

	// Turns
	PerformAction(ctx context.Context, input *PerformActionInput) (*PerformActionOutput, error)
	PerformAttack(ctx context.Context, input *PerformAttackInput) (*PerformActionOutput, error)
	PerformSpell(ctx context.Context, input *PerformSpellInput) (*PerformActionOutput, error)
	PerformDefend(ctx context.Context, input *PerformDefendInput) (*PerformActionOutput, error)
	TimeoutTurn(ctx context.Context, input *TimeoutTurnInput) (*TimeoutTurnOutput, error)

	// Reads
	GetBattle(ctx context.Context, input *GetBattleInput) (*GetBattleOutput, error)
	FindPendingBattleForOpponent(ctx context.Context, input *FindPendingBattleForOpponentInput) (*FindPendingBattleForOpponentOutput, error)
	FindActiveBattleForUser(ctx context.Context, input *FindActiveBattleForUserInput) (*FindActiveBattleForUserOutput, error)
	ListBattles(ctx context.Context, input *ListBattlesInput) (*ListBattlesOutput, error)
}

// Settings are the tunable battle rules
type Settings struct {
	ChallengeTimeout      time.Duration
	TurnTimeout           time.Duration
	Cooldown              time.Duration
	MaxConcurrentPerGuild int
	TimeoutPolicy         TimeoutPolicy
	MaxMissedTurns        int
}

// DefaultSettings returns the stock battle rules
func DefaultSettings() Settings {
	return Settings{
		ChallengeTimeout:      120 * time.Second,
		TurnTimeout:           45 * time.Second,
		Cooldown:              60 * time.Second,
		MaxConcurrentPerGuild: 50,
		TimeoutPolicy:         TimeoutPolicyForfeitBattle,
		MaxMissedTurns:        3,
	}
}

// Config holds the dependencies for the battle orchestrator
type Config struct {
	BattleRepo    battlerepo.Repository
	CharacterRepo characterrepo.Repository
	AbilityRepo   abilityrepo.Repository
	Progression   progression.Service
	Permission    permission.Checker
	Roller        dice.Roller
	Balance       rules.Balance
	Settings      Settings

	// Optional
	Metrics     metrics.Recorder
	EventBus    events.EventBus
	Clock       clock.Clock
	IDGenerator idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.BattleRepo == nil {
		vb.RequiredField("BattleRepo")
	}
	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.AbilityRepo == nil {
		vb.RequiredField("AbilityRepo")
	}
	if c.Progression == nil {
		vb.RequiredField("Progression")
	}
	if c.Permission == nil {
		vb.RequiredField("Permission")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	errors.ValidatePositive("Settings.ChallengeTimeout", c.Settings.ChallengeTimeout, vb)
	errors.ValidatePositive("Settings.TurnTimeout", c.Settings.TurnTimeout, vb)
	if c.Settings.Cooldown < 0 {
		vb.Field("Settings.Cooldown", "must not be negative")
	}
	if c.Settings.MaxConcurrentPerGuild < 0 {
		vb.Field("Settings.MaxConcurrentPerGuild", "must not be negative")
	}
	switch c.Settings.TimeoutPolicy {
	case TimeoutPolicyForfeitBattle:
	case TimeoutPolicySkipTurn:
		errors.ValidatePositive("Settings.MaxMissedTurns", c.Settings.MaxMissedTurns, vb)
	default:
		vb.Fieldf("Settings.TimeoutPolicy", "unknown policy %q", c.Settings.TimeoutPolicy)
	}

	return vb.Build()
}

type orchestrator struct {
	battleRepo    battlerepo.Repository
	characterRepo characterrepo.Repository
	abilityRepo   abilityrepo.Repository
	progression   progression.Service
	permission    permission.Checker
	resolver      *combat.Resolver
	balance       rules.Balance
	settings      Settings
	metrics       metrics.Recorder
	eventBus      events.EventBus
	clock         clock.Clock
	idGenerator   idgen.Generator
}

// NewOrchestrator creates a new battle orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	resolver, err := combat.New(&combat.Config{Rules: cfg.Balance.Combat, Roller: cfg.Roller})
	if err != nil {
		return nil, errors.Wrap(err, "invalid combat rules")
	}

	o := &orchestrator{
		battleRepo:    cfg.BattleRepo,
		characterRepo: cfg.CharacterRepo,
		abilityRepo:   cfg.AbilityRepo,
		progression:   cfg.Progression,
		permission:    cfg.Permission,
		resolver:      resolver,
		balance:       cfg.Balance,
		settings:      cfg.Settings,
		metrics:       cfg.Metrics,
		eventBus:      cfg.EventBus,
		clock:         cfg.Clock,
		idGenerator:   cfg.IDGenerator,
	}
	if o.metrics == nil {
		o.metrics = metrics.Noop{}
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.idGenerator == nil {
		o.idGenerator = idgen.NewUUID("battle")
	}

	return o, nil
}

func (o *orchestrator) GetBattle(ctx context.Context, input *GetBattleInput) (*GetBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.BattleID == "" {
		return nil, errors.InvalidArgument("BattleID is required")
	}

	out, err := o.battleRepo.Get(ctx, battlerepo.GetInput{ID: input.BattleID})
	if err != nil {
		return nil, err
	}

	return &GetBattleOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) FindPendingBattleForOpponent(
	ctx context.Context,
	input *FindPendingBattleForOpponentInput,
) (*FindPendingBattleForOpponentOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	b, err := o.findOpen(ctx, input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if b.Status != entities.BattleStatusPending || b.OpponentID != input.UserID {
		return nil, errors.NotFoundf("no pending challenge for user %s", input.UserID)
	}

	return &FindPendingBattleForOpponentOutput{Battle: b}, nil
}

func (o *orchestrator) FindActiveBattleForUser(
	ctx context.Context,
	input *FindActiveBattleForUserInput,
) (*FindActiveBattleForUserOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	b, err := o.findOpen(ctx, input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if b.Status != entities.BattleStatusActive {
		return nil, errors.NotFoundf("no active battle for user %s", input.UserID)
	}

	return &FindActiveBattleForUserOutput{Battle: b}, nil
}

func (o *orchestrator) findOpen(ctx context.Context, guildID, userID string) (*entities.Battle, error) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", guildID, vb)
	errors.ValidateRequired("UserID", userID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	out, err := o.battleRepo.FindOpenForUser(ctx, battlerepo.FindOpenForUserInput{GuildID: guildID, UserID: userID})
	if err != nil {
		return nil, err
	}
	return out.Battle, nil
}

func (o *orchestrator) ListBattles(ctx context.Context, input *ListBattlesInput) (*ListBattlesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.battleRepo.ListByStatus(ctx, battlerepo.ListByStatusInput{Status: input.Status})
	if err != nil {
		return nil, err
	}

	return &ListBattlesOutput{Battles: out.Battles}, nil
}

// combatant loads the effective combat stats of a participant
func (o *orchestrator) combatant(ctx context.Context, guildID, userID string) (rules.CombatStats, error) {
	charOut, err := o.characterRepo.Get(ctx, characterrepo.GetInput{GuildID: guildID, UserID: userID})
	if err != nil {
		if errors.IsNotFound(err) {
			return rules.CombatStats{}, errors.InvalidArgumentf("missing character for user %s", userID).
				WithMeta("user_id", userID)
		}
		return rules.CombatStats{}, errors.Wrapf(err, "failed to load character of %s", userID)
	}

	links, err := o.characterRepo.ListAbilities(ctx, characterrepo.ListAbilitiesInput{GuildID: guildID, UserID: userID})
	if err != nil {
		return rules.CombatStats{}, errors.Wrapf(err, "failed to load abilities of %s", userID)
	}

	abilities := make([]*entities.Ability, 0, len(links.Links))
	for _, link := range links.Links {
		a, err := o.abilityRepo.Get(ctx, abilityrepo.GetInput{Key: link.AbilityKey})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return rules.CombatStats{}, err
		}
		abilities = append(abilities, a.Ability)
	}

	return o.balance.CombatStats(charOut.Character, abilities), nil
}
