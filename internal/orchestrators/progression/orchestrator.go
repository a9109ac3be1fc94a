// Package progression is the only code that changes character ratings,
// experience and win/loss/draw counters
package progression

//go:generate mockgen -destination=mock/mock_service.go -package=progressionmock github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression Service

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
)

const reasonChatCooldown = "chat_xp_cooldown"

// Service defines the interface for progression operations
type Service interface {
	// AwardProgressionRewards applies ELO, XP and counters after a battle
	AwardProgressionRewards(ctx context.Context, input *AwardProgressionRewardsInput) (*AwardProgressionRewardsOutput, error)

	// AwardChatXP grants experience for chat activity, at most once per cooldown
	AwardChatXP(ctx context.Context, input *AwardChatXPInput) (*AwardChatXPOutput, error)
}

// Config holds the dependencies for the progression orchestrator
type Config struct {
	CharacterRepo character.Repository
	Balance       rules.Balance
	ChatXP        ChatXPConfig
	Roller        dice.Roller
	Clock         clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	if c.ChatXP.BonusMax < 0 {
		vb.Field("ChatXP.BonusMax", "must not be negative")
	}

	return vb.Build()
}

type orchestrator struct {
	characterRepo character.Repository
	balance       rules.Balance
	chatXP        ChatXPConfig
	roller        dice.Roller
	clock         clock.Clock
}

// NewOrchestrator creates a new progression orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &orchestrator{
		characterRepo: cfg.CharacterRepo,
		balance:       cfg.Balance,
		chatXP:        cfg.ChatXP,
		roller:        cfg.Roller,
		clock:         c,
	}, nil
}

func (o *orchestrator) AwardProgressionRewards(
	ctx context.Context,
	input *AwardProgressionRewardsInput,
) (*AwardProgressionRewardsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	errors.ValidateRequired("WinnerID", input.WinnerID, vb)
	errors.ValidateRequired("LoserID", input.LoserID, vb)
	if input.WinnerID != "" && input.WinnerID == input.LoserID {
		vb.Field("LoserID", "must differ from WinnerID")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	winner, err := o.findCharacter(ctx, input.GuildID, input.WinnerID)
	if err != nil {
		return nil, err
	}
	loser, err := o.findCharacter(ctx, input.GuildID, input.LoserID)
	if err != nil {
		return nil, err
	}
	if winner == nil || loser == nil {
		slog.WarnContext(ctx, "skipping progression rewards, participant has no character",
			"guild_id", input.GuildID,
			"winner_id", input.WinnerID,
			"loser_id", input.LoserID,
			"winner_found", winner != nil,
			"loser_found", loser != nil)
		return &AwardProgressionRewardsOutput{Skipped: true}, nil
	}

	// both deltas come from the ratings before either write
	change := o.balance.Progression.Elo(winner.Elo, loser.Elo, input.IsDraw)

	winnerOutcome, loserOutcome := rules.OutcomeWin, rules.OutcomeLoss
	if input.IsDraw {
		winnerOutcome, loserOutcome = rules.OutcomeDraw, rules.OutcomeDraw
	}

	winnerResult, err := o.applyResult(ctx, input.GuildID, input.WinnerID, change.WinnerDelta, winnerOutcome)
	if err != nil {
		return nil, err
	}
	loserResult, err := o.applyResult(ctx, input.GuildID, input.LoserID, change.LoserDelta, loserOutcome)
	if err != nil {
		// the winner's write is already committed and is not rolled back
		slog.ErrorContext(ctx, "rewards partially applied",
			"guild_id", input.GuildID,
			"winner_id", input.WinnerID,
			"loser_id", input.LoserID,
			"winner_elo_delta", winnerResult.EloDelta,
			"loser_elo_delta", change.LoserDelta,
			"error", err)
		return nil, errors.Wrapf(err, "rewards partially applied, %s updated but %s not", input.WinnerID, input.LoserID)
	}

	slog.InfoContext(ctx, "progression rewards applied",
		"guild_id", input.GuildID,
		"winner_id", input.WinnerID,
		"loser_id", input.LoserID,
		"draw", input.IsDraw,
		"winner_elo_delta", winnerResult.EloDelta,
		"loser_elo_delta", loserResult.EloDelta)

	return &AwardProgressionRewardsOutput{
		Winner: winnerResult,
		Loser:  loserResult,
	}, nil
}

func (o *orchestrator) applyResult(
	ctx context.Context,
	guildID, userID string,
	eloDelta int,
	outcome rules.Outcome,
) (*ParticipantResult, error) {
	xp := o.balance.Progression.XPAward(outcome)
	result := &ParticipantResult{UserID: userID, XPGained: xp}

	out, err := o.characterRepo.Update(ctx, character.UpdateInput{
		GuildID: guildID,
		UserID:  userID,
		Mutate: func(c *entities.Character) error {
			result.EloBefore = c.Elo
			result.LevelBefore = c.Level

			c.Elo = max(0, c.Elo+eloDelta)
			switch outcome {
			case rules.OutcomeWin:
				c.Wins++
			case rules.OutcomeLoss:
				c.Losses++
			default:
				c.Draws++
			}
			c.XP += xp
			o.balance.Derive(c)
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to apply rewards to %s", userID)
	}

	result.EloAfter = out.Character.Elo
	result.EloDelta = result.EloAfter - result.EloBefore
	result.LevelAfter = out.Character.Level
	if result.LeveledUp() {
		slog.InfoContext(ctx, "character leveled up",
			"guild_id", guildID,
			"user_id", userID,
			"level", result.LevelAfter)
	}

	return result, nil
}

func (o *orchestrator) AwardChatXP(ctx context.Context, input *AwardChatXPInput) (*AwardChatXPOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	errors.ValidateRequired("UserID", input.UserID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	if !o.chatXP.Enabled {
		return &AwardChatXPOutput{Status: ChatXPDisabled}, nil
	}

	created := false
	existing, err := o.characterRepo.Exists(ctx, character.ExistsInput{GuildID: input.GuildID, UserID: input.UserID})
	if err != nil {
		return nil, err
	}
	if !existing.Exists {
		if !o.chatXP.AutoCreate {
			return &AwardChatXPOutput{Status: ChatXPNoCharacter}, nil
		}
		created, err = o.createDefaultCharacter(ctx, input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
	}

	amount := o.chatXP.Base
	if o.chatXP.BonusMax > 0 {
		roll, err := o.roller.Roll(o.chatXP.BonusMax + 1)
		if err != nil {
			return nil, errors.Wrap(err, "failed to roll chat bonus")
		}
		amount += int64(roll - 1)
	}

	now := o.clock.Now()
	output := &AwardChatXPOutput{Created: created}

	out, err := o.characterRepo.Update(ctx, character.UpdateInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
		Mutate: func(c *entities.Character) error {
			if !c.LastChatXPAt.IsZero() {
				if elapsed := now.Sub(c.LastChatXPAt); elapsed < o.chatXP.Cooldown {
					output.CooldownRemaining = o.chatXP.Cooldown - elapsed
					return errors.IllegalState(reasonChatCooldown, "chat xp on cooldown")
				}
			}
			output.LevelBefore = c.Level
			c.XP += amount
			c.LastChatXPAt = now
			o.balance.Derive(c)
			return nil
		},
	})
	if err != nil {
		if errors.GetReason(err) == reasonChatCooldown {
			output.Status = ChatXPOnCooldown
			return output, nil
		}
		return nil, err
	}

	output.Status = ChatXPAwarded
	output.XPAwarded = amount
	output.LevelAfter = out.Character.Level
	output.Character = out.Character

	if output.LeveledUp() {
		slog.InfoContext(ctx, "character leveled up from chat activity",
			"guild_id", input.GuildID,
			"user_id", input.UserID,
			"level", output.LevelAfter)
	}

	return output, nil
}

// createDefaultCharacter reports false when another request created the
// character first
func (o *orchestrator) createDefaultCharacter(ctx context.Context, guildID, userID string) (bool, error) {
	scores := entities.AbilityScores{
		Strength: 12, Dexterity: 12, Constitution: 12,
		Intelligence: 12, Wisdom: 12, Charisma: 12,
	}
	c := o.balance.NewCharacter(guildID, userID, entities.ClassWarrior, entities.RaceHuman, scores)

	_, err := o.characterRepo.Create(ctx, character.CreateInput{Character: c})
	if err != nil {
		if errors.IsAlreadyExists(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to auto-create character")
	}

	slog.InfoContext(ctx, "auto-created character from chat activity",
		"guild_id", guildID,
		"user_id", userID)
	return true, nil
}

// findCharacter returns nil without error when the character doesn't exist
func (o *orchestrator) findCharacter(ctx context.Context, guildID, userID string) (*entities.Character, error) {
	out, err := o.characterRepo.Get(ctx, character.GetInput{GuildID: guildID, UserID: userID})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return out.Character, nil
}
