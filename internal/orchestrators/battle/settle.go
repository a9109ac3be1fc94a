package battle

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/core"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
)

// settle runs the side effects of a battle that has just ended. Only the
// update that moved the battle out of an open status sees a non-terminal
// PreviousStatus, so each battle is settled once. Failures are logged; the
// transition itself is already committed.
func (o *orchestrator) settle(
	ctx context.Context,
	out *battlerepo.UpdateOutput,
	actorID string,
) *progression.AwardProgressionRewardsOutput {
	b := out.Battle
	if out.PreviousStatus.IsTerminal() || !b.Status.IsTerminal() {
		return nil
	}

	var rewards *progression.AwardProgressionRewardsOutput
	switch b.Status {
	case entities.BattleStatusCompleted, entities.BattleStatusForfeited, entities.BattleStatusTimeout:
		rewards = o.award(ctx, b)
		o.startCooldown(ctx, b)
		o.metrics.RecordBattleCompleted(b.GuildID, b.Status, b.Duration(b.EndedAt))
	case entities.BattleStatusAborted:
		o.metrics.RecordBattleCompleted(b.GuildID, b.Status, b.Duration(b.EndedAt))
	case entities.BattleStatusDeclined:
		o.metrics.RecordChallengeDeclined(b.GuildID)
	case entities.BattleStatusExpired:
		o.metrics.RecordChallengeExpired(b.GuildID)
	}

	var source core.Entity
	if actorID != "" {
		source = participantEntity(b.GuildID, actorID)
	}
	o.publish(ctx, EventEnded, source, b)

	slog.InfoContext(ctx, "battle ended",
		"battle_id", b.ID,
		"guild_id", b.GuildID,
		"status", b.Status,
		"winner_id", b.WinnerID,
		"turns", b.TurnNumber)

	return rewards
}

func (o *orchestrator) award(ctx context.Context, b *entities.Battle) *progression.AwardProgressionRewardsOutput {
	if b.WinnerID == "" {
		return nil
	}

	rewards, err := o.progression.AwardProgressionRewards(ctx, &progression.AwardProgressionRewardsInput{
		GuildID:  b.GuildID,
		WinnerID: b.WinnerID,
		LoserID:  b.OtherParticipant(b.WinnerID),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to award progression rewards",
			"battle_id", b.ID,
			"guild_id", b.GuildID,
			"error", err)
		return nil
	}
	return rewards
}

func (o *orchestrator) startCooldown(ctx context.Context, b *entities.Battle) {
	if o.settings.Cooldown <= 0 {
		return
	}

	_, err := o.battleRepo.StartCooldown(ctx, battlerepo.StartCooldownInput{
		GuildID:  b.GuildID,
		UserIDs:  []string{b.ChallengerID, b.OpponentID},
		Duration: o.settings.Cooldown,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to start battle cooldown",
			"battle_id", b.ID,
			"guild_id", b.GuildID,
			"error", err)
	}
}
