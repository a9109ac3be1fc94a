package battle

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
)

func requirePending(b *entities.Battle) error {
	if b.Status != entities.BattleStatusPending {
		return errors.IllegalStatef(ReasonNotPending, "battle %s is %s, not awaiting an answer", b.ID, b.Status)
	}
	return nil
}

func requireOpen(b *entities.Battle) error {
	if b.Status.IsTerminal() {
		return errors.IllegalStatef(ReasonAlreadyEnded, "battle %s already ended as %s", b.ID, b.Status)
	}
	return nil
}

func requireOpponent(b *entities.Battle, userID string) error {
	if b.OpponentID != userID {
		return errors.IllegalStatef(ReasonNotOpponent, "only the challenged user can answer battle %s", b.ID)
	}
	return nil
}

func requireParticipant(b *entities.Battle, userID string) error {
	if !b.IsParticipant(userID) {
		return errors.IllegalStatef(ReasonNotParticipant, "user %s is not part of battle %s", userID, b.ID)
	}
	return nil
}

func validateBattleUser(battleID, userID string) error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("BattleID", battleID, vb)
	errors.ValidateRequired("UserID", userID, vb)
	return vb.Build()
}

func (o *orchestrator) CreateChallenge(ctx context.Context, input *CreateChallengeInput) (*CreateChallengeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	errors.ValidateRequired("ChallengerID", input.ChallengerID, vb)
	errors.ValidateRequired("OpponentID", input.OpponentID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}
	if input.ChallengerID == input.OpponentID {
		return nil, errors.InvalidArgument("you cannot challenge yourself")
	}
	if input.OpponentIsBot {
		return nil, errors.InvalidArgument("bots cannot be challenged")
	}

	exists, err := o.characterRepo.Exists(ctx, characterrepo.ExistsInput{
		GuildID: input.GuildID,
		UserID:  input.ChallengerID,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check challenger character")
	}
	if !exists.Exists {
		return nil, errors.InvalidArgument("missing character: create one before challenging").
			WithMeta("user_id", input.ChallengerID)
	}

	now := o.clock.Now()
	b := &entities.Battle{
		ID:                o.idGenerator.Generate(),
		GuildID:           input.GuildID,
		ChallengerID:      input.ChallengerID,
		OpponentID:        input.OpponentID,
		Status:            entities.BattleStatusPending,
		CurrentTurnUserID: input.ChallengerID,
		CreatedAt:         now,
		ExpiresAt:         now.Add(o.settings.ChallengeTimeout),
		LastActionAt:      now,
	}

	out, err := o.battleRepo.Create(ctx, battlerepo.CreateInput{
		Battle:          b,
		MaxOpenPerGuild: o.settings.MaxConcurrentPerGuild,
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordChallengeCreated(input.GuildID)
	o.publish(ctx, EventChallengeCreated, participantEntity(input.GuildID, input.ChallengerID), out.Battle)

	slog.InfoContext(ctx, "challenge created",
		"battle_id", b.ID,
		"guild_id", b.GuildID,
		"challenger_id", b.ChallengerID,
		"opponent_id", b.OpponentID,
		"expires_at", b.ExpiresAt)

	return &CreateChallengeOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) AcceptChallenge(ctx context.Context, input *AcceptChallengeInput) (*AcceptChallengeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateBattleUser(input.BattleID, input.UserID); err != nil {
		return nil, err
	}

	snapshot, err := o.battleRepo.Get(ctx, battlerepo.GetInput{ID: input.BattleID})
	if err != nil {
		return nil, err
	}
	b := snapshot.Battle
	if err := o.checkAcceptable(b, input.UserID); err != nil {
		return nil, err
	}

	challenger, err := o.combatant(ctx, b.GuildID, b.ChallengerID)
	if err != nil {
		return nil, err
	}
	opponent, err := o.combatant(ctx, b.GuildID, b.OpponentID)
	if err != nil {
		return nil, err
	}

	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if err := o.checkAcceptable(b, input.UserID); err != nil {
				return err
			}
			now := o.clock.Now()
			b.Status = entities.BattleStatusActive
			b.ChallengerHP, b.ChallengerMaxHP = challenger.MaxHP, challenger.MaxHP
			b.OpponentHP, b.OpponentMaxHP = opponent.MaxHP, opponent.MaxHP
			b.CurrentTurnUserID = b.ChallengerID
			b.TurnNumber = 1
			b.StartedAt = now
			b.LastActionAt = now
			b.Append(entities.LogEntry{ActorID: input.UserID, Action: entities.ActionStart, At: now})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordChallengeAccepted(out.Battle.GuildID)
	o.publish(ctx, EventStarted, participantEntity(out.Battle.GuildID, input.UserID), out.Battle)

	slog.InfoContext(ctx, "challenge accepted",
		"battle_id", out.Battle.ID,
		"guild_id", out.Battle.GuildID,
		"challenger_hp", out.Battle.ChallengerHP,
		"opponent_hp", out.Battle.OpponentHP)

	return &AcceptChallengeOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) checkAcceptable(b *entities.Battle, userID string) error {
	if err := requirePending(b); err != nil {
		return err
	}
	if err := requireOpponent(b, userID); err != nil {
		return err
	}
	if !o.clock.Now().Before(b.ExpiresAt) {
		return errors.IllegalStatef(ReasonChallengeExpired, "challenge %s has expired", b.ID)
	}
	return nil
}

func (o *orchestrator) DeclineChallenge(ctx context.Context, input *DeclineChallengeInput) (*DeclineChallengeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateBattleUser(input.BattleID, input.UserID); err != nil {
		return nil, err
	}

	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if err := requirePending(b); err != nil {
				return err
			}
			if err := requireOpponent(b, input.UserID); err != nil {
				return err
			}
			now := o.clock.Now()
			b.Status = entities.BattleStatusDeclined
			b.EndedAt = now
			b.Append(entities.LogEntry{ActorID: input.UserID, Action: entities.ActionDecline, At: now})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	o.settle(ctx, out, input.UserID)
	return &DeclineChallengeOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) ExpireChallenge(ctx context.Context, input *ExpireChallengeInput) (*ExpireChallengeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.BattleID == "" {
		return nil, errors.InvalidArgument("BattleID is required")
	}

	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if err := requirePending(b); err != nil {
				return err
			}
			now := o.clock.Now()
			if now.Before(b.ExpiresAt) {
				return errors.IllegalStatef(ReasonNotExpired, "challenge %s is still open", b.ID)
			}
			b.Status = entities.BattleStatusExpired
			b.EndedAt = now
			b.Append(entities.LogEntry{Action: entities.ActionExpire, At: now})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	o.settle(ctx, out, "")
	return &ExpireChallengeOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) Forfeit(ctx context.Context, input *ForfeitInput) (*ForfeitOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateBattleUser(input.BattleID, input.UserID); err != nil {
		return nil, err
	}

	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if err := requireOpen(b); err != nil {
				return err
			}
			if err := requireParticipant(b, input.UserID); err != nil {
				return err
			}
			now := o.clock.Now()
			b.Status = entities.BattleStatusForfeited
			b.WinnerID = b.OtherParticipant(input.UserID)
			b.EndedAt = now
			b.Append(entities.LogEntry{ActorID: input.UserID, Action: entities.ActionForfeit, At: now})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	rewards := o.settle(ctx, out, input.UserID)
	return &ForfeitOutput{Battle: out.Battle, Rewards: rewards}, nil
}

func (o *orchestrator) AdminCancelBattle(ctx context.Context, input *AdminCancelBattleInput) (*AdminCancelBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("BattleID", input.BattleID, vb)
	errors.ValidateRequired("AdminID", input.AdminID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	snapshot, err := o.battleRepo.Get(ctx, battlerepo.GetInput{ID: input.BattleID})
	if err != nil {
		return nil, err
	}

	allowed, err := o.permission.HasAdminPermission(ctx, snapshot.Battle.GuildID, input.AdminID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check admin permission")
	}
	if !allowed {
		return nil, errors.PermissionDeniedf("user %s cannot cancel battles in this guild", input.AdminID)
	}

	reason := input.Reason
	if reason == "" {
		reason = "cancelled by " + input.AdminID
	}

	out, err := o.AbortBattle(ctx, &AbortBattleInput{BattleID: input.BattleID, Reason: reason})
	if err != nil {
		return nil, err
	}

	return &AdminCancelBattleOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) AbortBattle(ctx context.Context, input *AbortBattleInput) (*AbortBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.BattleID == "" {
		return nil, errors.InvalidArgument("BattleID is required")
	}

	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if err := requireOpen(b); err != nil {
				return err
			}
			now := o.clock.Now()
			b.Status = entities.BattleStatusAborted
			b.WinnerID = ""
			b.EndedAt = now
			b.Append(entities.LogEntry{Action: entities.ActionAbort, Note: input.Reason, At: now})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	slog.WarnContext(ctx, "battle aborted",
		"battle_id", out.Battle.ID,
		"guild_id", out.Battle.GuildID,
		"previous_status", out.PreviousStatus,
		"reason", input.Reason)

	o.settle(ctx, out, "")
	return &AbortBattleOutput{Battle: out.Battle}, nil
}
