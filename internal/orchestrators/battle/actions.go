package battle

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/combat"
	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
)

func requireTurn(b *entities.Battle, userID string) error {
	if b.Status != entities.BattleStatusActive {
		return errors.IllegalStatef(ReasonNotActive, "battle %s is %s, not in progress", b.ID, b.Status)
	}
	if err := requireParticipant(b, userID); err != nil {
		return err
	}
	if b.CurrentTurnUserID != userID {
		return errors.IllegalState(ReasonNotYourTurn, "it is not your turn")
	}
	return nil
}

// passTurn hands the move to the other participant
func passTurn(b *entities.Battle) {
	b.CurrentTurnUserID = b.OtherParticipant(b.CurrentTurnUserID)
	b.TurnNumber++
}

func (o *orchestrator) PerformAction(ctx context.Context, input *PerformActionInput) (*PerformActionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	switch input.Action {
	case entities.ActionAttack:
		return o.PerformAttack(ctx, &PerformAttackInput{BattleID: input.BattleID, UserID: input.UserID})
	case entities.ActionDefend:
		return o.PerformDefend(ctx, &PerformDefendInput{BattleID: input.BattleID, UserID: input.UserID})
	case entities.ActionSpell:
		return o.PerformSpell(ctx, &PerformSpellInput{
			BattleID:   input.BattleID,
			UserID:     input.UserID,
			AbilityKey: input.AbilityKey,
		})
	case entities.ActionForfeit:
		out, err := o.Forfeit(ctx, &ForfeitInput{BattleID: input.BattleID, UserID: input.UserID})
		if err != nil {
			return nil, err
		}
		return &PerformActionOutput{Battle: out.Battle, Ended: true, Rewards: out.Rewards}, nil
	default:
		return nil, errors.InvalidArgumentf("unknown action %q", input.Action)
	}
}

func (o *orchestrator) PerformAttack(ctx context.Context, input *PerformAttackInput) (*PerformActionOutput, error) {
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
	if err := requireTurn(snapshot.Battle, input.UserID); err != nil {
		return nil, err
	}

	return o.strike(ctx, snapshot.Battle, input.UserID, nil)
}

func (o *orchestrator) PerformSpell(ctx context.Context, input *PerformSpellInput) (*PerformActionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("BattleID", input.BattleID, vb)
	errors.ValidateRequired("UserID", input.UserID, vb)
	errors.ValidateRequired("AbilityKey", input.AbilityKey, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	snapshot, err := o.battleRepo.Get(ctx, battlerepo.GetInput{ID: input.BattleID})
	if err != nil {
		return nil, err
	}
	if err := requireTurn(snapshot.Battle, input.UserID); err != nil {
		return nil, err
	}

	spell, err := o.castable(ctx, snapshot.Battle.GuildID, input.UserID, input.AbilityKey)
	if err != nil {
		return nil, err
	}

	return o.strike(ctx, snapshot.Battle, input.UserID, spell)
}

// castable returns the ability behind key if the user has learned it and it
// is a spell
func (o *orchestrator) castable(ctx context.Context, guildID, userID, key string) (*entities.Ability, error) {
	abilityOut, err := o.abilityRepo.Get(ctx, abilityrepo.GetInput{Key: key})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidArgumentf("unknown ability %q", key)
		}
		return nil, err
	}
	ability := abilityOut.Ability

	links, err := o.characterRepo.ListAbilities(ctx, characterrepo.ListAbilitiesInput{GuildID: guildID, UserID: userID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load abilities of %s", userID)
	}
	learned := slices.ContainsFunc(links.Links, func(link *entities.CharacterAbility) bool {
		return link.AbilityKey == key
	})
	if !learned {
		return nil, errors.IllegalStatef(ReasonNotLearned, "you have not learned %s", ability.Name)
	}
	if !ability.IsSpell() {
		return nil, errors.IllegalStatef(ReasonNotASpell, "%s is not a spell", ability.Name)
	}

	return ability, nil
}

// strike resolves one attack, or a cast of spell when it is not nil, and
// applies it to the battle in a single update. A slotted spell spends one of
// the caster's slots inside the same update.
func (o *orchestrator) strike(
	ctx context.Context,
	snapshot *entities.Battle,
	userID string,
	spell *entities.Ability,
) (*PerformActionOutput, error) {
	attacker, err := o.combatant(ctx, snapshot.GuildID, userID)
	if err != nil {
		return nil, err
	}
	defender, err := o.combatant(ctx, snapshot.GuildID, snapshot.OtherParticipant(userID))
	if err != nil {
		return nil, err
	}

	action, abilityKey := entities.ActionAttack, ""
	resolve := o.resolver.ResolveAttack
	if spell != nil {
		action, abilityKey = entities.ActionSpell, spell.Key
		resolve = o.resolver.ResolveSpell
	}

	var (
		result  *combat.AttackResult
		latency time.Duration
	)
	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: snapshot.ID,
		Mutate: func(b *entities.Battle) error {
			if err := requireTurn(b, userID); err != nil {
				return err
			}
			if spell != nil && spell.SpellSlotLevel > 0 {
				if b.SpellSlotsSpent(userID) >= attacker.SpellSlots {
					return errors.IllegalStatef(ReasonNoSpellSlots, "no spell slots left to cast %s", spell.Name)
				}
				b.SpendSpellSlot(userID)
			}
			now := o.clock.Now()
			latency = now.Sub(b.LastActionAt)
			defenderID := b.OtherParticipant(userID)

			// a defensive stance lasts until the defender's own next action
			b.SetDefending(userID, false)
			delete(b.MissedTurns, userID)

			res, err := resolve(combat.AttackInput{
				Attacker:          attacker,
				Defender:          defender,
				DefenderDefending: b.IsDefending(defenderID),
			})
			if err != nil {
				return err
			}
			result = res

			b.SetHP(defenderID, b.HP(defenderID)-res.Damage)
			b.LastActionAt = now
			b.Append(entities.LogEntry{
				ActorID:     userID,
				Action:      action,
				AbilityKey:  abilityKey,
				NaturalRoll: res.NaturalRoll,
				AttackTotal: res.AttackTotal,
				DefenderAC:  res.DefenderAC,
				Hit:         res.Hit,
				Crit:        res.Crit,
				Damage:      res.Damage,
				At:          now,
			})

			if b.HP(defenderID) == 0 {
				b.Status = entities.BattleStatusCompleted
				b.WinnerID = userID
				b.EndedAt = now
				return nil
			}
			passTurn(b)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordTurnLatency(action, latency)
	if result.Crit {
		o.metrics.RecordCriticalHit(out.Battle.GuildID)
	}
	o.publish(ctx, EventAction, participantEntity(out.Battle.GuildID, userID), out.Battle)

	slog.InfoContext(ctx, "strike resolved",
		"battle_id", out.Battle.ID,
		"attacker_id", userID,
		"action", action,
		"ability_key", abilityKey,
		"natural_roll", result.NaturalRoll,
		"attack_total", result.AttackTotal,
		"defender_ac", result.DefenderAC,
		"hit", result.Hit,
		"crit", result.Crit,
		"damage", result.Damage)

	rewards := o.settle(ctx, out, userID)

	return &PerformActionOutput{
		Battle:  out.Battle,
		Attack:  result,
		Ended:   out.Battle.Status.IsTerminal(),
		Rewards: rewards,
	}, nil
}

func (o *orchestrator) PerformDefend(ctx context.Context, input *PerformDefendInput) (*PerformActionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateBattleUser(input.BattleID, input.UserID); err != nil {
		return nil, err
	}

	var latency time.Duration
	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if err := requireTurn(b, input.UserID); err != nil {
				return err
			}
			now := o.clock.Now()
			latency = now.Sub(b.LastActionAt)

			delete(b.MissedTurns, input.UserID)
			b.SetDefending(input.UserID, true)
			b.LastActionAt = now
			b.Append(entities.LogEntry{ActorID: input.UserID, Action: entities.ActionDefend, At: now})
			passTurn(b)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordTurnLatency(entities.ActionDefend, latency)
	o.publish(ctx, EventAction, participantEntity(out.Battle.GuildID, input.UserID), out.Battle)

	return &PerformActionOutput{Battle: out.Battle}, nil
}

func (o *orchestrator) TimeoutTurn(ctx context.Context, input *TimeoutTurnInput) (*TimeoutTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.BattleID == "" {
		return nil, errors.InvalidArgument("BattleID is required")
	}

	var timedOut string
	out, err := o.battleRepo.Update(ctx, battlerepo.UpdateInput{
		ID: input.BattleID,
		Mutate: func(b *entities.Battle) error {
			if b.Status != entities.BattleStatusActive {
				return errors.IllegalStatef(ReasonNotActive, "battle %s is %s, not in progress", b.ID, b.Status)
			}
			if !input.ObservedLastActionAt.IsZero() && !b.LastActionAt.Equal(input.ObservedLastActionAt) {
				return errors.IllegalStatef(ReasonStaleTimeout, "battle %s has moved on", b.ID)
			}
			now := o.clock.Now()
			if now.Sub(b.LastActionAt) < o.settings.TurnTimeout {
				return errors.IllegalStatef(ReasonTurnNotElapsed, "turn of battle %s has time left", b.ID)
			}

			timedOut = b.CurrentTurnUserID
			b.SetDefending(timedOut, false)
			missed := 0
			if o.settings.TimeoutPolicy == TimeoutPolicySkipTurn {
				if b.MissedTurns == nil {
					b.MissedTurns = make(map[string]int)
				}
				b.MissedTurns[timedOut]++
				missed = b.MissedTurns[timedOut]
			}
			b.Append(entities.LogEntry{ActorID: timedOut, Action: entities.ActionTimeout, At: now})

			if o.settings.TimeoutPolicy == TimeoutPolicySkipTurn && missed < o.settings.MaxMissedTurns {
				b.LastActionAt = now
				passTurn(b)
				return nil
			}

			b.Status = entities.BattleStatusTimeout
			b.WinnerID = b.OtherParticipant(timedOut)
			b.EndedAt = now
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "turn timed out",
		"battle_id", out.Battle.ID,
		"user_id", timedOut,
		"policy", o.settings.TimeoutPolicy,
		"status", out.Battle.Status)

	if !out.Battle.Status.IsTerminal() {
		o.publish(ctx, EventAction, participantEntity(out.Battle.GuildID, timedOut), out.Battle)
	}
	rewards := o.settle(ctx, out, timedOut)

	return &TimeoutTurnOutput{
		Battle:         out.Battle,
		TimedOutUserID: timedOut,
		Ended:          out.Battle.Status.IsTerminal(),
		Rewards:        rewards,
	}, nil
}
