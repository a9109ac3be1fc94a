package battle

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// Lifecycle event types published on the event bus. The source is the acting
// participant (nil for sweeps and aborts) and the target is the battle.
const (
	EventChallengeCreated = "battle.challenge_created"
	EventStarted          = "battle.started"
	EventAction           = "battle.action"
	EventEnded            = "battle.ended"
)

// EventTypes lists every lifecycle event type
var EventTypes = []string{EventChallengeCreated, EventStarted, EventAction, EventEnded}

// participantEntity identifies a participant without loading the character
func participantEntity(guildID, userID string) core.Entity {
	return &entities.Character{GuildID: guildID, UserID: userID}
}

func (o *orchestrator) publish(ctx context.Context, eventType string, source core.Entity, b *entities.Battle) {
	if o.eventBus == nil {
		return
	}

	if err := o.eventBus.Publish(ctx, events.NewGameEvent(eventType, source, b)); err != nil {
		slog.WarnContext(ctx, "failed to publish battle event",
			"event_type", eventType,
			"battle_id", b.ID,
			"error", err)
	}
}

// SubscribeAuditLog logs every lifecycle event published on bus and returns
// the subscription IDs
func SubscribeAuditLog(bus events.EventBus) []string {
	ids := make([]string, 0, len(EventTypes))
	for _, eventType := range EventTypes {
		ids = append(ids, bus.SubscribeFunc(eventType, 0, func(ctx context.Context, event events.Event) error {
			attrs := []any{"event_type", event.Type()}
			if src := event.Source(); src != nil {
				attrs = append(attrs, "source_id", src.GetID())
			}
			if target := event.Target(); target != nil {
				attrs = append(attrs, "battle_id", target.GetID())
				if b, ok := target.(*entities.Battle); ok {
					attrs = append(attrs, "status", b.Status, "turn", b.TurnNumber)
				}
			}
			slog.InfoContext(ctx, "battle event", attrs...)
			return nil
		}))
	}
	return ids
}
