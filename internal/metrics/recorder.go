// Package metrics defines the write-only metrics sink of the battle engine.
// Recorders must never block or fail the caller.
package metrics

//go:generate mockgen -destination=mock/mock_recorder.go -package=metricsmock github.com/KirkDiggler/rpg-battle/internal/metrics Recorder

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// Recorder receives battle telemetry
type Recorder interface {
	RecordChallengeCreated(guildID string)
	RecordChallengeAccepted(guildID string)
	RecordChallengeDeclined(guildID string)
	RecordChallengeExpired(guildID string)
	// RecordBattleCompleted is called once per battle that reaches a terminal
	// status after being accepted or forfeited
	RecordBattleCompleted(guildID string, status entities.BattleStatus, duration time.Duration)
	RecordTurnLatency(action entities.ActionKind, latency time.Duration)
	RecordCriticalHit(guildID string)
	RecordAbilityLearned(abilityType entities.AbilityType)
	RecordSweep(name string, processed, failed int, duration time.Duration)
	SetOpenBattles(status entities.BattleStatus, count int)
}

var _ Recorder = Noop{}

// Noop discards everything
type Noop struct{}

// RecordChallengeCreated implements Recorder
func (Noop) RecordChallengeCreated(string) {}

// RecordChallengeAccepted implements Recorder
func (Noop) RecordChallengeAccepted(string) {}

// RecordChallengeDeclined implements Recorder
func (Noop) RecordChallengeDeclined(string) {}

// RecordChallengeExpired implements Recorder
func (Noop) RecordChallengeExpired(string) {}

// RecordBattleCompleted implements Recorder
func (Noop) RecordBattleCompleted(string, entities.BattleStatus, time.Duration) {}

// RecordTurnLatency implements Recorder
func (Noop) RecordTurnLatency(entities.ActionKind, time.Duration) {}

// RecordCriticalHit implements Recorder
func (Noop) RecordCriticalHit(string) {}

// RecordAbilityLearned implements Recorder
func (Noop) RecordAbilityLearned(entities.AbilityType) {}

// RecordSweep implements Recorder
func (Noop) RecordSweep(string, int, int, time.Duration) {}

// SetOpenBattles implements Recorder
func (Noop) SetOpenBattles(entities.BattleStatus, int) {}
