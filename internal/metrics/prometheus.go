package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "rpg_battle"

// PrometheusConfig configures the Prometheus recorder
type PrometheusConfig struct {
	Namespace  string
	Registerer prometheus.Registerer
}

// Validate validates the config
func (c *PrometheusConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Registerer == nil {
		vb.RequiredField("Registerer")
	}
	return vb.Build()
}

var _ Recorder = (*Prometheus)(nil)

// Prometheus exports battle telemetry as Prometheus collectors
type Prometheus struct {
	challenges       *prometheus.CounterVec
	battlesCompleted *prometheus.CounterVec
	battleDuration   *prometheus.HistogramVec
	turnLatency      *prometheus.HistogramVec
	criticalHits     *prometheus.CounterVec
	abilitiesLearned *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepBattles     *prometheus.CounterVec
	sweepDuration    *prometheus.HistogramVec
	openBattles      *prometheus.GaugeVec
}

// NewPrometheus creates the collectors and registers them
func NewPrometheus(cfg *PrometheusConfig) (*Prometheus, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	p := &Prometheus{
		challenges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "challenges_total",
				Help:      "Challenge lifecycle events by outcome",
			},
			[]string{"guild_id", "event"},
		),
		battlesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "battles_completed_total",
				Help:      "Battles that reached a terminal status",
			},
			[]string{"guild_id", "status"},
		),
		battleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "battle_duration_seconds",
				Help:      "Time from acceptance to the end of a battle",
				Buckets:   []float64{15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"status"},
		),
		turnLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "turn_latency_seconds",
				Help:      "Time between consecutive battle actions",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 45, 60},
			},
			[]string{"action"},
		),
		criticalHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "critical_hits_total",
				Help:      "Critical hits landed",
			},
			[]string{"guild_id"},
		),
		abilitiesLearned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "abilities_learned_total",
				Help:      "Abilities learned by type",
			},
			[]string{"type"},
		),
		sweepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "sweep_runs_total",
				Help:      "Scheduler sweep executions",
			},
			[]string{"sweep"},
		),
		sweepBattles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "sweep_battles_total",
				Help:      "Battles handled by scheduler sweeps by result",
			},
			[]string{"sweep", "result"},
		),
		sweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "sweep_duration_seconds",
				Help:      "Scheduler sweep latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"sweep"},
		),
		openBattles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "open_battles",
				Help:      "Battles currently pending or active",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{
		p.challenges, p.battlesCompleted, p.battleDuration, p.turnLatency, p.criticalHits,
		p.abilitiesLearned, p.sweepRuns, p.sweepBattles, p.sweepDuration, p.openBattles,
	} {
		if err := cfg.Registerer.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return p, nil
}

// RecordChallengeCreated implements Recorder
func (p *Prometheus) RecordChallengeCreated(guildID string) {
	p.challenges.WithLabelValues(guildID, "created").Inc()
}

// RecordChallengeAccepted implements Recorder
func (p *Prometheus) RecordChallengeAccepted(guildID string) {
	p.challenges.WithLabelValues(guildID, "accepted").Inc()
}

// RecordChallengeDeclined implements Recorder
func (p *Prometheus) RecordChallengeDeclined(guildID string) {
	p.challenges.WithLabelValues(guildID, "declined").Inc()
}

// RecordChallengeExpired implements Recorder
func (p *Prometheus) RecordChallengeExpired(guildID string) {
	p.challenges.WithLabelValues(guildID, "expired").Inc()
}

// RecordBattleCompleted implements Recorder
func (p *Prometheus) RecordBattleCompleted(guildID string, status entities.BattleStatus, duration time.Duration) {
	p.battlesCompleted.WithLabelValues(guildID, string(status)).Inc()
	p.battleDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

// RecordTurnLatency implements Recorder
func (p *Prometheus) RecordTurnLatency(action entities.ActionKind, latency time.Duration) {
	p.turnLatency.WithLabelValues(string(action)).Observe(latency.Seconds())
}

// RecordCriticalHit implements Recorder
func (p *Prometheus) RecordCriticalHit(guildID string) {
	p.criticalHits.WithLabelValues(guildID).Inc()
}

// RecordAbilityLearned implements Recorder
func (p *Prometheus) RecordAbilityLearned(abilityType entities.AbilityType) {
	p.abilitiesLearned.WithLabelValues(string(abilityType)).Inc()
}

// RecordSweep implements Recorder
func (p *Prometheus) RecordSweep(name string, processed, failed int, duration time.Duration) {
	p.sweepRuns.WithLabelValues(name).Inc()
	p.sweepBattles.WithLabelValues(name, "processed").Add(float64(processed))
	p.sweepBattles.WithLabelValues(name, "failed").Add(float64(failed))
	p.sweepDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// SetOpenBattles implements Recorder
func (p *Prometheus) SetOpenBattles(status entities.BattleStatus, count int) {
	p.openBattles.WithLabelValues(string(status)).Set(float64(count))
}
