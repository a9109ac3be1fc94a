package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KirkDiggler/rpg-battle/internal/config"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/metrics"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/ability"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/battle"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/character"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression"
	"github.com/KirkDiggler/rpg-battle/internal/permission"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/roller"
	redisclient "github.com/KirkDiggler/rpg-battle/internal/redis"
	abilityrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/ability"
	battlerepo "github.com/KirkDiggler/rpg-battle/internal/repositories/battle"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	"github.com/KirkDiggler/rpg-battle/internal/scheduler"
)

const redisPingTimeout = 5 * time.Second

// app holds every wired component of the process
type app struct {
	cfg         *config.Config
	redis       redisclient.Client
	registry    *prometheus.Registry
	bus         events.EventBus
	characters  character.Service
	abilities   ability.Service
	progression progression.Service
	battles     battle.Service
	sweeper     *scheduler.Sweeper
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func newRoller(cfg config.DiceConfig) dice.Roller {
	if cfg.Seed == 0 {
		return dice.DefaultRoller
	}
	return roller.NewSeeded(cfg.Seed)
}

// buildApp loads configuration and wires repositories and orchestrators
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(newLogger(cfg.Log))

	client, err := redisclient.NewClient(cfg.Redis.Addr, &redisclient.Options{
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		UseTLS:   cfg.Redis.UseTLS,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create redis client")
	}
	if err := redisclient.Ping(ctx, client, redisPingTimeout); err != nil {
		return nil, errors.Wrapf(err, "failed to reach redis at %s", cfg.Redis.Addr)
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheus(&metrics.PrometheusConfig{Registerer: registry})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metrics recorder")
	}

	characterRepo, err := characterrepo.NewRedis(&characterrepo.RedisConfig{
		Client:     client,
		MaxRetries: cfg.Battle.MaxUpdateRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create character repository")
	}

	battleRepo, err := battlerepo.NewRedis(&battlerepo.RedisConfig{
		Client:     client,
		Retention:  cfg.Battle.Retention,
		MaxRetries: cfg.Battle.MaxUpdateRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create battle repository")
	}

	abilityRepo, err := abilityrepo.NewDefault()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ability catalog")
	}

	diceRoller := newRoller(cfg.Dice)

	characters, err := character.NewOrchestrator(&character.Config{
		CharacterRepo: characterRepo,
		AbilityRepo:   abilityRepo,
		Balance:       cfg.Balance,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create character orchestrator")
	}

	abilities, err := ability.NewOrchestrator(&ability.Config{
		CharacterRepo: characterRepo,
		AbilityRepo:   abilityRepo,
		Metrics:       recorder,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ability orchestrator")
	}

	progress, err := progression.NewOrchestrator(&progression.Config{
		CharacterRepo: characterRepo,
		Balance:       cfg.Balance,
		Roller:        diceRoller,
		ChatXP: progression.ChatXPConfig{
			Enabled:    cfg.ChatXP.Enabled,
			Base:       cfg.ChatXP.Base,
			BonusMax:   cfg.ChatXP.BonusMax,
			Cooldown:   cfg.ChatXP.Cooldown,
			AutoCreate: cfg.ChatXP.AutoCreate,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create progression orchestrator")
	}

	bus := events.NewBus()
	battle.SubscribeAuditLog(bus)

	battles, err := battle.NewOrchestrator(&battle.Config{
		BattleRepo:    battleRepo,
		CharacterRepo: characterRepo,
		AbilityRepo:   abilityRepo,
		Progression:   progress,
		Permission: permission.NewStatic(&permission.StaticConfig{
			GlobalUserIDs: cfg.Admin.GlobalUserIDs,
			GuildUserIDs:  cfg.Admin.GuildUserIDs,
		}),
		Roller:  diceRoller,
		Balance: cfg.Balance,
		Settings: battle.Settings{
			ChallengeTimeout:      cfg.Battle.ChallengeTimeout,
			TurnTimeout:           cfg.Battle.TurnTimeout,
			Cooldown:              cfg.Battle.Cooldown,
			MaxConcurrentPerGuild: cfg.Battle.MaxConcurrentPerGuild,
			TimeoutPolicy:         battle.TimeoutPolicy(cfg.Battle.TimeoutPolicy),
			MaxMissedTurns:        cfg.Battle.MaxMissedTurns,
		},
		Metrics:  recorder,
		EventBus: bus,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create battle orchestrator")
	}

	sweeper, err := scheduler.NewSweeper(&scheduler.Config{
		Battles:     battles,
		TurnTimeout: cfg.Battle.TurnTimeout,
		Concurrency: cfg.Scheduler.Concurrency,
		Metrics:     recorder,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sweeper")
	}

	return &app{
		cfg:         cfg,
		redis:       client,
		registry:    registry,
		bus:         bus,
		characters:  characters,
		abilities:   abilities,
		progression: progress,
		battles:     battles,
		sweeper:     sweeper,
	}, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		slog.Warn("failed to close redis client", "error", err)
	}
}
