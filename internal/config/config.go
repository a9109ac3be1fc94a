// Package config loads process configuration from an optional YAML file,
// RPG_BATTLE_* environment variables and built-in defaults.
package config

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
)

// Timeout policies applied when a turn times out
const (
	TimeoutPolicyForfeitBattle = "forfeit_battle"
	TimeoutPolicySkipTurn      = "skip_turn"
)

// Config is the full process configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Battle    BattleConfig    `mapstructure:"battle"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	ChatXP    ChatXPConfig    `mapstructure:"chat_xp"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Dice      DiceConfig      `mapstructure:"dice"`
	Balance   rules.Balance   `mapstructure:"balance"`
}

// ServerConfig configures the listeners
type ServerConfig struct {
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RedisConfig configures the storage connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// BattleConfig configures the battle lifecycle
type BattleConfig struct {
	ChallengeTimeout      time.Duration `mapstructure:"challenge_timeout"`
	TurnTimeout           time.Duration `mapstructure:"turn_timeout"`
	Cooldown              time.Duration `mapstructure:"cooldown"`
	MaxConcurrentPerGuild int           `mapstructure:"max_concurrent_per_guild"`
	Retention             time.Duration `mapstructure:"retention"`
	MaxUpdateRetries      int           `mapstructure:"max_update_retries"`
	TimeoutPolicy         string        `mapstructure:"timeout_policy"`
	MaxMissedTurns        int           `mapstructure:"max_missed_turns"`
}

// SchedulerConfig configures the background sweep
type SchedulerConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	Concurrency    int           `mapstructure:"concurrency"`
	RecoverOnStart bool          `mapstructure:"recover_on_start"`
}

// ChatXPConfig configures XP awarded for chat activity
type ChatXPConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Base       int64         `mapstructure:"base"`
	BonusMax   int           `mapstructure:"bonus_max"`
	Cooldown   time.Duration `mapstructure:"cooldown"`
	AutoCreate bool          `mapstructure:"auto_create"`
}

// AdminConfig lists users allowed to cancel battles. Global admins apply to
// every guild.
type AdminConfig struct {
	GlobalUserIDs []string            `mapstructure:"global_user_ids"`
	GuildUserIDs  map[string][]string `mapstructure:"guild_user_ids"`
}

// DiceConfig selects the roller. A zero seed uses the toolkit's default
// roller; any other value makes every roll reproducible.
type DiceConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			GRPCAddr:        ":50051",
			MetricsAddr:     ":9090",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Battle: BattleConfig{
			ChallengeTimeout:      120 * time.Second,
			TurnTimeout:           45 * time.Second,
			Cooldown:              60 * time.Second,
			MaxConcurrentPerGuild: 50,
			Retention:             24 * time.Hour,
			MaxUpdateRetries:      5,
			TimeoutPolicy:         TimeoutPolicyForfeitBattle,
			MaxMissedTurns:        3,
		},
		Scheduler: SchedulerConfig{
			Interval:       30 * time.Second,
			Concurrency:    8,
			RecoverOnStart: true,
		},
		ChatXP: ChatXPConfig{
			Enabled:  true,
			Base:     10,
			BonusMax: 5,
			Cooldown: 60 * time.Second,
		},
		Balance: rules.DefaultBalance(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("server.grpc_addr", c.Server.GRPCAddr, vb)
	errors.ValidateRequired("redis.addr", c.Redis.Addr, vb)
	errors.ValidateEnum("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"}, vb)
	errors.ValidateEnum("log.format", c.Log.Format, []string{"json", "text"}, vb)

	b := c.Battle
	errors.ValidatePositive("battle.challenge_timeout", int64(b.ChallengeTimeout), vb)
	errors.ValidatePositive("battle.turn_timeout", int64(b.TurnTimeout), vb)
	errors.ValidatePositive("battle.retention", int64(b.Retention), vb)
	errors.ValidatePositive("battle.max_concurrent_per_guild", b.MaxConcurrentPerGuild, vb)
	errors.ValidatePositive("battle.max_update_retries", b.MaxUpdateRetries, vb)
	errors.ValidatePositive("battle.max_missed_turns", b.MaxMissedTurns, vb)
	if b.Cooldown < 0 {
		vb.Field("battle.cooldown", "must not be negative")
	}
	errors.ValidateEnum("battle.timeout_policy", b.TimeoutPolicy,
		[]string{TimeoutPolicyForfeitBattle, TimeoutPolicySkipTurn}, vb)

	errors.ValidatePositive("scheduler.interval", int64(c.Scheduler.Interval), vb)
	errors.ValidatePositive("scheduler.concurrency", c.Scheduler.Concurrency, vb)

	if c.ChatXP.Enabled {
		errors.ValidatePositive("chat_xp.base", c.ChatXP.Base, vb)
		if c.ChatXP.BonusMax < 0 {
			vb.Field("chat_xp.bonus_max", "must not be negative")
		}
		if c.ChatXP.Cooldown < 0 {
			vb.Field("chat_xp.cooldown", "must not be negative")
		}
	}

	if err := vb.Build(); err != nil {
		return err
	}

	if err := c.Balance.Validate(); err != nil {
		return errors.Wrap(err, "invalid balance")
	}

	return nil
}
