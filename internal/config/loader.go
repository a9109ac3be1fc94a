package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g.
// RPG_BATTLE_BATTLE_TURN_TIMEOUT=30s
const EnvPrefix = "RPG_BATTLE"

// Load reads configuration from path (optional), the environment and the
// defaults, in decreasing precedence order, and validates the result
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"server.grpc_addr":        d.Server.GRPCAddr,
		"server.metrics_addr":     d.Server.MetricsAddr,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"log.level":  d.Log.Level,
		"log.format": d.Log.Format,

		"redis.addr":      d.Redis.Addr,
		"redis.password":  d.Redis.Password,
		"redis.db":        d.Redis.DB,
		"redis.pool_size": d.Redis.PoolSize,
		"redis.use_tls":   d.Redis.UseTLS,

		"battle.challenge_timeout":        d.Battle.ChallengeTimeout,
		"battle.turn_timeout":             d.Battle.TurnTimeout,
		"battle.cooldown":                 d.Battle.Cooldown,
		"battle.max_concurrent_per_guild": d.Battle.MaxConcurrentPerGuild,
		"battle.retention":                d.Battle.Retention,
		"battle.max_update_retries":       d.Battle.MaxUpdateRetries,
		"battle.timeout_policy":           d.Battle.TimeoutPolicy,
		"battle.max_missed_turns":         d.Battle.MaxMissedTurns,

		"scheduler.interval":         d.Scheduler.Interval,
		"scheduler.concurrency":      d.Scheduler.Concurrency,
		"scheduler.recover_on_start": d.Scheduler.RecoverOnStart,

		"chat_xp.enabled":     d.ChatXP.Enabled,
		"chat_xp.base":        d.ChatXP.Base,
		"chat_xp.bonus_max":   d.ChatXP.BonusMax,
		"chat_xp.cooldown":    d.ChatXP.Cooldown,
		"chat_xp.auto_create": d.ChatXP.AutoCreate,

		"admin.global_user_ids": d.Admin.GlobalUserIDs,

		"dice.seed": d.Dice.Seed,

		"balance.default_class.base_hp":      d.Balance.DefaultClass.BaseHP,
		"balance.default_class.hp_per_level": d.Balance.DefaultClass.HPPerLevel,

		"balance.point_buy.total_points": d.Balance.PointBuy.TotalPoints,
		"balance.point_buy.min_score":    d.Balance.PointBuy.MinScore,
		"balance.point_buy.max_score":    d.Balance.PointBuy.MaxScore,
		"balance.point_buy.costs":        d.Balance.PointBuy.Costs,

		"balance.progression.elo_k":                d.Balance.Progression.EloK,
		"balance.progression.starting_elo":         d.Balance.Progression.StartingElo,
		"balance.progression.xp.base":              d.Balance.Progression.XP.Base,
		"balance.progression.xp.win_bonus":         d.Balance.Progression.XP.WinBonus,
		"balance.progression.xp.draw_bonus":        d.Balance.Progression.XP.DrawBonus,
		"balance.progression.xp.level_curve":       d.Balance.Progression.XP.LevelCurve,
		"balance.progression.proficiency_by_level": d.Balance.Progression.ProficiencyByLevel,

		"balance.combat.crit_threshold":  d.Balance.Combat.CritThreshold,
		"balance.combat.crit_multiplier": d.Balance.Combat.CritMultiplier,
		"balance.combat.defend_bonus":    d.Balance.Combat.DefendBonus,
		"balance.combat.weapon_die":      d.Balance.Combat.WeaponDie,
	}
	for name, stats := range d.Balance.Classes {
		defaults["balance.classes."+name+".base_hp"] = stats.BaseHP
		defaults["balance.classes."+name+".hp_per_level"] = stats.HPPerLevel
		defaults["balance.classes."+name+".spell_slots"] = stats.SpellSlots
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
