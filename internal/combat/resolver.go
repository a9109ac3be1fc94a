// Package combat resolves a single attack or spell between two combatants.
package combat

import (
	"math"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/rules"
)

// Config configures a Resolver
type Config struct {
	Rules  rules.Combat
	Roller dice.Roller
}

// Validate validates the config
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	errors.ValidateRange("Rules.CritThreshold", c.Rules.CritThreshold, 2, 20, vb)
	errors.ValidatePositive("Rules.WeaponDie", c.Rules.WeaponDie, vb)
	if c.Rules.CritMultiplier < 1 {
		vb.Field("Rules.CritMultiplier", "must be at least 1")
	}

	return vb.Build()
}

// Resolver rolls attacks. It holds no state besides its roller.
type Resolver struct {
	rules  rules.Combat
	roller dice.Roller
}

// New creates a new Resolver
func New(cfg *Config) (*Resolver, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Resolver{
		rules:  cfg.Rules,
		roller: cfg.Roller,
	}, nil
}

// AttackInput describes one attack
type AttackInput struct {
	Attacker          rules.CombatStats
	Defender          rules.CombatStats
	DefenderDefending bool
}

// AttackResult is the outcome of one attack or spell
type AttackResult struct {
	NaturalRoll int
	AttackTotal int
	DefenderAC  int
	Hit         bool
	Crit        bool
	DamageRoll  int
	Damage      int
}

// ResolveAttack rolls d20 + attack bonus against the defender's armor class.
// A natural roll at or above the crit threshold always hits and multiplies
// damage. Damage is never negative.
func (r *Resolver) ResolveAttack(in AttackInput) (*AttackResult, error) {
	return r.strike(in, in.Attacker.AttackBonus, in.Attacker.DamageBonus, r.CritMultiplier(in.Attacker))
}

// ResolveSpell is ResolveAttack for a cast spell: it hits with the spell
// attack bonus, adds the spell damage bonus and crits with the plain
// multiplier.
func (r *Resolver) ResolveSpell(in AttackInput) (*AttackResult, error) {
	return r.strike(in, in.Attacker.SpellAttackBonus, in.Attacker.SpellDamageBonus, r.rules.CritMultiplier)
}

func (r *Resolver) strike(in AttackInput, toHit, damageBonus int, critMultiplier float64) (*AttackResult, error) {
	natural, err := r.roller.Roll(20)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll attack")
	}

	ac := in.Defender.ArmorClass
	if in.DefenderDefending {
		ac += r.rules.DefendBonus
	}

	result := &AttackResult{
		NaturalRoll: natural,
		AttackTotal: natural + toHit,
		DefenderAC:  ac,
		Crit:        natural >= r.rules.CritThreshold,
	}
	result.Hit = result.Crit || result.AttackTotal >= ac
	if !result.Hit {
		return result, nil
	}

	roll, err := r.roller.Roll(r.rules.WeaponDie)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll damage")
	}
	result.DamageRoll = roll

	damage := float64(max(0, roll+damageBonus))
	if result.Crit {
		damage *= critMultiplier
	}
	result.Damage = int(math.Round(damage))

	return result, nil
}

// CritMultiplier is the configured multiplier plus CRIT_DAMAGE bonuses
// expressed in percent
func (r *Resolver) CritMultiplier(attacker rules.CombatStats) float64 {
	return r.rules.CritMultiplier + float64(attacker.CritDamageBonus)/100
}
