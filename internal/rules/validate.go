package rules

import "github.com/KirkDiggler/rpg-battle/internal/errors"

// Validate checks the balance numbers for internal consistency
func (b Balance) Validate() error {
	vb := errors.NewValidationBuilder()

	for name, stats := range b.Classes {
		errors.ValidatePositive("classes."+name+".base_hp", stats.BaseHP, vb)
		if stats.HPPerLevel < 0 {
			vb.Field("classes."+name+".hp_per_level", "must not be negative")
		}
		if stats.SpellSlots < 0 {
			vb.Field("classes."+name+".spell_slots", "must not be negative")
		}
	}
	errors.ValidatePositive("default_class.base_hp", b.DefaultClass.BaseHP, vb)

	pb := b.PointBuy
	if pb.MinScore > pb.MaxScore {
		vb.Field("point_buy.min_score", "must not exceed max_score")
	} else if len(pb.Costs) != pb.MaxScore-pb.MinScore+1 {
		vb.Fieldf("point_buy.costs", "must have %d entries", pb.MaxScore-pb.MinScore+1)
	}
	errors.ValidatePositive("point_buy.total_points", pb.TotalPoints, vb)

	p := b.Progression
	errors.ValidatePositive("progression.elo_k", p.EloK, vb)
	if p.StartingElo < 0 {
		vb.Field("progression.starting_elo", "must not be negative")
	}
	if len(p.ProficiencyByLevel) == 0 {
		vb.RequiredField("progression.proficiency_by_level")
	}
	curve := p.XP.LevelCurve
	if len(curve) == 0 || curve[0] != 0 {
		vb.Field("progression.xp.level_curve", "must start at 0")
	}
	for i := 1; i < len(curve); i++ {
		if curve[i] <= curve[i-1] {
			vb.Field("progression.xp.level_curve", "must be strictly increasing")
			break
		}
	}
	if p.XP.Base < 0 || p.XP.WinBonus < 0 || p.XP.DrawBonus < 0 {
		vb.Field("progression.xp", "awards must not be negative")
	}

	c := b.Combat
	errors.ValidateRange("combat.crit_threshold", c.CritThreshold, 2, 20, vb)
	if c.CritMultiplier < 1 {
		vb.Field("combat.crit_multiplier", "must be at least 1")
	}
	if c.DefendBonus < 0 {
		vb.Field("combat.defend_bonus", "must not be negative")
	}
	errors.ValidatePositive("combat.weapon_die", c.WeaponDie, vb)

	return vb.Build()
}
