// Package rules holds the game balance math of the battle engine. Every
// function is pure: the same inputs and the same die rolls always produce the
// same numbers.
package rules

import "strings"

// ClassStats are the hit point and spellcasting parameters of a class
type ClassStats struct {
	BaseHP     int `mapstructure:"base_hp"`
	HPPerLevel int `mapstructure:"hp_per_level"`
	// SpellSlots is how many slotted spells the class may cast per battle
	SpellSlots int `mapstructure:"spell_slots"`
}

// PointBuy configures character creation
type PointBuy struct {
	TotalPoints int   `mapstructure:"total_points"`
	MinScore    int   `mapstructure:"min_score"`
	MaxScore    int   `mapstructure:"max_score"`
	Costs       []int `mapstructure:"costs"`
}

// XP configures experience awards
type XP struct {
	Base       int64   `mapstructure:"base"`
	WinBonus   int64   `mapstructure:"win_bonus"`
	DrawBonus  int64   `mapstructure:"draw_bonus"`
	LevelCurve []int64 `mapstructure:"level_curve"`
}

// Progression configures ratings, experience and proficiency
type Progression struct {
	EloK               int   `mapstructure:"elo_k"`
	StartingElo        int   `mapstructure:"starting_elo"`
	XP                 XP    `mapstructure:"xp"`
	ProficiencyByLevel []int `mapstructure:"proficiency_by_level"`
}

// Combat configures attack resolution
type Combat struct {
	CritThreshold  int     `mapstructure:"crit_threshold"`
	CritMultiplier float64 `mapstructure:"crit_multiplier"`
	DefendBonus    int     `mapstructure:"defend_bonus"`
	WeaponDie      int     `mapstructure:"weapon_die"`
}

// Balance is the full set of tunable game numbers
type Balance struct {
	Classes      map[string]ClassStats `mapstructure:"classes"`
	DefaultClass ClassStats            `mapstructure:"default_class"`
	PointBuy     PointBuy              `mapstructure:"point_buy"`
	Progression  Progression           `mapstructure:"progression"`
	Combat       Combat                `mapstructure:"combat"`
}

// DefaultBalance returns the stock game numbers
func DefaultBalance() Balance {
	return Balance{
		Classes: map[string]ClassStats{
			"warrior": {BaseHP: 12, HPPerLevel: 6},
			"rogue":   {BaseHP: 8, HPPerLevel: 5},
			"mage":    {BaseHP: 6, HPPerLevel: 4, SpellSlots: 2},
			"cleric":  {BaseHP: 8, HPPerLevel: 5, SpellSlots: 2},
		},
		DefaultClass: ClassStats{BaseHP: 8, HPPerLevel: 5},
		PointBuy: PointBuy{
			TotalPoints: 27,
			MinScore:    8,
			MaxScore:    15,
			Costs:       []int{0, 1, 2, 3, 4, 5, 7, 9},
		},
		Progression: Progression{
			EloK:        32,
			StartingElo: 1000,
			XP: XP{
				Base:       20,
				WinBonus:   30,
				DrawBonus:  10,
				LevelCurve: []int64{0, 300, 900, 2700, 6500, 14000, 23000, 34000, 48000, 64000},
			},
			ProficiencyByLevel: []int{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 6, 6, 6, 6},
		},
		Combat: Combat{
			CritThreshold:  20,
			CritMultiplier: 2.0,
			DefendBonus:    2,
			WeaponDie:      6,
		},
	}
}

// ClassStatsFor returns the hit point parameters of class, falling back to
// DefaultClass for unknown classes. Lookup ignores case.
func (b Balance) ClassStatsFor(class string) ClassStats {
	if stats, ok := b.Classes[strings.ToLower(class)]; ok {
		return stats
	}
	return b.DefaultClass
}
