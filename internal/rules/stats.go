package rules

import (
	"strings"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// CombatStats are the effective numbers a character fights with after learned
// ability effects are applied.
//
// Spells hit with proficiency plus the INT modifier. Their damage bonus is
// the casting modifier (INT for mages, WIS for clerics, the better of the two
// otherwise) plus SPELL_DAMAGE effects.
type CombatStats struct {
	Level            int
	Proficiency      int
	StrMod           int
	DexMod           int
	ConMod           int
	IntMod           int
	MaxHP            int
	ArmorClass       int
	AttackBonus      int
	DamageBonus      int
	CritDamageBonus  int
	SpellAttackBonus int
	SpellDamageBonus int
	SpellSlots       int
	Effect           Effect
}

// CombatStats computes the effective stats of c given its learned abilities.
// Abilities may be nil.
func (b Balance) CombatStats(c *entities.Character, abilities []*entities.Ability) CombatStats {
	descriptors := make([]string, 0, len(abilities))
	for _, a := range abilities {
		if a != nil && a.Effect != "" {
			descriptors = append(descriptors, a.Effect)
		}
	}
	effect := CombineEffects(descriptors...)

	level := b.Progression.LevelForXP(c.XP)
	strMod := AbilityModifier(c.AbilityScores.Strength + effect.Total(StatSTR))
	dexMod := AbilityModifier(c.AbilityScores.Dexterity + effect.Total(StatDEX))
	conMod := AbilityModifier(c.AbilityScores.Constitution + effect.Total(StatCON))
	intMod := AbilityModifier(c.AbilityScores.Intelligence + effect.Total(StatINT))
	wisMod := AbilityModifier(c.AbilityScores.Wisdom + effect.Total(StatWIS))
	proficiency := b.Progression.ProficiencyBonus(level)
	classStats := b.ClassStatsFor(c.Class)

	castingMod := max(intMod, wisMod)
	switch strings.ToLower(c.Class) {
	case "mage":
		castingMod = intMod
	case "cleric":
		castingMod = wisMod
	}

	return CombatStats{
		Level:            level,
		Proficiency:      proficiency,
		StrMod:           strMod,
		DexMod:           dexMod,
		ConMod:           conMod,
		IntMod:           intMod,
		MaxHP:            MaxHP(classStats, level, conMod, effect.Total(StatMaxHP)),
		ArmorClass:       ArmorClass(dexMod, effect.Total(StatAC)),
		AttackBonus:      proficiency + strMod,
		DamageBonus:      strMod + effect.Total(StatDamage),
		CritDamageBonus:  effect.Total(StatCritDamage),
		SpellAttackBonus: proficiency + intMod,
		SpellDamageBonus: castingMod + effect.Total(StatSpellDamage),
		SpellSlots:       classStats.SpellSlots,
		Effect:           effect,
	}
}

// Derive recomputes level, max HP and AC of c from its XP and base scores.
// Current HP is raised or clamped to stay within the new maximum.
func (b Balance) Derive(c *entities.Character) {
	previousMax := c.MaxHP
	c.Level = b.Progression.LevelForXP(c.XP)
	conMod := AbilityModifier(c.AbilityScores.Constitution)
	c.MaxHP = MaxHP(b.ClassStatsFor(c.Class), c.Level, conMod, 0)
	c.ArmorClass = ArmorClass(AbilityModifier(c.AbilityScores.Dexterity), 0)

	switch {
	case previousMax == 0 || c.CurrentHP <= 0:
		c.CurrentHP = c.MaxHP
	case c.MaxHP > previousMax:
		c.CurrentHP += c.MaxHP - previousMax
	}
	c.CurrentHP = min(c.CurrentHP, c.MaxHP)
}

// NewCharacter builds a fresh level 1 character with derived stats and the
// starting rating. Timestamps are left to the repository.
func (b Balance) NewCharacter(guildID, userID, class, race string, scores entities.AbilityScores) *entities.Character {
	c := &entities.Character{
		GuildID:       guildID,
		UserID:        userID,
		Class:         class,
		Race:          race,
		AbilityScores: scores,
		Elo:           b.Progression.StartingElo,
	}
	b.Derive(c)
	return c
}
