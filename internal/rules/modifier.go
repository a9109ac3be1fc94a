package rules

// AbilityModifier returns floor((score - 10) / 2).
func AbilityModifier(score int) int {
	d := score - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// MaxHP derives maximum hit points from class, level and constitution
// modifier: baseHp + conMod*level + hpPerLevel*(level-1) + bonus, at least 1.
func MaxHP(stats ClassStats, level, conMod, bonus int) int {
	level = max(level, 1)
	return max(1, stats.BaseHP+conMod*level+stats.HPPerLevel*(level-1)+bonus)
}

// ArmorClass is 10 + DEX modifier + bonus
func ArmorClass(dexMod, bonus int) int {
	return 10 + dexMod + bonus
}
