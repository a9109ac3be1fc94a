package entities

import (
	"strings"
	"time"
)

// AbilityType groups catalog entries
type AbilityType string

// Ability types
const (
	AbilityTypeSkill  AbilityType = "SKILL"
	AbilityTypeTalent AbilityType = "TALENT"
	AbilityTypeSpell  AbilityType = "SPELL"
)

// Ability is a catalog entry. Catalog entries never change at runtime.
// A SPELL with a SpellSlotLevel above zero uses up a spell slot when cast.
type Ability struct {
	Key              string      `json:"key" yaml:"key"`
	Name             string      `json:"name" yaml:"name"`
	Type             AbilityType `json:"type" yaml:"type"`
	ClassRestriction string      `json:"class_restriction,omitempty" yaml:"class_restriction"`
	MinLevel         int         `json:"min_level" yaml:"min_level"`
	Effect           string      `json:"effect" yaml:"effect"`
	SpellSlotLevel   int         `json:"spell_slot_level,omitempty" yaml:"spell_slot_level"`
	Prerequisites    []string    `json:"prerequisites,omitempty" yaml:"prerequisites"`
	Description      string      `json:"description" yaml:"description"`
}

// IsSpell reports whether the ability can be cast in battle
func (a *Ability) IsSpell() bool {
	return a.Type == AbilityTypeSpell
}

// AllowsClass reports whether a character of class may use the ability
func (a *Ability) AllowsClass(class string) bool {
	return a.ClassRestriction == "" || strings.EqualFold(a.ClassRestriction, class)
}

// CharacterAbility links a character to an ability it has learned
type CharacterAbility struct {
	GuildID    string    `json:"guild_id"`
	UserID     string    `json:"user_id"`
	AbilityKey string    `json:"ability_key"`
	LearnedAt  time.Time `json:"learned_at"`
}
