package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// Stat names an effect modifier target
type Stat string

// Stats understood by combat math
const (
	StatSTR         Stat = "STR"
	StatDEX         Stat = "DEX"
	StatCON         Stat = "CON"
	StatINT         Stat = "INT"
	StatWIS         Stat = "WIS"
	StatAC          Stat = "AC"
	StatDamage      Stat = "DAMAGE"
	StatMaxHP       Stat = "MAX_HP"
	StatCritDamage  Stat = "CRIT_DAMAGE"
	StatSpellDamage Stat = "SPELL_DAMAGE"
)

var modifierPattern = regexp.MustCompile(`^([A-Z_]+)([+-])(\d+)$`)

// Modifier is a signed bonus to one stat
type Modifier struct {
	Stat  Stat
	Value int
}

// Effect is a parsed ability effect descriptor
type Effect struct {
	Modifiers []Modifier
	Tags      []string
}

// ParseEffect parses a comma separated descriptor such as "DAMAGE+3,FIRE".
// Elements of the form STAT+N or STAT-N become modifiers, anything else is
// kept as a tag.
func ParseEffect(descriptor string) Effect {
	var effect Effect
	for _, part := range strings.Split(descriptor, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := modifierPattern.FindStringSubmatch(part)
		if m == nil {
			effect.Tags = append(effect.Tags, part)
			continue
		}
		value, err := strconv.Atoi(m[3])
		if err != nil {
			effect.Tags = append(effect.Tags, part)
			continue
		}
		if m[2] == "-" {
			value = -value
		}
		effect.Modifiers = append(effect.Modifiers, Modifier{Stat: Stat(m[1]), Value: value})
	}
	return effect
}

// CombineEffects parses and merges several descriptors
func CombineEffects(descriptors ...string) Effect {
	var combined Effect
	for _, d := range descriptors {
		e := ParseEffect(d)
		combined.Modifiers = append(combined.Modifiers, e.Modifiers...)
		combined.Tags = append(combined.Tags, e.Tags...)
	}
	return combined
}

// Total sums every modifier targeting stat
func (e Effect) Total(stat Stat) int {
	total := 0
	for _, m := range e.Modifiers {
		if m.Stat == stat {
			total += m.Value
		}
	}
	return total
}

// HasTag reports whether the effect carries tag
func (e Effect) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
