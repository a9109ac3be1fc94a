package rules

import (
	"slices"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

// Cost returns the point-buy cost of a single score, or false when the score
// is outside the purchasable range
func (p PointBuy) Cost(score int) (int, bool) {
	idx := score - p.MinScore
	if score < p.MinScore || score > p.MaxScore || idx >= len(p.Costs) {
		return 0, false
	}
	return p.Costs[idx], true
}

// Validate checks a creation request: known class and race, every score in
// range and exactly the full budget spent
func (p PointBuy) Validate(class, race string, scores entities.AbilityScores) error {
	vb := errors.NewValidationBuilder()

	if class == "" {
		vb.RequiredField("class")
	} else if !slices.Contains(entities.ValidClasses, class) {
		vb.Fieldf("class", "must be one of %v", entities.ValidClasses)
	}
	if race == "" {
		vb.RequiredField("race")
	} else if !slices.Contains(entities.ValidRaces, race) {
		vb.Fieldf("race", "must be one of %v", entities.ValidRaces)
	}

	named := []struct {
		field string
		score int
	}{
		{"strength", scores.Strength},
		{"dexterity", scores.Dexterity},
		{"constitution", scores.Constitution},
		{"intelligence", scores.Intelligence},
		{"wisdom", scores.Wisdom},
		{"charisma", scores.Charisma},
	}

	total := 0
	inRange := true
	for _, n := range named {
		cost, ok := p.Cost(n.score)
		if !ok {
			vb.Fieldf(n.field, "must be between %d and %d", p.MinScore, p.MaxScore)
			inRange = false
			continue
		}
		total += cost
	}
	if inRange && total != p.TotalPoints {
		vb.Fieldf("ability_scores", "cost %d points, exactly %d must be spent", total, p.TotalPoints)
	}

	return vb.Build()
}
