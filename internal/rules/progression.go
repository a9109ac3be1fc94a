package rules

import "math"

// Outcome is the result of a battle from one participant's point of view
type Outcome int

// Outcomes
const (
	OutcomeLoss Outcome = iota
	OutcomeDraw
	OutcomeWin
)

// Score is the ELO actual score of the outcome
func (o Outcome) Score() float64 {
	switch o {
	case OutcomeWin:
		return 1
	case OutcomeDraw:
		return 0.5
	default:
		return 0
	}
}

// LevelForXP returns the highest level whose threshold xp has reached
func (p Progression) LevelForXP(xp int64) int {
	level := 1
	for i, threshold := range p.XP.LevelCurve {
		if xp >= threshold {
			level = i + 1
		}
	}
	return level
}

// ProficiencyBonus returns the proficiency bonus for level. Levels outside
// the table clamp to its ends.
func (p Progression) ProficiencyBonus(level int) int {
	table := p.ProficiencyByLevel
	if len(table) == 0 {
		return 2
	}
	idx := min(max(level, 1), len(table)) - 1
	return table[idx]
}

// XPAward returns the XP granted for a battle outcome
func (p Progression) XPAward(o Outcome) int64 {
	switch o {
	case OutcomeWin:
		return p.XP.Base + p.XP.WinBonus
	case OutcomeDraw:
		return p.XP.Base + p.XP.DrawBonus
	default:
		return p.XP.Base
	}
}

// ExpectedScore is 1 / (1 + 10^((opponent - rating) / 400))
func ExpectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}

// EloDelta is k * (actual - expected) rounded half up, so -16.5 becomes -16
// and 16.5 becomes 17.
func EloDelta(rating, opponent, k int, o Outcome) int {
	return int(math.Floor(float64(k)*(o.Score()-ExpectedScore(rating, opponent)) + 0.5))
}

// EloChange is the rating movement of both participants of a battle
type EloChange struct {
	WinnerDelta int
	LoserDelta  int
	WinnerAfter int
	LoserAfter  int
}

// Elo computes both rating changes from the pre-battle ratings. When draw is
// true both sides score one half. Ratings never drop below zero.
func (p Progression) Elo(winnerRating, loserRating int, draw bool) EloChange {
	winnerOutcome, loserOutcome := OutcomeWin, OutcomeLoss
	if draw {
		winnerOutcome, loserOutcome = OutcomeDraw, OutcomeDraw
	}
	wd := EloDelta(winnerRating, loserRating, p.EloK, winnerOutcome)
	ld := EloDelta(loserRating, winnerRating, p.EloK, loserOutcome)
	return EloChange{
		WinnerDelta: wd,
		LoserDelta:  ld,
		WinnerAfter: max(0, winnerRating+wd),
		LoserAfter:  max(0, loserRating+ld),
	}
}
