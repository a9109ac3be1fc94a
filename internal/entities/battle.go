package entities

import (
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"
)

// EntityTypeBattle is the core.Entity type of a Battle
const EntityTypeBattle = "battle"

// BattleStatus is the lifecycle state of a battle
type BattleStatus string

// Battle statuses. Every status other than PENDING and ACTIVE is terminal.
const (
	BattleStatusPending   BattleStatus = "PENDING"
	BattleStatusActive    BattleStatus = "ACTIVE"
	BattleStatusCompleted BattleStatus = "COMPLETED"
	BattleStatusForfeited BattleStatus = "FORFEITED"
	BattleStatusTimeout   BattleStatus = "TIMEOUT"
	BattleStatusAborted   BattleStatus = "ABORTED"
	BattleStatusDeclined  BattleStatus = "DECLINED"
	BattleStatusExpired   BattleStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is possible
func (s BattleStatus) IsTerminal() bool {
	return s != BattleStatusPending && s != BattleStatusActive
}

// ActionKind enumerates everything that can appear in a battle log
type ActionKind string

// Action kinds. Attack, Defend, Spell and Forfeit are player actions; the
// rest are recorded by lifecycle transitions.
const (
	ActionAttack  ActionKind = "ATTACK"
	ActionDefend  ActionKind = "DEFEND"
	ActionSpell   ActionKind = "SPELL"
	ActionForfeit ActionKind = "FORFEIT"
	ActionTimeout ActionKind = "TIMEOUT"
	ActionStart   ActionKind = "START"
	ActionDecline ActionKind = "DECLINE"
	ActionExpire  ActionKind = "EXPIRE"
	ActionAbort   ActionKind = "ABORT"
)

// LogEntry is one structured line of the battle log
type LogEntry struct {
	Turn         int        `json:"turn"`
	ActorID      string     `json:"actor_id,omitempty"`
	Action       ActionKind `json:"action"`
	AbilityKey   string     `json:"ability_key,omitempty"`
	NaturalRoll  int        `json:"natural_roll,omitempty"`
	AttackTotal  int        `json:"attack_total,omitempty"`
	DefenderAC   int        `json:"defender_ac,omitempty"`
	Hit          bool       `json:"hit,omitempty"`
	Crit         bool       `json:"crit,omitempty"`
	Damage       int        `json:"damage,omitempty"`
	ChallengerHP int        `json:"challenger_hp"`
	OpponentHP   int        `json:"opponent_hp"`
	Note         string     `json:"note,omitempty"`
	At           time.Time  `json:"at"`
}

var _ core.Entity = (*Battle)(nil)

// Battle is a combat session between a challenger and an opponent
type Battle struct {
	ID                string          `json:"id"`
	GuildID           string          `json:"guild_id"`
	ChallengerID      string          `json:"challenger_id"`
	OpponentID        string          `json:"opponent_id"`
	Status            BattleStatus    `json:"status"`
	ChallengerHP      int             `json:"challenger_hp"`
	ChallengerMaxHP   int             `json:"challenger_max_hp"`
	OpponentHP        int             `json:"opponent_hp"`
	OpponentMaxHP     int             `json:"opponent_max_hp"`
	CurrentTurnUserID string          `json:"current_turn_user_id"`
	TurnNumber        int             `json:"turn_number"`
	WinnerID          string          `json:"winner_id,omitempty"`
	Defending         map[string]bool `json:"defending,omitempty"`
	MissedTurns       map[string]int  `json:"missed_turns,omitempty"`
	SpellSlotsUsed    map[string]int  `json:"spell_slots_used,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	ExpiresAt         time.Time       `json:"expires_at"`
	StartedAt         time.Time       `json:"started_at,omitempty"`
	LastActionAt      time.Time       `json:"last_action_at"`
	EndedAt           time.Time       `json:"ended_at,omitempty"`
	Version           int64           `json:"version"`
	Log               []LogEntry      `json:"log,omitempty"`
}

// GetID implements core.Entity
func (b *Battle) GetID() string {
	return b.ID
}

// GetType implements core.Entity
func (b *Battle) GetType() string {
	return EntityTypeBattle
}

// IsParticipant reports whether userID is the challenger or the opponent
func (b *Battle) IsParticipant(userID string) bool {
	return userID == b.ChallengerID || userID == b.OpponentID
}

// OtherParticipant returns the participant that is not userID
func (b *Battle) OtherParticipant(userID string) string {
	if userID == b.ChallengerID {
		return b.OpponentID
	}
	return b.ChallengerID
}

// HP returns the current hit points of a participant
func (b *Battle) HP(userID string) int {
	if userID == b.ChallengerID {
		return b.ChallengerHP
	}
	return b.OpponentHP
}

// SetHP sets the hit points of a participant, floored at zero
func (b *Battle) SetHP(userID string, hp int) {
	hp = max(hp, 0)
	if userID == b.ChallengerID {
		b.ChallengerHP = hp
		return
	}
	b.OpponentHP = hp
}

// IsDefending reports whether userID took a defensive stance on their last turn
func (b *Battle) IsDefending(userID string) bool {
	return b.Defending[userID]
}

// SetDefending sets or clears the defend flag of a participant
func (b *Battle) SetDefending(userID string, defending bool) {
	if !defending {
		delete(b.Defending, userID)
		return
	}
	if b.Defending == nil {
		b.Defending = make(map[string]bool)
	}
	b.Defending[userID] = true
}

// SpellSlotsSpent returns how many spell slots userID has used this battle
func (b *Battle) SpellSlotsSpent(userID string) int {
	return b.SpellSlotsUsed[userID]
}

// SpendSpellSlot records one more spell slot used by userID
func (b *Battle) SpendSpellSlot(userID string) {
	if b.SpellSlotsUsed == nil {
		b.SpellSlotsUsed = make(map[string]int)
	}
	b.SpellSlotsUsed[userID]++
}

// Append records a log entry stamped with the current turn and HP
func (b *Battle) Append(entry LogEntry) {
	entry.Turn = b.TurnNumber
	entry.ChallengerHP = b.ChallengerHP
	entry.OpponentHP = b.OpponentHP
	b.Log = append(b.Log, entry)
}

// Duration returns how long the battle has run, measured from acceptance
// when it started and from creation otherwise.
func (b *Battle) Duration(now time.Time) time.Duration {
	start := b.StartedAt
	if start.IsZero() {
		start = b.CreatedAt
	}
	end := b.EndedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(start)
}
