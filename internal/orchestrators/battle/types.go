package battle

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/combat"
	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/orchestrators/progression"
)

// TimeoutPolicy decides what happens when the player to move runs out of time
type TimeoutPolicy string

// Timeout policies
const (
	// TimeoutPolicyForfeitBattle ends the battle in favour of the other player
	TimeoutPolicyForfeitBattle TimeoutPolicy = "forfeit_battle"
	// TimeoutPolicySkipTurn passes the turn and counts a missed turn. Missing
	// MaxMissedTurns turns in a row loses the battle.
	TimeoutPolicySkipTurn TimeoutPolicy = "skip_turn"
)

// Reasons carried by FailedPrecondition errors
const (
	ReasonNotPending       = "not_pending"
	ReasonNotActive        = "not_active"
	ReasonAlreadyEnded     = "already_ended"
	ReasonNotOpponent      = "not_opponent"
	ReasonNotParticipant   = "not_participant"
	ReasonNotYourTurn      = "not_your_turn"
	ReasonChallengeExpired = "challenge_expired"
	ReasonNotExpired       = "not_expired"
	ReasonStaleTimeout     = "stale_timeout"
	ReasonTurnNotElapsed   = "turn_not_elapsed"
	ReasonNotLearned       = "not_learned"
	ReasonNotASpell        = "not_a_spell"
	ReasonNoSpellSlots     = "no_spell_slots"
)

// CreateChallengeInput defines the request for challenging another user
type CreateChallengeInput struct {
	GuildID       string
	ChallengerID  string
	OpponentID    string
	OpponentIsBot bool
}

// CreateChallengeOutput defines the response for challenging another user
type CreateChallengeOutput struct {
	Battle *entities.Battle
}

// AcceptChallengeInput defines the request for accepting a challenge
type AcceptChallengeInput struct {
	BattleID string
	UserID   string
}

// AcceptChallengeOutput defines the response for accepting a challenge
type AcceptChallengeOutput struct {
	Battle *entities.Battle
}

// DeclineChallengeInput defines the request for declining a challenge
type DeclineChallengeInput struct {
	BattleID string
	UserID   string
}

// DeclineChallengeOutput defines the response for declining a challenge
type DeclineChallengeOutput struct {
	Battle *entities.Battle
}

// ForfeitInput defines the request for giving up a battle
type ForfeitInput struct {
	BattleID string
	UserID   string
}

// ForfeitOutput defines the response for giving up a battle
type ForfeitOutput struct {
	Battle  *entities.Battle
	Rewards *progression.AwardProgressionRewardsOutput
}

// AdminCancelBattleInput defines the request for an administrator cancel
type AdminCancelBattleInput struct {
	BattleID string
	AdminID  string
	Reason   string
}

// AdminCancelBattleOutput defines the response for an administrator cancel
type AdminCancelBattleOutput struct {
	Battle *entities.Battle
}

// AbortBattleInput defines the request for aborting a battle without a
// permission check
type AbortBattleInput struct {
	BattleID string
	Reason   string
}

// AbortBattleOutput defines the response for aborting a battle
type AbortBattleOutput struct {
	Battle *entities.Battle
}

// PerformActionInput defines a player action. AbilityKey names the spell
// for SPELL actions and is ignored otherwise.
type PerformActionInput struct {
	BattleID   string
	UserID     string
	Action     entities.ActionKind
	AbilityKey string
}

// PerformAttackInput defines an attack
type PerformAttackInput struct {
	BattleID string
	UserID   string
}

// PerformSpellInput defines a cast of a learned spell
type PerformSpellInput struct {
	BattleID   string
	UserID     string
	AbilityKey string
}

// PerformDefendInput defines a defensive stance
type PerformDefendInput struct {
	BattleID string
	UserID   string
}

// PerformActionOutput defines the result of a player action
type PerformActionOutput struct {
	Battle *entities.Battle
	// Attack is set for ATTACK and SPELL actions
	Attack *combat.AttackResult
	// Ended reports whether this action finished the battle
	Ended   bool
	Rewards *progression.AwardProgressionRewardsOutput
}

// TimeoutTurnInput defines a turn timeout request. ObservedLastActionAt is
// the LastActionAt the caller saw; the timeout is rejected when the battle
// has moved on since. A zero value skips that comparison.
type TimeoutTurnInput struct {
	BattleID             string
	ObservedLastActionAt time.Time
}

// TimeoutTurnOutput defines the result of a turn timeout
type TimeoutTurnOutput struct {
	Battle         *entities.Battle
	TimedOutUserID string
	Ended          bool
	Rewards        *progression.AwardProgressionRewardsOutput
}

// ExpireChallengeInput defines the request for expiring a stale challenge
type ExpireChallengeInput struct {
	BattleID string
}

// ExpireChallengeOutput defines the result of expiring a challenge
type ExpireChallengeOutput struct {
	Battle *entities.Battle
}

// GetBattleInput defines the request for reading a battle
type GetBattleInput struct {
	BattleID string
}

// GetBattleOutput defines the response for reading a battle
type GetBattleOutput struct {
	Battle *entities.Battle
}

// FindPendingBattleForOpponentInput defines the lookup of a challenge
// awaiting the user's answer
type FindPendingBattleForOpponentInput struct {
	GuildID string
	UserID  string
}

// FindPendingBattleForOpponentOutput defines the pending challenge found
type FindPendingBattleForOpponentOutput struct {
	Battle *entities.Battle
}

// FindActiveBattleForUserInput defines the lookup of a user's running battle
type FindActiveBattleForUserInput struct {
	GuildID string
	UserID  string
}

// FindActiveBattleForUserOutput defines the running battle found
type FindActiveBattleForUserOutput struct {
	Battle *entities.Battle
}

// ListBattlesInput defines the request for listing open battles
type ListBattlesInput struct {
	// Status must be PENDING or ACTIVE
	Status entities.BattleStatus
}

// ListBattlesOutput defines the open battles in a status, oldest first
type ListBattlesOutput struct {
	Battles []*entities.Battle
}
