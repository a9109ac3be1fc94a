package progression

import (
	"time"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
)

// ChatXPStatus reports what AwardChatXP did
type ChatXPStatus string

// Chat XP outcomes
const (
	ChatXPAwarded     ChatXPStatus = "AWARDED"
	ChatXPDisabled    ChatXPStatus = "DISABLED"
	ChatXPNoCharacter ChatXPStatus = "NO_CHARACTER"
	ChatXPOnCooldown  ChatXPStatus = "ON_COOLDOWN"
)

// ChatXPConfig configures chat activity rewards
type ChatXPConfig struct {
	Enabled bool
	// Base is always granted; a uniform bonus in [0, BonusMax] is added
	Base     int64
	BonusMax int
	Cooldown time.Duration
	// AutoCreate gives users without a character a default Warrior
	AutoCreate bool
}

// AwardProgressionRewardsInput identifies the participants of a finished
// battle. When IsDraw is true the winner/loser distinction is ignored.
type AwardProgressionRewardsInput struct {
	GuildID  string
	WinnerID string
	LoserID  string
	IsDraw   bool
}

// ParticipantResult describes how one character changed
type ParticipantResult struct {
	UserID      string
	EloBefore   int
	EloAfter    int
	EloDelta    int
	XPGained    int64
	LevelBefore int
	LevelAfter  int
}

// LeveledUp reports whether the character gained a level
func (p *ParticipantResult) LeveledUp() bool {
	return p.LevelAfter > p.LevelBefore
}

// AwardProgressionRewardsOutput defines the output of AwardProgressionRewards
type AwardProgressionRewardsOutput struct {
	// Skipped is true when a participant had no character
	Skipped bool
	Winner  *ParticipantResult
	Loser   *ParticipantResult
}

// AwardChatXPInput identifies the chatting user
type AwardChatXPInput struct {
	GuildID string
	UserID  string
}

// AwardChatXPOutput defines the output of AwardChatXP
type AwardChatXPOutput struct {
	Status      ChatXPStatus
	XPAwarded   int64
	LevelBefore int
	LevelAfter  int
	Created     bool
	// CooldownRemaining is set when Status is ON_COOLDOWN
	CooldownRemaining time.Duration
	Character         *entities.Character
}

// LeveledUp reports whether the award crossed a level threshold
func (o *AwardChatXPOutput) LeveledUp() bool {
	return o.LevelAfter > o.LevelBefore
}
