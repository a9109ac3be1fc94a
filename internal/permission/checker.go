// Package permission answers whether a user may perform administrative
// battle operations.
package permission

//go:generate mockgen -destination=mock/mock_checker.go -package=permissionmock github.com/KirkDiggler/rpg-battle/internal/permission Checker

import (
	"context"
	"slices"
)

// Checker is implemented by the host platform's permission system
type Checker interface {
	HasAdminPermission(ctx context.Context, guildID, userID string) (bool, error)
}

// StaticConfig lists admins. Global admins are admins of every guild.
type StaticConfig struct {
	GlobalUserIDs []string
	GuildUserIDs  map[string][]string
}

var _ Checker = (*Static)(nil)

// Static is a Checker backed by a fixed allow-list
type Static struct {
	global []string
	guilds map[string][]string
}

// NewStatic creates a Static checker. A nil config denies everyone.
func NewStatic(cfg *StaticConfig) *Static {
	if cfg == nil {
		return &Static{guilds: map[string][]string{}}
	}
	guilds := make(map[string][]string, len(cfg.GuildUserIDs))
	for guild, users := range cfg.GuildUserIDs {
		guilds[guild] = slices.Clone(users)
	}
	return &Static{
		global: slices.Clone(cfg.GlobalUserIDs),
		guilds: guilds,
	}
}

// HasAdminPermission implements Checker
func (s *Static) HasAdminPermission(_ context.Context, guildID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return slices.Contains(s.global, userID) || slices.Contains(s.guilds[guildID], userID), nil
}
