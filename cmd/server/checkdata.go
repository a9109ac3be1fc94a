package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	redisclient "github.com/KirkDiggler/rpg-battle/internal/redis"
)

// Index keys share the record prefixes but never hold JSON records
var indexPrefixes = []string{
	"battle:status:",
	"battle:user:",
	"battle:guild:",
	"battle:cooldown:",
	"character:guild:",
	"character:abilities:",
	"character:leaderboard:",
}

var deleteCorrupted bool

var checkDataCmd = &cobra.Command{
	Use:   "check-data",
	Short: "Scan stored battles and characters for corrupted records",
	RunE:  runCheckData,
}

func init() {
	checkDataCmd.Flags().BoolVar(&deleteCorrupted, "delete", false, "offer to delete corrupted records")
	rootCmd.AddCommand(checkDataCmd)
}

// corruptRecord is a stored record that no longer decodes
type corruptRecord struct {
	Key    string
	Reason string
}

func runCheckData(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	checked, corrupted, err := findCorrupted(ctx, a.redis)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Checked %d records, found %d corrupted\n", checked, len(corrupted))
	for _, c := range corrupted {
		fmt.Fprintf(out, "  - %s: %s\n", c.Key, c.Reason)
	}
	if len(corrupted) == 0 || !deleteCorrupted {
		return nil
	}

	fmt.Fprint(out, "Delete these records? (yes/no): ")
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if strings.TrimSpace(answer) != "yes" {
		fmt.Fprintln(out, "Aborted, no changes made")
		return nil
	}

	for _, c := range corrupted {
		if err := a.redis.Del(ctx, c.Key).Err(); err != nil {
			return errors.Wrapf(err, "failed to delete %s", c.Key)
		}
		fmt.Fprintf(out, "Deleted %s\n", c.Key)
	}
	return nil
}

// findCorrupted returns how many records were checked and which failed to
// decode into a usable battle or character
func findCorrupted(ctx context.Context, client redisclient.Client) (int, []corruptRecord, error) {
	var (
		checked   int
		corrupted []corruptRecord
	)

	for _, pattern := range []string{"battle:*", "character:*"} {
		iter := client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			if isIndexKey(key) {
				continue
			}
			checked++

			data, err := client.Get(ctx, key).Result()
			if err != nil {
				corrupted = append(corrupted, corruptRecord{Key: key, Reason: err.Error()})
				continue
			}

			if reason := checkRecord(key, []byte(data)); reason != "" {
				corrupted = append(corrupted, corruptRecord{Key: key, Reason: reason})
			}
		}
		if err := iter.Err(); err != nil {
			return checked, corrupted, errors.Wrapf(err, "failed to scan %s", pattern)
		}
	}

	return checked, corrupted, nil
}

func isIndexKey(key string) bool {
	for _, prefix := range indexPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func checkRecord(key string, data []byte) string {
	if strings.HasPrefix(key, "battle:") {
		var b entities.Battle
		if err := json.Unmarshal(data, &b); err != nil {
			return "invalid JSON"
		}
		if b.ID == "" || b.GuildID == "" {
			return "missing identifiers"
		}
		switch b.Status {
		case entities.BattleStatusPending, entities.BattleStatusActive,
			entities.BattleStatusCompleted, entities.BattleStatusForfeited,
			entities.BattleStatusTimeout, entities.BattleStatusAborted,
			entities.BattleStatusDeclined, entities.BattleStatusExpired:
			return ""
		default:
			return fmt.Sprintf("unknown status %q", b.Status)
		}
	}

	var c entities.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return "invalid JSON"
	}
	if c.GuildID == "" || c.UserID == "" {
		return "missing identifiers"
	}
	return ""
}
