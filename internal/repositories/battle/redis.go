package battle

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/rpg-battle/internal/redis"
)

const (
	battleKeyPrefix   = "battle:"
	statusIndexPrefix = "battle:status:"
	userIndexPrefix   = "battle:user:"
	guildIndexPrefix  = "battle:guild:"
	cooldownKeyPrefix = "battle:cooldown:"

	// DefaultRetention is how long terminal battles stay readable
	DefaultRetention = 24 * time.Hour

	errBattleNil     = "battle cannot be nil"
	errBattleIDEmpty = "battle ID cannot be empty"
)

var _ Repository = (*redisRepository)(nil)

type redisRepository struct {
	client     redisclient.Client
	clock      clock.Clock
	retention  time.Duration
	maxRetries int
}

// RedisConfig contains configuration for the Redis battle repository.
type RedisConfig struct {
	Client redisclient.Client
	Clock  clock.Clock
	// Retention is how long terminal battles are kept; zero uses DefaultRetention
	Retention time.Duration
	// MaxRetries bounds optimistic update retries; zero uses the default
	MaxRetries int
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	if cfg.Retention < 0 {
		return errors.InvalidArgument("retention cannot be negative")
	}
	return nil
}

// NewRedis creates a new Redis-backed battle repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}

	return &redisRepository{
		client:     cfg.Client,
		clock:      c,
		retention:  retention,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func battleKey(id string) string {
	return battleKeyPrefix + id
}

func statusKey(status entities.BattleStatus) string {
	return statusIndexPrefix + string(status)
}

func userKey(guildID, userID string) string {
	return userIndexPrefix + guildID + ":" + userID
}

func guildKey(guildID string) string {
	return guildIndexPrefix + guildID
}

func cooldownKey(guildID, userID string) string {
	return cooldownKeyPrefix + guildID + ":" + userID
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	b := input.Battle
	if b == nil {
		return nil, errors.InvalidArgument(errBattleNil)
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("ID", b.ID, vb)
	errors.ValidateRequired("GuildID", b.GuildID, vb)
	errors.ValidateRequired("ChallengerID", b.ChallengerID, vb)
	errors.ValidateRequired("OpponentID", b.OpponentID, vb)
	if b.ChallengerID != "" && b.ChallengerID == b.OpponentID {
		vb.Field("OpponentID", "must differ from ChallengerID")
	}
	if b.Status != entities.BattleStatusPending {
		vb.Fieldf("Status", "must be %s", entities.BattleStatusPending)
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	participants := []string{b.ChallengerID, b.OpponentID}
	watched := []string{battleKey(b.ID), guildKey(b.GuildID)}
	for _, uid := range participants {
		watched = append(watched, userKey(b.GuildID, uid), cooldownKey(b.GuildID, uid))
	}

	err := redisclient.Transact(ctx, r.client, r.maxRetries, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, battleKey(b.ID)).Result()
		if err != nil {
			return errors.Wrap(err, "failed to check existence")
		}
		if exists > 0 {
			return errors.AlreadyExistsf("battle %s already exists", b.ID)
		}

		for _, uid := range participants {
			remaining, err := r.cooldownRemaining(ctx, tx, b.GuildID, uid)
			if err != nil {
				return err
			}
			if remaining > 0 {
				secs := int(math.Ceil(remaining.Seconds()))
				return errors.IllegalStatef(ReasonOnCooldown,
					"user %s is on cooldown for %d more seconds", uid, secs).
					WithMeta("user_id", uid).
					WithMeta("remaining_seconds", secs)
			}
		}

		for _, uid := range participants {
			n, err := tx.Exists(ctx, userKey(b.GuildID, uid)).Result()
			if err != nil {
				return errors.Wrap(err, "failed to check participant")
			}
			if n > 0 {
				return errors.IllegalStatef(ReasonParticipantBusy,
					"user %s already has an open battle", uid).
					WithMeta("user_id", uid)
			}
		}

		if input.MaxOpenPerGuild > 0 {
			open, err := tx.SCard(ctx, guildKey(b.GuildID)).Result()
			if err != nil {
				return errors.Wrap(err, "failed to count guild battles")
			}
			if open >= int64(input.MaxOpenPerGuild) {
				return errors.IllegalStatef(ReasonGuildAtCapacity,
					"guild already has %d open battles", open)
			}
		}

		data, err := json.Marshal(b)
		if err != nil {
			return errors.Wrap(err, "failed to marshal battle")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, battleKey(b.ID), data, 0)
			pipe.SAdd(ctx, statusKey(b.Status), b.ID)
			pipe.SAdd(ctx, guildKey(b.GuildID), b.ID)
			for _, uid := range participants {
				pipe.Set(ctx, userKey(b.GuildID, uid), b.ID, 0)
			}
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		return nil, wrapTxError(err, "failed to create battle")
	}

	return &CreateOutput{Battle: b}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errBattleIDEmpty)
	}

	b, err := r.load(ctx, r.client, input.ID)
	if err != nil {
		return nil, err
	}

	return &GetOutput{Battle: b}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errBattleIDEmpty)
	}
	if input.Mutate == nil {
		return nil, errors.InvalidArgument("mutate function cannot be nil")
	}

	key := battleKey(input.ID)
	var (
		updated  *entities.Battle
		previous entities.BattleStatus
	)

	err := redisclient.Transact(ctx, r.client, r.maxRetries, func(tx *redis.Tx) error {
		b, err := r.load(ctx, tx, input.ID)
		if err != nil {
			return err
		}
		prev := b.Status

		if err := input.Mutate(b); err != nil {
			return err
		}
		b.ID = input.ID
		b.Version++

		data, err := json.Marshal(b)
		if err != nil {
			return errors.Wrap(err, "failed to marshal battle")
		}

		ending := !prev.IsTerminal() && b.Status.IsTerminal()

		// only release index entries that still point at this battle
		var release []string
		if ending {
			for _, uid := range []string{b.ChallengerID, b.OpponentID} {
				owner, err := tx.Get(ctx, userKey(b.GuildID, uid)).Result()
				if err != nil && err != redis.Nil {
					return errors.Wrap(err, "failed to read participant index")
				}
				if owner == b.ID {
					release = append(release, userKey(b.GuildID, uid))
				}
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			switch {
			case ending:
				pipe.Set(ctx, key, data, r.retention)
			case b.Status.IsTerminal():
				pipe.Set(ctx, key, data, redis.KeepTTL)
			default:
				pipe.Set(ctx, key, data, 0)
			}

			if prev != b.Status {
				if !prev.IsTerminal() {
					pipe.SRem(ctx, statusKey(prev), b.ID)
				}
				if !b.Status.IsTerminal() {
					pipe.SAdd(ctx, statusKey(b.Status), b.ID)
				}
			}

			if ending {
				pipe.SRem(ctx, guildKey(b.GuildID), b.ID)
				if len(release) > 0 {
					pipe.Del(ctx, release...)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		updated, previous = b, prev
		return nil
	}, key)
	if err != nil {
		return nil, wrapTxError(err, "failed to update battle")
	}

	return &UpdateOutput{Battle: updated, PreviousStatus: previous}, nil
}

func (r *redisRepository) ListByStatus(ctx context.Context, input ListByStatusInput) (*ListByStatusOutput, error) {
	if input.Status != entities.BattleStatusPending && input.Status != entities.BattleStatusActive {
		return nil, errors.InvalidArgumentf("status %s is not indexed", input.Status)
	}

	ids, err := r.client.SMembers(ctx, statusKey(input.Status)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s index", input.Status)
	}
	if len(ids) == 0 {
		return &ListByStatusOutput{Battles: []*entities.Battle{}}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = battleKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get battles")
	}

	battles := make([]*entities.Battle, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			slog.WarnContext(ctx, "status index points at missing battle",
				"battle_id", ids[i],
				"status", input.Status)
			continue
		}
		var b entities.Battle
		if err := json.Unmarshal([]byte(s), &b); err != nil {
			slog.ErrorContext(ctx, "failed to unmarshal battle from index",
				"battle_id", ids[i],
				"error", err)
			continue
		}
		// the index is updated in the same transaction as the record, but a
		// reader can still see a record that moved on after SMEMBERS
		if b.Status != input.Status {
			continue
		}
		battles = append(battles, &b)
	}

	sort.Slice(battles, func(i, j int) bool {
		if battles[i].CreatedAt.Equal(battles[j].CreatedAt) {
			return battles[i].ID < battles[j].ID
		}
		return battles[i].CreatedAt.Before(battles[j].CreatedAt)
	})

	return &ListByStatusOutput{Battles: battles}, nil
}

func (r *redisRepository) FindOpenForUser(ctx context.Context, input FindOpenForUserInput) (*FindOpenForUserOutput, error) {
	if input.GuildID == "" || input.UserID == "" {
		return nil, errors.InvalidArgument("guild ID and user ID are required")
	}

	id, err := r.client.Get(ctx, userKey(input.GuildID, input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("user %s has no open battle", input.UserID)
		}
		return nil, errors.Wrap(err, "failed to read participant index")
	}

	b, err := r.load(ctx, r.client, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFoundf("user %s has no open battle", input.UserID)
		}
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, errors.NotFoundf("user %s has no open battle", input.UserID)
	}

	return &FindOpenForUserOutput{Battle: b}, nil
}

func (r *redisRepository) StartCooldown(ctx context.Context, input StartCooldownInput) (*StartCooldownOutput, error) {
	if input.GuildID == "" {
		return nil, errors.InvalidArgument("guild ID is required")
	}
	if input.Duration <= 0 || len(input.UserIDs) == 0 {
		return &StartCooldownOutput{}, nil
	}

	until := r.clock.Now().Add(input.Duration).UnixMilli()

	pipe := r.client.TxPipeline()
	for _, uid := range input.UserIDs {
		pipe.Set(ctx, cooldownKey(input.GuildID, uid), until, input.Duration)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to start cooldown")
	}

	return &StartCooldownOutput{}, nil
}

func (r *redisRepository) GetCooldown(ctx context.Context, input GetCooldownInput) (*GetCooldownOutput, error) {
	if input.GuildID == "" || input.UserID == "" {
		return nil, errors.InvalidArgument("guild ID and user ID are required")
	}

	remaining, err := r.cooldownRemaining(ctx, r.client, input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}

	return &GetCooldownOutput{Remaining: remaining}, nil
}

// cooldownRemaining measures against the injected clock; the key TTL only
// garbage-collects
func (r *redisRepository) cooldownRemaining(ctx context.Context, cmd redis.Cmdable, guildID, userID string) (time.Duration, error) {
	raw, err := cmd.Get(ctx, cooldownKey(guildID, userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read cooldown")
	}

	until, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "malformed cooldown")
	}

	remaining := time.UnixMilli(until).Sub(r.clock.Now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (r *redisRepository) load(ctx context.Context, cmd redis.Cmdable, id string) (*entities.Battle, error) {
	raw, err := cmd.Get(ctx, battleKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("battle %s not found", id)
		}
		return nil, errors.Wrap(err, "failed to get battle")
	}

	var b entities.Battle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal battle")
	}
	return &b, nil
}

func wrapTxError(err error, message string) error {
	var coded *errors.Error
	if errors.As(err, &coded) {
		return err
	}
	return errors.Wrap(err, message)
}
