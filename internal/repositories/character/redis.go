package character

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	"github.com/KirkDiggler/rpg-battle/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/rpg-battle/internal/redis"
)

const (
	characterKeyPrefix   = "character:"
	guildIndexPrefix     = "character:guild:"
	abilitiesKeyPrefix   = "character:abilities:"
	leaderboardKeyPrefix = "character:leaderboard:"

	errCharacterNil = "character cannot be nil"
	errGuildIDEmpty = "guild ID cannot be empty"
	errUserIDEmpty  = "user ID cannot be empty"
)

var _ Repository = (*redisRepository)(nil)

type redisRepository struct {
	client     redisclient.Client
	clock      clock.Clock
	maxRetries int
}

// RedisConfig contains configuration for the Redis character repository.
type RedisConfig struct {
	Client redisclient.Client
	Clock  clock.Clock
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
	return nil
}

// NewRedis creates a new Redis-backed character repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &redisRepository{
		client:     cfg.Client,
		clock:      c,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func characterKey(guildID, userID string) string {
	return characterKeyPrefix + entities.CharacterID(guildID, userID)
}

func abilitiesKey(guildID, userID string) string {
	return abilitiesKeyPrefix + entities.CharacterID(guildID, userID)
}

func leaderboardKey(guildID string, m Metric) string {
	return leaderboardKeyPrefix + guildID + ":" + string(m)
}

func validateIDs(guildID, userID string) error {
	if guildID == "" {
		return errors.InvalidArgument(errGuildIDEmpty)
	}
	if userID == "" {
		return errors.InvalidArgument(errUserIDEmpty)
	}
	return nil
}

// queueIndexes writes the guild membership and every leaderboard score
func queueIndexes(ctx context.Context, pipe redis.Pipeliner, c *entities.Character) {
	pipe.SAdd(ctx, guildIndexPrefix+c.GuildID, c.UserID)
	for _, m := range Metrics {
		pipe.ZAdd(ctx, leaderboardKey(c.GuildID, m), redis.Z{Score: m.Score(c), Member: c.UserID})
	}
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Character == nil {
		return nil, errors.InvalidArgument(errCharacterNil)
	}
	c := input.Character
	if err := validateIDs(c.GuildID, c.UserID); err != nil {
		return nil, err
	}

	key := characterKey(c.GuildID, c.UserID)

	now := r.clock.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal character data")
	}

	err = redisclient.Transact(ctx, r.client, r.maxRetries, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return errors.Wrapf(err, "failed to check existence")
		}
		if exists > 0 {
			return errors.AlreadyExistsf("user %s already has a character in guild %s", c.UserID, c.GuildID)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			queueIndexes(ctx, pipe, c)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, r.wrapTxError(err, "failed to create character")
	}

	return &CreateOutput{Character: c}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if err := validateIDs(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	result, err := r.client.Get(ctx, characterKey(input.GuildID, input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("character for user %s in guild %s not found", input.UserID, input.GuildID)
		}
		return nil, errors.Wrapf(err, "failed to get character")
	}

	var c entities.Character
	if err := json.Unmarshal([]byte(result), &c); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal character data")
	}

	return &GetOutput{Character: &c}, nil
}

func (r *redisRepository) Exists(ctx context.Context, input ExistsInput) (*ExistsOutput, error) {
	if err := validateIDs(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	n, err := r.client.Exists(ctx, characterKey(input.GuildID, input.UserID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}

	return &ExistsOutput{Exists: n > 0}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if err := validateIDs(input.GuildID, input.UserID); err != nil {
		return nil, err
	}
	if input.Mutate == nil {
		return nil, errors.InvalidArgument("mutate function cannot be nil")
	}

	key := characterKey(input.GuildID, input.UserID)
	var updated *entities.Character

	err := redisclient.Transact(ctx, r.client, r.maxRetries, func(tx *redis.Tx) error {
		result, err := tx.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				return errors.NotFoundf("character for user %s in guild %s not found", input.UserID, input.GuildID)
			}
			return errors.Wrapf(err, "failed to get character")
		}

		var c entities.Character
		if err := json.Unmarshal([]byte(result), &c); err != nil {
			return errors.Wrapf(err, "failed to unmarshal character data")
		}

		if err := input.Mutate(&c); err != nil {
			return err
		}
		// identity is immutable
		c.GuildID, c.UserID = input.GuildID, input.UserID
		c.UpdatedAt = r.clock.Now()

		data, err := json.Marshal(&c)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal character data")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			queueIndexes(ctx, pipe, &c)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &c
		return nil
	}, key)
	if err != nil {
		return nil, r.wrapTxError(err, "failed to update character")
	}

	return &UpdateOutput{Character: updated}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if err := validateIDs(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	key := characterKey(input.GuildID, input.UserID)

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, key)
	pipe.Del(ctx, abilitiesKey(input.GuildID, input.UserID))
	pipe.SRem(ctx, guildIndexPrefix+input.GuildID, input.UserID)
	for _, m := range Metrics {
		pipe.ZRem(ctx, leaderboardKey(input.GuildID, m), input.UserID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete character")
	}
	if del.Val() == 0 {
		return nil, errors.NotFoundf("character for user %s in guild %s not found", input.UserID, input.GuildID)
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) ListByGuild(ctx context.Context, input ListByGuildInput) (*ListByGuildOutput, error) {
	if input.GuildID == "" {
		return nil, errors.InvalidArgument(errGuildIDEmpty)
	}

	userIDs, err := r.client.SMembers(ctx, guildIndexPrefix+input.GuildID).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get guild index")
	}
	slices.Sort(userIDs)

	characters, err := r.getMany(ctx, input.GuildID, userIDs)
	if err != nil {
		return nil, err
	}

	return &ListByGuildOutput{Characters: characters}, nil
}

func (r *redisRepository) AddAbility(ctx context.Context, input AddAbilityInput) (*AddAbilityOutput, error) {
	link := input.Link
	if link == nil {
		return nil, errors.InvalidArgument("link cannot be nil")
	}
	if err := validateIDs(link.GuildID, link.UserID); err != nil {
		return nil, err
	}
	if link.AbilityKey == "" {
		return nil, errors.InvalidArgument("ability key cannot be empty")
	}
	if link.LearnedAt.IsZero() {
		link.LearnedAt = r.clock.Now()
	}

	added, err := r.client.ZAddNX(ctx, abilitiesKey(link.GuildID, link.UserID), redis.Z{
		Score:  float64(link.LearnedAt.UnixMilli()),
		Member: link.AbilityKey,
	}).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to add ability")
	}
	if added == 0 {
		return nil, errors.AlreadyExistsf("ability %s already learned", link.AbilityKey)
	}

	return &AddAbilityOutput{Link: link}, nil
}

func (r *redisRepository) ListAbilities(ctx context.Context, input ListAbilitiesInput) (*ListAbilitiesOutput, error) {
	if err := validateIDs(input.GuildID, input.UserID); err != nil {
		return nil, err
	}

	members, err := r.client.ZRangeWithScores(ctx, abilitiesKey(input.GuildID, input.UserID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list abilities")
	}

	links := make([]*entities.CharacterAbility, 0, len(members))
	for _, m := range members {
		key, ok := m.Member.(string)
		if !ok {
			continue
		}
		links = append(links, &entities.CharacterAbility{
			GuildID:    input.GuildID,
			UserID:     input.UserID,
			AbilityKey: key,
			LearnedAt:  time.UnixMilli(int64(m.Score)).UTC(),
		})
	}

	return &ListAbilitiesOutput{Links: links}, nil
}

func (r *redisRepository) Leaderboard(ctx context.Context, input LeaderboardInput) (*LeaderboardOutput, error) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("GuildID", input.GuildID, vb)
	if !slices.Contains(Metrics, input.Metric) {
		vb.Fieldf("Metric", "unknown metric %q", input.Metric)
	}
	if input.Offset < 0 {
		vb.Field("Offset", "must not be negative")
	}
	errors.ValidatePositive("Limit", input.Limit, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	key := leaderboardKey(input.GuildID, input.Metric)

	total, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to count leaderboard")
	}

	start := int64(input.Offset)
	stop := start + int64(input.Limit) - 1
	userIDs, err := r.client.ZRevRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read leaderboard")
	}

	characters, err := r.getMany(ctx, input.GuildID, userIDs)
	if err != nil {
		return nil, err
	}

	return &LeaderboardOutput{Characters: characters, Total: total}, nil
}

// getMany loads characters in the order of userIDs, skipping ids whose record
// has disappeared
func (r *redisRepository) getMany(ctx context.Context, guildID string, userIDs []string) ([]*entities.Character, error) {
	if len(userIDs) == 0 {
		return []*entities.Character{}, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = characterKey(guildID, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get characters")
	}

	characters := make([]*entities.Character, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			slog.WarnContext(ctx, "character index points at missing record",
				"guild_id", guildID,
				"user_id", userIDs[i])
			continue
		}
		var c entities.Character
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			slog.ErrorContext(ctx, "failed to unmarshal character from index",
				"guild_id", guildID,
				"user_id", userIDs[i],
				"error", err)
			continue
		}
		characters = append(characters, &c)
	}

	return characters, nil
}

// wrapTxError keeps coded errors from the transaction body and wraps raw
// storage failures
func (r *redisRepository) wrapTxError(err error, message string) error {
	var coded *errors.Error
	if errors.As(err, &coded) {
		return err
	}
	return errors.Wrap(err, message)
}
