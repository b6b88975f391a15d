package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bu-online/assistant/internal/assistant/model"
	errx "github.com/bu-online/assistant/internal/core/error"
	logx "github.com/bu-online/assistant/pkg/logger"
)

type RedisStateStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStateStore(rdb redis.Cmdable, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStateStore) stateKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:state", conversationID)
}

func (r *RedisStateStore) Load(ctx context.Context, conversationID string) (model.Conversation, error) {
	key := r.stateKey(conversationID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errx.IsRedisNil(err) {
			return model.IdleConversation(), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation state from redis")
		return model.IdleConversation(), errx.WrapRedis(err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to unmarshal conversation state")
		return model.IdleConversation(), errx.New(errx.StorageFailure, err, "unmarshal conversation state")
	}
	return conv, nil
}

// Save overwrites the state and extends its TTL in a single SET.
func (r *RedisStateStore) Save(ctx context.Context, conversationID string, conv model.Conversation) error {
	if conv.State == model.Idle {
		return r.Reset(ctx, conversationID)
	}

	b, err := json.Marshal(conv)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to marshal conversation state")
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	key := r.stateKey(conversationID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save conversation state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStateStore) Reset(ctx context.Context, conversationID string) error {
	key := r.stateKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.StateStore = (*RedisStateStore)(nil)
