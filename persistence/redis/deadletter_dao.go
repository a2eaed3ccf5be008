package redis

import (
	"context"

	red "github.com/go-redis/redis/v9"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
)

const DEAD_LETTER_KEY string = "DEADLETTER"
const DEAD_LETTER_INDEX_KEY string = "DEADLETTER_INDEX"

var _ persistence.DeadLetterStore = new(redisDeadLetterStore)

// redisDeadLetterStore stores records in a hash keyed by message id plus a
// recency list for operator listing.
type redisDeadLetterStore struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.DeadLetterMessage]
}

func NewRedisDeadLetterStore(conf Config) *redisDeadLetterStore {
	return &redisDeadLetterStore{
		baseDao:        newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.DeadLetterMessage](),
	}
}

func (r *redisDeadLetterStore) SaveDeadLetter(ctx context.Context, msg *model.DeadLetterMessage) error {
	key := r.baseDao.getNamespaceKey(DEAD_LETTER_KEY)
	indexKey := r.baseDao.getNamespaceKey(DEAD_LETTER_INDEX_KEY)
	data, err := r.encoderDecoder.Encode(*msg)
	if err != nil {
		return err
	}
	created, err := r.baseDao.redisClient.HSetNX(ctx, key, msg.MessageID, string(data)).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if created {
		if err := r.baseDao.redisClient.LPush(ctx, indexKey, msg.MessageID).Err(); err != nil {
			return persistence.StorageLayerError{Message: err.Error()}
		}
		return nil
	}
	if err := r.baseDao.redisClient.HSet(ctx, key, []string{msg.MessageID, string(data)}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisDeadLetterStore) GetDeadLetter(ctx context.Context, messageID string) (*model.DeadLetterMessage, error) {
	key := r.baseDao.getNamespaceKey(DEAD_LETTER_KEY)
	msgStr, err := r.baseDao.redisClient.HGet(ctx, key, messageID).Result()
	if err == red.Nil {
		return nil, model.NotFoundError{Kind: "dead letter", Key: messageID}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.encoderDecoder.Decode([]byte(msgStr))
}

func (r *redisDeadLetterStore) ListDeadLetters(ctx context.Context, limit int64) ([]*model.DeadLetterMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	indexKey := r.baseDao.getNamespaceKey(DEAD_LETTER_INDEX_KEY)
	ids, err := r.baseDao.redisClient.LRange(ctx, indexKey, 0, limit-1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]*model.DeadLetterMessage, 0, len(ids))
	for _, id := range ids {
		msg, err := r.GetDeadLetter(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *redisDeadLetterStore) UpdateDeadLetterStatus(ctx context.Context, messageID string, status model.DeadLetterStatus) error {
	msg, err := r.GetDeadLetter(ctx, messageID)
	if err != nil {
		return err
	}
	msg.Status = status
	data, err := r.encoderDecoder.Encode(*msg)
	if err != nil {
		return err
	}
	key := r.baseDao.getNamespaceKey(DEAD_LETTER_KEY)
	if err := r.baseDao.redisClient.HSet(ctx, key, []string{messageID, string(data)}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
