package redis

import (
	"context"
	"time"

	red "github.com/go-redis/redis/v9"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
)

const LEDGER_KEY string = "LEDGER"

var _ persistence.LedgerStore = new(redisLedgerStore)

// redisLedgerStore keeps one key per processed message so redis expiry does
// the TTL cleanup.
type redisLedgerStore struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.ProcessedMessage]
}

func NewRedisLedgerStore(conf Config) *redisLedgerStore {
	return &redisLedgerStore{
		baseDao:        newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.ProcessedMessage](),
	}
}

func (r *redisLedgerStore) GetProcessed(ctx context.Context, messageID string) (*model.ProcessedMessage, error) {
	key := r.baseDao.getNamespaceKey(LEDGER_KEY, messageID)
	recStr, err := r.baseDao.redisClient.Get(ctx, key).Result()
	if err == red.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.encoderDecoder.Decode([]byte(recStr))
}

func (r *redisLedgerStore) PutProcessed(ctx context.Context, rec *model.ProcessedMessage, ttl time.Duration) error {
	key := r.baseDao.getNamespaceKey(LEDGER_KEY, rec.MessageID)
	data, err := r.encoderDecoder.Encode(*rec)
	if err != nil {
		return err
	}
	if err := r.baseDao.redisClient.Set(ctx, key, data, ttl).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
