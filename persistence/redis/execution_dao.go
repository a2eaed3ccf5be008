package redis

import (
	"context"

	red "github.com/go-redis/redis/v9"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
)

const EXECUTION_KEY string = "EXECUTION"

var _ persistence.ExecutionStore = new(redisExecutionStore)

type redisExecutionStore struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.WorkflowExecution]
}

func NewRedisExecutionStore(conf Config) *redisExecutionStore {
	return &redisExecutionStore{
		baseDao:        newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.WorkflowExecution](),
	}
}

func (r *redisExecutionStore) SaveExecution(ctx context.Context, exec *model.WorkflowExecution) error {
	key := r.baseDao.getNamespaceKey(EXECUTION_KEY)
	data, err := r.encoderDecoder.Encode(*exec)
	if err != nil {
		return err
	}
	if err := r.baseDao.redisClient.HSet(ctx, key, []string{exec.ExecutionID, string(data)}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisExecutionStore) GetExecution(ctx context.Context, executionID string) (*model.WorkflowExecution, error) {
	key := r.baseDao.getNamespaceKey(EXECUTION_KEY)
	execStr, err := r.baseDao.redisClient.HGet(ctx, key, executionID).Result()
	if err == red.Nil {
		return nil, model.NotFoundError{Kind: "execution", Key: executionID}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.encoderDecoder.Decode([]byte(execStr))
}
