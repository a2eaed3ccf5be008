package redis

import (
	"context"

	red "github.com/go-redis/redis/v9"
	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
)

const WORKFLOW_KEY string = "WORKFLOW"
const WORKFLOW_BUSINESS_INDEX string = "WF_BUSINESS"
const WORKFLOW_TYPE_INDEX string = "WF_TYPE"
const BUSINESS_KEY string = "BUSINESS"

var _ metadata.Storage = new(redisMetadataStorage)

// redisMetadataStorage keeps workflow records in a hash keyed by workflow id
// plus two index hashes mapping (businessId, intent) and (businessType,
// intent) to the owning workflow id.
type redisMetadataStorage struct {
	*baseDao
	workflowEncDec util.EncoderDecoder[model.WorkflowRecord]
	businessEncDec util.EncoderDecoder[model.Business]
}

func NewRedisMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao:        newBaseDao(conf),
		workflowEncDec: util.NewJsonEncoderDecoder[model.WorkflowRecord](),
		businessEncDec: util.NewJsonEncoderDecoder[model.Business](),
	}
}

func (r *redisMetadataStorage) SaveWorkflow(ctx context.Context, rec *model.WorkflowRecord) error {
	data, err := r.workflowEncDec.Encode(*rec)
	if err != nil {
		return err
	}
	key := r.getNamespaceKey(WORKFLOW_KEY)
	if err := r.redisClient.HSet(ctx, key, []string{rec.WorkflowID, string(data)}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	indexKey, field := r.indexFor(rec)
	if err := r.redisClient.HSet(ctx, indexKey, []string{field, rec.WorkflowID}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisMetadataStorage) indexFor(rec *model.WorkflowRecord) (string, string) {
	if rec.BusinessID != "" {
		return r.getNamespaceKey(WORKFLOW_BUSINESS_INDEX, rec.BusinessID), rec.Intent
	}
	return r.getNamespaceKey(WORKFLOW_TYPE_INDEX, rec.BusinessType), rec.Intent
}

func (r *redisMetadataStorage) GetWorkflow(ctx context.Context, workflowID string) (*model.WorkflowRecord, error) {
	key := r.getNamespaceKey(WORKFLOW_KEY)
	recStr, err := r.redisClient.HGet(ctx, key, workflowID).Result()
	if err == red.Nil {
		return nil, model.NotFoundError{Kind: "workflow", Key: workflowID}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.workflowEncDec.Decode([]byte(recStr))
}

func (r *redisMetadataStorage) DeleteWorkflow(ctx context.Context, workflowID string) error {
	rec, err := r.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}
	indexKey, field := r.indexFor(rec)
	if err := r.redisClient.HDel(ctx, indexKey, field).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	key := r.getNamespaceKey(WORKFLOW_KEY)
	if err := r.redisClient.HDel(ctx, key, workflowID).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisMetadataStorage) GetByBusinessAndIntent(ctx context.Context, businessID string, intent string) (*model.WorkflowRecord, error) {
	return r.lookupIndex(ctx, r.getNamespaceKey(WORKFLOW_BUSINESS_INDEX, businessID), intent)
}

func (r *redisMetadataStorage) GetDefaultForType(ctx context.Context, businessType string, intent string) (*model.WorkflowRecord, error) {
	return r.lookupIndex(ctx, r.getNamespaceKey(WORKFLOW_TYPE_INDEX, businessType), intent)
}

func (r *redisMetadataStorage) lookupIndex(ctx context.Context, indexKey string, intent string) (*model.WorkflowRecord, error) {
	workflowID, err := r.redisClient.HGet(ctx, indexKey, intent).Result()
	if err == red.Nil {
		return nil, model.NotFoundError{Kind: "workflow", Key: intent}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.GetWorkflow(ctx, workflowID)
}

func (r *redisMetadataStorage) GetBusiness(ctx context.Context, businessID string) (*model.Business, error) {
	key := r.getNamespaceKey(BUSINESS_KEY)
	recStr, err := r.redisClient.HGet(ctx, key, businessID).Result()
	if err == red.Nil {
		return nil, model.NotFoundError{Kind: "business", Key: businessID}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.businessEncDec.Decode([]byte(recStr))
}

func (r *redisMetadataStorage) SaveBusiness(ctx context.Context, business *model.Business) error {
	data, err := r.businessEncDec.Encode(*business)
	if err != nil {
		return err
	}
	key := r.getNamespaceKey(BUSINESS_KEY)
	if err := r.redisClient.HSet(ctx, key, []string{business.BusinessID, string(data)}).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
