package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"go.uber.org/zap"
)

const resolveCacheTTL = 5 * time.Minute

type Service interface {
	// Resolve returns the workflow for (businessID, intent) walking the
	// fallback chain: business+intent, business+UNKNOWN, type default for
	// the intent, type default for UNKNOWN. model.NotFoundError when the
	// business does not exist or every level misses.
	Resolve(ctx context.Context, businessID string, intentName string) (*model.ResolvedWorkflow, error)
	Validate(definition *model.WorkflowDefinition) error
	SaveWorkflow(ctx context.Context, rec *model.WorkflowRecord) error
	DeleteWorkflow(ctx context.Context, workflowID string) error
	GetStorage() Storage
}

type serviceImpl struct {
	storage Storage
	cache   *gocache.Cache
}

func NewService(storage Storage) Service {
	return &serviceImpl{
		storage: storage,
		cache:   gocache.New(resolveCacheTTL, 10*time.Minute),
	}
}

func (s *serviceImpl) Resolve(ctx context.Context, businessID string, intentName string) (*model.ResolvedWorkflow, error) {
	cacheKey := fmt.Sprintf("%s:%s", businessID, intentName)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.ResolvedWorkflow), nil
	}
	business, err := s.storage.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	rec, err := s.lookup(ctx, business, intentName)
	if err != nil {
		return nil, err
	}
	resolved := &model.ResolvedWorkflow{
		WorkflowID:  rec.WorkflowID,
		WorkflowKey: rec.Key,
		Definition:  rec.Definition,
	}
	s.cache.Set(cacheKey, resolved, resolveCacheTTL)
	return resolved, nil
}

func (s *serviceImpl) lookup(ctx context.Context, business *model.Business, intentName string) (*model.WorkflowRecord, error) {
	lookups := []func() (*model.WorkflowRecord, error){
		func() (*model.WorkflowRecord, error) {
			return s.storage.GetByBusinessAndIntent(ctx, business.BusinessID, intentName)
		},
		func() (*model.WorkflowRecord, error) {
			return s.storage.GetByBusinessAndIntent(ctx, business.BusinessID, model.INTENT_UNKNOWN)
		},
		func() (*model.WorkflowRecord, error) {
			return s.storage.GetDefaultForType(ctx, business.Type, intentName)
		},
		func() (*model.WorkflowRecord, error) {
			return s.storage.GetDefaultForType(ctx, business.Type, model.INTENT_UNKNOWN)
		},
	}
	for _, fn := range lookups {
		rec, err := fn()
		if err == nil {
			return rec, nil
		}
		var nf model.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	logger.Debug("no workflow at any resolution level",
		zap.String("businessId", business.BusinessID), zap.String("intent", intentName))
	return nil, model.NotFoundError{Kind: "workflow", Key: fmt.Sprintf("%s/%s", business.BusinessID, intentName)}
}

func (s *serviceImpl) Validate(definition *model.WorkflowDefinition) error {
	if definition == nil {
		return fmt.Errorf("definition is required")
	}
	if definition.InitialState == "" {
		return fmt.Errorf("initialState is required")
	}
	if _, ok := definition.States[definition.InitialState]; !ok {
		return fmt.Errorf("initial state %s is not defined", definition.InitialState)
	}
	for name, state := range definition.States {
		switch state.Type {
		case model.STATE_TYPE_ACTION, model.STATE_TYPE_DECISION, model.STATE_TYPE_WAIT, model.STATE_TYPE_END:
		default:
			return fmt.Errorf("state %s has invalid type %s", name, state.Type)
		}
		if state.Type == model.STATE_TYPE_DECISION && len(state.Transitions) == 0 {
			return fmt.Errorf("decision state %s has no transitions", name)
		}
		for _, tr := range state.Transitions {
			if tr.To == model.END_STATE {
				continue
			}
			if _, ok := definition.States[tr.To]; !ok {
				return fmt.Errorf("state %s transitions to undefined state %s", name, tr.To)
			}
		}
		for _, act := range state.Actions {
			if act.Type == "" {
				return fmt.Errorf("state %s has an action without a type", name)
			}
		}
	}
	return nil
}

func (s *serviceImpl) SaveWorkflow(ctx context.Context, rec *model.WorkflowRecord) error {
	if err := s.Validate(rec.Definition); err != nil {
		return model.ConfigurationError{Message: err.Error()}
	}
	if err := s.storage.SaveWorkflow(ctx, rec); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

func (s *serviceImpl) DeleteWorkflow(ctx context.Context, workflowID string) error {
	if err := s.storage.DeleteWorkflow(ctx, workflowID); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

func (s *serviceImpl) GetStorage() Storage {
	return s.storage
}
