// Package inmem provides map-backed storage implementations for tests and
// single-process runs without redis.
package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
)

var _ persistence.ExecutionStore = new(ExecutionStore)

type ExecutionStore struct {
	mu         sync.RWMutex
	executions map[string]*model.WorkflowExecution
}

func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		executions: make(map[string]*model.WorkflowExecution),
	}
}

func (s *ExecutionStore) SaveExecution(ctx context.Context, exec *model.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *exec
	s.executions[exec.ExecutionID] = &cp
	return nil
}

func (s *ExecutionStore) GetExecution(ctx context.Context, executionID string) (*model.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.executions[executionID]
	if !ok {
		return nil, model.NotFoundError{Kind: "execution", Key: executionID}
	}
	cp := *exec
	return &cp, nil
}

var _ persistence.LedgerStore = new(LedgerStore)

type ledgerEntry struct {
	rec       *model.ProcessedMessage
	expiresAt time.Time
}

type LedgerStore struct {
	mu      sync.RWMutex
	entries map[string]ledgerEntry
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[string]ledgerEntry),
	}
}

func (s *LedgerStore) GetProcessed(ctx context.Context, messageID string) (*model.ProcessedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[messageID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	cp := *entry.rec
	return &cp, nil
}

func (s *LedgerStore) PutProcessed(ctx context.Context, rec *model.ProcessedMessage, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.entries[rec.MessageID] = ledgerEntry{rec: &cp, expiresAt: time.Now().Add(ttl)}
	return nil
}

var _ persistence.DeadLetterStore = new(DeadLetterStore)

type DeadLetterStore struct {
	mu       sync.RWMutex
	messages map[string]*model.DeadLetterMessage
	order    []string
}

func NewDeadLetterStore() *DeadLetterStore {
	return &DeadLetterStore{
		messages: make(map[string]*model.DeadLetterMessage),
	}
}

func (s *DeadLetterStore) SaveDeadLetter(ctx context.Context, msg *model.DeadLetterMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.messages[msg.MessageID]; !exists {
		s.order = append([]string{msg.MessageID}, s.order...)
	}
	cp := *msg
	s.messages[msg.MessageID] = &cp
	return nil
}

func (s *DeadLetterStore) GetDeadLetter(ctx context.Context, messageID string) (*model.DeadLetterMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, model.NotFoundError{Kind: "dead letter", Key: messageID}
	}
	cp := *msg
	return &cp, nil
}

func (s *DeadLetterStore) ListDeadLetters(ctx context.Context, limit int64) ([]*model.DeadLetterMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]*model.DeadLetterMessage, 0, len(s.order))
	for _, id := range s.order {
		if int64(len(out)) >= limit {
			break
		}
		cp := *s.messages[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *DeadLetterStore) UpdateDeadLetterStatus(ctx context.Context, messageID string, status model.DeadLetterStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return model.NotFoundError{Kind: "dead letter", Key: messageID}
	}
	msg.Status = status
	return nil
}

var _ metadata.Storage = new(MetadataStorage)

type MetadataStorage struct {
	mu            sync.RWMutex
	workflows     map[string]*model.WorkflowRecord
	businessIndex map[string]string
	typeIndex     map[string]string
	businesses    map[string]*model.Business
}

func NewMetadataStorage() *MetadataStorage {
	return &MetadataStorage{
		workflows:     make(map[string]*model.WorkflowRecord),
		businessIndex: make(map[string]string),
		typeIndex:     make(map[string]string),
		businesses:    make(map[string]*model.Business),
	}
}

func indexKey(owner string, intent string) string {
	return fmt.Sprintf("%s:%s", owner, intent)
}

func (s *MetadataStorage) SaveWorkflow(ctx context.Context, rec *model.WorkflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.workflows[rec.WorkflowID] = &cp
	if rec.BusinessID != "" {
		s.businessIndex[indexKey(rec.BusinessID, rec.Intent)] = rec.WorkflowID
	} else {
		s.typeIndex[indexKey(rec.BusinessType, rec.Intent)] = rec.WorkflowID
	}
	return nil
}

func (s *MetadataStorage) GetWorkflow(ctx context.Context, workflowID string) (*model.WorkflowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.workflows[workflowID]
	if !ok {
		return nil, model.NotFoundError{Kind: "workflow", Key: workflowID}
	}
	cp := *rec
	return &cp, nil
}

func (s *MetadataStorage) DeleteWorkflow(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.workflows[workflowID]
	if !ok {
		return model.NotFoundError{Kind: "workflow", Key: workflowID}
	}
	if rec.BusinessID != "" {
		delete(s.businessIndex, indexKey(rec.BusinessID, rec.Intent))
	} else {
		delete(s.typeIndex, indexKey(rec.BusinessType, rec.Intent))
	}
	delete(s.workflows, workflowID)
	return nil
}

func (s *MetadataStorage) GetByBusinessAndIntent(ctx context.Context, businessID string, intent string) (*model.WorkflowRecord, error) {
	s.mu.RLock()
	workflowID, ok := s.businessIndex[indexKey(businessID, intent)]
	s.mu.RUnlock()
	if !ok {
		return nil, model.NotFoundError{Kind: "workflow", Key: indexKey(businessID, intent)}
	}
	return s.GetWorkflow(ctx, workflowID)
}

func (s *MetadataStorage) GetDefaultForType(ctx context.Context, businessType string, intent string) (*model.WorkflowRecord, error) {
	s.mu.RLock()
	workflowID, ok := s.typeIndex[indexKey(businessType, intent)]
	s.mu.RUnlock()
	if !ok {
		return nil, model.NotFoundError{Kind: "workflow", Key: indexKey(businessType, intent)}
	}
	return s.GetWorkflow(ctx, workflowID)
}

func (s *MetadataStorage) GetBusiness(ctx context.Context, businessID string) (*model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	business, ok := s.businesses[businessID]
	if !ok {
		return nil, model.NotFoundError{Kind: "business", Key: businessID}
	}
	cp := *business
	return &cp, nil
}

func (s *MetadataStorage) SaveBusiness(ctx context.Context, business *model.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *business
	s.businesses[business.BusinessID] = &cp
	return nil
}
