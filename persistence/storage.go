package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// ExecutionStore persists workflow execution records. The executor saves the
// whole record on every state transition.
type ExecutionStore interface {
	SaveExecution(ctx context.Context, exec *model.WorkflowExecution) error
	GetExecution(ctx context.Context, executionID string) (*model.WorkflowExecution, error)
}

// LedgerStore is the durable half of the idempotency ledger. A miss returns
// (nil, nil); only infrastructure failures return an error so callers can
// fail open.
type LedgerStore interface {
	GetProcessed(ctx context.Context, messageID string) (*model.ProcessedMessage, error)
	PutProcessed(ctx context.Context, rec *model.ProcessedMessage, ttl time.Duration) error
}

type DeadLetterStore interface {
	SaveDeadLetter(ctx context.Context, msg *model.DeadLetterMessage) error
	GetDeadLetter(ctx context.Context, messageID string) (*model.DeadLetterMessage, error)
	ListDeadLetters(ctx context.Context, limit int64) ([]*model.DeadLetterMessage, error)
	UpdateDeadLetterStatus(ctx context.Context, messageID string, status model.DeadLetterStatus) error
}
