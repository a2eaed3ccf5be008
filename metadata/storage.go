package metadata

import (
	"context"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

// Storage holds workflow records and business configuration. Lookup misses
// return model.NotFoundError; infrastructure failures return
// persistence.StorageLayerError.
type Storage interface {
	SaveWorkflow(ctx context.Context, rec *model.WorkflowRecord) error
	GetWorkflow(ctx context.Context, workflowID string) (*model.WorkflowRecord, error)
	DeleteWorkflow(ctx context.Context, workflowID string) error

	// GetByBusinessAndIntent finds the workflow a business assigned to an
	// intent; GetDefaultForType finds the business-type default.
	GetByBusinessAndIntent(ctx context.Context, businessID string, intent string) (*model.WorkflowRecord, error)
	GetDefaultForType(ctx context.Context, businessType string, intent string) (*model.WorkflowRecord, error)

	GetBusiness(ctx context.Context, businessID string) (*model.Business, error)
	SaveBusiness(ctx context.Context, business *model.Business) error
}
