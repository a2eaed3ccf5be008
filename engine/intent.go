package engine

import (
	"context"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

// Classification is what an intent handler hands back to the saga: the
// candidate action list and an optional response for the lead.
type Classification struct {
	Actions         []model.SuggestedAction
	ResponseMessage string
}

// Dispatcher maps a classified message to the actions the saga should run.
// Implementations live outside this core; the default uses the suggestions
// already present on the AI result.
type Dispatcher interface {
	Dispatch(ctx context.Context, res *model.AIResult, ec *model.ExecutionContext) (*Classification, error)
}

var _ Dispatcher = new(SuggestedActionsDispatcher)

// SuggestedActionsDispatcher passes the AI result's own suggestions through
// unchanged.
type SuggestedActionsDispatcher struct{}

func (SuggestedActionsDispatcher) Dispatch(ctx context.Context, res *model.AIResult, ec *model.ExecutionContext) (*Classification, error) {
	return &Classification{
		Actions:         res.SuggestedActions,
		ResponseMessage: res.SuggestedResponse,
	}, nil
}

// LeadReader resolves the tenant for a lead when the payload does not carry
// one.
type LeadReader interface {
	GetTenant(ctx context.Context, leadID string) (string, error)
}
