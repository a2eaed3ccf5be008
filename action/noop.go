package action

import (
	"context"

	"github.com/google/uuid"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"go.uber.org/zap"
)

// No-op collaborators used when the process runs without a real channel,
// persistence or notification integration. They log and succeed.

type NopChannelClient struct{}

func (NopChannelClient) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	logger.Info("outbound message dropped, no channel client configured",
		zap.String("leadId", msg.LeadID), zap.String("contentType", string(msg.ContentType)))
	return uuid.New().String(), nil
}

type NopMutator struct{}

func (NopMutator) UpdateLeadStatus(ctx context.Context, leadID string, status string) (string, error) {
	return "", nil
}

func (NopMutator) AssignLead(ctx context.Context, leadID string, assignee string) error {
	return nil
}

func (NopMutator) CreateOrderTask(ctx context.Context, task OrderTask) (string, error) {
	return uuid.New().String(), nil
}

func (NopMutator) DeleteOrderTask(ctx context.Context, taskID string) error {
	return nil
}

func (NopMutator) CloseConversation(ctx context.Context, conversationID string) error {
	return nil
}

type NopNotificationSink struct{}

func (NopNotificationSink) Notify(ctx context.Context, n Notification) error {
	logger.Info("notification dropped, no sink configured", zap.String("team", n.Team))
	return nil
}

type EmptyCatalogReader struct{}

func (EmptyCatalogReader) GetCatalog(ctx context.Context, businessID string) ([]Product, error) {
	return nil, nil
}

func (EmptyCatalogReader) GetCategories(ctx context.Context, businessID string) ([]Category, error) {
	return nil, nil
}

func (EmptyCatalogReader) GetCategoryProducts(ctx context.Context, businessID string, categoryID string) ([]Product, error) {
	return nil, nil
}

func (EmptyCatalogReader) GetProduct(ctx context.Context, businessID string, productID string) (*Product, error) {
	return nil, nil
}
