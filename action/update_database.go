package action

import (
	"context"
	"fmt"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"go.uber.org/zap"
)

var _ Handler = new(updateDatabaseHandler)
var _ Compensator = new(updateDatabaseHandler)
var _ NonRetryable = new(updateDatabaseHandler)

type mutationFunc func(ctx context.Context, data map[string]any, ec *model.ExecutionContext) (map[string]any, error)

// updateDatabaseHandler dispatches a persistence mutation through a fixed
// entity/operation table. Params: {"entity": "lead", "operation":
// "update_status", "data": {...}}. Anything outside the table is a
// configuration error, never executed.
type updateDatabaseHandler struct {
	mutator Mutator
	table   map[string]mutationFunc
}

func NewUpdateDatabaseHandler(mutator Mutator) *updateDatabaseHandler {
	h := &updateDatabaseHandler{mutator: mutator}
	h.table = map[string]mutationFunc{
		"lead:update_status": h.updateLeadStatus,
		"lead:assign":        h.assignLead,
		"order_task:create":  h.createOrderTask,
		"conversation:close": h.closeConversation,
	}
	return h
}

func (h *updateDatabaseHandler) Type() string {
	return ACTION_UPDATE_DATABASE
}

func (h *updateDatabaseHandler) NonRetryable() bool {
	return true
}

func (h *updateDatabaseHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	entity, _ := params["entity"].(string)
	operation, _ := params["operation"].(string)
	key := fmt.Sprintf("%s:%s", entity, operation)
	mutation, ok := h.table[key]
	if !ok {
		return nil, model.ConfigurationError{Message: fmt.Sprintf("unsupported mutation %s", key)}
	}
	data, _ := params["data"].(map[string]any)
	result, err := mutation(ctx, data, ec)
	if err != nil {
		return nil, err
	}
	result["entity"] = entity
	result["operation"] = operation
	return result, nil
}

func (h *updateDatabaseHandler) Compensate(ctx context.Context, ec *model.ExecutionContext, original any) error {
	result, ok := original.(map[string]any)
	if !ok {
		return nil
	}
	key := fmt.Sprintf("%v:%v", result["entity"], result["operation"])
	logger.Info("compensating mutation", zap.String("mutation", key), zap.String("leadId", ec.LeadID))
	switch key {
	case "lead:update_status":
		previous, _ := result["previousStatus"].(string)
		if previous == "" {
			return nil
		}
		_, err := h.mutator.UpdateLeadStatus(ctx, ec.LeadID, previous)
		return err
	case "order_task:create":
		taskID, _ := result["taskId"].(string)
		if taskID == "" {
			return nil
		}
		return h.mutator.DeleteOrderTask(ctx, taskID)
	}
	return nil
}

func (h *updateDatabaseHandler) updateLeadStatus(ctx context.Context, data map[string]any, ec *model.ExecutionContext) (map[string]any, error) {
	status, _ := data["status"].(string)
	if status == "" {
		return nil, model.ConfigurationError{Message: "lead:update_status requires data.status"}
	}
	previous, err := h.mutator.UpdateLeadStatus(ctx, ec.LeadID, status)
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": status, "previousStatus": previous}, nil
}

func (h *updateDatabaseHandler) assignLead(ctx context.Context, data map[string]any, ec *model.ExecutionContext) (map[string]any, error) {
	assignee, _ := data["assignee"].(string)
	if assignee == "" {
		return nil, model.ConfigurationError{Message: "lead:assign requires data.assignee"}
	}
	if err := h.mutator.AssignLead(ctx, ec.LeadID, assignee); err != nil {
		return nil, err
	}
	return map[string]any{"assignee": assignee}, nil
}

func (h *updateDatabaseHandler) createOrderTask(ctx context.Context, data map[string]any, ec *model.ExecutionContext) (map[string]any, error) {
	summary, _ := data["summary"].(string)
	task := OrderTask{
		LeadID:     ec.LeadID,
		BusinessID: ec.BusinessID,
		Summary:    summary,
		Details:    data,
	}
	taskID, err := h.mutator.CreateOrderTask(ctx, task)
	if err != nil {
		return nil, err
	}
	return map[string]any{"taskId": taskID}, nil
}

func (h *updateDatabaseHandler) closeConversation(ctx context.Context, data map[string]any, ec *model.ExecutionContext) (map[string]any, error) {
	conversationID := ec.ConversationID
	if cid, ok := data["conversationId"].(string); ok && cid != "" {
		conversationID = cid
	}
	if conversationID == "" {
		return nil, model.ConfigurationError{Message: "conversation:close requires a conversation id"}
	}
	if err := h.mutator.CloseConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return map[string]any{"conversationId": conversationID}, nil
}
