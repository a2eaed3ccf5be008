package action

import (
	"context"
	"fmt"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

var _ Handler = new(notifyTeamHandler)

// notifyTeamHandler pushes an internal notification. Params: {"team":
// "sales", "message": "...", "priority": "high"}.
type notifyTeamHandler struct {
	sink NotificationSink
}

func NewNotifyTeamHandler(sink NotificationSink) *notifyTeamHandler {
	return &notifyTeamHandler{sink: sink}
}

func (h *notifyTeamHandler) Type() string {
	return ACTION_NOTIFY_TEAM
}

func (h *notifyTeamHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	team, _ := params["team"].(string)
	if team == "" {
		team = "default"
	}
	message, _ := params["message"].(string)
	if message == "" {
		message = fmt.Sprintf("Lead %s needs attention (intent %s)", ec.LeadID, ec.Intent)
	}
	priority, _ := params["priority"].(string)
	n := Notification{
		Team:     team,
		Message:  message,
		Priority: priority,
		LeadID:   ec.LeadID,
		Detail: map[string]any{
			"businessId":     ec.BusinessID,
			"intent":         ec.Intent,
			"confidence":     ec.Confidence,
			"conversationId": ec.ConversationID,
		},
	}
	if err := h.sink.Notify(ctx, n); err != nil {
		return nil, fmt.Errorf("notify_team failed: %w", err)
	}
	return map[string]any{"team": team, "message": message}, nil
}
