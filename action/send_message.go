package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"go.uber.org/zap"
)

var _ Handler = new(sendMessageHandler)
var _ Compensator = new(sendMessageHandler)

// sendMessageHandler delivers a rendered message to the lead over the
// conversation channel. Params carry a content block:
//
//	{"content": {"type": "TEXT", "text": "..."}}
//	{"content": {"type": "INTERACTIVE", "text": "...", "sections": [...]}}
type sendMessageHandler struct {
	channel ChannelClient
}

func NewSendMessageHandler(channel ChannelClient) *sendMessageHandler {
	return &sendMessageHandler{channel: channel}
}

func (h *sendMessageHandler) Type() string {
	return ACTION_SEND_MESSAGE
}

func (h *sendMessageHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	content, ok := params["content"].(map[string]any)
	if !ok {
		return nil, model.ConfigurationError{Message: "send_message requires a content block"}
	}
	msg := OutboundMessage{
		LeadID:         ec.LeadID,
		Channel:        ec.Channel,
		ConversationID: ec.ConversationID,
		ContentType:    CONTENT_TEXT,
	}
	if ct, ok := content["type"].(string); ok && strings.EqualFold(ct, string(CONTENT_INTERACTIVE)) {
		msg.ContentType = CONTENT_INTERACTIVE
	}
	text, _ := content["text"].(string)
	msg.Text = text
	if sections, ok := content["sections"].([]any); ok {
		msg.Sections = parseSections(sections)
	}
	messageID, err := h.channel.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send_message failed for lead %s: %w", ec.LeadID, err)
	}
	return map[string]any{
		"messageId": messageID,
		"channel":   msg.Channel,
		"text":      msg.Text,
	}, nil
}

// Compensate cannot unsend a delivered message; it follows up with a
// correction notice so the lead is not left acting on a rolled-back reply.
func (h *sendMessageHandler) Compensate(ctx context.Context, ec *model.ExecutionContext, original any) error {
	logger.Info("compensating sent message", zap.String("leadId", ec.LeadID))
	_, err := h.channel.Send(ctx, OutboundMessage{
		LeadID:         ec.LeadID,
		Channel:        ec.Channel,
		ConversationID: ec.ConversationID,
		ContentType:    CONTENT_TEXT,
		Text:           "Sorry, please disregard the previous message. We ran into a problem processing your request and a team member will follow up.",
	})
	return err
}

func parseSections(raw []any) []MessageSection {
	sections := make([]MessageSection, 0, len(raw))
	for _, s := range raw {
		sm, ok := s.(map[string]any)
		if !ok {
			continue
		}
		section := MessageSection{}
		section.Title, _ = sm["title"].(string)
		if rows, ok := sm["rows"].([]any); ok {
			for _, r := range rows {
				rm, ok := r.(map[string]any)
				if !ok {
					continue
				}
				row := SectionRow{}
				row.ID, _ = rm["id"].(string)
				row.Title, _ = rm["title"].(string)
				row.Description, _ = rm["description"].(string)
				section.Rows = append(section.Rows, row)
			}
		}
		sections = append(sections, section)
	}
	return sections
}
