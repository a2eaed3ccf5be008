package action

import (
	"context"
	"errors"
	"testing"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	sent []OutboundMessage
	err  error
}

func (c *recordingChannel) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.sent = append(c.sent, msg)
	return "msg-1", nil
}

func TestSendMessage(t *testing.T) {
	logger.Mute()
	ctx := context.Background()
	ec := &model.ExecutionContext{LeadID: "lead-1", Channel: "whatsapp", ConversationID: "conv-1"}

	t.Run("missing content block rejected", func(t *testing.T) {
		h := NewSendMessageHandler(&recordingChannel{})
		_, err := h.Execute(ctx, map[string]any{}, ec)
		var cfgErr model.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("text message delivered on the lead channel", func(t *testing.T) {
		channel := &recordingChannel{}
		h := NewSendMessageHandler(channel)
		result, err := h.Execute(ctx, map[string]any{
			"content": map[string]any{"type": "TEXT", "text": "Hi Asha"},
		}, ec)
		require.NoError(t, err)
		require.Len(t, channel.sent, 1)
		require.Equal(t, "lead-1", channel.sent[0].LeadID)
		require.Equal(t, "whatsapp", channel.sent[0].Channel)
		require.Equal(t, CONTENT_TEXT, channel.sent[0].ContentType)
		require.Equal(t, "Hi Asha", channel.sent[0].Text)

		out := result.(map[string]any)
		require.Equal(t, "msg-1", out["messageId"])
	})

	t.Run("interactive sections parsed", func(t *testing.T) {
		channel := &recordingChannel{}
		h := NewSendMessageHandler(channel)
		_, err := h.Execute(ctx, map[string]any{
			"content": map[string]any{
				"type": "INTERACTIVE",
				"text": "Pick a category",
				"sections": []any{
					map[string]any{
						"title": "Categories",
						"rows": []any{
							map[string]any{"id": "cat::1", "title": "Sarees", "description": "Handloom"},
							map[string]any{"id": "cat::2", "title": "Kurtas"},
						},
					},
				},
			},
		}, ec)
		require.NoError(t, err)
		require.Len(t, channel.sent, 1)
		msg := channel.sent[0]
		require.Equal(t, CONTENT_INTERACTIVE, msg.ContentType)
		require.Len(t, msg.Sections, 1)
		require.Equal(t, "Categories", msg.Sections[0].Title)
		require.Len(t, msg.Sections[0].Rows, 2)
		require.Equal(t, "cat::1", msg.Sections[0].Rows[0].ID)
		require.Equal(t, "Handloom", msg.Sections[0].Rows[0].Description)
	})

	t.Run("channel failure surfaces", func(t *testing.T) {
		h := NewSendMessageHandler(&recordingChannel{err: errors.New("socket closed")})
		_, err := h.Execute(ctx, map[string]any{
			"content": map[string]any{"type": "TEXT", "text": "Hi"},
		}, ec)
		require.Error(t, err)
		require.False(t, IsNonRetryable(h))
	})

	t.Run("compensation sends a correction notice", func(t *testing.T) {
		channel := &recordingChannel{}
		h := NewSendMessageHandler(channel)
		require.NoError(t, h.Compensate(ctx, ec, map[string]any{"messageId": "msg-0"}))
		require.Len(t, channel.sent, 1)
		require.Equal(t, CONTENT_TEXT, channel.sent[0].ContentType)
		require.Contains(t, channel.sent[0].Text, "disregard")
	})
}
