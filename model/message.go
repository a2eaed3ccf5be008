package model

type Intent struct {
	Name       string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

type MessageMetadata struct {
	MessageID            string `json:"message_id"`
	Channel              string `json:"channel"`
	ConversationID       string `json:"conversation_id,omitempty"`
	InteractiveSelection string `json:"interactive_selection,omitempty"`
}

type SuggestedAction struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// AIResult is the classification payload delivered by the upstream transport,
// at least once. Field names follow the wire contract.
type AIResult struct {
	ProcessingID      string            `json:"processing_id"`
	LeadID            string            `json:"lead_id"`
	BusinessID        string            `json:"business_id"`
	TenantID          string            `json:"tenant_id,omitempty"`
	Intent            Intent            `json:"intent"`
	Entities          map[string]any    `json:"entities,omitempty"`
	SuggestedActions  []SuggestedAction `json:"suggested_actions,omitempty"`
	SuggestedResponse string            `json:"suggested_response,omitempty"`
	MessageText       string            `json:"message_text,omitempty"`
	LeadName          string            `json:"lead_name,omitempty"`
	ProcessingTimeMs  int64             `json:"processing_time_ms,omitempty"`
	Metadata          MessageMetadata   `json:"metadata"`
}

type ActionOutcome struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Output any    `json:"output,omitempty"`
}

type ProcessResult struct {
	Success         bool            `json:"success"`
	ResponseMessage string          `json:"responseMessage,omitempty"`
	Actions         []string        `json:"actions"`
	ExecutedActions []ActionOutcome `json:"executedActions"`
	FailedActions   []ActionOutcome `json:"failedActions"`
}
