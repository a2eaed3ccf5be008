package model

import "encoding/json"

// ExecutionContext is threaded through one message's processing. The known
// identity and classification fields are fixed; action outputs land in Vars
// keyed by their outputVariable. Never shared across concurrent executions.
type ExecutionContext struct {
	LeadID               string         `json:"leadId"`
	BusinessID           string         `json:"businessId"`
	TenantID             string         `json:"tenantId,omitempty"`
	ConversationID       string         `json:"conversationId,omitempty"`
	Channel              string         `json:"channel,omitempty"`
	MessageID            string         `json:"messageId,omitempty"`
	LeadName             string         `json:"leadName,omitempty"`
	MessageText          string         `json:"messageText,omitempty"`
	InteractiveSelection string         `json:"interactiveSelection,omitempty"`
	Intent               string         `json:"intent,omitempty"`
	Confidence           float64        `json:"confidence,omitempty"`
	Entities             map[string]any `json:"entities,omitempty"`
	Vars                 map[string]any `json:"vars,omitempty"`
}

func (ec *ExecutionContext) SetVar(key string, value any) {
	if ec.Vars == nil {
		ec.Vars = make(map[string]any)
	}
	ec.Vars[key] = value
}

// AsMap flattens the context for dot-path lookups: Vars at the root, known
// fields under their json names on top of them so outputs cannot shadow
// identity fields. Entities stay nested under "entities".
func (ec *ExecutionContext) AsMap() map[string]any {
	m := make(map[string]any, len(ec.Vars)+12)
	for k, v := range ec.Vars {
		m[k] = v
	}
	m["leadId"] = ec.LeadID
	m["businessId"] = ec.BusinessID
	if ec.TenantID != "" {
		m["tenantId"] = ec.TenantID
	}
	if ec.ConversationID != "" {
		m["conversationId"] = ec.ConversationID
	}
	if ec.Channel != "" {
		m["channel"] = ec.Channel
	}
	if ec.MessageID != "" {
		m["messageId"] = ec.MessageID
	}
	if ec.LeadName != "" {
		m["leadName"] = ec.LeadName
	}
	if ec.MessageText != "" {
		m["messageText"] = ec.MessageText
	}
	if ec.InteractiveSelection != "" {
		m["interactiveSelection"] = ec.InteractiveSelection
	}
	if ec.Intent != "" {
		m["intent"] = ec.Intent
	}
	if ec.Confidence != 0 {
		m["confidence"] = ec.Confidence
	}
	if ec.Entities != nil {
		m["entities"] = ec.Entities
	}
	return m
}

func (ec *ExecutionContext) Clone() *ExecutionContext {
	data, err := json.Marshal(ec)
	if err != nil {
		cp := *ec
		return &cp
	}
	var out ExecutionContext
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *ec
		return &cp
	}
	return &out
}
