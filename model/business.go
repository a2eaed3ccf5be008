package model

type Business struct {
	BusinessID string `json:"businessId"`
	TenantID   string `json:"tenantId"`
	Type       string `json:"type"`
	Name       string `json:"name,omitempty"`
}

// WorkflowRecord binds a stored definition to its owner. BusinessID is empty
// for business-type defaults.
type WorkflowRecord struct {
	WorkflowID   string              `json:"workflowId"`
	BusinessID   string              `json:"businessId,omitempty"`
	BusinessType string              `json:"businessType,omitempty"`
	Intent       string              `json:"intent"`
	Key          string              `json:"key"`
	Definition   *WorkflowDefinition `json:"definition"`
}

type ResolvedWorkflow struct {
	WorkflowID  string              `json:"workflowId"`
	WorkflowKey string              `json:"workflowKey"`
	Definition  *WorkflowDefinition `json:"definition"`
}
