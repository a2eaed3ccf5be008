package model

import "time"

type ExecutionStatus string

const EXECUTION_RUNNING ExecutionStatus = "RUNNING"
const EXECUTION_COMPLETED ExecutionStatus = "COMPLETED"
const EXECUTION_FAILED ExecutionStatus = "FAILED"
const EXECUTION_WAITING ExecutionStatus = "WAITING"

type WorkflowExecution struct {
	ExecutionID  string            `json:"executionId"`
	WorkflowID   string            `json:"workflowId"`
	WorkflowKey  string            `json:"workflowKey"`
	BusinessID   string            `json:"businessId"`
	LeadID       string            `json:"leadId"`
	CurrentState string            `json:"currentState"`
	Status       ExecutionStatus   `json:"status"`
	Context      *ExecutionContext `json:"context,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	StartedAt    time.Time         `json:"startedAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
}
