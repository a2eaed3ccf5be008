package model

type StateType string

const STATE_TYPE_ACTION StateType = "action"
const STATE_TYPE_DECISION StateType = "decision"
const STATE_TYPE_WAIT StateType = "wait"
const STATE_TYPE_END StateType = "end"

type ConditionKind string

const CONDITION_ALWAYS ConditionKind = "always"
const CONDITION_EXPRESSION ConditionKind = "expression"
const CONDITION_SCRIPT ConditionKind = "script"

// INTENT_UNKNOWN is the sentinel intent a workflow can be assigned to so it
// catches every intent the business has no explicit workflow for.
const INTENT_UNKNOWN string = "UNKNOWN"

const END_STATE string = "end"

type WorkflowDefinition struct {
	InitialState  string                   `json:"initialState"`
	States        map[string]WorkflowState `json:"states"`
	ErrorHandling *ErrorHandling           `json:"errorHandling,omitempty"`
}

type WorkflowState struct {
	Type           StateType            `json:"type"`
	Actions        []WorkflowAction     `json:"actions,omitempty"`
	Transitions    []WorkflowTransition `json:"transitions,omitempty"`
	TimeoutSeconds int                  `json:"timeoutSeconds,omitempty"`
	OnError        string               `json:"onError,omitempty"`
}

type WorkflowAction struct {
	ActionID       string         `json:"actionId"`
	Type           string         `json:"type"`
	Params         map[string]any `json:"params,omitempty"`
	OutputVariable string         `json:"outputVariable,omitempty"`
	Condition      *Condition     `json:"condition,omitempty"`
	Async          bool           `json:"async,omitempty"`
	TimeoutSeconds int            `json:"timeoutSeconds,omitempty"`
}

type WorkflowTransition struct {
	To        string     `json:"to"`
	Condition *Condition `json:"condition,omitempty"`
	Priority  int        `json:"priority,omitempty"`
}

type Condition struct {
	Kind ConditionKind `json:"kind"`
	Expr string        `json:"expr,omitempty"`
}

type ErrorHandling struct {
	OnFailureState string `json:"onFailureState,omitempty"`
	NotifyTeam     bool   `json:"notifyTeam,omitempty"`
}
