// Package flow interprets workflow definitions as finite-state machines
// against one message's execution context.
package flow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sreenadh34/biznavigate-backend-sub002/action"
	"github.com/sreenadh34/biznavigate-backend-sub002/analytics"
	"github.com/sreenadh34/biznavigate-backend-sub002/expr"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
	"go.uber.org/zap"
)

const DEFAULT_MAX_ITERATIONS = 50

type Result struct {
	ExecutionID  string                  `json:"executionId"`
	Status       model.ExecutionStatus   `json:"status"`
	FinalState   string                  `json:"finalState"`
	Context      *model.ExecutionContext `json:"context"`
	ErrorMessage string                  `json:"errorMessage,omitempty"`
}

type Executor struct {
	registry      *action.Registry
	store         persistence.ExecutionStore
	maxIterations int
}

func NewExecutor(registry *action.Registry, store persistence.ExecutionStore, maxIterations int) *Executor {
	if maxIterations <= 0 {
		maxIterations = DEFAULT_MAX_ITERATIONS
	}
	return &Executor{
		registry:      registry,
		store:         store,
		maxIterations: maxIterations,
	}
}

// Execute walks the definition from its initial state until it reaches end,
// suspends on a wait state, or fails. Individual action errors are logged
// and the remaining actions of the state still run; configuration errors
// fail the whole execution.
func (e *Executor) Execute(ctx context.Context, rw *model.ResolvedWorkflow, intentName string, ec *model.ExecutionContext) (*Result, error) {
	exec := &model.WorkflowExecution{
		ExecutionID:  uuid.New().String(),
		WorkflowID:   rw.WorkflowID,
		WorkflowKey:  rw.WorkflowKey,
		BusinessID:   ec.BusinessID,
		LeadID:       ec.LeadID,
		CurrentState: rw.Definition.InitialState,
		Status:       model.EXECUTION_RUNNING,
		Context:      ec,
		StartedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	e.saveExecution(ctx, exec)
	logger.Info("workflow execution started",
		zap.String("executionId", exec.ExecutionID),
		zap.String("workflowId", rw.WorkflowID),
		zap.String("intent", intentName))

	current := rw.Definition.InitialState
	for i := 0; i < e.maxIterations; i++ {
		if current == model.END_STATE {
			return e.complete(ctx, exec, ec)
		}
		state, ok := rw.Definition.States[current]
		if !ok {
			return e.fail(ctx, exec, ec, model.ConfigurationError{
				Message: fmt.Sprintf("workflow %s references unknown state %s", rw.WorkflowKey, current),
			})
		}
		var next string
		switch state.Type {
		case model.STATE_TYPE_END:
			return e.complete(ctx, exec, ec)
		case model.STATE_TYPE_WAIT:
			exec.Status = model.EXECUTION_WAITING
			exec.UpdatedAt = time.Now()
			e.saveExecution(ctx, exec)
			logger.Info("workflow suspended on wait state",
				zap.String("executionId", exec.ExecutionID), zap.String("state", current))
			return &Result{
				ExecutionID: exec.ExecutionID,
				Status:      model.EXECUTION_WAITING,
				FinalState:  current,
				Context:     ec,
			}, nil
		case model.STATE_TYPE_ACTION:
			if err := e.runActions(ctx, exec, state.Actions, ec); err != nil {
				return e.fail(ctx, exec, ec, err)
			}
			next = pickTransition(state.Transitions, ec)
		case model.STATE_TYPE_DECISION:
			next = pickTransition(state.Transitions, ec)
		default:
			return e.fail(ctx, exec, ec, model.ConfigurationError{
				Message: fmt.Sprintf("state %s has invalid type %s", current, state.Type),
			})
		}
		current = next
		exec.CurrentState = current
		exec.UpdatedAt = time.Now()
		e.saveExecution(ctx, exec)
	}
	return e.fail(ctx, exec, ec, model.ConfigurationError{
		Message: fmt.Sprintf("workflow %s exceeded maximum iterations (%d)", rw.WorkflowKey, e.maxIterations),
	})
}

// runActions executes the state's actions in order. A handler error is a
// soft failure: it is logged and the remaining actions still run. A missing
// handler is a configuration error that aborts the execution.
func (e *Executor) runActions(ctx context.Context, exec *model.WorkflowExecution, actions []model.WorkflowAction, ec *model.ExecutionContext) error {
	for _, act := range actions {
		if act.Condition != nil && !EvalCondition(act.Condition, ec) {
			logger.Debug("skipping action, condition not met",
				zap.String("actionId", act.ActionID), zap.String("type", act.Type))
			continue
		}
		handler, ok := e.registry.Get(act.Type)
		if !ok {
			return model.ConfigurationError{Message: fmt.Sprintf("no handler registered for action type %s", act.Type)}
		}
		params := util.ResolveParams(ec, act.Params)
		result, err := handler.Execute(ctx, params, ec)
		if err != nil {
			logger.Error("workflow action failed, continuing",
				zap.String("executionId", exec.ExecutionID),
				zap.String("actionId", act.ActionID),
				zap.String("type", act.Type),
				zap.Error(err))
			analytics.RecordActivity(analytics.Activity{
				LeadID:     ec.LeadID,
				BusinessID: ec.BusinessID,
				Kind:       analytics.ACTIVITY_ACTION_FAILED,
				Detail:     map[string]any{"actionId": act.ActionID, "type": act.Type, "error": err.Error()},
			})
			continue
		}
		analytics.RecordActivity(analytics.Activity{
			LeadID:     ec.LeadID,
			BusinessID: ec.BusinessID,
			Kind:       analytics.ACTIVITY_ACTION_EXECUTED,
			Detail:     map[string]any{"actionId": act.ActionID, "type": act.Type},
		})
		if act.OutputVariable != "" {
			ec.SetVar(act.OutputVariable, result)
		}
	}
	return nil
}

// pickTransition returns the target of the highest-priority transition whose
// condition holds, or end when none match.
func pickTransition(transitions []model.WorkflowTransition, ec *model.ExecutionContext) string {
	if len(transitions) == 0 {
		return model.END_STATE
	}
	sorted := make([]model.WorkflowTransition, len(transitions))
	copy(sorted, transitions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	for _, tr := range sorted {
		if tr.Condition == nil || EvalCondition(tr.Condition, ec) {
			return tr.To
		}
	}
	return model.END_STATE
}

// EvalCondition evaluates a workflow condition against the context. A parse
// or evaluation error makes the condition false; a misconfigured guard skips
// its branch instead of aborting the execution.
func EvalCondition(cond *model.Condition, ec *model.ExecutionContext) bool {
	switch cond.Kind {
	case model.CONDITION_ALWAYS, "":
		return true
	case model.CONDITION_EXPRESSION, model.CONDITION_SCRIPT:
		data := ec.AsMap()
		ok, err := expr.EvalBool(cond.Expr, func(path string) (any, bool) {
			return util.LookupPath(data, path)
		})
		if err != nil {
			logger.Warn("condition evaluation failed", zap.String("expr", cond.Expr), zap.Error(err))
			return false
		}
		return ok
	}
	logger.Warn("unknown condition kind", zap.String("kind", string(cond.Kind)))
	return false
}

func (e *Executor) complete(ctx context.Context, exec *model.WorkflowExecution, ec *model.ExecutionContext) (*Result, error) {
	now := time.Now()
	exec.Status = model.EXECUTION_COMPLETED
	exec.CurrentState = model.END_STATE
	exec.UpdatedAt = now
	exec.CompletedAt = &now
	e.saveExecution(ctx, exec)
	analytics.RecordActivity(analytics.Activity{
		LeadID:     ec.LeadID,
		BusinessID: ec.BusinessID,
		Kind:       analytics.ACTIVITY_WORKFLOW_COMPLETED,
		Detail:     map[string]any{"executionId": exec.ExecutionID, "workflowId": exec.WorkflowID},
	})
	logger.Info("workflow execution completed", zap.String("executionId", exec.ExecutionID))
	return &Result{
		ExecutionID: exec.ExecutionID,
		Status:      model.EXECUTION_COMPLETED,
		FinalState:  model.END_STATE,
		Context:     ec,
	}, nil
}

func (e *Executor) fail(ctx context.Context, exec *model.WorkflowExecution, ec *model.ExecutionContext, cause error) (*Result, error) {
	now := time.Now()
	exec.Status = model.EXECUTION_FAILED
	exec.ErrorMessage = cause.Error()
	exec.UpdatedAt = now
	exec.CompletedAt = &now
	e.saveExecution(ctx, exec)
	logger.Error("workflow execution failed",
		zap.String("executionId", exec.ExecutionID),
		zap.String("state", exec.CurrentState),
		zap.Error(cause))
	return &Result{
		ExecutionID:  exec.ExecutionID,
		Status:       model.EXECUTION_FAILED,
		FinalState:   exec.CurrentState,
		Context:      ec,
		ErrorMessage: cause.Error(),
	}, cause
}

func (e *Executor) saveExecution(ctx context.Context, exec *model.WorkflowExecution) {
	if err := e.store.SaveExecution(ctx, exec); err != nil {
		logger.Error("failed to persist execution record",
			zap.String("executionId", exec.ExecutionID), zap.Error(err))
	}
}
