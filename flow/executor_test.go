package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/sreenadh34/biznavigate-backend-sub002/action"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence/inmem"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	typ   string
	calls []map[string]any
	fn    func(params map[string]any, ec *model.ExecutionContext) (any, error)
}

func (h *recordingHandler) Type() string { return h.typ }

func (h *recordingHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	h.calls = append(h.calls, params)
	if h.fn != nil {
		return h.fn(params, ec)
	}
	return map[string]any{"ok": true}, nil
}

func newTestExecutor(handlers ...action.Handler) (*Executor, *inmem.ExecutionStore) {
	logger.Mute()
	registry := action.NewRegistry()
	for _, h := range handlers {
		registry.Register(h)
	}
	store := inmem.NewExecutionStore()
	return NewExecutor(registry, store, 50), store
}

func retailContext() *model.ExecutionContext {
	return &model.ExecutionContext{
		LeadID:     "lead-1",
		BusinessID: "biz-1",
		LeadName:   "Asha",
		Channel:    "whatsapp",
		Intent:     "ORDER_REQUEST",
		Confidence: 0.9,
	}
}

func resolved(def *model.WorkflowDefinition) *model.ResolvedWorkflow {
	return &model.ResolvedWorkflow{WorkflowID: "wf-1", WorkflowKey: "test", Definition: def}
}

func TestExecuteRetailScenario(t *testing.T) {
	sender := &recordingHandler{typ: "send_message"}
	executor, store := newTestExecutor(sender)

	def := &model.WorkflowDefinition{
		InitialState: "s1",
		States: map[string]model.WorkflowState{
			"s1": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "a1", Type: "send_message", Params: map[string]any{
						"content": map[string]any{"type": "TEXT", "text": "Hi {{leadName}}"},
					}},
				},
				Transitions: []model.WorkflowTransition{{To: "end"}},
			},
			"end": {Type: model.STATE_TYPE_END},
		},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "ORDER_REQUEST", retailContext())
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_COMPLETED, result.Status)
	require.Equal(t, "end", result.FinalState)

	require.Len(t, sender.calls, 1)
	content := sender.calls[0]["content"].(map[string]any)
	require.Equal(t, "Hi Asha", content["text"])

	exec, err := store.GetExecution(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_COMPLETED, exec.Status)
}

func TestTransitionPriority(t *testing.T) {
	marker := &recordingHandler{typ: "mark"}
	executor, _ := newTestExecutor(marker)
	def := &model.WorkflowDefinition{
		InitialState: "d",
		States: map[string]model.WorkflowState{
			"d": {
				Type: model.STATE_TYPE_DECISION,
				// both transitions are satisfiable, priority 10 must win
				Transitions: []model.WorkflowTransition{
					{To: "low", Priority: 5, Condition: &model.Condition{Kind: model.CONDITION_EXPRESSION, Expr: "confidence > 0.1"}},
					{To: "high", Priority: 10, Condition: &model.Condition{Kind: model.CONDITION_EXPRESSION, Expr: "confidence > 0.5"}},
				},
			},
			"high": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "m", Type: "mark", Params: map[string]any{"state": "high"}},
				},
			},
			"low": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "m", Type: "mark", Params: map[string]any{"state": "low"}},
				},
			},
		},
	}

	_, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.NoError(t, err)
	require.Len(t, marker.calls, 1)
	require.Equal(t, "high", marker.calls[0]["state"])
}

func TestLoopTermination(t *testing.T) {
	executor, _ := newTestExecutor()
	def := &model.WorkflowDefinition{
		InitialState: "a",
		States: map[string]model.WorkflowState{
			"a": {Type: model.STATE_TYPE_DECISION, Transitions: []model.WorkflowTransition{{To: "b"}}},
			"b": {Type: model.STATE_TYPE_DECISION, Transitions: []model.WorkflowTransition{{To: "a"}}},
		},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.Error(t, err)
	var cfgErr model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Contains(t, cfgErr.Message, "maximum iterations")
	require.Equal(t, model.EXECUTION_FAILED, result.Status)
}

func TestWaitStateSuspends(t *testing.T) {
	executor, store := newTestExecutor()
	def := &model.WorkflowDefinition{
		InitialState: "w",
		States: map[string]model.WorkflowState{
			"w": {Type: model.STATE_TYPE_WAIT},
		},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_WAITING, result.Status)
	require.Equal(t, "w", result.FinalState)

	exec, err := store.GetExecution(context.Background(), result.ExecutionID)
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_WAITING, exec.Status)
}

func TestUnknownStateFails(t *testing.T) {
	executor, _ := newTestExecutor()
	def := &model.WorkflowDefinition{
		InitialState: "ghost",
		States:       map[string]model.WorkflowState{},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.Error(t, err)
	require.Equal(t, model.EXECUTION_FAILED, result.Status)
}

func TestUnregisteredActionTypeFails(t *testing.T) {
	executor, _ := newTestExecutor()
	def := &model.WorkflowDefinition{
		InitialState: "s1",
		States: map[string]model.WorkflowState{
			"s1": {
				Type:    model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{{ActionID: "a1", Type: "no_such_type"}},
			},
		},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.Error(t, err)
	var cfgErr model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, model.EXECUTION_FAILED, result.Status)
}

func TestActionErrorContinues(t *testing.T) {
	failing := &recordingHandler{typ: "flaky", fn: func(map[string]any, *model.ExecutionContext) (any, error) {
		return nil, errors.New("boom")
	}}
	after := &recordingHandler{typ: "after"}
	executor, _ := newTestExecutor(failing, after)

	def := &model.WorkflowDefinition{
		InitialState: "s1",
		States: map[string]model.WorkflowState{
			"s1": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "a1", Type: "flaky"},
					{ActionID: "a2", Type: "after"},
				},
			},
		},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_COMPLETED, result.Status)
	require.Len(t, after.calls, 1)
}

func TestConditionSkipsAction(t *testing.T) {
	skipped := &recordingHandler{typ: "skipped"}
	kept := &recordingHandler{typ: "kept"}
	executor, _ := newTestExecutor(skipped, kept)

	def := &model.WorkflowDefinition{
		InitialState: "s1",
		States: map[string]model.WorkflowState{
			"s1": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "a1", Type: "skipped", Condition: &model.Condition{
						Kind: model.CONDITION_EXPRESSION, Expr: "confidence > 0.99",
					}},
					{ActionID: "a2", Type: "kept", Condition: &model.Condition{
						Kind: model.CONDITION_SCRIPT, Expr: "return confidence > 0.5;",
					}},
				},
			},
		},
	}

	_, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.NoError(t, err)
	require.Empty(t, skipped.calls)
	require.Len(t, kept.calls, 1)
}

func TestOutputVariableLandsInContext(t *testing.T) {
	producer := &recordingHandler{typ: "produce", fn: func(map[string]any, *model.ExecutionContext) (any, error) {
		return map[string]any{"taskId": "task-9"}, nil
	}}
	consumer := &recordingHandler{typ: "consume"}
	executor, _ := newTestExecutor(producer, consumer)

	def := &model.WorkflowDefinition{
		InitialState: "s1",
		States: map[string]model.WorkflowState{
			"s1": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "a1", Type: "produce", OutputVariable: "orderResult"},
					{ActionID: "a2", Type: "consume", Params: map[string]any{
						"task": "{{orderResult.taskId}}",
					}},
				},
			},
		},
	}

	result, err := executor.Execute(context.Background(), resolved(def), "x", retailContext())
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_COMPLETED, result.Status)
	require.Len(t, consumer.calls, 1)
	require.Equal(t, "task-9", consumer.calls[0]["task"])
	require.Equal(t, map[string]any{"taskId": "task-9"}, result.Context.Vars["orderResult"])
}
