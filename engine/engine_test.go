package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/action"
	"github.com/sreenadh34/biznavigate-backend-sub002/breaker"
	"github.com/sreenadh34/biznavigate-backend-sub002/dedup"
	"github.com/sreenadh34/biznavigate-backend-sub002/dlq"
	"github.com/sreenadh34/biznavigate-backend-sub002/flow"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence/inmem"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	typ          string
	nonRetryable bool
	execErr      error
	executions   *[]string
	compensated  *[]string
}

func (h *fakeHandler) Type() string { return h.typ }

func (h *fakeHandler) NonRetryable() bool { return h.nonRetryable }

func (h *fakeHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	if h.execErr != nil {
		return nil, h.execErr
	}
	*h.executions = append(*h.executions, h.typ)
	return map[string]any{"handler": h.typ}, nil
}

func (h *fakeHandler) Compensate(ctx context.Context, ec *model.ExecutionContext, original any) error {
	*h.compensated = append(*h.compensated, h.typ)
	return nil
}

type testHarness struct {
	orchestrator *Orchestrator
	ledgerStore  *inmem.LedgerStore
	dlqStore     *inmem.DeadLetterStore
	registry     *action.Registry
	executions   []string
	compensated  []string
}

func newHarness(dispatcher Dispatcher, handlers ...*fakeHandler) *testHarness {
	logger.Mute()
	h := &testHarness{
		ledgerStore: inmem.NewLedgerStore(),
		dlqStore:    inmem.NewDeadLetterStore(),
		registry:    action.NewRegistry(),
	}
	for _, handler := range handlers {
		handler.executions = &h.executions
		handler.compensated = &h.compensated
		h.registry.Register(handler)
	}
	metadataStorage := inmem.NewMetadataStorage()
	executionStore := inmem.NewExecutionStore()
	h.orchestrator = NewOrchestrator(OrchestratorConfig{
		Deduper:    dedup.NewDeduper(h.ledgerStore, time.Hour),
		DeadLetter: dlq.NewService(h.dlqStore, 3, nil),
		Breakers:   breaker.NewRegistry(breaker.DefaultConfig()),
		Registry:   h.registry,
		Metadata:   metadata.NewService(metadataStorage),
		Executor:   flow.NewExecutor(h.registry, executionStore, 50),
		Dispatcher: dispatcher,
	})
	return h
}

func orderResult() *model.AIResult {
	return &model.AIResult{
		ProcessingID: "proc-1",
		LeadID:       "lead-1",
		BusinessID:   "biz-1",
		TenantID:     "tenant-1",
		Intent:       model.Intent{Name: "ORDER_REQUEST", Confidence: 0.9},
		SuggestedActions: []model.SuggestedAction{
			{Type: "a"},
			{Type: "b"},
			{Type: "c"},
		},
		SuggestedResponse: "On it!",
		Metadata:          model.MessageMetadata{MessageID: "msg-1", Channel: "whatsapp"},
	}
}

func TestProcessIdempotency(t *testing.T) {
	h := newHarness(nil,
		&fakeHandler{typ: "a"}, &fakeHandler{typ: "b"}, &fakeHandler{typ: "c"})
	ctx := context.Background()

	first, err := h.orchestrator.Process(ctx, orderResult())
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Len(t, first.ExecutedActions, 3)

	second, err := h.orchestrator.Process(ctx, orderResult())
	require.NoError(t, err)
	require.True(t, second.Success)
	require.Empty(t, second.ExecutedActions)

	// each handler ran exactly once across both deliveries
	require.Equal(t, []string{"a", "b", "c"}, h.executions)

	rec, err := h.ledgerStore.GetProcessed(ctx, "proc-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, model.PROCESSING_SUCCESS, rec.Status)
}

func TestCompensationOrdering(t *testing.T) {
	h := newHarness(nil,
		&fakeHandler{typ: "a"},
		&fakeHandler{typ: "b"},
		&fakeHandler{typ: "c", nonRetryable: true, execErr: errors.New("write refused")})
	ctx := context.Background()

	result, err := h.orchestrator.Process(ctx, orderResult())
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Len(t, result.ExecutedActions, 2)
	require.Len(t, result.FailedActions, 1)
	require.Equal(t, "c", result.FailedActions[0].Type)

	// B before A, C never compensated
	require.Equal(t, []string{"b", "a"}, h.compensated)

	// a compensated saga is a terminal failure, not a success
	rec, err := h.ledgerStore.GetProcessed(ctx, "proc-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, model.PROCESSING_FAILED, rec.Status)
}

func TestMissingProcessingIDRejected(t *testing.T) {
	h := newHarness(nil, &fakeHandler{typ: "a"})
	ctx := context.Background()

	res := orderResult()
	res.ProcessingID = ""
	_, err := h.orchestrator.Process(ctx, res)
	var valErr model.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, "processing_id", valErr.Field)
	require.Empty(t, h.executions)

	// the ledger never saw a record keyed by the empty id
	rec, lerr := h.ledgerStore.GetProcessed(ctx, "")
	require.NoError(t, lerr)
	require.Nil(t, rec)
}

func TestStaleAttemptRecordsPruned(t *testing.T) {
	h := newHarness(nil, &fakeHandler{typ: "a"})
	o := h.orchestrator

	old := time.Now().Add(-attemptRetention - time.Minute)
	o.mu.Lock()
	o.attempts["abandoned-1"] = &attemptRecord{count: 2, firstAt: old, lastAt: old}
	o.attempts["recent-1"] = &attemptRecord{count: 1, firstAt: time.Now(), lastAt: time.Now()}
	o.mu.Unlock()

	o.recordAttempt("proc-1")

	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotContains(t, o.attempts, "abandoned-1")
	require.Contains(t, o.attempts, "recent-1")
	require.Contains(t, o.attempts, "proc-1")
}

func TestMissingHandlerContinues(t *testing.T) {
	h := newHarness(nil,
		&fakeHandler{typ: "a"}, &fakeHandler{typ: "c"})
	ctx := context.Background()

	result, err := h.orchestrator.Process(ctx, orderResult())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.FailedActions, 1)
	require.Equal(t, "b", result.FailedActions[0].Type)
	require.Equal(t, []string{"a", "c"}, h.executions)
}

func TestRetryableActionFailureContinues(t *testing.T) {
	h := newHarness(nil,
		&fakeHandler{typ: "a", execErr: errors.New("provider 503")},
		&fakeHandler{typ: "b"},
		&fakeHandler{typ: "c"})
	ctx := context.Background()

	result, err := h.orchestrator.Process(ctx, orderResult())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.FailedActions, 1)
	require.Equal(t, []string{"b", "c"}, h.executions)
	require.Empty(t, h.compensated)
}

type failingDispatcher struct {
	calls int
}

func (d *failingDispatcher) Dispatch(ctx context.Context, res *model.AIResult, ec *model.ExecutionContext) (*Classification, error) {
	d.calls++
	return nil, errors.New("classifier unavailable")
}

func TestDeadLetterEscalation(t *testing.T) {
	dispatcher := &failingDispatcher{}
	h := newHarness(dispatcher)
	ctx := context.Background()

	// attempts 1 and 2 are marked retrying, attempt 3 exhausts the budget
	for i := 0; i < 2; i++ {
		_, err := h.orchestrator.Process(ctx, orderResult())
		require.Error(t, err)
		rec, lerr := h.ledgerStore.GetProcessed(ctx, "proc-1")
		require.NoError(t, lerr)
		require.Equal(t, model.PROCESSING_RETRYING, rec.Status)
	}
	_, err := h.orchestrator.Process(ctx, orderResult())
	require.Error(t, err)

	letters, err := h.dlqStore.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	require.Equal(t, 3, letters[0].AttemptCount)
	require.Equal(t, "proc-1", letters[0].MessageID)
	require.Equal(t, model.DEAD_LETTER_PENDING, letters[0].Status)
	require.Equal(t, "lead-1", letters[0].Payload.LeadID)

	rec, err := h.ledgerStore.GetProcessed(ctx, "proc-1")
	require.NoError(t, err)
	require.Equal(t, model.PROCESSING_FAILED, rec.Status)

	// terminal record makes a fourth delivery a duplicate no-op
	result, err := h.orchestrator.Process(ctx, orderResult())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 3, dispatcher.calls)
}

func TestValidationFailsFast(t *testing.T) {
	h := newHarness(nil, &fakeHandler{typ: "a"})
	ctx := context.Background()

	res := orderResult()
	res.LeadID = ""
	_, err := h.orchestrator.Process(ctx, res)
	var valErr model.ValidationError
	require.ErrorAs(t, err, &valErr)

	// never retried: the ledger records a terminal failure
	rec, lerr := h.ledgerStore.GetProcessed(ctx, "proc-1")
	require.NoError(t, lerr)
	require.Equal(t, model.PROCESSING_FAILED, rec.Status)
	require.Empty(t, h.executions)

	letters, err := h.dlqStore.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, letters)
}

func TestTenantResolutionFromLead(t *testing.T) {
	h := newHarness(nil, &fakeHandler{typ: "a"}, &fakeHandler{typ: "b"}, &fakeHandler{typ: "c"})
	h.orchestrator.leads = leadReaderFunc(func(ctx context.Context, leadID string) (string, error) {
		return "tenant-from-lead", nil
	})
	ctx := context.Background()

	res := orderResult()
	res.TenantID = ""
	result, err := h.orchestrator.Process(ctx, res)
	require.NoError(t, err)
	require.True(t, result.Success)
}

type leadReaderFunc func(ctx context.Context, leadID string) (string, error)

func (f leadReaderFunc) GetTenant(ctx context.Context, leadID string) (string, error) {
	return f(ctx, leadID)
}

func TestConfiguredWorkflowPath(t *testing.T) {
	h := newHarness(nil, &fakeHandler{typ: "a"})
	ctx := context.Background()

	storage := h.orchestrator.metadata.GetStorage()
	require.NoError(t, storage.SaveBusiness(ctx, &model.Business{
		BusinessID: "biz-1", TenantID: "tenant-1", Type: "retail",
	}))
	require.NoError(t, storage.SaveWorkflow(ctx, &model.WorkflowRecord{
		WorkflowID:   "wf-1",
		BusinessType: "retail",
		Intent:       model.INTENT_UNKNOWN,
		Key:          "retail-default",
		Definition: &model.WorkflowDefinition{
			InitialState: "s1",
			States: map[string]model.WorkflowState{
				"s1": {
					Type:        model.STATE_TYPE_ACTION,
					Actions:     []model.WorkflowAction{{ActionID: "a1", Type: "a"}},
					Transitions: []model.WorkflowTransition{{To: "end"}},
				},
				"end": {Type: model.STATE_TYPE_END},
			},
		},
	}))

	result, err := h.orchestrator.ProcessConfiguredWorkflow(ctx, orderResult())
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_COMPLETED, result.Status)
	require.Equal(t, []string{"a"}, h.executions)
}
