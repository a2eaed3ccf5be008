// Package engine is the saga controller around one inbound AI classification
// result: dedup, validation, tenant resolution, intent dispatch, circuit
// guarded action execution with compensation, and retry/dead-letter
// escalation.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/action"
	"github.com/sreenadh34/biznavigate-backend-sub002/analytics"
	"github.com/sreenadh34/biznavigate-backend-sub002/breaker"
	"github.com/sreenadh34/biznavigate-backend-sub002/dedup"
	"github.com/sreenadh34/biznavigate-backend-sub002/dlq"
	"github.com/sreenadh34/biznavigate-backend-sub002/flow"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/telemetry"
	"go.uber.org/zap"
)

// attemptRetention bounds how long a retry counter for a message whose
// redelivery never arrived is kept before it is swept.
const attemptRetention = 30 * time.Minute

type attemptRecord struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

type Orchestrator struct {
	deduper    *dedup.Deduper
	deadLetter *dlq.Service
	breakers   *breaker.Registry
	registry   *action.Registry
	metadata   metadata.Service
	executor   *flow.Executor
	dispatcher Dispatcher
	leads      LeadReader
	scheduler  RetryScheduler

	mu       sync.Mutex
	attempts map[string]*attemptRecord
}

type OrchestratorConfig struct {
	Deduper    *dedup.Deduper
	DeadLetter *dlq.Service
	Breakers   *breaker.Registry
	Registry   *action.Registry
	Metadata   metadata.Service
	Executor   *flow.Executor
	Dispatcher Dispatcher
	Leads      LeadReader
	Scheduler  RetryScheduler
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = SuggestedActionsDispatcher{}
	}
	return &Orchestrator{
		deduper:    cfg.Deduper,
		deadLetter: cfg.DeadLetter,
		breakers:   cfg.Breakers,
		registry:   cfg.Registry,
		metadata:   cfg.Metadata,
		executor:   cfg.Executor,
		dispatcher: cfg.Dispatcher,
		leads:      cfg.Leads,
		scheduler:  cfg.Scheduler,
		attempts:   make(map[string]*attemptRecord),
	}
}

// Process runs the saga for one AI result. Redelivery of an already handled
// message is a successful no-op. Retryable failures are rescheduled with
// escalating backoff until the attempt budget is spent, then parked in the
// dead letter store.
func (o *Orchestrator) Process(ctx context.Context, res *model.AIResult) (*model.ProcessResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "engine.process")
	defer span.End()

	messageID := res.ProcessingID
	if messageID == "" {
		// never touch the ledger without a key
		return nil, model.ValidationError{Field: "processing_id", Message: "is required"}
	}
	if o.deduper.IsDuplicate(ctx, messageID, res.LeadID) {
		telemetry.CountDuplicate(ctx)
		logger.Info("duplicate message skipped", zap.String("messageId", messageID))
		return &model.ProcessResult{Success: true, Actions: []string{}}, nil
	}

	result, err := o.runSaga(ctx, res)
	if err == nil {
		if !result.Success {
			// a compensated action list is terminal, not a success
			o.deduper.MarkProcessed(ctx, messageID, res.LeadID, model.PROCESSING_FAILED)
			telemetry.CountFailed(ctx)
			o.clearAttempts(messageID)
			logger.Error("message failed after compensation", zap.String("messageId", messageID))
			return result, nil
		}
		o.deduper.MarkProcessed(ctx, messageID, res.LeadID, model.PROCESSING_SUCCESS)
		telemetry.CountProcessed(ctx)
		o.clearAttempts(messageID)
		return result, nil
	}

	if !model.IsRetryable(err) {
		o.deduper.MarkProcessed(ctx, messageID, res.LeadID, model.PROCESSING_FAILED)
		telemetry.CountFailed(ctx)
		o.clearAttempts(messageID)
		logger.Error("message failed permanently", zap.String("messageId", messageID), zap.Error(err))
		return result, err
	}

	attempt := o.recordAttempt(messageID)
	if o.deadLetter.ShouldRetry(attempt.count) {
		o.deduper.MarkProcessed(ctx, messageID, res.LeadID, model.PROCESSING_RETRYING)
		delay := o.deadLetter.RetryDelay(attempt.count)
		logger.Warn("scheduling retry",
			zap.String("messageId", messageID),
			zap.Int("attempt", attempt.count),
			zap.Duration("delay", delay),
			zap.Error(err))
		if o.scheduler != nil {
			o.scheduler.Schedule(res, delay)
		}
		return result, err
	}

	o.escalate(ctx, res, err, attempt)
	o.deduper.MarkProcessed(ctx, messageID, res.LeadID, model.PROCESSING_FAILED)
	telemetry.CountFailed(ctx)
	o.clearAttempts(messageID)
	return result, err
}

func (o *Orchestrator) runSaga(ctx context.Context, res *model.AIResult) (*model.ProcessResult, error) {
	if err := validate(res); err != nil {
		return nil, err
	}

	_, tenantSpan := telemetry.StartSpan(ctx, "engine.resolve_tenant")
	tenantID := res.TenantID
	if tenantID == "" && o.leads != nil {
		var err error
		tenantID, err = o.leads.GetTenant(ctx, res.LeadID)
		if err != nil {
			tenantSpan.End()
			return nil, model.TransientError{Op: "resolve_tenant", Err: err}
		}
	}
	tenantSpan.End()
	if tenantID == "" {
		return nil, model.ValidationError{Field: "tenant_id", Message: "tenant could not be resolved"}
	}

	ec := contextFromResult(res, tenantID)
	analytics.RecordActivity(analytics.Activity{
		LeadID:     res.LeadID,
		BusinessID: res.BusinessID,
		Kind:       analytics.ACTIVITY_MESSAGE_RECEIVED,
		Detail:     map[string]any{"messageId": res.Metadata.MessageID, "channel": res.Metadata.Channel},
	})

	classifyCtx, classifySpan := telemetry.StartSpan(ctx, "engine.classify")
	classification, err := o.dispatcher.Dispatch(classifyCtx, res, ec)
	classifySpan.End()
	if err != nil {
		return nil, model.TransientError{Op: "intent_dispatch", Err: err}
	}
	analytics.RecordActivity(analytics.Activity{
		LeadID:     res.LeadID,
		BusinessID: res.BusinessID,
		Kind:       analytics.ACTIVITY_INTENT_CLASSIFIED,
		Detail: map[string]any{
			"intent":      res.Intent.Name,
			"confidence":  res.Intent.Confidence,
			"actionCount": len(classification.Actions),
		},
	})

	result := o.executeActions(ctx, classification, ec)
	result.ResponseMessage = classification.ResponseMessage
	return result, nil
}

type compensationEntry struct {
	handler action.Handler
	result  any
}

// executeActions runs the candidate list in order, each call behind its own
// circuit. A missing handler marks that action failed and moves on; a
// non-retryable handler failure compensates everything executed so far in
// reverse order and stops the list.
func (o *Orchestrator) executeActions(ctx context.Context, classification *Classification, ec *model.ExecutionContext) *model.ProcessResult {
	ctx, span := telemetry.StartSpan(ctx, "engine.execute_actions")
	defer span.End()

	result := &model.ProcessResult{
		Success:         true,
		Actions:         make([]string, 0, len(classification.Actions)),
		ExecutedActions: []model.ActionOutcome{},
		FailedActions:   []model.ActionOutcome{},
	}
	var executed []compensationEntry

	for _, suggested := range classification.Actions {
		result.Actions = append(result.Actions, suggested.Type)
		handler, ok := o.registry.Get(suggested.Type)
		if !ok {
			logger.Warn("no handler for suggested action", zap.String("type", suggested.Type))
			result.FailedActions = append(result.FailedActions, model.ActionOutcome{
				Type:  suggested.Type,
				Error: fmt.Sprintf("no handler registered for %s", suggested.Type),
			})
			telemetry.CountActionFailed(ctx)
			continue
		}

		circuitName := "action_" + suggested.Type
		output, err := o.breakers.Execute(circuitName, func() (any, error) {
			return handler.Execute(ctx, suggested.Params, ec)
		}, nil)
		if err == nil {
			result.ExecutedActions = append(result.ExecutedActions, model.ActionOutcome{
				Type: suggested.Type, OK: true, Output: output,
			})
			executed = append(executed, compensationEntry{handler: handler, result: output})
			telemetry.CountActionOK(ctx)
			analytics.RecordActivity(analytics.Activity{
				LeadID:     ec.LeadID,
				BusinessID: ec.BusinessID,
				Kind:       analytics.ACTIVITY_ACTION_EXECUTED,
				Detail:     map[string]any{"type": suggested.Type},
			})
			continue
		}

		result.FailedActions = append(result.FailedActions, model.ActionOutcome{
			Type: suggested.Type, Error: err.Error(),
		})
		telemetry.CountActionFailed(ctx)
		analytics.RecordActivity(analytics.Activity{
			LeadID:     ec.LeadID,
			BusinessID: ec.BusinessID,
			Kind:       analytics.ACTIVITY_ACTION_FAILED,
			Detail:     map[string]any{"type": suggested.Type, "error": err.Error()},
		})
		if action.IsNonRetryable(handler) {
			logger.Error("non retryable action failed, compensating",
				zap.String("type", suggested.Type), zap.Error(err))
			o.compensate(ctx, executed, ec)
			result.Success = false
			break
		}
		logger.Warn("action failed, continuing", zap.String("type", suggested.Type), zap.Error(err))
	}
	return result
}

// compensate undoes successfully executed actions in reverse order. A failing
// compensation is logged and the remaining ones still run.
func (o *Orchestrator) compensate(ctx context.Context, executed []compensationEntry, ec *model.ExecutionContext) {
	for i := len(executed) - 1; i >= 0; i-- {
		entry := executed[i]
		compensator, ok := entry.handler.(action.Compensator)
		if !ok {
			continue
		}
		telemetry.CountCompensation(ctx)
		analytics.RecordActivity(analytics.Activity{
			LeadID:     ec.LeadID,
			BusinessID: ec.BusinessID,
			Kind:       analytics.ACTIVITY_COMPENSATION_RUN,
			Detail:     map[string]any{"type": entry.handler.Type()},
		})
		if err := compensator.Compensate(ctx, ec, entry.result); err != nil {
			logger.Error("compensation failed",
				zap.String("type", entry.handler.Type()), zap.Error(err))
		}
	}
}

// ProcessConfiguredWorkflow resolves the business-configured workflow for
// the message's intent and interprets it. Unlike the saga path, individual
// action failures inside the workflow are soft: the executor logs and
// continues.
func (o *Orchestrator) ProcessConfiguredWorkflow(ctx context.Context, res *model.AIResult) (*flow.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "engine.configured_workflow")
	defer span.End()

	if err := validate(res); err != nil {
		return nil, err
	}
	resolved, err := o.metadata.Resolve(ctx, res.BusinessID, res.Intent.Name)
	if err != nil {
		return nil, err
	}
	ec := contextFromResult(res, res.TenantID)
	return o.executor.Execute(ctx, resolved, res.Intent.Name, ec)
}

func (o *Orchestrator) escalate(ctx context.Context, res *model.AIResult, cause error, attempt *attemptRecord) {
	msg := &model.DeadLetterMessage{
		MessageID:      res.ProcessingID,
		LeadID:         res.LeadID,
		Payload:        res,
		Error:          cause.Error(),
		AttemptCount:   attempt.count,
		FirstAttemptAt: attempt.firstAt,
		LastAttemptAt:  time.Now(),
		Status:         model.DEAD_LETTER_PENDING,
	}
	if err := o.deadLetter.SendToDeadLetter(ctx, msg); err != nil {
		logger.Error("dead letter write failed", zap.String("messageId", res.ProcessingID), zap.Error(err))
	}
	analytics.RecordActivity(analytics.Activity{
		LeadID:     res.LeadID,
		BusinessID: res.BusinessID,
		Kind:       analytics.ACTIVITY_DEAD_LETTERED,
		Detail:     map[string]any{"messageId": res.ProcessingID, "attempts": attempt.count, "error": cause.Error()},
	})
}

func (o *Orchestrator) recordAttempt(messageID string) *attemptRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for id, stale := range o.attempts {
		if id != messageID && now.Sub(stale.lastAt) > attemptRetention {
			delete(o.attempts, id)
		}
	}
	rec, ok := o.attempts[messageID]
	if !ok {
		rec = &attemptRecord{firstAt: now}
		o.attempts[messageID] = rec
	}
	rec.count++
	rec.lastAt = now
	return &attemptRecord{count: rec.count, firstAt: rec.firstAt, lastAt: rec.lastAt}
}

func (o *Orchestrator) clearAttempts(messageID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.attempts, messageID)
}

func validate(res *model.AIResult) error {
	if res.LeadID == "" {
		return model.ValidationError{Field: "lead_id", Message: "is required"}
	}
	if res.BusinessID == "" {
		return model.ValidationError{Field: "business_id", Message: "is required"}
	}
	if res.ProcessingID == "" {
		return model.ValidationError{Field: "processing_id", Message: "is required"}
	}
	return nil
}

func contextFromResult(res *model.AIResult, tenantID string) *model.ExecutionContext {
	return &model.ExecutionContext{
		LeadID:               res.LeadID,
		BusinessID:           res.BusinessID,
		TenantID:             tenantID,
		ConversationID:       res.Metadata.ConversationID,
		Channel:              res.Metadata.Channel,
		MessageID:            res.Metadata.MessageID,
		LeadName:             res.LeadName,
		MessageText:          res.MessageText,
		InteractiveSelection: res.Metadata.InteractiveSelection,
		Intent:               res.Intent.Name,
		Confidence:           res.Intent.Confidence,
		Entities:             res.Entities,
	}
}
