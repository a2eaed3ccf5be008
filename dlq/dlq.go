// Package dlq parks messages that exhausted their retries and owns the
// retry policy the saga consults.
package dlq

import (
	"context"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"github.com/sreenadh34/biznavigate-backend-sub002/telemetry"
	"go.uber.org/zap"
)

const DEFAULT_MAX_RETRY_ATTEMPTS = 3

var defaultRetryDelays = []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second}

type Service struct {
	store       persistence.DeadLetterStore
	maxAttempts int
	delays      []time.Duration
}

func NewService(store persistence.DeadLetterStore, maxAttempts int, delays []time.Duration) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DEFAULT_MAX_RETRY_ATTEMPTS
	}
	if len(delays) == 0 {
		delays = defaultRetryDelays
	}
	return &Service{
		store:       store,
		maxAttempts: maxAttempts,
		delays:      delays,
	}
}

func (s *Service) MaxAttempts() int {
	return s.maxAttempts
}

// ShouldRetry reports whether another attempt is allowed after attemptCount
// failed ones.
func (s *Service) ShouldRetry(attemptCount int) bool {
	return attemptCount < s.maxAttempts
}

// RetryDelay returns the backoff before attempt attemptNumber (1-based),
// clamped to the last entry of the delay table.
func (s *Service) RetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}
	if attemptNumber > len(s.delays) {
		return s.delays[len(s.delays)-1]
	}
	return s.delays[attemptNumber-1]
}

// SendToDeadLetter writes the single dead-letter record for a message. The
// store keys by message id, so a duplicate escalation overwrites instead of
// duplicating.
func (s *Service) SendToDeadLetter(ctx context.Context, msg *model.DeadLetterMessage) error {
	if msg.Status == "" {
		msg.Status = model.DEAD_LETTER_PENDING
	}
	if msg.LastAttemptAt.IsZero() {
		msg.LastAttemptAt = time.Now()
	}
	if err := s.store.SaveDeadLetter(ctx, msg); err != nil {
		logger.Error("failed to write dead letter", zap.String("messageId", msg.MessageID), zap.Error(err))
		return err
	}
	telemetry.CountDeadLetter(ctx)
	logger.Warn("message dead lettered",
		zap.String("messageId", msg.MessageID),
		zap.String("leadId", msg.LeadID),
		zap.Int("attempts", msg.AttemptCount),
		zap.String("error", msg.Error))
	return nil
}

func (s *Service) ListFailed(ctx context.Context, limit int64) ([]*model.DeadLetterMessage, error) {
	return s.store.ListDeadLetters(ctx, limit)
}

// RetryMessage marks the record retried and hands back its payload for
// resubmission through the orchestrator.
func (s *Service) RetryMessage(ctx context.Context, messageID string) (*model.AIResult, error) {
	msg, err := s.store.GetDeadLetter(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateDeadLetterStatus(ctx, messageID, model.DEAD_LETTER_RETRIED); err != nil {
		return nil, err
	}
	return msg.Payload, nil
}

func (s *Service) MarkResolved(ctx context.Context, messageID string) error {
	return s.store.UpdateDeadLetterStatus(ctx, messageID, model.DEAD_LETTER_RESOLVED)
}
