package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
	"go.uber.org/zap"
)

// RetryScheduler re-delivers a message after a backoff delay. The transport
// owns retry scheduling in multi-instance deployments; tickScheduler is the
// single-process default.
type RetryScheduler interface {
	Schedule(res *model.AIResult, delay time.Duration)
}

type scheduledRetry struct {
	dueAt   time.Time
	payload *model.AIResult
}

// tickScheduler holds scheduled retries in memory and resubmits the due
// ones on every tick. Resubmission runs on a worker so a slow saga does not
// stall the tick loop.
type tickScheduler struct {
	mu      sync.Mutex
	pending []scheduledRetry
	ticker  *util.TickWorker
	worker  *util.Worker
	wg      sync.WaitGroup
	stop    chan struct{}
}

func NewTickScheduler(submit func(context.Context, *model.AIResult)) *tickScheduler {
	s := &tickScheduler{
		stop: make(chan struct{}),
	}
	s.worker = util.NewWorker("retry-submitter", &s.wg, func(task util.Task) error {
		payload, ok := task.(*model.AIResult)
		if !ok {
			return fmt.Errorf("unexpected task type %T", task)
		}
		logger.Info("resubmitting message for retry", zap.String("messageId", payload.ProcessingID))
		submit(context.Background(), payload)
		return nil
	}, 64)
	s.ticker = util.NewTickWorker("retry-scheduler", 500*time.Millisecond, s.stop, s.drain, &s.wg)
	return s
}

func (s *tickScheduler) Start() {
	s.worker.Start()
	s.ticker.Start()
}

func (s *tickScheduler) Stop() {
	if s.ticker.IsRunning() {
		s.ticker.Stop()
	}
	s.worker.Stop()
	s.wg.Wait()
}

func (s *tickScheduler) Schedule(res *model.AIResult, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduledRetry{
		dueAt:   time.Now().Add(delay),
		payload: res,
	})
}

func (s *tickScheduler) drain() {
	now := time.Now()
	s.mu.Lock()
	var due []*model.AIResult
	remaining := s.pending[:0]
	for _, r := range s.pending {
		if r.dueAt.After(now) {
			remaining = append(remaining, r)
			continue
		}
		due = append(due, r.payload)
	}
	s.pending = remaining
	s.mu.Unlock()

	for _, payload := range due {
		s.worker.Sender() <- payload
	}
}
