// Package dedup implements the idempotency ledger: an in-process cache in
// front of a persisted record per processed message.
package dedup

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence"
	"go.uber.org/zap"
)

const DEFAULT_TTL = 24 * time.Hour

type Deduper struct {
	store persistence.LedgerStore
	cache *gocache.Cache
	ttl   time.Duration
}

func NewDeduper(store persistence.LedgerStore, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DEFAULT_TTL
	}
	return &Deduper{
		store: store,
		cache: gocache.New(ttl, 30*time.Minute),
		ttl:   ttl,
	}
}

// IsDuplicate reports whether messageID has already been handled. Storage
// failures log and return false: reprocessing beats losing a message.
func (d *Deduper) IsDuplicate(ctx context.Context, messageID string, leadID string) bool {
	if _, ok := d.cache.Get(messageID); ok {
		return true
	}
	rec, err := d.store.GetProcessed(ctx, messageID)
	if err != nil {
		logger.Warn("ledger read failed, treating message as new",
			zap.String("messageId", messageID), zap.String("leadId", leadID), zap.Error(err))
		return false
	}
	if rec == nil {
		return false
	}
	// a retrying entry means the message is still in flight, not handled
	if rec.Status == model.PROCESSING_RETRYING {
		return false
	}
	d.cache.Set(messageID, rec.Status, time.Until(rec.ExpiresAt))
	return true
}

// MarkProcessed records the terminal status for messageID. A second write
// for the same message overwrites harmlessly.
func (d *Deduper) MarkProcessed(ctx context.Context, messageID string, leadID string, status model.ProcessingStatus) {
	now := time.Now()
	rec := &model.ProcessedMessage{
		MessageID:   messageID,
		LeadID:      leadID,
		Status:      status,
		ProcessedAt: now,
		ExpiresAt:   now.Add(d.ttl),
	}
	if err := d.store.PutProcessed(ctx, rec, d.ttl); err != nil {
		logger.Error("ledger write failed", zap.String("messageId", messageID), zap.Error(err))
	}
	// retrying entries must not short-circuit the next delivery
	if status == model.PROCESSING_RETRYING {
		d.cache.Delete(messageID)
		return
	}
	d.cache.Set(messageID, status, d.ttl)
}
