package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence/inmem"
	"github.com/stretchr/testify/require"
)

type brokenLedger struct{}

func (brokenLedger) GetProcessed(ctx context.Context, messageID string) (*model.ProcessedMessage, error) {
	return nil, errors.New("connection refused")
}

func (brokenLedger) PutProcessed(ctx context.Context, rec *model.ProcessedMessage, ttl time.Duration) error {
	return errors.New("connection refused")
}

func TestDeduper(t *testing.T) {
	logger.Mute()
	ctx := context.Background()

	t.Run("new message is not a duplicate", func(t *testing.T) {
		d := NewDeduper(inmem.NewLedgerStore(), time.Hour)
		require.False(t, d.IsDuplicate(ctx, "m1", "lead-1"))
	})

	t.Run("marked message is a duplicate", func(t *testing.T) {
		d := NewDeduper(inmem.NewLedgerStore(), time.Hour)
		d.MarkProcessed(ctx, "m1", "lead-1", model.PROCESSING_SUCCESS)
		require.True(t, d.IsDuplicate(ctx, "m1", "lead-1"))
	})

	t.Run("persisted record survives a cold cache", func(t *testing.T) {
		store := inmem.NewLedgerStore()
		d := NewDeduper(store, time.Hour)
		d.MarkProcessed(ctx, "m1", "lead-1", model.PROCESSING_FAILED)

		fresh := NewDeduper(store, time.Hour)
		require.True(t, fresh.IsDuplicate(ctx, "m1", "lead-1"))
	})

	t.Run("retrying record is not a duplicate", func(t *testing.T) {
		d := NewDeduper(inmem.NewLedgerStore(), time.Hour)
		d.MarkProcessed(ctx, "m1", "lead-1", model.PROCESSING_RETRYING)
		require.False(t, d.IsDuplicate(ctx, "m1", "lead-1"))
	})

	t.Run("fails open on storage error", func(t *testing.T) {
		d := NewDeduper(brokenLedger{}, time.Hour)
		require.False(t, d.IsDuplicate(ctx, "m1", "lead-1"))
		// the write failure is swallowed too
		d.MarkProcessed(ctx, "m1", "lead-1", model.PROCESSING_SUCCESS)
	})

	t.Run("second mark overwrites harmlessly", func(t *testing.T) {
		store := inmem.NewLedgerStore()
		d := NewDeduper(store, time.Hour)
		d.MarkProcessed(ctx, "m1", "lead-1", model.PROCESSING_SUCCESS)
		d.MarkProcessed(ctx, "m1", "lead-1", model.PROCESSING_SUCCESS)

		rec, err := store.GetProcessed(ctx, "m1")
		require.NoError(t, err)
		require.Equal(t, model.PROCESSING_SUCCESS, rec.Status)
	})
}
