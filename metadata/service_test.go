package metadata_test

import (
	"context"
	"testing"

	"github.com/sreenadh34/biznavigate-backend-sub002/logger"
	"github.com/sreenadh34/biznavigate-backend-sub002/metadata"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func simpleDefinition(text string) *model.WorkflowDefinition {
	return &model.WorkflowDefinition{
		InitialState: "s1",
		States: map[string]model.WorkflowState{
			"s1": {
				Type: model.STATE_TYPE_ACTION,
				Actions: []model.WorkflowAction{
					{ActionID: "a1", Type: "send_message", Params: map[string]any{
						"content": map[string]any{"type": "TEXT", "text": text},
					}},
				},
				Transitions: []model.WorkflowTransition{{To: "end"}},
			},
			"end": {Type: model.STATE_TYPE_END},
		},
	}
}

func seed(t *testing.T) (metadata.Service, *inmem.MetadataStorage) {
	t.Helper()
	logger.Mute()
	storage := inmem.NewMetadataStorage()
	svc := metadata.NewService(storage)
	ctx := context.Background()
	require.NoError(t, storage.SaveBusiness(ctx, &model.Business{
		BusinessID: "biz-1", TenantID: "tenant-1", Type: "retail",
	}))
	return svc, storage
}

func TestResolveFallbackOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("business specific intent wins", func(t *testing.T) {
		svc, storage := seed(t)
		storage.SaveWorkflow(ctx, &model.WorkflowRecord{
			WorkflowID: "wf-exact", BusinessID: "biz-1", Intent: "ORDER_REQUEST",
			Key: "exact", Definition: simpleDefinition("exact"),
		})
		storage.SaveWorkflow(ctx, &model.WorkflowRecord{
			WorkflowID: "wf-type", BusinessType: "retail", Intent: "ORDER_REQUEST",
			Key: "type-default", Definition: simpleDefinition("type"),
		})
		resolved, err := svc.Resolve(ctx, "biz-1", "ORDER_REQUEST")
		require.NoError(t, err)
		require.Equal(t, "wf-exact", resolved.WorkflowID)
	})

	t.Run("business UNKNOWN beats type default", func(t *testing.T) {
		svc, storage := seed(t)
		storage.SaveWorkflow(ctx, &model.WorkflowRecord{
			WorkflowID: "wf-unknown", BusinessID: "biz-1", Intent: model.INTENT_UNKNOWN,
			Key: "biz-unknown", Definition: simpleDefinition("unknown"),
		})
		storage.SaveWorkflow(ctx, &model.WorkflowRecord{
			WorkflowID: "wf-type", BusinessType: "retail", Intent: "ORDER_REQUEST",
			Key: "type-default", Definition: simpleDefinition("type"),
		})
		resolved, err := svc.Resolve(ctx, "biz-1", "ORDER_REQUEST")
		require.NoError(t, err)
		require.Equal(t, "wf-unknown", resolved.WorkflowID)
	})

	t.Run("type default for intent without business workflow", func(t *testing.T) {
		svc, storage := seed(t)
		storage.SaveWorkflow(ctx, &model.WorkflowRecord{
			WorkflowID: "wf-type", BusinessType: "retail", Intent: "ORDER_REQUEST",
			Key: "type-default", Definition: simpleDefinition("type"),
		})
		resolved, err := svc.Resolve(ctx, "biz-1", "ORDER_REQUEST")
		require.NoError(t, err)
		require.Equal(t, "wf-type", resolved.WorkflowID)
	})

	t.Run("type UNKNOWN default is the last level", func(t *testing.T) {
		svc, storage := seed(t)
		storage.SaveWorkflow(ctx, &model.WorkflowRecord{
			WorkflowID: "wf-type-unknown", BusinessType: "retail", Intent: model.INTENT_UNKNOWN,
			Key: "type-unknown", Definition: simpleDefinition("fallback"),
		})
		resolved, err := svc.Resolve(ctx, "biz-1", "ORDER_REQUEST")
		require.NoError(t, err)
		require.Equal(t, "wf-type-unknown", resolved.WorkflowID)
	})

	t.Run("unknown business fails", func(t *testing.T) {
		svc, _ := seed(t)
		_, err := svc.Resolve(ctx, "no-such-biz", "ORDER_REQUEST")
		var nf model.NotFoundError
		require.ErrorAs(t, err, &nf)
		require.Equal(t, "business", nf.Kind)
	})

	t.Run("no definition at any level fails", func(t *testing.T) {
		svc, _ := seed(t)
		_, err := svc.Resolve(ctx, "biz-1", "ORDER_REQUEST")
		var nf model.NotFoundError
		require.ErrorAs(t, err, &nf)
		require.Equal(t, "workflow", nf.Kind)
	})
}

func TestResolveCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	svc, storage := seed(t)
	storage.SaveWorkflow(ctx, &model.WorkflowRecord{
		WorkflowID: "wf-1", BusinessType: "retail", Intent: model.INTENT_UNKNOWN,
		Key: "v1", Definition: simpleDefinition("v1"),
	})
	resolved, err := svc.Resolve(ctx, "biz-1", "GREETING")
	require.NoError(t, err)
	require.Equal(t, "wf-1", resolved.WorkflowID)

	// save through the service so the cache is flushed
	require.NoError(t, svc.SaveWorkflow(ctx, &model.WorkflowRecord{
		WorkflowID: "wf-2", BusinessID: "biz-1", Intent: "GREETING",
		Key: "v2", Definition: simpleDefinition("v2"),
	}))
	resolved, err = svc.Resolve(ctx, "biz-1", "GREETING")
	require.NoError(t, err)
	require.Equal(t, "wf-2", resolved.WorkflowID)
}

func TestValidate(t *testing.T) {
	svc, _ := seed(t)

	require.NoError(t, svc.Validate(simpleDefinition("ok")))

	bad := simpleDefinition("bad")
	bad.InitialState = "nope"
	require.Error(t, svc.Validate(bad))

	dangling := simpleDefinition("dangling")
	s1 := dangling.States["s1"]
	s1.Transitions = []model.WorkflowTransition{{To: "missing"}}
	dangling.States["s1"] = s1
	require.Error(t, svc.Validate(dangling))

	decision := &model.WorkflowDefinition{
		InitialState: "d",
		States: map[string]model.WorkflowState{
			"d": {Type: model.STATE_TYPE_DECISION},
		},
	}
	require.Error(t, svc.Validate(decision))
}
