package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"trexo-analytics/internal/models"
	svc "trexo-analytics/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResultCache_PutAndGet(t *testing.T) {
	kv := newFakeKVStore()
	cache := svc.NewResultCache(kv, 10*time.Minute, zap.NewNop())

	diag := models.NewDiagnostics("usage_trend", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	result := &models.UsageTrendResult{
		Rows: []models.UsageTrendRow{
			{Week: "2026-W09", TotalSteps: 1200, ActivePatients: 2},
		},
		Diagnostics: diag,
	}

	err := cache.Put(context.Background(), svc.CacheUsageTrend, result)
	require.NoError(t, err)

	raw, err := cache.Get(context.Background(), svc.CacheUsageTrend)
	require.NoError(t, err)

	var decoded models.UsageTrendResult
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded.Rows, 1)
	require.Equal(t, "2026-W09", decoded.Rows[0].Week)
	require.Equal(t, 1200, decoded.Rows[0].TotalSteps)
	require.Equal(t, diag.RunID, decoded.Diagnostics.RunID)

	// absent 指标序列化后不出现在 JSON 中（缺值绝不折算为 0）
	require.NotContains(t, raw, "steps_change")
}

func TestResultCache_GetMiss(t *testing.T) {
	kv := newFakeKVStore()
	cache := svc.NewResultCache(kv, time.Minute, zap.NewNop())

	_, err := cache.Get(context.Background(), svc.CachePatientProgress)
	require.Error(t, err)
	require.True(t, errors.Is(err, svc.ErrCacheMiss))
}

func TestResultCache_PipelinesUseDistinctKeys(t *testing.T) {
	kv := newFakeKVStore()
	cache := svc.NewResultCache(kv, time.Minute, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, svc.CachePatientProgress, map[string]int{"a": 1}))
	require.NoError(t, cache.Put(ctx, svc.CacheDeviceReliability, map[string]int{"b": 2}))

	a, err := cache.Get(ctx, svc.CachePatientProgress)
	require.NoError(t, err)
	b, err := cache.Get(ctx, svc.CacheDeviceReliability)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
