package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// 结果缓存键：trexo:analytics:{pipeline}:latest
const cacheKeyFormat = "trexo:analytics:%s:latest"

// 管线缓存名
const (
	CachePatientProgress     = "patient-progress"
	CacheDeviceReliability   = "device-reliability"
	CacheCohortAnalysis      = "cohort-analysis"
	CacheFacilityPerformance = "facility-performance"
	CacheUsageTrend          = "usage-trend"
	CacheDashboardSummary    = "dashboard-summary"
)

// ResultCache 计算结果缓存管理器。
// 每轮重算完成后按管线整体替换，读到的永远是某一轮完整的输出。
type ResultCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewResultCache 创建结果缓存管理器
func NewResultCache(kv KVStore, ttl time.Duration, logger *zap.Logger) *ResultCache {
	return &ResultCache{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// Put 序列化并写入某个管线的最新结果
func (c *ResultCache) Put(ctx context.Context, pipeline string, result interface{}) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal %s result: %w", pipeline, err)
	}

	key := fmt.Sprintf(cacheKeyFormat, pipeline)
	if err := c.kv.Set(ctx, key, string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Updated result cache",
		zap.String("pipeline", pipeline),
		zap.String("key", key),
		zap.Int("bytes", len(jsonData)),
	)
	return nil
}

// Get 读取某个管线的最新结果 JSON；缓存不存在时返回 ErrCacheMiss
func (c *ResultCache) Get(ctx context.Context, pipeline string) (string, error) {
	key := fmt.Sprintf(cacheKeyFormat, pipeline)
	return c.kv.Get(ctx, key)
}
