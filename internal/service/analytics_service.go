package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trexo-analytics/internal/analytics"
	"trexo-analytics/internal/config"
	"trexo-analytics/internal/exporter"
	"trexo-analytics/internal/models"
	"trexo-analytics/internal/repository"
	"trexo-analytics/pkg/database"
	"trexo-analytics/pkg/redisutil"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AnalyticsService 遥测分析服务
type AnalyticsService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	engine      *analytics.Engine
	resultCache *ResultCache
	reportExp   *exporter.ReportExporter
}

// NewAnalyticsService 创建遥测分析服务
func NewAnalyticsService(cfg *config.Config, logger *zap.Logger) (*AnalyticsService, error) {
	// 初始化 Redis（结果缓存）
	redisClient := redisutil.NewRedisClient(&cfg.Redis)
	if err := redisutil.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 根据存储模式选择仓库实现
	var db *sql.DB
	var store repository.Warehouse
	switch cfg.Analytics.StoreMode {
	case "postgres":
		var err error
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			redisutil.Close(redisClient)
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store = repository.NewPostgresWarehouse(db)
	case "http":
		store = repository.NewHTTPWarehouse(cfg.Analytics.DataServiceURL, cfg.Analytics.DataServiceKey, logger)
	default:
		redisutil.Close(redisClient)
		return nil, fmt.Errorf("unsupported store mode: %s", cfg.Analytics.StoreMode)
	}

	engine := analytics.NewEngine(store, logger)

	kv := NewRedisKVStore(redisClient)
	resultCache := NewResultCache(kv, time.Duration(cfg.Analytics.CacheTTL)*time.Second, logger)

	var reportExp *exporter.ReportExporter
	if cfg.Analytics.Export.Enabled {
		reportExp = exporter.NewReportExporter(logger)
	}

	return &AnalyticsService{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		engine:      engine,
		resultCache: resultCache,
		reportExp:   reportExp,
	}, nil
}

// Start 启动轮询模式（阻塞直到 ctx 取消）
func (s *AnalyticsService) Start(ctx context.Context) error {
	interval := time.Duration(s.config.Analytics.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting analytics service",
		zap.String("store_mode", s.config.Analytics.StoreMode),
		zap.Duration("interval", interval),
		zap.Bool("export_enabled", s.config.Analytics.Export.Enabled),
	)

	// 启动后立即计算一轮
	if err := s.runOnce(ctx, time.Now()); err != nil {
		s.logger.Error("Failed to compute analytics on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.runOnce(ctx, time.Now()); err != nil {
				s.logger.Error("Failed to compute analytics", zap.Error(err))
			}
		}
	}
}

// runOnce 以 asOf 为参考时钟执行一轮全量计算并刷新缓存
func (s *AnalyticsService) runOnce(ctx context.Context, asOf time.Time) error {
	start := time.Now()
	s.logger.Info("Starting analytics run", zap.Time("as_of", asOf))

	progress, err := s.engine.PatientProgress(ctx, analytics.Params{
		AsOf:           asOf,
		LookbackMonths: s.config.Analytics.ProgressLookbackMonths,
	})
	if err != nil {
		return fmt.Errorf("patient progress pipeline: %w", err)
	}

	reliability, err := s.engine.DeviceReliability(ctx, analytics.Params{
		AsOf:           asOf,
		LookbackMonths: s.config.Analytics.ReliabilityLookbackMonths,
	})
	if err != nil {
		return fmt.Errorf("device reliability pipeline: %w", err)
	}

	cohort, err := s.engine.CohortAnalysis(ctx, analytics.Params{AsOf: asOf})
	if err != nil {
		return fmt.Errorf("cohort analysis pipeline: %w", err)
	}

	facility, err := s.engine.FacilityPerformance(ctx, analytics.Params{AsOf: asOf})
	if err != nil {
		return fmt.Errorf("facility performance pipeline: %w", err)
	}

	trend, err := s.engine.UsageTrend(ctx, analytics.Params{AsOf: asOf})
	if err != nil {
		return fmt.Errorf("usage trend pipeline: %w", err)
	}

	dashboard, err := s.engine.DashboardSummary(ctx, analytics.Params{AsOf: asOf})
	if err != nil {
		return fmt.Errorf("dashboard summary pipeline: %w", err)
	}

	s.cacheResults(ctx, progress, reliability, cohort, facility, trend, dashboard)

	if s.reportExp != nil {
		report := &exporter.Report{
			AsOf:              asOf,
			PatientProgress:   progress,
			DeviceReliability: reliability,
			CohortAnalysis:    cohort,
			Facility:          facility,
			UsageTrend:        trend,
		}
		if _, err := s.reportExp.WriteFile(s.config.Analytics.Export.Dir, report); err != nil {
			// 导出失败不影响本轮计算结果
			s.logger.Error("Failed to export report", zap.Error(err))
		}
	}

	s.logger.Info("Completed analytics run",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("progress_rows", len(progress.Rows)),
		zap.Int("reliability_devices", len(reliability.Devices)),
		zap.Int("cohort_rows", len(cohort.Rows)),
		zap.Int("facility_rows", len(facility.Rows)),
		zap.Int("trend_rows", len(trend.Rows)),
	)
	return nil
}

// cacheResults 刷新各管线缓存，单条失败只记录日志
func (s *AnalyticsService) cacheResults(
	ctx context.Context,
	progress *models.PatientProgressResult,
	reliability *models.DeviceReliabilityResult,
	cohort *models.CohortAnalysisResult,
	facility *models.FacilityPerformanceResult,
	trend *models.UsageTrendResult,
	dashboard *models.DashboardSummary,
) {
	entries := []struct {
		pipeline string
		result   interface{}
	}{
		{CachePatientProgress, progress},
		{CacheDeviceReliability, reliability},
		{CacheCohortAnalysis, cohort},
		{CacheFacilityPerformance, facility},
		{CacheUsageTrend, trend},
		{CacheDashboardSummary, dashboard},
	}
	for _, entry := range entries {
		if err := s.resultCache.Put(ctx, entry.pipeline, entry.result); err != nil {
			s.logger.Error("Failed to cache pipeline result",
				zap.String("pipeline", entry.pipeline),
				zap.Error(err),
			)
		}
	}
}

// Stop 停止服务并释放资源
func (s *AnalyticsService) Stop() {
	s.logger.Info("Stopping analytics service")

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	if s.redisClient != nil {
		if err := redisutil.Close(s.redisClient); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
}
