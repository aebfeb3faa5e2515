package config

import (
	"os"
	"strconv"

	"trexo-analytics/pkg/database"
	"trexo-analytics/pkg/redisutil"
)

// Config 分析服务配置
type Config struct {
	Database database.Config
	Redis    redisutil.Config

	// 分析引擎特定配置
	Analytics struct {
		// 仓库数据来源
		// 选项：postgres（直连数仓）、http（通过上游数据服务读取）
		StoreMode string // "postgres" 或 "http"

		// HTTP 模式配置（上游数据服务地址）
		DataServiceURL string
		DataServiceKey string

		// 计算周期（秒），默认 300 秒全量重算一次
		Interval int

		// 回溯窗口（月），各管线默认值
		ProgressLookbackMonths    int // 患者进展，默认 12
		ReliabilityLookbackMonths int // 设备可靠性，默认 6

		// 结果缓存 TTL（秒），默认 600
		CacheTTL int

		// Excel 报表导出
		Export struct {
			Enabled bool
			Dir     string // 报表输出目录
		}
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "trexo_warehouse")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	// 分析引擎配置
	cfg.Analytics.StoreMode = getEnv("ANALYTICS_STORE_MODE", "postgres")
	cfg.Analytics.DataServiceURL = getEnv("DATA_SERVICE_URL", "http://localhost:5000")
	cfg.Analytics.DataServiceKey = getEnv("DATA_SERVICE_KEY", "")
	cfg.Analytics.Interval = getEnvInt("ANALYTICS_INTERVAL", 300)
	cfg.Analytics.ProgressLookbackMonths = getEnvInt("ANALYTICS_PROGRESS_LOOKBACK_MONTHS", 12)
	cfg.Analytics.ReliabilityLookbackMonths = getEnvInt("ANALYTICS_RELIABILITY_LOOKBACK_MONTHS", 6)
	cfg.Analytics.CacheTTL = getEnvInt("ANALYTICS_CACHE_TTL", 600)
	cfg.Analytics.Export.Enabled = getEnv("ANALYTICS_EXPORT_ENABLED", "false") == "true"
	cfg.Analytics.Export.Dir = getEnv("ANALYTICS_EXPORT_DIR", "reports")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}
