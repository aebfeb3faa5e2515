package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 检查默认值
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}

	if cfg.Database.Database != "trexo_warehouse" {
		t.Errorf("Expected DB_NAME default 'trexo_warehouse', got '%s'", cfg.Database.Database)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.Analytics.StoreMode != "postgres" {
		t.Errorf("Expected ANALYTICS_STORE_MODE default 'postgres', got '%s'", cfg.Analytics.StoreMode)
	}

	if cfg.Analytics.Interval != 300 {
		t.Errorf("Expected analytics interval default 300, got %d", cfg.Analytics.Interval)
	}

	if cfg.Analytics.ProgressLookbackMonths != 12 {
		t.Errorf("Expected progress lookback default 12, got %d", cfg.Analytics.ProgressLookbackMonths)
	}

	if cfg.Analytics.ReliabilityLookbackMonths != 6 {
		t.Errorf("Expected reliability lookback default 6, got %d", cfg.Analytics.ReliabilityLookbackMonths)
	}

	if cfg.Analytics.CacheTTL != 600 {
		t.Errorf("Expected cache TTL default 600, got %d", cfg.Analytics.CacheTTL)
	}

	if cfg.Analytics.Export.Enabled {
		t.Error("Expected export disabled by default")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-warehouse")
	os.Setenv("ANALYTICS_STORE_MODE", "http")
	os.Setenv("DATA_SERVICE_URL", "http://data-service:5000")
	os.Setenv("DATA_SERVICE_KEY", "test-key")
	os.Setenv("ANALYTICS_INTERVAL", "60")
	os.Setenv("ANALYTICS_EXPORT_ENABLED", "true")
	os.Setenv("ANALYTICS_EXPORT_DIR", "/tmp/reports")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Database != "test-warehouse" {
		t.Errorf("Expected DB_NAME 'test-warehouse', got '%s'", cfg.Database.Database)
	}

	if cfg.Analytics.StoreMode != "http" {
		t.Errorf("Expected ANALYTICS_STORE_MODE 'http', got '%s'", cfg.Analytics.StoreMode)
	}

	if cfg.Analytics.DataServiceURL != "http://data-service:5000" {
		t.Errorf("Expected DATA_SERVICE_URL 'http://data-service:5000', got '%s'", cfg.Analytics.DataServiceURL)
	}

	if cfg.Analytics.DataServiceKey != "test-key" {
		t.Errorf("Expected DATA_SERVICE_KEY 'test-key', got '%s'", cfg.Analytics.DataServiceKey)
	}

	if cfg.Analytics.Interval != 60 {
		t.Errorf("Expected analytics interval 60, got %d", cfg.Analytics.Interval)
	}

	if !cfg.Analytics.Export.Enabled {
		t.Error("Expected export enabled")
	}

	if cfg.Analytics.Export.Dir != "/tmp/reports" {
		t.Errorf("Expected export dir '/tmp/reports', got '%s'", cfg.Analytics.Export.Dir)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("ANALYTICS_INTERVAL", "not-a-number")
	os.Setenv("ANALYTICS_CACHE_TTL", "-5")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Analytics.Interval != 300 {
		t.Errorf("Expected fallback interval 300, got %d", cfg.Analytics.Interval)
	}

	if cfg.Analytics.CacheTTL != 600 {
		t.Errorf("Expected fallback cache TTL 600, got %d", cfg.Analytics.CacheTTL)
	}
}
