package repository

import (
	"context"
	"fmt"
	"time"

	"trexo-analytics/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPWarehouse 通过上游数据服务读取数仓行的实现。
// 上游服务（抽取/清洗协作方）按关系暴露只读端点，返回已类型化的行。
type HTTPWarehouse struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPWarehouse 创建数据服务客户端
// baseURL: 数据服务地址；apiKey: X-API-Key 头（可为空）
func NewHTTPWarehouse(baseURL, apiKey string, logger *zap.Logger) *HTTPWarehouse {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second). // 全量事实表拉取可能较慢
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}

	return &HTTPWarehouse{
		httpClient: client,
		logger:     logger,
	}
}

// 确保实现了接口
var _ Warehouse = (*HTTPWarehouse)(nil)

func (h *HTTPWarehouse) get(ctx context.Context, path string, dateRange *DateRange, result interface{}) error {
	req := h.httpClient.R().SetContext(ctx).SetResult(result)
	if dateRange != nil {
		if dateRange.Start != nil {
			req.SetQueryParam("start_date", dateRange.Start.Format("2006-01-02"))
		}
		if dateRange.End != nil {
			req.SetQueryParam("end_date", dateRange.End.Format("2006-01-02"))
		}
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("failed to call data service %s: %w", path, err)
	}
	if resp.IsError() {
		h.logger.Error("Data service returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("data service %s returned status %d", path, resp.StatusCode())
	}
	return nil
}

func (h *HTTPWarehouse) Patients(ctx context.Context) ([]domain.Patient, error) {
	var out []domain.Patient
	if err := h.get(ctx, "/api/warehouse/patients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPWarehouse) Devices(ctx context.Context) ([]domain.Device, error) {
	var out []domain.Device
	if err := h.get(ctx, "/api/warehouse/devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPWarehouse) Facilities(ctx context.Context) ([]domain.HealthcareFacility, error) {
	var out []domain.HealthcareFacility
	if err := h.get(ctx, "/api/warehouse/facilities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPWarehouse) Sessions(ctx context.Context, dateRange DateRange) ([]domain.ClinicalSession, error) {
	var out []domain.ClinicalSession
	if err := h.get(ctx, "/api/warehouse/sessions", &dateRange, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPWarehouse) UsageFacts(ctx context.Context, dateRange DateRange) ([]domain.DeviceUsageFact, error) {
	var out []domain.DeviceUsageFact
	if err := h.get(ctx, "/api/warehouse/device-usage", &dateRange, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPWarehouse) OutcomeFacts(ctx context.Context, dateRange DateRange) ([]domain.PatientOutcomeFact, error) {
	var out []domain.PatientOutcomeFact
	if err := h.get(ctx, "/api/warehouse/patient-outcomes", &dateRange, &out); err != nil {
		return nil, err
	}
	return out, nil
}
