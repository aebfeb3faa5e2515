package repository

import (
	"context"
	"errors"
	"time"

	"trexo-analytics/internal/domain"
)

// ErrEmptySnapshot 仓库必需关系为空（与"有数据但无匹配行"区分开的致命条件）
var ErrEmptySnapshot = errors.New("warehouse relation is empty")

// DateRange 日期范围过滤器；nil 边界表示不限制
type DateRange struct {
	Start *time.Time // 含（>=）
	End   *time.Time // 含（<=）
}

// Contains 判断 t 是否落在范围内
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Between 构造闭区间范围
func Between(start, end time.Time) DateRange {
	return DateRange{Start: &start, End: &end}
}

// Warehouse 数仓只读接口（六个关系）。
// 约定：返回的行已经是完整类型化的（无半类型行、无空主键行）；
// 引擎绝不通过本接口写入或修改仓库数据。
type Warehouse interface {
	// 维度表（全量扫描）
	Patients(ctx context.Context) ([]domain.Patient, error)
	Devices(ctx context.Context) ([]domain.Device, error)
	Facilities(ctx context.Context) ([]domain.HealthcareFacility, error)

	// 会话与事实表（支持日期范围过滤）
	Sessions(ctx context.Context, dateRange DateRange) ([]domain.ClinicalSession, error)
	UsageFacts(ctx context.Context, dateRange DateRange) ([]domain.DeviceUsageFact, error)
	OutcomeFacts(ctx context.Context, dateRange DateRange) ([]domain.PatientOutcomeFact, error)
}
