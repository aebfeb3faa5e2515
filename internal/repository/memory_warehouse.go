package repository

import (
	"context"

	"trexo-analytics/internal/domain"
)

// MemoryWarehouse 内存数仓实现（测试和离线快照场景使用）。
// 行序即装载顺序，窗口函数的并列 tie-break 依赖这个顺序。
type MemoryWarehouse struct {
	PatientRows  []domain.Patient
	DeviceRows   []domain.Device
	FacilityRows []domain.HealthcareFacility
	SessionRows  []domain.ClinicalSession
	UsageRows    []domain.DeviceUsageFact
	OutcomeRows  []domain.PatientOutcomeFact
}

// NewMemoryWarehouse 创建空的内存数仓
func NewMemoryWarehouse() *MemoryWarehouse {
	return &MemoryWarehouse{}
}

// 确保实现了接口
var _ Warehouse = (*MemoryWarehouse)(nil)

func (m *MemoryWarehouse) Patients(ctx context.Context) ([]domain.Patient, error) {
	return append([]domain.Patient(nil), m.PatientRows...), nil
}

func (m *MemoryWarehouse) Devices(ctx context.Context) ([]domain.Device, error) {
	return append([]domain.Device(nil), m.DeviceRows...), nil
}

func (m *MemoryWarehouse) Facilities(ctx context.Context) ([]domain.HealthcareFacility, error) {
	return append([]domain.HealthcareFacility(nil), m.FacilityRows...), nil
}

func (m *MemoryWarehouse) Sessions(ctx context.Context, dateRange DateRange) ([]domain.ClinicalSession, error) {
	var out []domain.ClinicalSession
	for _, s := range m.SessionRows {
		if dateRange.Contains(s.SessionDate) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryWarehouse) UsageFacts(ctx context.Context, dateRange DateRange) ([]domain.DeviceUsageFact, error) {
	var out []domain.DeviceUsageFact
	for _, f := range m.UsageRows {
		if dateRange.Contains(f.UsageDate) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *MemoryWarehouse) OutcomeFacts(ctx context.Context, dateRange DateRange) ([]domain.PatientOutcomeFact, error) {
	var out []domain.PatientOutcomeFact
	for _, f := range m.OutcomeRows {
		if dateRange.Contains(f.AssessmentDate) {
			out = append(out, f)
		}
	}
	return out, nil
}
