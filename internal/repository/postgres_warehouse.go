package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trexo-analytics/internal/domain"
)

// PostgresWarehouse 数仓Repository实现（直连 PostgreSQL）
type PostgresWarehouse struct {
	db *sql.DB
}

// NewPostgresWarehouse 创建数仓Repository
func NewPostgresWarehouse(db *sql.DB) *PostgresWarehouse {
	return &PostgresWarehouse{db: db}
}

// 确保实现了接口
var _ Warehouse = (*PostgresWarehouse)(nil)

// buildDateWhere 构建日期范围 WHERE 子句（闭区间，nil 边界不限制）
func buildDateWhere(column string, dateRange DateRange, args *[]interface{}) string {
	var where []string
	if dateRange.Start != nil {
		*args = append(*args, *dateRange.Start)
		where = append(where, fmt.Sprintf("%s >= $%d", column, len(*args)))
	}
	if dateRange.End != nil {
		*args = append(*args, *dateRange.End)
		where = append(where, fmt.Sprintf("%s <= $%d", column, len(*args)))
	}
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

// Patients 全量读取患者维度
func (r *PostgresWarehouse) Patients(ctx context.Context) ([]domain.Patient, error) {
	query := `
		SELECT patient_id, anonymized_id, age_at_enrollment, gender,
		       diagnosis_category, region, enrollment_date
		FROM patients
		ORDER BY patient_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []domain.Patient
	for rows.Next() {
		var p domain.Patient
		if err := rows.Scan(
			&p.PatientID, &p.AnonymizedID, &p.AgeAtEnrollment, &p.Gender,
			&p.DiagnosisCategory, &p.Region, &p.EnrollmentDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// Devices 全量读取设备维度
func (r *PostgresWarehouse) Devices(ctx context.Context) ([]domain.Device, error) {
	query := `
		SELECT device_id, serial_number, device_model, firmware_version,
		       manufacturing_date, status
		FROM devices
		ORDER BY device_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(
			&d.DeviceID, &d.SerialNumber, &d.DeviceModel, &d.FirmwareVersion,
			&d.ManufacturingDate, &d.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// Facilities 全量读取机构维度
func (r *PostgresWarehouse) Facilities(ctx context.Context) ([]domain.HealthcareFacility, error) {
	query := `
		SELECT facility_id, facility_name, facility_type, city, state, country
		FROM healthcare_facilities
		ORDER BY facility_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilities: %w", err)
	}
	defer rows.Close()

	var facilities []domain.HealthcareFacility
	for rows.Next() {
		var f domain.HealthcareFacility
		if err := rows.Scan(
			&f.FacilityID, &f.FacilityName, &f.FacilityType,
			&f.City, &f.State, &f.Country,
		); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// Sessions 按日期范围读取临床会话
func (r *PostgresWarehouse) Sessions(ctx context.Context, dateRange DateRange) ([]domain.ClinicalSession, error) {
	var args []interface{}
	query := `
		SELECT session_id, patient_id, device_id, facility_id,
		       session_date, session_type, duration_minutes
		FROM clinical_sessions
	` + buildDateWhere("session_date", dateRange, &args) + `
		ORDER BY session_date, session_id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ClinicalSession
	for rows.Next() {
		var s domain.ClinicalSession
		if err := rows.Scan(
			&s.SessionID, &s.PatientID, &s.DeviceID, &s.FacilityID,
			&s.SessionDate, &s.SessionType, &s.DurationMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UsageFacts 按日期范围读取设备使用事实
func (r *PostgresWarehouse) UsageFacts(ctx context.Context, dateRange DateRange) ([]domain.DeviceUsageFact, error) {
	var args []interface{}
	query := `
		SELECT session_id, patient_id, device_id, facility_id, usage_date,
		       total_steps, distance_meters, active_time_minutes,
		       average_speed_kmh, max_speed_kmh,
		       battery_usage_percent, error_count
		FROM fact_device_usage
	` + buildDateWhere("usage_date", dateRange, &args) + `
		ORDER BY usage_date, session_id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.DeviceUsageFact
	for rows.Next() {
		var f domain.DeviceUsageFact
		if err := rows.Scan(
			&f.SessionID, &f.PatientID, &f.DeviceID, &f.FacilityID, &f.UsageDate,
			&f.TotalSteps, &f.DistanceMeters, &f.ActiveTimeMinutes,
			&f.AverageSpeedKmh, &f.MaxSpeedKmh,
			&f.BatteryUsagePercent, &f.ErrorCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// OutcomeFacts 按日期范围读取患者结局事实
func (r *PostgresWarehouse) OutcomeFacts(ctx context.Context, dateRange DateRange) ([]domain.PatientOutcomeFact, error) {
	var args []interface{}
	query := `
		SELECT patient_id, facility_id, assessment_date, assessment_type,
		       gmfcs_level, walking_independence_score, mobility_score,
		       quality_of_life_score, steps_per_day_avg
		FROM fact_patient_outcomes
	` + buildDateWhere("assessment_date", dateRange, &args) + `
		ORDER BY assessment_date, patient_id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.PatientOutcomeFact
	for rows.Next() {
		var f domain.PatientOutcomeFact
		if err := rows.Scan(
			&f.PatientID, &f.FacilityID, &f.AssessmentDate, &f.AssessmentType,
			&f.GMFCSLevel, &f.WalkingIndependenceScore, &f.MobilityScore,
			&f.QualityOfLifeScore, &f.StepsPerDayAvg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
