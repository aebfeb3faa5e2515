package domain

import "time"

// DeviceUsageFact 设备使用事实领域模型（对应 fact_device_usage 表）
// 事实表只追加不修改，由上游 ETL 负责装载
type DeviceUsageFact struct {
	// 关联键
	SessionID  string `db:"session_id" json:"session_id"`   // VARCHAR(20), FK to clinical_sessions
	PatientID  string `db:"patient_id" json:"patient_id"`   // VARCHAR(20), FK to patients
	DeviceID   string `db:"device_id" json:"device_id"`     // VARCHAR(20), FK to devices
	FacilityID string `db:"facility_id" json:"facility_id"` // VARCHAR(20), FK to healthcare_facilities

	UsageDate time.Time `db:"usage_date" json:"usage_date"` // DATE, NOT NULL

	// 使用指标
	TotalSteps        int     `db:"total_steps" json:"total_steps"`                 // INT, >= 0
	DistanceMeters    float64 `db:"distance_meters" json:"distance_meters"`         // NUMERIC(10,2), >= 0
	ActiveTimeMinutes float64 `db:"active_time_minutes" json:"active_time_minutes"` // NUMERIC(6,2), >= 0
	AverageSpeedKmh   float64 `db:"average_speed_kmh" json:"average_speed_kmh"`     // NUMERIC(5,2)
	MaxSpeedKmh       float64 `db:"max_speed_kmh" json:"max_speed_kmh"`             // NUMERIC(5,2)

	// 设备指标
	BatteryUsagePercent float64 `db:"battery_usage_percent" json:"battery_usage_percent"` // NUMERIC(5,2), [0,100]
	ErrorCount          int     `db:"error_count" json:"error_count"`                     // INT, >= 0
}
