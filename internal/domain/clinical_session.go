package domain

import "time"

// ClinicalSession 临床训练会话领域模型（对应 clinical_sessions 表）
type ClinicalSession struct {
	// 主键
	SessionID string `db:"session_id" json:"session_id"` // VARCHAR(20), PRIMARY KEY

	// 外键（必须能在维度表中解析）
	PatientID  string `db:"patient_id" json:"patient_id"`   // VARCHAR(20), FK to patients
	DeviceID   string `db:"device_id" json:"device_id"`     // VARCHAR(20), FK to devices
	FacilityID string `db:"facility_id" json:"facility_id"` // VARCHAR(20), FK to healthcare_facilities

	SessionDate time.Time `db:"session_date" json:"session_date"` // DATE, NOT NULL
	SessionType string    `db:"session_type" json:"session_type"` // VARCHAR(30), 如 'gait_training'

	// 会话时长（分钟，>= 0）
	DurationMinutes float64 `db:"duration_minutes" json:"duration_minutes"` // NUMERIC(6,2)
}
