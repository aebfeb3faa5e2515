package domain

// HealthcareFacility 医疗机构维度领域模型（对应 healthcare_facilities 表）
type HealthcareFacility struct {
	// 主键
	FacilityID string `db:"facility_id" json:"facility_id"` // VARCHAR(20), PRIMARY KEY

	FacilityName string `db:"facility_name" json:"facility_name"` // VARCHAR(100), NOT NULL
	FacilityType string `db:"facility_type" json:"facility_type"` // VARCHAR(50), 如 'Children''s Hospital'

	// 地理位置
	City    string `db:"city" json:"city"`       // VARCHAR(50)
	State   string `db:"state" json:"state"`     // VARCHAR(50), 州/省
	Country string `db:"country" json:"country"` // VARCHAR(50)
}
