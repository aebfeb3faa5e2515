package domain

import "time"

// Patient 患者维度领域模型（对应 patients 表）
// 注意：仓库中只保存匿名化后的患者标识，原始身份信息由上游 ETL 负责剥离
type Patient struct {
	// 主键
	PatientID string `db:"patient_id" json:"patient_id"` // VARCHAR(20), PRIMARY KEY

	// 匿名化标识（SHA-256 前16位，由上游 ETL 生成，全局唯一）
	AnonymizedID string `db:"anonymized_id" json:"anonymized_id"` // VARCHAR(16), UNIQUE, NOT NULL

	// 人口学属性
	AgeAtEnrollment   int    `db:"age_at_enrollment" json:"age_at_enrollment"`   // INT
	Gender            string `db:"gender" json:"gender"`                         // VARCHAR(10)
	DiagnosisCategory string `db:"diagnosis_category" json:"diagnosis_category"` // VARCHAR(50), 如 'Cerebral Palsy'
	Region            string `db:"region" json:"region"`                         // VARCHAR(30)

	// 入组日期（队列分析的分组依据，NOT NULL）
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"` // DATE, NOT NULL
}

// EnrollmentMonth 返回入组月份（截断到月初），作为队列键
func (p Patient) EnrollmentMonth() time.Time {
	return time.Date(p.EnrollmentDate.Year(), p.EnrollmentDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}
