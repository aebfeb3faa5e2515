package domain

import "time"

// 评估类型
const (
	AssessmentTypeBaseline = "baseline"
	AssessmentTypeFollowup = "followup"
	AssessmentTypeFinal    = "final"
)

// PatientOutcomeFact 患者结局事实领域模型（对应 fact_patient_outcomes 表）
// 事实表只追加不修改，由上游 ETL 负责装载
type PatientOutcomeFact struct {
	// 关联键
	PatientID  string `db:"patient_id" json:"patient_id"`   // VARCHAR(20), FK to patients
	FacilityID string `db:"facility_id" json:"facility_id"` // VARCHAR(20), FK to healthcare_facilities

	AssessmentDate time.Time `db:"assessment_date" json:"assessment_date"` // DATE, NOT NULL
	AssessmentType string    `db:"assessment_type" json:"assessment_type"` // VARCHAR(20), CHECK IN ('baseline', 'followup', 'final')

	// GMFCS 粗大运动功能分级（1-5）
	GMFCSLevel int `db:"gmfcs_level" json:"gmfcs_level"` // INT, CHECK BETWEEN 1 AND 5

	// 评估分数（[0,100]，装载时已钳制，引擎侧仍按越界剔除处理）
	WalkingIndependenceScore float64 `db:"walking_independence_score" json:"walking_independence_score"` // NUMERIC(5,2)
	MobilityScore            float64 `db:"mobility_score" json:"mobility_score"`                         // NUMERIC(5,2)
	QualityOfLifeScore       float64 `db:"quality_of_life_score" json:"quality_of_life_score"`           // NUMERIC(5,2)

	StepsPerDayAvg float64 `db:"steps_per_day_avg" json:"steps_per_day_avg"` // NUMERIC(8,2)
}

// AssessmentMonth 返回评估月份（截断到月初）
func (f PatientOutcomeFact) AssessmentMonth() time.Time {
	return time.Date(f.AssessmentDate.Year(), f.AssessmentDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}
