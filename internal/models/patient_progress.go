package models

import "time"

// 进步分类（按步行分数提升的固定阈值，互斥且有序）
const (
	ProgressSignificantImprovement = "Significant Improvement" // > 10
	ProgressModerateImprovement    = "Moderate Improvement"    // > 0
	ProgressNoChange               = "No Change"               // == 0
	ProgressDecline                = "Decline"                 // < 0
)

// PatientProgressRow 患者进展结果行（一行对应一次有前序评估的评估）
type PatientProgressRow struct {
	PatientID         string    `json:"patient_id"`
	AnonymizedID      string    `json:"anonymized_id"`
	DiagnosisCategory string    `json:"diagnosis_category"`
	AssessmentDate    time.Time `json:"assessment_date"`
	AssessmentType    string    `json:"assessment_type"`
	GMFCSLevel        int       `json:"gmfcs_level"`

	WalkingScore      float64  `json:"walking_score"`
	PrevWalkingScore  *float64 `json:"prev_walking_score,omitempty"`
	MobilityScore     float64  `json:"mobility_score"`
	PrevMobilityScore *float64 `json:"prev_mobility_score,omitempty"`

	// 派生字段
	WalkingImprovement  *float64 `json:"walking_improvement,omitempty"`
	MobilityImprovement *float64 `json:"mobility_improvement,omitempty"`
	ProgressCategory    string   `json:"progress_category"`
}

// PatientProgressResult 患者进展管线输出
type PatientProgressResult struct {
	Rows        []PatientProgressRow `json:"rows"`
	Diagnostics *Diagnostics         `json:"diagnostics"`
}
