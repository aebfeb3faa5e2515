package models

import "time"

// CohortAnalysisRow 入组队列结果行（队列月 × 入组后月数）
type CohortAnalysisRow struct {
	CohortMonth           time.Time `json:"cohort_month"`
	MonthsSinceEnrollment int       `json:"months_since_enrollment"` // [0,12]

	ActivePatients   int     `json:"active_patients"`
	AvgWalkingScore  float64 `json:"avg_walking_score"`
	AvgMobilityScore float64 `json:"avg_mobility_score"`
	// 连续百分位中位数（PERCENTILE_CONT 0.5）
	MedianWalkingScore float64 `json:"median_walking_score"`

	// 月环比步行分数提升（队列内 lag；首月 absent）
	WalkingScoreImprovement *float64 `json:"walking_score_improvement,omitempty"`
}

// CohortAnalysisResult 队列分析管线输出
type CohortAnalysisResult struct {
	Rows        []CohortAnalysisRow `json:"rows"`
	Diagnostics *Diagnostics        `json:"diagnostics"`
}
