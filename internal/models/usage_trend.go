package models

import "time"

// UsageTrendRow 周使用趋势结果行（按周降序排列）
type UsageTrendRow struct {
	// ISO 周标签，如 "2026-W09"；WeekStart 为该周周一
	Week      string    `json:"week"`
	WeekStart time.Time `json:"week_start"`

	ActivePatients int `json:"active_patients"`
	ActiveDevices  int `json:"active_devices"`

	TotalSteps          int     `json:"total_steps"`
	AvgStepsPerSession  float64 `json:"avg_steps_per_session"`
	TotalDistanceMeters float64 `json:"total_distance_meters"`
	AvgDistanceMeters   float64 `json:"avg_distance_meters"`
	AvgActiveTime       float64 `json:"avg_active_time"`

	// 周环比（首周 absent；上一周步数为零时百分比 absent）
	StepsChange        *float64 `json:"steps_change,omitempty"`
	StepsChangePercent *float64 `json:"steps_change_percent,omitempty"`

	// 4 周滑动平均（含当前周；序列开头按实际周数计算）
	MovingAvgSteps *float64 `json:"moving_avg_steps,omitempty"`
}

// UsageTrendResult 使用趋势管线输出
type UsageTrendResult struct {
	Rows        []UsageTrendRow `json:"rows"`
	Diagnostics *Diagnostics    `json:"diagnostics"`
}
