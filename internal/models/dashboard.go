package models

import "time"

// DashboardSummary 全局运营汇总（供仪表盘消费）
type DashboardSummary struct {
	DeviceUsage       DashboardUsage       `json:"device_usage"`
	PatientOutcomes   DashboardOutcomes    `json:"patient_outcomes"`
	DeviceReliability DashboardReliability `json:"device_reliability"`

	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`

	Diagnostics *Diagnostics `json:"diagnostics"`
}

// DashboardUsage 使用概况
type DashboardUsage struct {
	TotalSessions      int     `json:"total_sessions"`
	TotalSteps         int     `json:"total_steps"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	ActiveDevices      int     `json:"active_devices"`
	ActivePatients     int     `json:"active_patients"`
	AvgSessionDuration float64 `json:"avg_session_duration_minutes"`
}

// DashboardOutcomes 结局概况
type DashboardOutcomes struct {
	TotalPatients          int      `json:"total_patients"`
	AvgWalkingImprovement  *float64 `json:"avg_walking_improvement,omitempty"`
	AvgMobilityImprovement *float64 `json:"avg_mobility_improvement,omitempty"`
	HighIndependenceCount  int      `json:"high_independence_count"`
	// 有提升的患者占比（无可比评估时 absent）
	ImprovementRate *float64 `json:"improvement_rate,omitempty"`
}

// DashboardReliability 设备可靠性概况
type DashboardReliability struct {
	TotalDevices            int      `json:"total_devices"`
	ActiveDevices           int      `json:"active_devices"`
	AvgErrorRate            *float64 `json:"avg_error_rate,omitempty"`
	DevicesNeedingAttention int      `json:"devices_needing_attention"`
}
