package models

// FacilityPerformanceRow 机构表现结果行（不会出现零患者机构）
type FacilityPerformanceRow struct {
	FacilityID   string `json:"facility_id"`
	FacilityName string `json:"facility_name"`
	FacilityType string `json:"facility_type"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`

	TotalPatients int `json:"total_patients"`
	TotalSessions int `json:"total_sessions"`
	TotalDevices  int `json:"total_devices"`

	AvgSessionDuration float64 `json:"avg_session_duration"`
	TotalSteps         int     `json:"total_steps"`

	// 末次（final）评估的平均分；机构无 final 评估时 absent
	AvgWalkingScore  *float64 `json:"avg_walking_score,omitempty"`
	AvgMobilityScore *float64 `json:"avg_mobility_score,omitempty"`

	// 步行独立分 >= 70 的去重患者数及占比（分母为零时占比 absent）
	HighIndependencePatients   int      `json:"high_independence_patients"`
	HighIndependencePercentage *float64 `json:"high_independence_percentage,omitempty"`
}

// FacilityPerformanceResult 机构表现管线输出
type FacilityPerformanceResult struct {
	Rows        []FacilityPerformanceRow `json:"rows"`
	Diagnostics *Diagnostics             `json:"diagnostics"`
}
