package models

// 可靠性评级（按每会话平均错误数的固定阈值）
const (
	ReliabilityExcellent      = "Excellent"       // == 0
	ReliabilityGood           = "Good"            // < 0.1
	ReliabilityFair           = "Fair"            // < 0.5
	ReliabilityNeedsAttention = "Needs Attention" // >= 0.5
)

// DeviceReliabilityRow 单设备可靠性结果行（按 rank 升序排列）
type DeviceReliabilityRow struct {
	DeviceID        string `json:"device_id"`
	SerialNumber    string `json:"serial_number"`
	DeviceModel     string `json:"device_model"`
	FirmwareVersion string `json:"firmware_version"`
	Status          string `json:"status"`

	SessionCount        int     `json:"session_count"`
	PatientCount        int     `json:"patient_count"`
	TotalSteps          int     `json:"total_steps"`
	TotalDistanceMeters float64 `json:"total_distance_meters"`
	AvgBatteryUsage     float64 `json:"avg_battery_usage"`
	TotalErrors         int     `json:"total_errors"`
	AvgErrorsPerSession float64 `json:"avg_errors_per_session"`

	ReliabilityRating string `json:"reliability_rating"`
	// SQL RANK 语义：并列共享名次，下一个不同值名次跳过并列组
	ReliabilityRank int `json:"reliability_rank"`
}

// ModelReliabilityRow 按设备型号再聚合的结果行（按平均错误率升序排列）
type ModelReliabilityRow struct {
	DeviceModel string `json:"device_model"`

	DeviceCount          int     `json:"device_count"`
	AvgSessionsPerDevice float64 `json:"avg_sessions_per_device"`
	TotalSteps           int     `json:"total_steps"`
	AvgErrorRate         float64 `json:"avg_error_rate"`

	ExcellentDevices      int `json:"excellent_devices"`
	NeedsAttentionDevices int `json:"needs_attention_devices"`
}

// DeviceReliabilityResult 设备可靠性管线输出
type DeviceReliabilityResult struct {
	Devices     []DeviceReliabilityRow `json:"devices"`
	Models      []ModelReliabilityRow  `json:"models"`
	Diagnostics *Diagnostics           `json:"diagnostics"`
}
