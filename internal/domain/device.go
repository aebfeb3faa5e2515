package domain

import "time"

// 设备状态
const (
	DeviceStatusActive      = "active"
	DeviceStatusRetired     = "retired"
	DeviceStatusMaintenance = "maintenance"
)

// Device 设备维度领域模型（对应 devices 表）
type Device struct {
	// 主键
	DeviceID string `db:"device_id" json:"device_id"` // VARCHAR(20), PRIMARY KEY

	// 物理属性
	SerialNumber    string `db:"serial_number" json:"serial_number"`       // VARCHAR(50), UNIQUE, NOT NULL
	DeviceModel     string `db:"device_model" json:"device_model"`         // VARCHAR(50)
	FirmwareVersion string `db:"firmware_version" json:"firmware_version"` // VARCHAR(20)

	ManufacturingDate time.Time `db:"manufacturing_date" json:"manufacturing_date"` // DATE

	// 状态：active / retired / maintenance
	Status string `db:"status" json:"status"` // VARCHAR(20), NOT NULL
}
