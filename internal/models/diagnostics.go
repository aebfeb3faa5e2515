package models

import (
	"time"

	"github.com/google/uuid"
)

// Diagnostics 单次管线运行的诊断汇总。
// 行级错误只会把行从输入集中剔除并在这里计数，不会中止整个批次；
// 除零守卫（结果置为 absent）不算错误，不计数。
type Diagnostics struct {
	RunID        string    `json:"run_id"`
	Pipeline     string    `json:"pipeline"`
	AsOf         time.Time `json:"as_of"`
	ComputedAt   time.Time `json:"computed_at"`
	InputRows    int       `json:"input_rows"`
	ExcludedRows int       `json:"excluded_rows"`

	// 按错误类型的剔除计数
	MissingReference int `json:"missing_reference"`  // 事实行外键无法在维度表解析
	OutOfRangeScore  int `json:"out_of_range_score"` // 结局分数越界 [0,100] 或 GMFCS 越界 [1,5]
	MalformedDate    int `json:"malformed_date"`     // 日期字段缺失（零值日期）
}

// NewDiagnostics 创建带运行标识的诊断汇总
func NewDiagnostics(pipeline string, asOf time.Time) *Diagnostics {
	return &Diagnostics{
		RunID:    uuid.NewString(),
		Pipeline: pipeline,
		AsOf:     asOf,
	}
}

// CountMissingReference 记录一行外键解析失败并剔除
func (d *Diagnostics) CountMissingReference() {
	d.MissingReference++
	d.ExcludedRows++
}

// CountOutOfRangeScore 记录一行分数越界并剔除
func (d *Diagnostics) CountOutOfRangeScore() {
	d.OutOfRangeScore++
	d.ExcludedRows++
}

// CountMalformedDate 记录一行日期缺失并剔除
func (d *Diagnostics) CountMalformedDate() {
	d.MalformedDate++
	d.ExcludedRows++
}
