package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trexo-analytics/internal/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// 各工作表表头
var (
	patientProgressHeader = []string{
		"Patient ID", "Anonymized ID", "Diagnosis", "Assessment Date", "Assessment Type",
		"Walking Score", "Prev Walking Score", "Walking Improvement", "Progress Category",
	}
	deviceReliabilityHeader = []string{
		"Device ID", "Serial Number", "Model", "Firmware", "Status",
		"Sessions", "Patients", "Total Steps", "Avg Errors/Session", "Rating", "Rank",
	}
	modelReliabilityHeader = []string{
		"Model", "Devices", "Avg Sessions/Device", "Total Steps",
		"Avg Error Rate", "Excellent", "Needs Attention",
	}
	cohortHeader = []string{
		"Cohort Month", "Months Since Enrollment", "Active Patients",
		"Avg Walking Score", "Median Walking Score", "Avg Mobility Score", "MoM Improvement",
	}
	facilityHeader = []string{
		"Facility ID", "Facility Name", "Type", "City", "Country",
		"Patients", "Sessions", "Devices", "Avg Session Duration", "Total Steps",
		"Avg Walking Score", "High Independence %",
	}
	usageTrendHeader = []string{
		"Week", "Active Patients", "Active Devices", "Total Steps",
		"Steps Change", "Steps Change %", "4-Week Moving Avg",
	}
)

// ReportExporter 分析报表导出器（Excel 工作簿，一个管线一张表）
type ReportExporter struct {
	logger *zap.Logger
}

// NewReportExporter 创建报表导出器
func NewReportExporter(logger *zap.Logger) *ReportExporter {
	return &ReportExporter{logger: logger}
}

// Report 一轮完整计算的导出内容
type Report struct {
	AsOf              time.Time
	PatientProgress   *models.PatientProgressResult
	DeviceReliability *models.DeviceReliabilityResult
	CohortAnalysis    *models.CohortAnalysisResult
	Facility          *models.FacilityPerformanceResult
	UsageTrend        *models.UsageTrendResult
}

// Generate 生成 Excel 工作簿字节
func (e *ReportExporter) Generate(report *Report) ([]byte, error) {
	f := excelize.NewFile()
	// 注意：出错路径手动 Close，WriteToBuffer 需要文件保持打开

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	type sheet struct {
		name   string
		header []string
		rows   [][]interface{}
	}
	sheets := []sheet{
		{"Patient Progress", patientProgressHeader, patientProgressRows(report.PatientProgress)},
		{"Device Reliability", deviceReliabilityHeader, deviceReliabilityRows(report.DeviceReliability)},
		{"Device Models", modelReliabilityHeader, modelReliabilityRows(report.DeviceReliability)},
		{"Cohort Analysis", cohortHeader, cohortRows(report.CohortAnalysis)},
		{"Facility Performance", facilityHeader, facilityRows(report.Facility)},
		{"Usage Trend", usageTrendHeader, usageTrendRows(report.UsageTrend)},
	}

	for i, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.header, s.rows, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
		if i == 0 {
			idx, err := f.GetSheetIndex(s.name)
			if err == nil {
				f.SetActiveSheet(idx)
			}
		}
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile 生成并写入报表文件，返回文件路径
// 文件名带参考时钟戳：analytics_report_20260301.xlsx
func (e *ReportExporter) WriteFile(dir string, report *Report) (string, error) {
	data, err := e.Generate(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("analytics_report_%s.xlsx", report.AsOf.Format("20060102")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	e.logger.Info("Exported analytics report",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return path, nil
}

func writeSheet(f *excelize.File, sheetName string, headers []string, rows [][]interface{}, headerStyle int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// cellValue absent 值导出为空单元格，绝不写 0
func cellValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func patientProgressRows(r *models.PatientProgressResult) [][]interface{} {
	if r == nil {
		return nil
	}
	out := make([][]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, []interface{}{
			row.PatientID, row.AnonymizedID, row.DiagnosisCategory,
			row.AssessmentDate.Format("2006-01-02"), row.AssessmentType,
			row.WalkingScore, cellValue(row.PrevWalkingScore),
			cellValue(row.WalkingImprovement), row.ProgressCategory,
		})
	}
	return out
}

func deviceReliabilityRows(r *models.DeviceReliabilityResult) [][]interface{} {
	if r == nil {
		return nil
	}
	out := make([][]interface{}, 0, len(r.Devices))
	for _, row := range r.Devices {
		out = append(out, []interface{}{
			row.DeviceID, row.SerialNumber, row.DeviceModel, row.FirmwareVersion, row.Status,
			row.SessionCount, row.PatientCount, row.TotalSteps,
			row.AvgErrorsPerSession, row.ReliabilityRating, row.ReliabilityRank,
		})
	}
	return out
}

func modelReliabilityRows(r *models.DeviceReliabilityResult) [][]interface{} {
	if r == nil {
		return nil
	}
	out := make([][]interface{}, 0, len(r.Models))
	for _, row := range r.Models {
		out = append(out, []interface{}{
			row.DeviceModel, row.DeviceCount, row.AvgSessionsPerDevice, row.TotalSteps,
			row.AvgErrorRate, row.ExcellentDevices, row.NeedsAttentionDevices,
		})
	}
	return out
}

func cohortRows(r *models.CohortAnalysisResult) [][]interface{} {
	if r == nil {
		return nil
	}
	out := make([][]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, []interface{}{
			row.CohortMonth.Format("2006-01"), row.MonthsSinceEnrollment, row.ActivePatients,
			row.AvgWalkingScore, row.MedianWalkingScore, row.AvgMobilityScore,
			cellValue(row.WalkingScoreImprovement),
		})
	}
	return out
}

func facilityRows(r *models.FacilityPerformanceResult) [][]interface{} {
	if r == nil {
		return nil
	}
	out := make([][]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, []interface{}{
			row.FacilityID, row.FacilityName, row.FacilityType, row.City, row.Country,
			row.TotalPatients, row.TotalSessions, row.TotalDevices,
			row.AvgSessionDuration, row.TotalSteps,
			cellValue(row.AvgWalkingScore), cellValue(row.HighIndependencePercentage),
		})
	}
	return out
}

func usageTrendRows(r *models.UsageTrendResult) [][]interface{} {
	if r == nil {
		return nil
	}
	out := make([][]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, []interface{}{
			row.Week, row.ActivePatients, row.ActiveDevices, row.TotalSteps,
			cellValue(row.StepsChange), cellValue(row.StepsChangePercent),
			cellValue(row.MovingAvgSteps),
		})
	}
	return out
}
