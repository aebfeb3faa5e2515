package analytics

import (
	"context"
	"sort"
	"time"

	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/models"

	"go.uber.org/zap"
)

// DashboardSummary 仪表盘汇总管线。
// 五个指标管线之外的全局概况：回溯窗口内的使用规模、结局首末评估
// 提升、设备错误率。供仪表盘 API 之类的外层直接消费。
func (e *Engine) DashboardSummary(ctx context.Context, params Params) (*models.DashboardSummary, error) {
	diag := models.NewDiagnostics("dashboard_summary", params.AsOf)
	lookback := params.lookback(DefaultDashboardLookbackMonths)
	dateRange := trailingRange(params.AsOf, lookback)

	// 阶段1：读取快照
	patients, err := e.store.Patients(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRelation("patients", len(patients)); err != nil {
		return nil, err
	}
	devices, err := e.store.Devices(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRelation("devices", len(devices)); err != nil {
		return nil, err
	}
	sessions, err := e.store.Sessions(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	usage, err := e.store.UsageFacts(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	outcomes, err := e.store.OutcomeFacts(ctx, dateRange)
	if err != nil {
		return nil, err
	}
	diag.InputRows = len(sessions) + len(usage) + len(outcomes)
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	patientIdx := patientIndex(patients)
	deviceIdx := deviceIndex(devices)

	// 阶段2：使用概况
	var summary models.DashboardSummary
	usageSessions := make(map[string]struct{})
	usagePatients := make(map[string]struct{})
	usageDevices := make(map[string]struct{})
	deviceErrors := make(map[string]int)
	deviceSessions := make(map[string]map[string]struct{})
	totalErrors := 0
	for _, f := range usage {
		if f.UsageDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		if _, ok := deviceIdx[f.DeviceID]; !ok {
			diag.CountMissingReference()
			continue
		}
		usageSessions[f.SessionID] = struct{}{}
		usagePatients[f.PatientID] = struct{}{}
		usageDevices[f.DeviceID] = struct{}{}
		summary.DeviceUsage.TotalSteps += f.TotalSteps
		summary.DeviceUsage.TotalDistanceKm += f.DistanceMeters / 1000
		deviceErrors[f.DeviceID] += f.ErrorCount
		if deviceSessions[f.DeviceID] == nil {
			deviceSessions[f.DeviceID] = make(map[string]struct{})
		}
		deviceSessions[f.DeviceID][f.SessionID] = struct{}{}
		totalErrors += f.ErrorCount
	}
	summary.DeviceUsage.TotalSessions = len(usageSessions)
	summary.DeviceUsage.ActiveDevices = len(usageDevices)
	summary.DeviceUsage.ActivePatients = len(usagePatients)
	summary.DeviceUsage.TotalDistanceKm = round2(summary.DeviceUsage.TotalDistanceKm)
	if len(sessions) > 0 {
		durationSum := 0.0
		for _, s := range sessions {
			durationSum += s.DurationMinutes
		}
		summary.DeviceUsage.AvgSessionDuration = round2(durationSum / float64(len(sessions)))
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段3：结局概况（每患者首末评估对比）
	byPatient := make(map[string][]domain.PatientOutcomeFact)
	highIndependence := make(map[string]struct{})
	for _, f := range outcomes {
		if f.AssessmentDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		if !validOutcomeScore(&f) {
			diag.CountOutOfRangeScore()
			continue
		}
		if _, ok := patientIdx[f.PatientID]; !ok {
			diag.CountMissingReference()
			continue
		}
		byPatient[f.PatientID] = append(byPatient[f.PatientID], f)
		if f.WalkingIndependenceScore >= highIndependenceThreshold {
			highIndependence[f.PatientID] = struct{}{}
		}
	}
	summary.PatientOutcomes.TotalPatients = len(byPatient)
	summary.PatientOutcomes.HighIndependenceCount = len(highIndependence)

	var walkingDeltas, mobilityDeltas []float64
	improved := 0
	for _, series := range byPatient {
		if len(series) < 2 {
			continue
		}
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].AssessmentDate.Before(series[j].AssessmentDate)
		})
		first, last := series[0], series[len(series)-1]
		walkingDeltas = append(walkingDeltas, last.WalkingIndependenceScore-first.WalkingIndependenceScore)
		mobilityDeltas = append(mobilityDeltas, last.MobilityScore-first.MobilityScore)
		if last.WalkingIndependenceScore > first.WalkingIndependenceScore {
			improved++
		}
	}
	summary.PatientOutcomes.AvgWalkingImprovement = Round2(mean(walkingDeltas))
	summary.PatientOutcomes.AvgMobilityImprovement = Round2(mean(mobilityDeltas))
	if len(walkingDeltas) > 0 {
		summary.PatientOutcomes.ImprovementRate = Float(round2(float64(improved) / float64(len(walkingDeltas))))
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段4：设备可靠性概况
	summary.DeviceReliability.TotalDevices = len(devices)
	for _, d := range devices {
		if d.Status == domain.DeviceStatusActive {
			summary.DeviceReliability.ActiveDevices++
		}
	}
	// 全体平均错误率 = 总错误数 / 总会话数（守卫：无会话时 absent）
	summary.DeviceReliability.AvgErrorRate = Round2(Ratio(
		Float(float64(totalErrors)),
		Float(float64(len(usageSessions))),
	))
	for deviceID, sessionSet := range deviceSessions {
		if len(sessionSet) == 0 {
			continue
		}
		avg := float64(deviceErrors[deviceID]) / float64(len(sessionSet))
		if avg >= reliabilityFairThreshold {
			summary.DeviceReliability.DevicesNeedingAttention++
		}
	}

	summary.RangeStart = *trailingRange(params.AsOf, lookback).Start
	summary.RangeEnd = params.AsOf
	diag.ComputedAt = time.Now().UTC()
	summary.Diagnostics = diag

	e.logger.Debug("Dashboard summary pipeline completed",
		zap.String("run_id", diag.RunID),
		zap.Int("input_rows", diag.InputRows),
		zap.Int("excluded_rows", diag.ExcludedRows),
	)

	return &summary, nil
}
