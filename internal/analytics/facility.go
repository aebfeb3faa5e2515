package analytics

import (
	"context"
	"sort"
	"time"

	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/models"

	"go.uber.org/zap"
)

// 高独立性阈值：步行独立分 >= 70
const highIndependenceThreshold = 70.0

// FacilityPerformance 机构表现管线。
// 机构 left join 临床会话（回溯 12 个月）→ 使用事实、final 评估事实；
// 按机构聚合去重患者/会话/设备数、平均会话时长、总步数、final 均分，
// 以及步行独立分 >= 70 的去重患者数和占比（分母为零时 absent）。
// 聚合后丢弃零患者机构。输出按患者数降序、步行均分降序。
func (e *Engine) FacilityPerformance(ctx context.Context, params Params) (*models.FacilityPerformanceResult, error) {
	diag := models.NewDiagnostics("facility_performance", params.AsOf)
	lookback := params.lookback(DefaultFacilityLookbackMonths)
	dateRange := trailingRange(params.AsOf, lookback)

	// 阶段1：读取快照
	facilities, err := e.store.Facilities(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRelation("healthcare_facilities", len(facilities)); err != nil {
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

	facilityIdx := facilityIndex(facilities)

	// 阶段2：会话校验 + 按机构聚合
	type facilityAgg struct {
		patients    map[string]struct{}
		sessions    map[string]struct{}
		devices     map[string]struct{}
		durationSum float64
		totalSteps  int

		walkingSum   float64
		mobilitySum  float64
		finalCount   int
		highPatients map[string]struct{}
	}
	newAgg := func() *facilityAgg {
		return &facilityAgg{
			patients:     make(map[string]struct{}),
			sessions:     make(map[string]struct{}),
			devices:      make(map[string]struct{}),
			highPatients: make(map[string]struct{}),
		}
	}
	aggs := make(map[string]*facilityAgg)
	get := func(facilityID string) (*facilityAgg, bool) {
		if _, ok := facilityIdx[facilityID]; !ok {
			return nil, false
		}
		agg, ok := aggs[facilityID]
		if !ok {
			agg = newAgg()
			aggs[facilityID] = agg
		}
		return agg, true
	}

	sessionFacility := make(map[string]string, len(sessions))
	for _, s := range sessions {
		if s.SessionDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		agg, ok := get(s.FacilityID)
		if !ok {
			diag.CountMissingReference()
			continue
		}
		agg.patients[s.PatientID] = struct{}{}
		agg.sessions[s.SessionID] = struct{}{}
		agg.devices[s.DeviceID] = struct{}{}
		agg.durationSum += s.DurationMinutes
		sessionFacility[s.SessionID] = s.FacilityID
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段3：left join 使用事实（通过会话归属机构）
	for _, f := range usage {
		facilityID, ok := sessionFacility[f.SessionID]
		if !ok {
			// 使用事实挂不上窗口内的会话：对机构聚合不可见，不算错误
			continue
		}
		aggs[facilityID].totalSteps += f.TotalSteps
	}

	// 阶段4：left join final 评估事实
	for _, f := range outcomes {
		if f.AssessmentType != domain.AssessmentTypeFinal {
			continue
		}
		if f.AssessmentDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		if !validOutcomeScore(&f) {
			diag.CountOutOfRangeScore()
			continue
		}
		agg, ok := get(f.FacilityID)
		if !ok {
			diag.CountMissingReference()
			continue
		}
		agg.walkingSum += f.WalkingIndependenceScore
		agg.mobilitySum += f.MobilityScore
		agg.finalCount++
		if f.WalkingIndependenceScore >= highIndependenceThreshold {
			agg.highPatients[f.PatientID] = struct{}{}
		}
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段5：投影（零患者机构不输出）
	rows := make([]models.FacilityPerformanceRow, 0, len(aggs))
	for _, fac := range facilities {
		agg, ok := aggs[fac.FacilityID]
		if !ok || len(agg.patients) == 0 {
			continue
		}
		row := models.FacilityPerformanceRow{
			FacilityID:               fac.FacilityID,
			FacilityName:             fac.FacilityName,
			FacilityType:             fac.FacilityType,
			City:                     fac.City,
			State:                    fac.State,
			Country:                  fac.Country,
			TotalPatients:            len(agg.patients),
			TotalSessions:            len(agg.sessions),
			TotalDevices:             len(agg.devices),
			AvgSessionDuration:       round2(agg.durationSum / float64(len(agg.sessions))),
			TotalSteps:               agg.totalSteps,
			HighIndependencePatients: len(agg.highPatients),
		}
		if agg.finalCount > 0 {
			row.AvgWalkingScore = Float(round2(agg.walkingSum / float64(agg.finalCount)))
			row.AvgMobilityScore = Float(round2(agg.mobilitySum / float64(agg.finalCount)))
		}
		// 占比守卫：去重患者数为零的机构已被丢弃，这里分母恒为正，
		// 但守卫保持与其它比率一致的 absent 语义
		high := float64(len(agg.highPatients))
		total := float64(len(agg.patients))
		if pct := Ratio(Float(high), Float(total)); pct != nil {
			row.HighIndependencePercentage = Float(round2(*pct * 100))
		}
		rows = append(rows, row)
	}

	// 排序：患者数降序，步行均分降序（无 final 评估的机构排最后）
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalPatients != rows[j].TotalPatients {
			return rows[i].TotalPatients > rows[j].TotalPatients
		}
		wi, wj := -1.0, -1.0
		if rows[i].AvgWalkingScore != nil {
			wi = *rows[i].AvgWalkingScore
		}
		if rows[j].AvgWalkingScore != nil {
			wj = *rows[j].AvgWalkingScore
		}
		return wi > wj
	})

	diag.ComputedAt = time.Now().UTC()
	e.logger.Debug("Facility performance pipeline completed",
		zap.String("run_id", diag.RunID),
		zap.Int("input_rows", diag.InputRows),
		zap.Int("output_rows", len(rows)),
		zap.Int("excluded_rows", diag.ExcludedRows),
	)

	return &models.FacilityPerformanceResult{Rows: rows, Diagnostics: diag}, nil
}
