package analytics

import (
	"context"
	"sort"
	"time"

	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/models"
	"trexo-analytics/internal/repository"

	"go.uber.org/zap"
)

// 队列分析只观察入组后第 0 到 12 个月
const cohortHorizonMonths = 12

// CohortAnalysis 入组队列分析管线。
// 队列键 = 患者入组日期截断到月；结局事实先按（患者, 月）求平均，
// 再与队列键 join（结局月 >= 队列月），按（队列月, 入组后月数）分组：
// 去重活跃患者数、步行/移动均分、步行分连续中位数；队列内按月数升序
// lag 计算月环比步行分提升。输出限制月数 [0,12]，按队列月降序、月数升序。
func (e *Engine) CohortAnalysis(ctx context.Context, params Params) (*models.CohortAnalysisResult, error) {
	diag := models.NewDiagnostics("cohort_analysis", params.AsOf)

	// 阶段1：读取快照（队列分析不按参考时钟过滤，视界由 [0,12] 个月界定）
	patients, err := e.store.Patients(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRelation("patients", len(patients)); err != nil {
		return nil, err
	}
	facts, err := e.store.OutcomeFacts(ctx, repository.DateRange{})
	if err != nil {
		return nil, err
	}
	diag.InputRows = len(facts)
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段2：行级校验
	patientIdx := patientIndex(patients)
	valid := make([]domain.PatientOutcomeFact, 0, len(facts))
	for _, f := range facts {
		if f.AssessmentDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		if !validOutcomeScore(&f) {
			diag.CountOutOfRangeScore()
			continue
		}
		p, ok := patientIdx[f.PatientID]
		if !ok || p.EnrollmentDate.IsZero() {
			diag.CountMissingReference()
			continue
		}
		valid = append(valid, f)
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段3：按（患者, 结局月）求平均
	type patientMonth struct {
		patientID string
		month     time.Time
	}
	type patientMonthAgg struct {
		walkingSum  float64
		mobilitySum float64
		count       int
	}
	pmAggs := make(map[patientMonth]*patientMonthAgg)
	var pmOrder []patientMonth
	for _, f := range valid {
		key := patientMonth{patientID: f.PatientID, month: f.AssessmentMonth()}
		agg, ok := pmAggs[key]
		if !ok {
			agg = &patientMonthAgg{}
			pmAggs[key] = agg
			pmOrder = append(pmOrder, key)
		}
		agg.walkingSum += f.WalkingIndependenceScore
		agg.mobilitySum += f.MobilityScore
		agg.count++
	}

	// 阶段4：join 队列键并按（队列月, 入组后月数）分组
	type cohortCell struct {
		cohort      time.Time
		monthsSince int
	}
	type cohortAgg struct {
		patients      map[string]struct{}
		walkingValues []float64 // 每患者当月均分，供中位数插值
		mobilitySum   float64
	}
	cellAggs := make(map[cohortCell]*cohortAgg)
	var cellOrder []cohortCell
	for _, key := range pmOrder {
		agg := pmAggs[key]
		cohort := patientIdx[key.patientID].EnrollmentMonth()
		monthsSince := monthsBetween(cohort, key.month)
		// 结局月必须不早于队列月
		if monthsSince < 0 {
			continue
		}
		if monthsSince > cohortHorizonMonths {
			continue
		}
		cell := cohortCell{cohort: cohort, monthsSince: monthsSince}
		cagg, ok := cellAggs[cell]
		if !ok {
			cagg = &cohortAgg{patients: make(map[string]struct{})}
			cellAggs[cell] = cagg
			cellOrder = append(cellOrder, cell)
		}
		cagg.patients[key.patientID] = struct{}{}
		walkingAvg := agg.walkingSum / float64(agg.count)
		cagg.walkingValues = append(cagg.walkingValues, walkingAvg)
		cagg.mobilitySum += agg.mobilitySum / float64(agg.count)
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段5：聚合 + 队列内窗口计算（lag 上月步行均分）。
	// lag 用未舍入的均分，环比差值只在投影时舍入一次。
	rows := make([]models.CohortAnalysisRow, 0, len(cellAggs))
	rawWalking := make([]float64, 0, len(cellAggs))
	for _, cell := range cellOrder {
		cagg := cellAggs[cell]
		n := float64(len(cagg.walkingValues))
		walkingAvg := 0.0
		for _, v := range cagg.walkingValues {
			walkingAvg += v
		}
		walkingAvg /= n
		rawWalking = append(rawWalking, walkingAvg)
		rows = append(rows, models.CohortAnalysisRow{
			CohortMonth:           cell.cohort,
			MonthsSinceEnrollment: cell.monthsSince,
			ActivePatients:        len(cagg.patients),
			AvgWalkingScore:       round2(walkingAvg),
			AvgMobilityScore:      round2(cagg.mobilitySum / n),
			MedianWalkingScore:    *Round2(PercentileCont(cagg.walkingValues, 0.5)),
		})
	}

	// 按队列分区、入组后月数升序做 lag
	byCohort := make(map[time.Time][]int) // 行下标
	var cohortOrder []time.Time
	for i, r := range rows {
		if _, ok := byCohort[r.CohortMonth]; !ok {
			cohortOrder = append(cohortOrder, r.CohortMonth)
		}
		byCohort[r.CohortMonth] = append(byCohort[r.CohortMonth], i)
	}
	for _, cohort := range cohortOrder {
		idxs := byCohort[cohort]
		sort.SliceStable(idxs, func(a, b int) bool {
			return rows[idxs[a]].MonthsSinceEnrollment < rows[idxs[b]].MonthsSinceEnrollment
		})
		values := make([]*float64, len(idxs))
		for i, idx := range idxs {
			values[i] = Float(rawWalking[idx])
		}
		lagged := Lag(values, 1)
		for i, idx := range idxs {
			rows[idx].WalkingScoreImprovement = Round2(Sub(values[i], lagged[i]))
		}
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段6：投影排序（队列月降序，入组后月数升序）
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CohortMonth.Equal(rows[j].CohortMonth) {
			return rows[i].CohortMonth.After(rows[j].CohortMonth)
		}
		return rows[i].MonthsSinceEnrollment < rows[j].MonthsSinceEnrollment
	})

	diag.ComputedAt = time.Now().UTC()
	e.logger.Debug("Cohort analysis pipeline completed",
		zap.String("run_id", diag.RunID),
		zap.Int("input_rows", diag.InputRows),
		zap.Int("output_rows", len(rows)),
		zap.Int("excluded_rows", diag.ExcludedRows),
	)

	return &models.CohortAnalysisResult{Rows: rows, Diagnostics: diag}, nil
}
