package analytics

import (
	"context"
	"sort"
	"time"

	"trexo-analytics/internal/models"

	"go.uber.org/zap"
)

// 滑动平均窗口：当前周 + 前 3 周
const usageTrendMovingWindow = 3

// UsageTrend 周使用趋势管线。
// 使用事实按 ISO 周分桶（回溯 12 个月）；周序升序做 lag 求周环比步数
// 变化和守卫后的百分比，再算 4 周滑动平均。输出按周降序。
func (e *Engine) UsageTrend(ctx context.Context, params Params) (*models.UsageTrendResult, error) {
	diag := models.NewDiagnostics("usage_trend", params.AsOf)
	lookback := params.lookback(DefaultUsageTrendLookbackMonths)

	// 阶段1：读取快照
	facts, err := e.store.UsageFacts(ctx, trailingRange(params.AsOf, lookback))
	if err != nil {
		return nil, err
	}
	diag.InputRows = len(facts)
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段2：按 ISO 周分桶聚合
	type weekAgg struct {
		weekStart   time.Time
		patients    map[string]struct{}
		devices     map[string]struct{}
		totalSteps  int
		totalMeters float64
		activeSum   float64
		factCount   int
	}
	aggs := make(map[time.Time]*weekAgg)
	for _, f := range facts {
		if f.UsageDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		ws := isoWeekStart(f.UsageDate)
		agg, ok := aggs[ws]
		if !ok {
			agg = &weekAgg{
				weekStart: ws,
				patients:  make(map[string]struct{}),
				devices:   make(map[string]struct{}),
			}
			aggs[ws] = agg
		}
		agg.patients[f.PatientID] = struct{}{}
		agg.devices[f.DeviceID] = struct{}{}
		agg.totalSteps += f.TotalSteps
		agg.totalMeters += f.DistanceMeters
		agg.activeSum += f.ActiveTimeMinutes
		agg.factCount++
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段3：周序升序物化
	weeks := make([]*weekAgg, 0, len(aggs))
	for _, agg := range aggs {
		weeks = append(weeks, agg)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].weekStart.Before(weeks[j].weekStart)
	})

	rows := make([]models.UsageTrendRow, len(weeks))
	steps := make([]*float64, len(weeks))
	for i, agg := range weeks {
		n := float64(agg.factCount)
		rows[i] = models.UsageTrendRow{
			Week:                isoWeekLabel(agg.weekStart),
			WeekStart:           agg.weekStart,
			ActivePatients:      len(agg.patients),
			ActiveDevices:       len(agg.devices),
			TotalSteps:          agg.totalSteps,
			AvgStepsPerSession:  round2(float64(agg.totalSteps) / n),
			TotalDistanceMeters: round2(agg.totalMeters),
			AvgDistanceMeters:   round2(agg.totalMeters / n),
			AvgActiveTime:       round2(agg.activeSum / n),
		}
		steps[i] = Float(float64(agg.totalSteps))
	}

	// 阶段4：窗口计算（lag 周环比 + 4 周滑动平均）
	lagged := Lag(steps, 1)
	moving := MovingAverage(steps, usageTrendMovingWindow)
	for i := range rows {
		rows[i].StepsChange = Round2(Sub(steps[i], lagged[i]))
		rows[i].StepsChangePercent = Round2(PercentChange(steps[i], lagged[i]))
		rows[i].MovingAvgSteps = Round2(moving[i])
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段5：投影排序（周降序）
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].WeekStart.After(rows[j].WeekStart)
	})

	diag.ComputedAt = time.Now().UTC()
	e.logger.Debug("Usage trend pipeline completed",
		zap.String("run_id", diag.RunID),
		zap.Int("input_rows", diag.InputRows),
		zap.Int("weeks", len(rows)),
		zap.Int("excluded_rows", diag.ExcludedRows),
	)

	return &models.UsageTrendResult{Rows: rows, Diagnostics: diag}, nil
}
