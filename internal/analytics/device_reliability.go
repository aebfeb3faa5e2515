package analytics

import (
	"context"
	"sort"
	"time"

	"trexo-analytics/internal/models"

	"go.uber.org/zap"
)

// 高可靠性阈值（每会话平均错误数）
const (
	reliabilityGoodThreshold = 0.1
	reliabilityFairThreshold = 0.5
)

// DeviceReliability 设备可靠性管线。
// 使用事实按设备聚合（回溯 6 个月），按每会话平均错误数分级并做
// SQL RANK 排名（并列共享名次），再按设备型号二次聚合。
// 设备行按名次升序，型号行按平均错误率升序。
func (e *Engine) DeviceReliability(ctx context.Context, params Params) (*models.DeviceReliabilityResult, error) {
	diag := models.NewDiagnostics("device_reliability", params.AsOf)
	lookback := params.lookback(DefaultReliabilityLookbackMonths)

	// 阶段1：读取快照
	devices, err := e.store.Devices(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRelation("devices", len(devices)); err != nil {
		return nil, err
	}
	facts, err := e.store.UsageFacts(ctx, trailingRange(params.AsOf, lookback))
	if err != nil {
		return nil, err
	}
	diag.InputRows = len(facts)
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段2：行级校验 + 按设备聚合
	deviceIdx := deviceIndex(devices)
	type deviceAgg struct {
		deviceID     string
		sessions     map[string]struct{}
		patients     map[string]struct{}
		totalSteps   int
		totalMeters  float64
		batterySum   float64
		batteryCount int
		totalErrors  int
	}
	aggs := make(map[string]*deviceAgg)
	var deviceOrder []string
	for _, f := range facts {
		if f.UsageDate.IsZero() {
			diag.CountMalformedDate()
			continue
		}
		if _, ok := deviceIdx[f.DeviceID]; !ok {
			diag.CountMissingReference()
			continue
		}
		agg, ok := aggs[f.DeviceID]
		if !ok {
			agg = &deviceAgg{
				deviceID: f.DeviceID,
				sessions: make(map[string]struct{}),
				patients: make(map[string]struct{}),
			}
			aggs[f.DeviceID] = agg
			deviceOrder = append(deviceOrder, f.DeviceID)
		}
		agg.sessions[f.SessionID] = struct{}{}
		agg.patients[f.PatientID] = struct{}{}
		agg.totalSteps += f.TotalSteps
		agg.totalMeters += f.DistanceMeters
		agg.batterySum += f.BatteryUsagePercent
		agg.batteryCount++
		agg.totalErrors += f.ErrorCount
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段3：分级 + 窗口计算（RANK 按平均错误数升序，并列共享名次）。
	// 排序与排名键用未舍入的平均值：投影层的 2 位舍入不得制造并列。
	type rankedDevice struct {
		row       models.DeviceReliabilityRow
		avgErrors float64
	}
	ranked := make([]rankedDevice, 0, len(aggs))
	for _, id := range deviceOrder {
		agg := aggs[id]
		dev := deviceIdx[id]
		sessionCount := len(agg.sessions)
		avgErrors := float64(agg.totalErrors) / float64(sessionCount)
		ranked = append(ranked, rankedDevice{
			avgErrors: avgErrors,
			row: models.DeviceReliabilityRow{
				DeviceID:            agg.deviceID,
				SerialNumber:        dev.SerialNumber,
				DeviceModel:         dev.DeviceModel,
				FirmwareVersion:     dev.FirmwareVersion,
				Status:              dev.Status,
				SessionCount:        sessionCount,
				PatientCount:        len(agg.patients),
				TotalSteps:          agg.totalSteps,
				TotalDistanceMeters: round2(agg.totalMeters),
				AvgBatteryUsage:     round2(agg.batterySum / float64(agg.batteryCount)),
				TotalErrors:         agg.totalErrors,
				AvgErrorsPerSession: round2(avgErrors),
				ReliabilityRating:   classifyReliability(avgErrors),
			},
		})
	}

	// 排名键升序排序（稳定：并列保持原始行序），再套 RANK
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].avgErrors < ranked[j].avgErrors
	})
	keys := make([]float64, len(ranked))
	for i, d := range ranked {
		keys[i] = d.avgErrors
	}
	deviceRows := make([]models.DeviceReliabilityRow, len(ranked))
	for i, rank := range Rank(keys) {
		deviceRows[i] = ranked[i].row
		deviceRows[i].ReliabilityRank = rank
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段4：按设备型号再聚合
	type modelAgg struct {
		model          string
		deviceCount    int
		sessionSum     int
		stepsSum       int
		errorRateSum   float64
		excellent      int
		needsAttention int
	}
	modelAggs := make(map[string]*modelAgg)
	var modelOrder []string
	for i, d := range ranked {
		r := deviceRows[i]
		agg, ok := modelAggs[r.DeviceModel]
		if !ok {
			agg = &modelAgg{model: r.DeviceModel}
			modelAggs[r.DeviceModel] = agg
			modelOrder = append(modelOrder, r.DeviceModel)
		}
		agg.deviceCount++
		agg.sessionSum += r.SessionCount
		agg.stepsSum += r.TotalSteps
		agg.errorRateSum += d.avgErrors
		if r.ReliabilityRating == models.ReliabilityExcellent {
			agg.excellent++
		}
		if r.ReliabilityRating == models.ReliabilityNeedsAttention {
			agg.needsAttention++
		}
	}
	type rankedModel struct {
		row  models.ModelReliabilityRow
		rate float64
	}
	rankedModels := make([]rankedModel, 0, len(modelAggs))
	for _, m := range modelOrder {
		agg := modelAggs[m]
		rate := agg.errorRateSum / float64(agg.deviceCount)
		rankedModels = append(rankedModels, rankedModel{
			rate: rate,
			row: models.ModelReliabilityRow{
				DeviceModel:           agg.model,
				DeviceCount:           agg.deviceCount,
				AvgSessionsPerDevice:  round2(float64(agg.sessionSum) / float64(agg.deviceCount)),
				TotalSteps:            agg.stepsSum,
				AvgErrorRate:          round2(rate),
				ExcellentDevices:      agg.excellent,
				NeedsAttentionDevices: agg.needsAttention,
			},
		})
	}

	// 阶段5：投影排序（平均错误率升序，排序键同样未舍入）
	sort.SliceStable(rankedModels, func(i, j int) bool {
		return rankedModels[i].rate < rankedModels[j].rate
	})
	modelRows := make([]models.ModelReliabilityRow, len(rankedModels))
	for i, m := range rankedModels {
		modelRows[i] = m.row
	}

	diag.ComputedAt = time.Now().UTC()
	e.logger.Debug("Device reliability pipeline completed",
		zap.String("run_id", diag.RunID),
		zap.Int("devices", len(deviceRows)),
		zap.Int("models", len(modelRows)),
		zap.Int("excluded_rows", diag.ExcludedRows),
	)

	return &models.DeviceReliabilityResult{
		Devices:     deviceRows,
		Models:      modelRows,
		Diagnostics: diag,
	}, nil
}

// classifyReliability 按每会话平均错误数分级
func classifyReliability(avgErrorsPerSession float64) string {
	switch {
	case avgErrorsPerSession == 0:
		return models.ReliabilityExcellent
	case avgErrorsPerSession < reliabilityGoodThreshold:
		return models.ReliabilityGood
	case avgErrorsPerSession < reliabilityFairThreshold:
		return models.ReliabilityFair
	default:
		return models.ReliabilityNeedsAttention
	}
}
