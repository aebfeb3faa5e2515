package analytics

import (
	"context"
	"sort"
	"time"

	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/models"

	"go.uber.org/zap"
)

// PatientProgress 患者进展管线。
// 结局事实 join 患者维度，过滤到参考时钟回溯 12 个月内的评估；
// 按患者分区、评估日期升序排序，lag 取上一次步行/移动分数；
// 无前序评估的行（lag 为 absent）被丢弃，再按提升幅度分类。
// 输出按评估日期降序、提升幅度降序。
func (e *Engine) PatientProgress(ctx context.Context, params Params) (*models.PatientProgressResult, error) {
	diag := models.NewDiagnostics("patient_progress", params.AsOf)
	lookback := params.lookback(DefaultProgressLookbackMonths)

	// 阶段1：读取快照
	patients, err := e.store.Patients(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRelation("patients", len(patients)); err != nil {
		return nil, err
	}
	facts, err := e.store.OutcomeFacts(ctx, trailingRange(params.AsOf, lookback))
	if err != nil {
		return nil, err
	}
	diag.InputRows = len(facts)
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段2：行级校验 + join 患者维度
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
		if _, ok := patientIdx[f.PatientID]; !ok {
			diag.CountMissingReference()
			continue
		}
		valid = append(valid, f)
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段3：按患者分区、评估日期升序（稳定排序保留原始行序作 tie-break）
	byPatient := make(map[string][]domain.PatientOutcomeFact)
	var patientOrder []string
	for _, f := range valid {
		if _, ok := byPatient[f.PatientID]; !ok {
			patientOrder = append(patientOrder, f.PatientID)
		}
		byPatient[f.PatientID] = append(byPatient[f.PatientID], f)
	}

	var rows []models.PatientProgressRow
	for _, pid := range patientOrder {
		partition := byPatient[pid]
		sort.SliceStable(partition, func(i, j int) bool {
			return partition[i].AssessmentDate.Before(partition[j].AssessmentDate)
		})

		// 阶段4：窗口计算（lag 上一次分数）
		walking := make([]*float64, len(partition))
		mobility := make([]*float64, len(partition))
		for i, f := range partition {
			walking[i] = Float(f.WalkingIndependenceScore)
			mobility[i] = Float(f.MobilityScore)
		}
		prevWalking := Lag(walking, 1)
		prevMobility := Lag(mobility, 1)

		patient := patientIdx[pid]
		for i, f := range partition {
			// 首次评估没有前序分数，不进入输出
			if prevWalking[i] == nil {
				continue
			}
			improvement := Sub(walking[i], prevWalking[i])
			rows = append(rows, models.PatientProgressRow{
				PatientID:           f.PatientID,
				AnonymizedID:        patient.AnonymizedID,
				DiagnosisCategory:   patient.DiagnosisCategory,
				AssessmentDate:      f.AssessmentDate,
				AssessmentType:      f.AssessmentType,
				GMFCSLevel:          f.GMFCSLevel,
				WalkingScore:        round2(f.WalkingIndependenceScore),
				PrevWalkingScore:    Round2(prevWalking[i]),
				MobilityScore:       round2(f.MobilityScore),
				PrevMobilityScore:   Round2(prevMobility[i]),
				WalkingImprovement:  Round2(improvement),
				MobilityImprovement: Round2(Sub(mobility[i], prevMobility[i])),
				ProgressCategory:    classifyProgress(*improvement),
			})
		}
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// 阶段5：投影排序（评估日期降序，提升幅度降序）
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].AssessmentDate.Equal(rows[j].AssessmentDate) {
			return rows[i].AssessmentDate.After(rows[j].AssessmentDate)
		}
		return *rows[i].WalkingImprovement > *rows[j].WalkingImprovement
	})

	diag.ComputedAt = time.Now().UTC()
	e.logger.Debug("Patient progress pipeline completed",
		zap.String("run_id", diag.RunID),
		zap.Int("input_rows", diag.InputRows),
		zap.Int("output_rows", len(rows)),
		zap.Int("excluded_rows", diag.ExcludedRows),
	)

	return &models.PatientProgressResult{Rows: rows, Diagnostics: diag}, nil
}

// classifyProgress 按步行分数提升分类（互斥、有序的固定阈值）
func classifyProgress(improvement float64) string {
	switch {
	case improvement > 10:
		return models.ProgressSignificantImprovement
	case improvement > 0:
		return models.ProgressModerateImprovement
	case improvement == 0:
		return models.ProgressNoChange
	default:
		return models.ProgressDecline
	}
}
