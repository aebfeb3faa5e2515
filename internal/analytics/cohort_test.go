package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trexo-analytics/internal/analytics"
	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestCohortAnalysis_MonthlyProgression(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 20)},
	}
	store.OutcomeRows = []domain.PatientOutcomeFact{
		// 入组月（第 0 个月）
		outcome("P001", "F001", day(2025, 6, 25), domain.AssessmentTypeBaseline, 50, 45),
		// 第 1 个月两次评估：先按（患者, 月）求平均 → (58+62)/2 = 60
		outcome("P001", "F001", day(2025, 7, 10), domain.AssessmentTypeFollowup, 58, 50),
		outcome("P001", "F001", day(2025, 7, 20), domain.AssessmentTypeFollowup, 62, 52),
	}

	engine := newTestEngine(store)
	result, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// 队列月降序、入组后月数升序
	month0 := result.Rows[0]
	require.Equal(t, day(2025, 6, 1), month0.CohortMonth)
	require.Equal(t, 0, month0.MonthsSinceEnrollment)
	require.Equal(t, 1, month0.ActivePatients)
	require.Equal(t, 50.0, month0.AvgWalkingScore)
	require.Equal(t, 50.0, month0.MedianWalkingScore)
	// 队列内首月没有上月可比
	require.Nil(t, month0.WalkingScoreImprovement)

	month1 := result.Rows[1]
	require.Equal(t, 1, month1.MonthsSinceEnrollment)
	require.Equal(t, 60.0, month1.AvgWalkingScore)
	require.NotNil(t, month1.WalkingScoreImprovement)
	require.Equal(t, 10.0, *month1.WalkingScoreImprovement)
}

func TestCohortAnalysis_MedianAcrossPatients(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 5)},
		{PatientID: "P002", AnonymizedID: "a2", EnrollmentDate: day(2025, 6, 12)},
	}
	store.OutcomeRows = []domain.PatientOutcomeFact{
		outcome("P001", "F001", day(2025, 7, 10), domain.AssessmentTypeFollowup, 60, 50),
		outcome("P002", "F001", day(2025, 7, 15), domain.AssessmentTypeFollowup, 70, 55),
	}

	engine := newTestEngine(store)
	result, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	require.Equal(t, 2, row.ActivePatients)
	require.Equal(t, 65.0, row.AvgWalkingScore)
	// 偶数个患者时中位数线性插值
	require.Equal(t, 65.0, row.MedianWalkingScore)
}

func TestCohortAnalysis_ImprovementFromUnroundedAverages(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 1)},
	}
	store.OutcomeRows = []domain.PatientOutcomeFact{
		outcome("P001", "F001", day(2025, 6, 10), domain.AssessmentTypeBaseline, 50.004, 45),
		outcome("P001", "F001", day(2025, 7, 10), domain.AssessmentTypeFollowup, 50.006, 46),
	}

	engine := newTestEngine(store)
	result, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// 两个月的均分投影后分别是 50.0 和 50.01，
	// 但环比差值按未舍入的 0.002 计算，舍入后为 0
	month0 := result.Rows[0]
	require.Equal(t, 50.0, month0.AvgWalkingScore)
	month1 := result.Rows[1]
	require.Equal(t, 50.01, month1.AvgWalkingScore)
	require.NotNil(t, month1.WalkingScoreImprovement)
	require.Equal(t, 0.0, *month1.WalkingScoreImprovement)
}

func TestCohortAnalysis_HorizonBounds(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2024, 6, 1)},
	}
	store.OutcomeRows = []domain.PatientOutcomeFact{
		// 入组前的评估：月数为负，不进入任何单元格
		outcome("P001", "F001", day(2024, 5, 15), domain.AssessmentTypeBaseline, 40, 40),
		// 第 12 个月：视界内最后一格
		outcome("P001", "F001", day(2025, 6, 10), domain.AssessmentTypeFollowup, 70, 60),
		// 第 14 个月：超出视界
		outcome("P001", "F001", day(2025, 8, 10), domain.AssessmentTypeFinal, 75, 65),
	}

	engine := newTestEngine(store)
	result, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, 12, result.Rows[0].MonthsSinceEnrollment)
}

func TestCohortAnalysis_CohortsSortedDescending(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 3, 1)},
		{PatientID: "P002", AnonymizedID: "a2", EnrollmentDate: day(2025, 9, 1)},
	}
	store.OutcomeRows = []domain.PatientOutcomeFact{
		outcome("P001", "F001", day(2025, 3, 10), domain.AssessmentTypeBaseline, 50, 50),
		outcome("P002", "F001", day(2025, 9, 10), domain.AssessmentTypeBaseline, 55, 55),
	}

	engine := newTestEngine(store)
	result, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.Equal(t, day(2025, 9, 1), result.Rows[0].CohortMonth)
	require.Equal(t, day(2025, 3, 1), result.Rows[1].CohortMonth)
}

func TestCohortAnalysis_MalformedDateExcluded(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 1)},
	}
	bad := outcome("P001", "F001", time.Time{}, domain.AssessmentTypeBaseline, 50, 50)
	store.OutcomeRows = []domain.PatientOutcomeFact{
		outcome("P001", "F001", day(2025, 6, 10), domain.AssessmentTypeBaseline, 50, 50),
		bad,
	}

	engine := newTestEngine(store)
	result, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, 1, result.Diagnostics.MalformedDate)
	require.Equal(t, 1, result.Diagnostics.ExcludedRows)
}

func TestCohortAnalysis_EmptyPatientsIsFatal(t *testing.T) {
	store := repository.NewMemoryWarehouse()

	engine := newTestEngine(store)
	_, err := engine.CohortAnalysis(context.Background(), analytics.Params{AsOf: testAsOf})
	require.Error(t, err)
	require.True(t, errors.Is(err, repository.ErrEmptySnapshot))
}
