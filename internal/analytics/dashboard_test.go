package analytics_test

import (
	"context"
	"errors"
	"testing"

	"trexo-analytics/internal/analytics"
	"trexo-analytics/internal/domain"
	"trexo-analytics/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestDashboardSummary_AggregatesAcrossRelations(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 1)},
		{PatientID: "P002", AnonymizedID: "a2", EnrollmentDate: day(2025, 7, 1)},
	}
	store.DeviceRows = []domain.Device{
		{DeviceID: "D001", DeviceModel: "T300", Status: domain.DeviceStatusActive},
		{DeviceID: "D002", DeviceModel: "T300", Status: domain.DeviceStatusRetired},
	}
	store.SessionRows = []domain.ClinicalSession{
		session("S001", "P001", "D001", "F001", day(2026, 1, 5), 30),
		session("S002", "P002", "D001", "F001", day(2026, 1, 6), 50),
	}
	store.UsageRows = []domain.DeviceUsageFact{
		usageFact("S001", "P001", "D001", day(2026, 1, 5), 1000, 1),
		usageFact("S002", "P002", "D001", day(2026, 1, 6), 500, 0),
	}
	store.OutcomeRows = []domain.PatientOutcomeFact{
		outcome("P001", "F001", day(2025, 12, 1), domain.AssessmentTypeBaseline, 50, 40),
		outcome("P001", "F001", day(2026, 2, 1), domain.AssessmentTypeFinal, 75, 60),
		outcome("P002", "F001", day(2026, 1, 1), domain.AssessmentTypeBaseline, 60, 55),
	}

	engine := newTestEngine(store)
	summary, err := engine.DashboardSummary(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)

	require.Equal(t, 2, summary.DeviceUsage.TotalSessions)
	require.Equal(t, 1500, summary.DeviceUsage.TotalSteps)
	require.Equal(t, 1, summary.DeviceUsage.ActiveDevices)
	require.Equal(t, 2, summary.DeviceUsage.ActivePatients)
	require.Equal(t, 40.0, summary.DeviceUsage.AvgSessionDuration)

	// P001 首末评估 50 → 75；P002 只有一次评估，无可比
	require.Equal(t, 2, summary.PatientOutcomes.TotalPatients)
	require.NotNil(t, summary.PatientOutcomes.AvgWalkingImprovement)
	require.Equal(t, 25.0, *summary.PatientOutcomes.AvgWalkingImprovement)
	require.NotNil(t, summary.PatientOutcomes.ImprovementRate)
	require.Equal(t, 1.0, *summary.PatientOutcomes.ImprovementRate)
	require.Equal(t, 1, summary.PatientOutcomes.HighIndependenceCount)

	require.Equal(t, 2, summary.DeviceReliability.TotalDevices)
	require.Equal(t, 1, summary.DeviceReliability.ActiveDevices)
	require.NotNil(t, summary.DeviceReliability.AvgErrorRate)
	require.Equal(t, 0.5, *summary.DeviceReliability.AvgErrorRate)
	// D001 平均 0.5 错误/会话，达到关注阈值
	require.Equal(t, 1, summary.DeviceReliability.DevicesNeedingAttention)

	require.Equal(t, testAsOf, summary.RangeEnd)
	require.Equal(t, testAsOf.AddDate(0, -12, 0), summary.RangeStart)
}

func TestDashboardSummary_NoUsageGuardsErrorRate(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 1)},
	}
	store.DeviceRows = []domain.Device{
		{DeviceID: "D001", DeviceModel: "T300", Status: domain.DeviceStatusActive},
	}

	engine := newTestEngine(store)
	summary, err := engine.DashboardSummary(context.Background(), analytics.Params{AsOf: testAsOf})
	require.NoError(t, err)

	// 无会话时错误率分母为零：absent 而不是 0
	require.Nil(t, summary.DeviceReliability.AvgErrorRate)
	require.Nil(t, summary.PatientOutcomes.ImprovementRate)
	require.Equal(t, 0, summary.DeviceUsage.TotalSessions)
}

func TestDashboardSummary_EmptyDimensionIsFatal(t *testing.T) {
	store := repository.NewMemoryWarehouse()
	store.PatientRows = []domain.Patient{
		{PatientID: "P001", AnonymizedID: "a1", EnrollmentDate: day(2025, 6, 1)},
	}

	engine := newTestEngine(store)
	_, err := engine.DashboardSummary(context.Background(), analytics.Params{AsOf: testAsOf})
	require.Error(t, err)
	require.True(t, errors.Is(err, repository.ErrEmptySnapshot))
}
