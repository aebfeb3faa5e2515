package repository_test

import (
	"context"
	"testing"
	"time"

	"trexo-analytics/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresWarehouse_Patients(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	enrollment := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT\s+patient_id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"patient_id", "anonymized_id", "age_at_enrollment", "gender",
			"diagnosis_category", "region", "enrollment_date",
		}).AddRow(
			"P001", "a1b2c3d4e5f6a7b8", 8, "F",
			"Cerebral Palsy", "North America", enrollment,
		))

	wh := repository.NewPostgresWarehouse(db)
	patients, err := wh.Patients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 1)
	require.Equal(t, "P001", patients[0].PatientID)
	require.Equal(t, "Cerebral Palsy", patients[0].DiagnosisCategory)
	require.Equal(t, enrollment, patients[0].EnrollmentDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_OutcomeFacts_DateRangeArgs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assessment := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	// 闭区间边界作为位置参数传入
	mock.ExpectQuery(`FROM fact_patient_outcomes\s+WHERE assessment_date >= \$1 AND assessment_date <= \$2`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{
			"patient_id", "facility_id", "assessment_date", "assessment_type",
			"gmfcs_level", "walking_independence_score", "mobility_score",
			"quality_of_life_score", "steps_per_day_avg",
		}).AddRow(
			"P001", "F001", assessment, "followup",
			3, 65.5, 48.0, 70.0, 1200.0,
		))

	wh := repository.NewPostgresWarehouse(db)
	facts, err := wh.OutcomeFacts(context.Background(), repository.Between(start, end))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, 65.5, facts[0].WalkingIndependenceScore)
	require.Equal(t, "followup", facts[0].AssessmentType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_UsageFacts_UnboundedRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// 无边界时不生成 WHERE 子句
	mock.ExpectQuery(`FROM fact_device_usage\s+ORDER BY usage_date`).
		WillReturnRows(sqlmock.NewRows([]string{
			"session_id", "patient_id", "device_id", "facility_id", "usage_date",
			"total_steps", "distance_meters", "active_time_minutes",
			"average_speed_kmh", "max_speed_kmh",
			"battery_usage_percent", "error_count",
		}).AddRow(
			"S001", "P001", "D001", "F001", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			1000, 500.0, 30.0,
			1.2, 2.5,
			40.0, 0,
		))

	wh := repository.NewPostgresWarehouse(db)
	facts, err := wh.UsageFacts(context.Background(), repository.DateRange{})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, 1000, facts[0].TotalSteps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWarehouse_Sessions_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM clinical_sessions`).
		WillReturnError(sqlmock.ErrCancelled)

	wh := repository.NewPostgresWarehouse(db)
	_, err = wh.Sessions(context.Background(), repository.DateRange{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to query sessions")
}

func TestDateRange_Contains(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := repository.Between(start, end)

	// 闭区间：两端都包含
	require.True(t, r.Contains(start))
	require.True(t, r.Contains(end))
	require.True(t, r.Contains(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)))
	require.False(t, r.Contains(start.AddDate(0, 0, -1)))
	require.False(t, r.Contains(end.AddDate(0, 0, 1)))

	// 无边界范围包含一切
	require.True(t, repository.DateRange{}.Contains(time.Time{}))
}
