package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

func TestScoreRepositoryBehaviorKeepsAttendanceSeparate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScoreRepository(db)
	ctx := context.Background()
	now := time.Now()

	spiritual, social := 90.0, 85.0
	require.NoError(t, repo.UpsertBehavior(ctx, &models.BehaviorScore{StudentID: 1, AcademicYearID: 2025, Spiritual: &spiritual, Social: &social}))

	attendance := 96.5
	require.NoError(t, repo.SetAttendance(ctx, 1, 2025, &attendance, now))

	updated := 88.0
	require.NoError(t, repo.UpsertBehavior(ctx, &models.BehaviorScore{StudentID: 1, AcademicYearID: 2025, Spiritual: &updated, Social: &social}))

	stored, err := repo.GetBehavior(ctx, 1, 2025)
	require.NoError(t, err)
	require.Equal(t, 88.0, *stored.Spiritual)
	require.Equal(t, 85.0, *stored.Social)
	require.Equal(t, 96.5, *stored.Attendance)
}

func TestScoreRepositorySkillUpsertAndFinalReplace(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScoreRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertSkill(ctx, &models.SkillScore{StudentID: 1, SubjectID: 3, AcademicYearID: 2025, Score: 70}))
	skill := models.SkillScore{StudentID: 1, SubjectID: 3, AcademicYearID: 2025, Score: 82}
	require.NoError(t, repo.UpsertSkill(ctx, &skill))
	require.Equal(t, 82.0, skill.Score)

	skills, err := repo.ListSkills(ctx, 1, 2025)
	require.NoError(t, err)
	require.Len(t, skills, 1)

	first := []models.FinalScore{
		{StudentID: 1, SubjectID: 3, AcademicYearID: 2025, SubjectAverage: 82, HasData: true, ComputedAt: now},
		{StudentID: 1, SubjectID: 4, AcademicYearID: 2025, ComputedAt: now},
	}
	require.NoError(t, repo.ReplaceFinalScores(ctx, 1, 2025, first))

	second := []models.FinalScore{{StudentID: 1, SubjectID: 3, AcademicYearID: 2025, SubjectAverage: 90, HasData: true, ComputedAt: now}}
	require.NoError(t, repo.ReplaceFinalScores(ctx, 1, 2025, second))

	scores, err := repo.ListFinalScores(ctx, 1, 2025)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, 90.0, scores[0].SubjectAverage)
}

func TestEnrollmentAndAttendanceRepositories(t *testing.T) {
	db := setupTestDB(t)
	enrollments := NewEnrollmentRepository(db)
	attendance := NewAttendanceRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]models.Enrollment{
		{StudentID: 2, AcademicYearID: 2025, ClassID: 7},
		{StudentID: 1, AcademicYearID: 2025, ClassID: 7},
		{StudentID: 3, AcademicYearID: 2025, ClassID: 8},
	}).Error)
	require.NoError(t, db.Create(&models.AttendanceSummary{StudentID: 1, AcademicYearID: 2025, ClassID: 7, Percentage: 93}).Error)

	ids, err := enrollments.ListStudentIDs(ctx, 7, 2025)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2}, ids)

	enrollment, err := enrollments.GetForStudent(ctx, 3, 2025)
	require.NoError(t, err)
	require.Equal(t, uint(8), enrollment.ClassID)

	summary, err := attendance.GetSummary(ctx, 1, 2025, 7)
	require.NoError(t, err)
	require.Equal(t, 93.0, summary.Percentage)
}
