package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

func newTestScoreService(db *gorm.DB, cache *redis.Client) *scoreService {
	svc := NewScoreService(ScoreServiceDeps{
		Assessments: repository.NewAssessmentRepository(db),
		Submissions: repository.NewSubmissionRepository(db),
		Scores:      repository.NewScoreRepository(db),
		Enrollments: repository.NewEnrollmentRepository(db),
		Attendance:  NewAttendanceCalculator(repository.NewAttendanceRepository(db)),
		Cache:       cache,
		CacheTTL:    time.Minute,
		Weights:     grading.DefaultWeights(),
	}, validator.New(), testLogger()).(*scoreService)
	svc.now = func() time.Time { return baseTime.Add(48 * time.Hour) }
	return svc
}

func seedGradedSubmission(t *testing.T, db *gorm.DB, studentID uint, assessmentType models.AssessmentType, subjectID uint, maxScore, nilai float64) {
	t.Helper()
	assessment := models.Assessment{
		Kind:           models.AssessmentKindAssignment,
		Type:           assessmentType,
		ClassID:        7,
		SubjectID:      subjectID,
		TutorID:        11,
		AcademicYearID: 2025,
		Title:          "Penilaian " + string(assessmentType),
		OpensAt:        baseTime,
		ClosesAt:       baseTime.Add(time.Hour),
		MaxScore:       maxScore,
	}
	require.NoError(t, db.Create(&assessment).Error)

	if studentID == 0 {
		return
	}
	gradedAt := baseTime.Add(2 * time.Hour)
	submission := models.Submission{
		AssessmentID: assessment.ID,
		StudentID:    studentID,
		Status:       models.SubmissionStatusGraded,
		StartedAt:    baseTime,
		SubmittedAt:  &gradedAt,
		GradedAt:     &gradedAt,
		Nilai:        &nilai,
	}
	require.NoError(t, db.Omit("Assessment", "Answers").Create(&submission).Error)
}

func seedScoringFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedGradedSubmission(t, db, 21, models.AssessmentTypeQuiz, 3, 100, 80)
	seedGradedSubmission(t, db, 21, models.AssessmentTypeExercise, 3, 50, 45)
	seedGradedSubmission(t, db, 0, models.AssessmentTypeMidterm, 9, 100, 0)

	require.NoError(t, db.Create(&models.Enrollment{StudentID: 21, ClassID: 7, AcademicYearID: 2025}).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: 22, ClassID: 7, AcademicYearID: 2025}).Error)
	require.NoError(t, db.Create(&models.AttendanceSummary{StudentID: 21, ClassID: 7, AcademicYearID: 2025, Percentage: 100}).Error)
}

func TestScoreServiceRecomputeStudent(t *testing.T) {
	db := setupServiceDB(t)
	seedScoringFixture(t, db)
	svc := newTestScoreService(db, nil)
	ctx := context.Background()

	_, err := svc.UpsertSkill(ctx, dto.SkillScoreRequest{StudentID: 21, SubjectID: 5, AcademicYearID: 2025, Score: 92})
	require.NoError(t, err)
	_, err = svc.UpsertBehavior(ctx, dto.BehaviorScoreRequest{StudentID: 21, AcademicYearID: 2025, Spiritual: floatPointer(80), Social: floatPointer(90)})
	require.NoError(t, err)

	rows, err := svc.Recompute(ctx, dto.RecomputeFinalScoresRequest{StudentID: uintPointer(21), AcademicYearID: 2025})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	bySubject := make(map[uint]dto.FinalScoreResponse, len(rows))
	for _, row := range rows {
		bySubject[row.SubjectID] = row
	}

	require.InDelta(t, 85, bySubject[3].SubjectAverage, 1e-9)
	require.InDelta(t, 80, *bySubject[3].Quiz, 1e-9)
	require.InDelta(t, 90, *bySubject[3].Exercise, 1e-9)
	require.Nil(t, bySubject[3].Midterm)
	require.True(t, bySubject[3].HasData)

	require.InDelta(t, 92, *bySubject[5].Skill, 1e-9)
	require.False(t, bySubject[9].HasData)
	require.InDelta(t, 0, bySubject[9].SubjectAverage, 1e-9)

	require.InDelta(t, 88.5, rows[0].AcademicAverage, 1e-9)
	require.InDelta(t, 90, rows[0].BehaviorAverage, 1e-9)
	require.InDelta(t, 88.95, rows[0].FinalGrade, 1e-9)

	behavior, err := repository.NewScoreRepository(db).GetBehavior(ctx, 21, 2025)
	require.NoError(t, err)
	require.NotNil(t, behavior.Attendance)
	require.InDelta(t, 100, *behavior.Attendance, 1e-9)

	again, err := svc.Recompute(ctx, dto.RecomputeFinalScoresRequest{StudentID: uintPointer(21), AcademicYearID: 2025})
	require.NoError(t, err)
	require.Len(t, again, 3)

	var count int64
	require.NoError(t, db.Model(&models.FinalScore{}).Where("student_id = ?", 21).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestScoreServiceRecomputeClass(t *testing.T) {
	db := setupServiceDB(t)
	seedScoringFixture(t, db)
	svc := newTestScoreService(db, nil)

	rows, err := svc.Recompute(context.Background(), dto.RecomputeFinalScoresRequest{ClassID: uintPointer(7), AcademicYearID: 2025})
	require.NoError(t, err)

	perStudent := make(map[uint][]dto.FinalScoreResponse)
	for _, row := range rows {
		perStudent[row.StudentID] = append(perStudent[row.StudentID], row)
	}
	require.Len(t, perStudent[21], 2)
	require.Len(t, perStudent[22], 2)
	for _, row := range perStudent[22] {
		require.False(t, row.HasData)
		require.InDelta(t, 0, row.FinalGrade, 1e-9)
	}
}

func TestScoreServiceRecomputeValidation(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestScoreService(db, nil)
	ctx := context.Background()

	_, err := svc.Recompute(ctx, dto.RecomputeFinalScoresRequest{AcademicYearID: 2025})
	require.Error(t, err)

	_, err = svc.Recompute(ctx, dto.RecomputeFinalScoresRequest{StudentID: uintPointer(21), ClassID: uintPointer(7), AcademicYearID: 2025})
	require.Error(t, err)

	_, err = svc.UpsertSkill(ctx, dto.SkillScoreRequest{StudentID: 21, SubjectID: 5, AcademicYearID: 2025, Score: 101})
	require.Error(t, err)
}

func TestScoreServiceReadsThroughCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	db := setupServiceDB(t)
	seedScoringFixture(t, db)
	svc := newTestScoreService(db, client)
	ctx := context.Background()

	_, err = svc.Recompute(ctx, dto.RecomputeFinalScoresRequest{StudentID: uintPointer(21), AcademicYearID: 2025})
	require.NoError(t, err)
	require.True(t, mini.Exists(finalScoreCacheKey(21, 2025)))

	require.NoError(t, db.Model(&models.FinalScore{}).Where("student_id = ?", 21).Update("final_grade", 10).Error)

	cached, err := svc.GetFinalScores(ctx, 21, 2025)
	require.NoError(t, err)
	require.Len(t, cached.Subjects, 2)
	require.NotEqual(t, 10.0, cached.FinalGrade)

	mini.FlushAll()

	fresh, err := svc.GetFinalScores(ctx, 21, 2025)
	require.NoError(t, err)
	require.InDelta(t, 10, fresh.FinalGrade, 1e-9)
	require.True(t, mini.Exists(finalScoreCacheKey(21, 2025)))
}
