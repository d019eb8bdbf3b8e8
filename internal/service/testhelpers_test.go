package service

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Assessment{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Submission{},
		&models.Answer{},
		&models.SkillScore{},
		&models.BehaviorScore{},
		&models.FinalScore{},
		&models.Enrollment{},
		&models.AttendanceSummary{},
	))
	return db
}

func floatPointer(value float64) *float64 {
	return &value
}

func stringPointer(value string) *string {
	return &value
}

func uintPointer(value uint) *uint {
	return &value
}

// seedQuiz stores a one hour quiz opening at baseTime with a short answer,
// a multiple choice and an essay question worth 4, 6 and 10 points.
func seedQuiz(t *testing.T, db *gorm.DB, durationMinutes *int) models.Assessment {
	t.Helper()
	assessment := models.Assessment{
		Kind:            models.AssessmentKindQuiz,
		Type:            models.AssessmentTypeQuiz,
		ClassID:         7,
		SubjectID:       3,
		TutorID:         11,
		AcademicYearID:  2025,
		Title:           "Kuis Geografi",
		OpensAt:         baseTime,
		ClosesAt:        baseTime.Add(time.Hour),
		DurationMinutes: durationMinutes,
		MaxScore:        100,
		Questions: []models.Question{
			{
				Position:      1,
				Text:          "Ibu kota Indonesia?",
				Type:          models.QuestionTypeShortAnswer,
				Points:        4,
				CorrectAnswer: stringPointer("Jakarta"),
			},
			{
				Position: 2,
				Text:     "Pulau terbesar?",
				Type:     models.QuestionTypeMultipleChoice,
				Points:   6,
				Options: []models.QuestionOption{
					{Code: "A", Text: "Jawa", Position: 1},
					{Code: "B", Text: "Kalimantan", Position: 2, IsCorrect: true},
				},
			},
			{
				Position: 3,
				Text:     "Jelaskan proses terjadinya hujan.",
				Type:     models.QuestionTypeEssay,
				Points:   10,
			},
		},
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

type clock struct {
	current time.Time
}

func (c *clock) now() time.Time {
	return c.current
}

func (c *clock) set(at time.Time) {
	c.current = at
}

func newTestAttemptService(db *gorm.DB, clk *clock, grace time.Duration) *attemptService {
	svc := NewAttemptService(
		repository.NewAssessmentRepository(db),
		repository.NewSubmissionRepository(db),
		NewUploadService(&storageStub{}, 5, testLogger()),
		nil,
		validator.New(),
		grace,
		testLogger(),
	).(*attemptService)
	svc.now = clk.now
	svc.seed = func() int64 { return 7 }
	return svc
}
