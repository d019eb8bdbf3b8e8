package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
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

func seedAssessment(t *testing.T, db *gorm.DB, opensAt time.Time) models.Assessment {
	t.Helper()
	correct := "jakarta"
	assessment := models.Assessment{
		Kind:           models.AssessmentKindQuiz,
		Type:           models.AssessmentTypeQuiz,
		ClassID:        7,
		SubjectID:      3,
		TutorID:        11,
		AcademicYearID: 2025,
		Title:          "Kuis Geografi",
		OpensAt:        opensAt,
		ClosesAt:       opensAt.Add(time.Hour),
		MaxScore:       100,
		Questions: []models.Question{
			{
				Position:      1,
				Text:          "Ibu kota Indonesia?",
				Type:          models.QuestionTypeShortAnswer,
				Points:        4,
				CorrectAnswer: &correct,
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
		},
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}
