package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/database"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
	"github.com/noah-isme/gema-assessment-api/internal/router"
	"github.com/noah-isme/gema-assessment-api/internal/service"
)

const (
	headerUserID   = "X-Test-User"
	headerUserRole = "X-Test-Role"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type memoryStorage struct{}

func (memoryStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

// headerAuth stands in for the JWT middleware and trusts identity headers.
func headerAuth(c *fiber.Ctx) error {
	if raw := c.Get(headerUserID); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("user_id", uint(id))
	}
	if role := c.Get(headerUserRole); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:http_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()
	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	uploads := service.NewUploadService(memoryStorage{}, 5, logger)

	scoreService := service.NewScoreService(service.ScoreServiceDeps{
		Assessments: assessmentRepo,
		Submissions: submissionRepo,
		Scores:      repository.NewScoreRepository(db),
		Enrollments: repository.NewEnrollmentRepository(db),
		Attendance:  service.NewAttendanceCalculator(repository.NewAttendanceRepository(db)),
		Weights:     grading.DefaultWeights(),
	}, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", AnswerRateLimit: 100}, router.Dependencies{
		AssessmentHandler: handler.NewAssessmentHandler(service.NewAssessmentService(assessmentRepo, uploads, validate, logger), logger),
		AttemptHandler:    handler.NewAttemptHandler(service.NewAttemptService(assessmentRepo, submissionRepo, uploads, nil, validate, 0, logger), logger),
		GradingHandler:    handler.NewGradingHandler(service.NewGradingService(assessmentRepo, submissionRepo, nil, validate, logger), logger),
		ScoreHandler:      handler.NewScoreHandler(scoreService, logger),
		JWTMiddleware:     headerAuth,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, userID uint, role string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID > 0 {
		req.Header.Set(headerUserID, strconv.FormatUint(uint64(userID), 10))
	}
	if role != "" {
		req.Header.Set(headerUserRole, role)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

// seedOpenQuiz stores a quiz that opens and closes at the given offsets from now.
// It carries a 4 point short answer, a 6 point multiple choice and a 10 point essay.
func seedOpenQuiz(t *testing.T, db *gorm.DB, opensIn, closesIn time.Duration) models.Assessment {
	t.Helper()
	now := time.Now().UTC()
	correct := "Jakarta"
	assessment := models.Assessment{
		Kind:           models.AssessmentKindQuiz,
		Type:           models.AssessmentTypeQuiz,
		ClassID:        7,
		SubjectID:      3,
		TutorID:        11,
		AcademicYearID: 2025,
		Title:          "Kuis Geografi",
		OpensAt:        now.Add(opensIn),
		ClosesAt:       now.Add(closesIn),
		MaxScore:       100,
		Questions: []models.Question{
			{Position: 1, Text: "Ibu kota Indonesia?", Type: models.QuestionTypeShortAnswer, Points: 4, CorrectAnswer: &correct},
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
			{Position: 3, Text: "Jelaskan proses terjadinya hujan.", Type: models.QuestionTypeEssay, Points: 10},
		},
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}

func questionIDs(assessment models.Assessment) (shortAnswer, choice, essay uint) {
	for _, question := range assessment.Questions {
		switch question.Type {
		case models.QuestionTypeShortAnswer:
			shortAnswer = question.ID
		case models.QuestionTypeMultipleChoice:
			choice = question.ID
		case models.QuestionTypeEssay:
			essay = question.ID
		}
	}
	return shortAnswer, choice, essay
}
