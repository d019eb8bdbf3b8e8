package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// submitQuiz runs a full attempt for student 21: the short answer and the
// choice are correct, the essay waits for a tutor.
func submitQuiz(t *testing.T, app *fiber.App, db *gorm.DB) (models.Assessment, uint) {
	t.Helper()
	assessment := seedOpenQuiz(t, db, -time.Minute, time.Hour)
	shortAnswer, choice, essay := questionIDs(assessment)

	_, payload := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID), 21, middleware.RoleStudent, nil)
	var started dto.StartAttemptResponse
	decodeData(t, payload, &started)

	selected := "B"
	resp, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/attempts/%d/submit", started.SubmissionID), 21, middleware.RoleStudent, dto.SubmitAttemptRequest{
		Answers: []dto.SaveAnswerRequest{
			{QuestionID: shortAnswer, Response: "Jakarta"},
			{QuestionID: choice, SelectedOption: &selected},
			{QuestionID: essay, Response: "Penguapan lalu kondensasi."},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return assessment, started.SubmissionID
}

func TestGradingHandler_GradeSubmission(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	assessment, submissionID := submitQuiz(t, app, db)
	_, _, essay := questionIDs(assessment)

	resp, payload := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/assessments/%d/submissions", assessment.ID), 11, middleware.RoleTutor, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listing []dto.SubmissionSummaryResponse
	decodeData(t, payload, &listing)
	require.Len(t, listing, 1)
	require.Equal(t, 1, listing[0].PendingAnswers)

	resp, payload = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/submissions/%d", submissionID), 11, middleware.RoleTutor, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var detail dto.SubmissionDetailResponse
	decodeData(t, payload, &detail)
	require.Len(t, detail.Answers, 3)

	var essayAnswerID uint
	for _, answer := range detail.Answers {
		if answer.QuestionID == essay {
			essayAnswerID = answer.ID
			require.Nil(t, answer.AwardedPoints)
		}
	}
	require.NotZero(t, essayAnswerID)

	gradePath := fmt.Sprintf("/api/v2/submissions/%d/grade", submissionID)
	resp, payload = doJSON(t, app, http.MethodPut, gradePath, 11, middleware.RoleTutor, dto.GradeSubmissionRequest{
		AutoScale: true,
		Feedback:  "Cukup baik",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, handler.CodePendingAnswers, payload.Code)

	resp, payload = doJSON(t, app, http.MethodPut, gradePath, 11, middleware.RoleTutor, dto.GradeSubmissionRequest{
		Answers:   []dto.AnswerGradeRequest{{AnswerID: essayAnswerID, AwardedPoints: 5}},
		AutoScale: true,
		Feedback:  "Cukup baik",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var graded dto.GradeSubmissionResponse
	decodeData(t, payload, &graded)
	require.InDelta(t, 75, graded.Nilai, 0.001)
	require.Equal(t, uint(11), graded.GradedBy)

	invalid := 120.0
	resp, payload = doJSON(t, app, http.MethodPut, gradePath, 11, middleware.RoleTutor, dto.GradeSubmissionRequest{Nilai: &invalid})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, handler.CodeInvalidScore, payload.Code)
}

func TestGradingHandler_Authorization(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	_, submissionID := submitQuiz(t, app, db)

	nilai := 90.0
	resp, _ := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v2/submissions/%d/grade", submissionID), 21, middleware.RoleStudent, dto.GradeSubmissionRequest{Nilai: &nilai})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, payload := doJSON(t, app, http.MethodGet, "/api/v2/submissions/999", 11, middleware.RoleTutor, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, handler.CodeNotFound, payload.Code)
}

func TestGradingHandler_RejectsInProgressAttempt(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	assessment := seedOpenQuiz(t, db, -time.Minute, time.Hour)

	_, payload := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID), 21, middleware.RoleStudent, nil)
	var started dto.StartAttemptResponse
	decodeData(t, payload, &started)

	nilai := 90.0
	resp, payload := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v2/submissions/%d/grade", started.SubmissionID), 11, middleware.RoleTutor, dto.GradeSubmissionRequest{Nilai: &nilai})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, handler.CodeNotGradable, payload.Code)
}
