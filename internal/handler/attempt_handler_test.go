package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
)

func TestAttemptHandler_StartAndResume(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	assessment := seedOpenQuiz(t, db, -time.Minute, time.Hour)
	path := fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID)

	resp, payload := doJSON(t, app, http.MethodPost, path, 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, payload.Success)

	var started dto.StartAttemptResponse
	decodeData(t, payload, &started)
	require.False(t, started.Resumed)
	require.Len(t, started.Questions, 3)
	require.Greater(t, started.RemainingSeconds, int64(3500))
	for _, question := range started.Questions {
		if question.Type == "MULTIPLE_CHOICE" {
			require.Len(t, question.Options, 2)
		}
	}

	resp, payload = doJSON(t, app, http.MethodPost, path, 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var resumed dto.StartAttemptResponse
	decodeData(t, payload, &resumed)
	require.True(t, resumed.Resumed)
	require.Equal(t, started.SubmissionID, resumed.SubmissionID)
}

func TestAttemptHandler_WindowConflicts(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)

	upcoming := seedOpenQuiz(t, db, time.Hour, 2*time.Hour)
	resp, payload := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", upcoming.ID), 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, handler.CodeNotYetOpen, payload.Code)

	closed := seedOpenQuiz(t, db, -2*time.Hour, -time.Hour)
	resp, payload = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", closed.ID), 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, handler.CodeClosed, payload.Code)

	resp, payload = doJSON(t, app, http.MethodPost, "/api/v2/assessments/999/attempts", 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, handler.CodeNotFound, payload.Code)
}

func TestAttemptHandler_AnswerSubmitFlow(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	assessment := seedOpenQuiz(t, db, -time.Minute, time.Hour)
	shortAnswer, choice, essay := questionIDs(assessment)

	_, payload := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID), 21, middleware.RoleStudent, nil)
	var started dto.StartAttemptResponse
	decodeData(t, payload, &started)
	answersPath := fmt.Sprintf("/api/v2/attempts/%d/answers", started.SubmissionID)

	resp, _ := doJSON(t, app, http.MethodPut, answersPath, 21, middleware.RoleStudent, dto.SaveAnswerRequest{QuestionID: shortAnswer, Response: "jakarta"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	invalid := "E"
	resp, payload = doJSON(t, app, http.MethodPut, answersPath, 21, middleware.RoleStudent, dto.SaveAnswerRequest{QuestionID: choice, SelectedOption: &invalid})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, handler.CodeInvalidAnswer, payload.Code)

	resp, payload = doJSON(t, app, http.MethodPut, answersPath, 99, middleware.RoleStudent, dto.SaveAnswerRequest{QuestionID: shortAnswer, Response: "Bandung"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, handler.CodeForbidden, payload.Code)

	resp, payload = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/attempts/%d/timer", started.SubmissionID), 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var timer dto.TimerResponse
	decodeData(t, payload, &timer)
	require.Equal(t, dto.DisplayStatusTimeRemaining, timer.DisplayStatus)

	selected := "B"
	submitPath := fmt.Sprintf("/api/v2/attempts/%d/submit", started.SubmissionID)
	resp, payload = doJSON(t, app, http.MethodPost, submitPath, 21, middleware.RoleStudent, dto.SubmitAttemptRequest{
		Answers: []dto.SaveAnswerRequest{
			{QuestionID: choice, SelectedOption: &selected},
			{QuestionID: essay, Response: "Penguapan lalu kondensasi."},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var submitted dto.SubmitAttemptResponse
	decodeData(t, payload, &submitted)
	require.True(t, submitted.Accepted)
	require.Equal(t, dto.DisplayStatusSubmitted, submitted.FinalStatus)

	resp, _ = doJSON(t, app, http.MethodPost, submitPath, 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodPut, answersPath, 21, middleware.RoleStudent, dto.SaveAnswerRequest{QuestionID: shortAnswer, Response: "Bandung"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, handler.CodeAlreadySubmitted, payload.Code)

	resp, payload = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID), 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, handler.CodeAlreadySubmitted, payload.Code)
}

func TestAttemptHandler_RequiresStudentRole(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	assessment := seedOpenQuiz(t, db, -time.Minute, time.Hour)

	resp, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID), 11, middleware.RoleTutor, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/assessments/%d/attempts", assessment.ID), 0, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
