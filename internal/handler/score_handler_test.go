package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
)

func TestScoreHandler_RecomputeAndRead(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)
	assessment, submissionID := submitQuiz(t, app, db)
	_, _, essay := questionIDs(assessment)

	_, payload := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/submissions/%d", submissionID), 11, middleware.RoleTutor, nil)
	var detail dto.SubmissionDetailResponse
	decodeData(t, payload, &detail)
	var essayAnswerID uint
	for _, answer := range detail.Answers {
		if answer.QuestionID == essay {
			essayAnswerID = answer.ID
		}
	}

	resp, _ := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v2/submissions/%d/grade", submissionID), 11, middleware.RoleTutor, dto.GradeSubmissionRequest{
		Answers:   []dto.AnswerGradeRequest{{AnswerID: essayAnswerID, AwardedPoints: 5}},
		AutoScale: true,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v2/skill-scores", 11, middleware.RoleTutor, dto.SkillScoreRequest{
		StudentID:      21,
		SubjectID:      3,
		AcademicYearID: 2025,
		Score:          85,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	spiritual, social := 90.0, 70.0
	resp, _ = doJSON(t, app, http.MethodPut, "/api/v2/behavior-scores", 11, middleware.RoleTutor, dto.BehaviorScoreRequest{
		StudentID:      21,
		AcademicYearID: 2025,
		Spiritual:      &spiritual,
		Social:         &social,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	studentID := uint(21)
	resp, payload = doJSON(t, app, http.MethodPost, "/api/v2/final-scores/recompute", 11, middleware.RoleTutor, dto.RecomputeFinalScoresRequest{
		StudentID:      &studentID,
		AcademicYearID: 2025,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var recomputed []dto.FinalScoreResponse
	decodeData(t, payload, &recomputed)
	require.Len(t, recomputed, 1)
	require.InDelta(t, 75, *recomputed[0].Quiz, 0.001)
	require.InDelta(t, 80, recomputed[0].SubjectAverage, 0.001)
	require.InDelta(t, 80, recomputed[0].FinalGrade, 0.001)

	resp, payload = doJSON(t, app, http.MethodGet, "/api/v2/final-scores?academic_year_id=2025", 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var own dto.StudentFinalScoresResponse
	decodeData(t, payload, &own)
	require.Equal(t, uint(21), own.StudentID)
	require.InDelta(t, 80, own.FinalGrade, 0.001)
	require.Len(t, own.Subjects, 1)
}

func TestScoreHandler_StudentsReadOnlyTheirOwnScores(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)

	resp, payload := doJSON(t, app, http.MethodGet, "/api/v2/final-scores?student_id=22&academic_year_id=2025", 21, middleware.RoleStudent, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, handler.CodeForbidden, payload.Code)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v2/final-scores?student_id=22", 11, middleware.RoleTutor, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v2/final-scores?academic_year_id=2025", 11, middleware.RoleTutor, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScoreHandler_ValidationAndRoles(t *testing.T) {
	db := setupHandlerDB(t)
	app := setupApp(t, db)

	resp, payload := doJSON(t, app, http.MethodPut, "/api/v2/skill-scores", 11, middleware.RoleTutor, dto.SkillScoreRequest{
		StudentID:      21,
		SubjectID:      3,
		AcademicYearID: 2025,
		Score:          140,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, handler.CodeValidationFailed, payload.Code)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v2/final-scores/recompute", 21, middleware.RoleStudent, dto.RecomputeFinalScoresRequest{AcademicYearID: 2025})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
