package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AnswerGradeRequest carries the tutor's points for one answer.
type AnswerGradeRequest struct {
	AnswerID      uint    `json:"answer_id" validate:"required,gt=0"`
	AwardedPoints float64 `json:"awarded_points"`
	IsCorrect     *bool   `json:"is_correct"`
}

// GradeSubmissionRequest is the manual grading payload. Either AutoScale is set
// or a holistic Nilai is given.
type GradeSubmissionRequest struct {
	Answers   []AnswerGradeRequest `json:"answers" validate:"dive"`
	Nilai     *float64             `json:"nilai" validate:"required_without=AutoScale"`
	AutoScale bool                 `json:"auto_scale"`
	Feedback  string               `json:"feedback" validate:"max=5000"`
}

// GradeSubmissionResponse is returned after a successful grading write.
type GradeSubmissionResponse struct {
	SubmissionID uint      `json:"submission_id"`
	Nilai        float64   `json:"nilai"`
	Score        *float64  `json:"score"`
	Status       string    `json:"status"`
	IsLate       bool      `json:"is_late"`
	Feedback     *string   `json:"feedback"`
	GradedBy     uint      `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}

// GradedAnswerResponse is the tutor view of an answer.
type GradedAnswerResponse struct {
	ID             uint     `json:"id"`
	QuestionID     uint     `json:"question_id"`
	Response       string   `json:"response"`
	SelectedOption *string  `json:"selected_option"`
	AttachmentURL  *string  `json:"attachment_url"`
	IsCorrect      *bool    `json:"is_correct"`
	AwardedPoints  *float64 `json:"awarded_points"`
}

// SubmissionSummaryResponse is one row of the tutor submission listing.
type SubmissionSummaryResponse struct {
	ID             uint       `json:"id"`
	AssessmentID   uint       `json:"assessment_id"`
	StudentID      uint       `json:"student_id"`
	Status         string     `json:"status"`
	IsLate         bool       `json:"is_late"`
	StartedAt      time.Time  `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	GradedAt       *time.Time `json:"graded_at"`
	Score          *float64   `json:"score"`
	Nilai          *float64   `json:"nilai"`
	AttachmentURL  *string    `json:"attachment_url"`
	AnswerCount    int        `json:"answer_count"`
	PendingAnswers int        `json:"pending_answers"`
}

// SubmissionDetailResponse is the tutor grading view of one submission.
type SubmissionDetailResponse struct {
	SubmissionSummaryResponse
	Feedback *string                `json:"feedback"`
	GradedBy *uint                  `json:"graded_by"`
	Answers  []GradedAnswerResponse `json:"answers"`
}

// NewSubmissionSummaryResponse converts a submission model into a listing row.
func NewSubmissionSummaryResponse(model models.Submission) SubmissionSummaryResponse {
	return SubmissionSummaryResponse{
		ID:             model.ID,
		AssessmentID:   model.AssessmentID,
		StudentID:      model.StudentID,
		Status:         string(model.Status),
		IsLate:         model.IsLate,
		StartedAt:      model.StartedAt,
		SubmittedAt:    model.SubmittedAt,
		GradedAt:       model.GradedAt,
		Score:          model.Score,
		Nilai:          model.Nilai,
		AttachmentURL:  model.AttachmentURL,
		AnswerCount:    len(model.Answers),
		PendingAnswers: model.PendingAnswers(),
	}
}

// NewSubmissionSummaryResponseSlice converts submission models into listing rows.
func NewSubmissionSummaryResponseSlice(submissions []models.Submission) []SubmissionSummaryResponse {
	responses := make([]SubmissionSummaryResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionSummaryResponse(submission))
	}
	return responses
}

// NewSubmissionDetailResponse converts a submission with answers into the grading view.
func NewSubmissionDetailResponse(model models.Submission) SubmissionDetailResponse {
	response := SubmissionDetailResponse{
		SubmissionSummaryResponse: NewSubmissionSummaryResponse(model),
		Feedback:                  model.Feedback,
		GradedBy:                  model.GradedBy,
		Answers:                   make([]GradedAnswerResponse, 0, len(model.Answers)),
	}
	for _, answer := range model.Answers {
		response.Answers = append(response.Answers, GradedAnswerResponse{
			ID:             answer.ID,
			QuestionID:     answer.QuestionID,
			Response:       answer.Response,
			SelectedOption: answer.SelectedOption,
			AttachmentURL:  answer.AttachmentURL,
			IsCorrect:      answer.IsCorrect,
			AwardedPoints:  answer.AwardedPoints,
		})
	}
	return response
}
