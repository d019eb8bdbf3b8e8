package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// Student-facing attempt states.
const (
	DisplayStatusTimeRemaining = "time_remaining"
	DisplayStatusSubmitted     = "submitted"
	DisplayStatusGraded        = "graded"
)

// DisplayStatus maps the internal lifecycle to the vocabulary shown to students.
func DisplayStatus(status models.SubmissionStatus) string {
	switch status {
	case models.SubmissionStatusInProgress:
		return DisplayStatusTimeRemaining
	case models.SubmissionStatusGraded:
		return DisplayStatusGraded
	default:
		return DisplayStatusSubmitted
	}
}

// AttemptOption is a choice rendered to the student, without its correctness flag.
type AttemptOption struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// AttemptQuestion is a question rendered to the student.
type AttemptQuestion struct {
	ID       uint            `json:"id"`
	Number   int             `json:"number"`
	Text     string          `json:"text"`
	Type     string          `json:"type"`
	Points   float64         `json:"points"`
	ImageURL *string         `json:"image_url"`
	Options  []AttemptOption `json:"options"`
}

// NewAttemptQuestions converts ordered questions into the student view.
func NewAttemptQuestions(questions []models.Question) []AttemptQuestion {
	items := make([]AttemptQuestion, 0, len(questions))
	for i, question := range questions {
		item := AttemptQuestion{
			ID:       question.ID,
			Number:   i + 1,
			Text:     question.Text,
			Type:     string(question.Type),
			Points:   question.Points,
			ImageURL: question.ImageURL,
			Options:  make([]AttemptOption, 0, len(question.Options)),
		}
		for _, option := range question.Options {
			item.Options = append(item.Options, AttemptOption{Code: option.Code, Text: option.Text})
		}
		items = append(items, item)
	}
	return items
}

// AnswerResponse is a saved answer as the student sees it.
type AnswerResponse struct {
	ID             uint      `json:"id"`
	QuestionID     uint      `json:"question_id"`
	Response       string    `json:"response"`
	SelectedOption *string   `json:"selected_option"`
	AttachmentURL  *string   `json:"attachment_url"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewAnswerResponse converts an answer model into the student DTO.
func NewAnswerResponse(model models.Answer) AnswerResponse {
	return AnswerResponse{
		ID:             model.ID,
		QuestionID:     model.QuestionID,
		Response:       model.Response,
		SelectedOption: model.SelectedOption,
		AttachmentURL:  model.AttachmentURL,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAnswerResponseSlice converts answer models into student DTOs.
func NewAnswerResponseSlice(answers []models.Answer) []AnswerResponse {
	responses := make([]AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		responses = append(responses, NewAnswerResponse(answer))
	}
	return responses
}

// StartAttemptResponse is returned when an attempt starts or resumes.
type StartAttemptResponse struct {
	SubmissionID     uint              `json:"submission_id"`
	AssessmentID     uint              `json:"assessment_id"`
	Title            string            `json:"title"`
	Resumed          bool              `json:"resumed"`
	DisplayStatus    string            `json:"display_status"`
	StartedAt        time.Time         `json:"started_at"`
	Deadline         time.Time         `json:"deadline"`
	RemainingSeconds int64             `json:"remaining_seconds"`
	QuestionPDFURL   *string           `json:"question_pdf_url"`
	AttachmentURL    *string           `json:"attachment_url"`
	Questions        []AttemptQuestion `json:"questions"`
	PreviousAnswers  []AnswerResponse  `json:"previous_answers"`
}

// SaveAnswerRequest is the autosave payload for one question.
type SaveAnswerRequest struct {
	QuestionID     uint    `json:"question_id" validate:"required,gt=0"`
	Response       string  `json:"response" validate:"max=20000"`
	SelectedOption *string `json:"selected_option" validate:"omitempty,max=16"`
}

// SubmitAttemptRequest carries the final answers sent with the submit call.
type SubmitAttemptRequest struct {
	Answers []SaveAnswerRequest `json:"answers" validate:"dive"`
}

// SubmitAttemptResponse reports whether the final answers were accepted.
type SubmitAttemptResponse struct {
	SubmissionID uint       `json:"submission_id"`
	Accepted     bool       `json:"accepted"`
	FinalStatus  string     `json:"final_status"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

// TimerResponse is the server-side countdown of an attempt.
type TimerResponse struct {
	SubmissionID     uint      `json:"submission_id"`
	DisplayStatus    string    `json:"display_status"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Deadline         time.Time `json:"deadline"`
	ServerTime       time.Time `json:"server_time"`
}

// AttachmentResponse describes a stored attachment.
type AttachmentResponse struct {
	SubmissionID uint   `json:"submission_id"`
	QuestionID   *uint  `json:"question_id"`
	URL          string `json:"url"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	Checksum     string `json:"checksum"`
}
