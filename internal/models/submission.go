package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus tracks the lifecycle of one student's attempt.
type SubmissionStatus string

const (
	// SubmissionStatusInProgress marks an attempt that still accepts answers.
	SubmissionStatusInProgress SubmissionStatus = "in_progress"
	// SubmissionStatusSubmitted marks an attempt finalized inside the window.
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	// SubmissionStatusLate marks an attempt finalized after the close instant.
	SubmissionStatusLate SubmissionStatus = "late"
	// SubmissionStatusGraded marks an attempt with a tutor-confirmed score.
	SubmissionStatusGraded SubmissionStatus = "graded"
)

// IsTerminal reports whether the attempt no longer accepts answers.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusSubmitted || s == SubmissionStatusLate || s == SubmissionStatusGraded
}

// IsGradable reports whether a tutor may grade the attempt.
func (s SubmissionStatus) IsGradable() bool {
	return s.IsTerminal()
}

// AttemptLayout is the question and option order fixed when the attempt started.
type AttemptLayout struct {
	Seed      int64               `json:"seed"`
	Questions []uint              `json:"questions"`
	Options   map[string][]string `json:"options,omitempty"`
}

// Submission is the single attempt record of a student for an assessment.
type Submission struct {
	ID            uint                              `gorm:"primaryKey" json:"id"`
	AssessmentID  uint                              `gorm:"not null;uniqueIndex:idx_submission_assessment_student" json:"assessment_id"`
	StudentID     uint                              `gorm:"not null;uniqueIndex:idx_submission_assessment_student;index" json:"student_id"`
	Status        SubmissionStatus                  `gorm:"size:32;not null;index" json:"status"`
	IsLate        bool                              `gorm:"not null;default:false" json:"is_late"`
	StartedAt     time.Time                         `gorm:"not null" json:"started_at"`
	SubmittedAt   *time.Time                        `json:"submitted_at"`
	GradedAt      *time.Time                        `json:"graded_at"`
	GradedBy      *uint                             `json:"graded_by"`
	Score         *float64                          `json:"score"`
	Nilai         *float64                          `json:"nilai"`
	Feedback      *string                           `gorm:"type:text" json:"feedback"`
	AttachmentURL *string                           `gorm:"size:512" json:"attachment_url"`
	Layout        datatypes.JSONType[AttemptLayout] `json:"layout"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
	Assessment    Assessment                        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Answers       []Answer                          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

// PendingAnswers counts answers still waiting for manual points.
func (s Submission) PendingAnswers() int {
	pending := 0
	for _, answer := range s.Answers {
		if answer.AwardedPoints == nil {
			pending++
		}
	}
	return pending
}

// Answer is the response of a student to one question.
type Answer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"not null;uniqueIndex:idx_answer_submission_question" json:"submission_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_answer_submission_question" json:"question_id"`
	Response       string    `gorm:"type:text" json:"response"`
	SelectedOption *string   `gorm:"size:16" json:"selected_option"`
	AttachmentURL  *string   `gorm:"size:512" json:"attachment_url"`
	IsCorrect      *bool     `json:"is_correct"`
	AwardedPoints  *float64  `json:"awarded_points"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
