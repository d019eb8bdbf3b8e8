package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// QuestionOptionRequest describes one choice of an option-based question.
type QuestionOptionRequest struct {
	Code      string `json:"code" validate:"required,max=16"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest describes one question of the question bank.
type QuestionRequest struct {
	Text           string                  `json:"text" validate:"required"`
	Type           string                  `json:"type" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE SHORT_ANSWER ESSAY MATCHING"`
	Points         float64                 `json:"points" validate:"gt=0"`
	CorrectAnswer  *string                 `json:"correct_answer"`
	Explanation    *string                 `json:"explanation"`
	ImageURL       *string                 `json:"image_url" validate:"omitempty,url"`
	MatchTolerance int                     `json:"match_tolerance" validate:"gte=0,lte=5"`
	Options        []QuestionOptionRequest `json:"options" validate:"dive"`
}

// AssessmentRequest is the payload for creating or replacing an assessment.
type AssessmentRequest struct {
	Kind               string            `json:"kind" validate:"required,oneof=assignment quiz exam"`
	Type               string            `json:"type" validate:"required,oneof=EXERCISE QUIZ DAILY_TEST MIDTERM FINAL_EXAM MATERIAL"`
	ClassID            uint              `json:"class_id" validate:"required,gt=0"`
	SubjectID          uint              `json:"subject_id" validate:"required,gt=0"`
	AcademicYearID     uint              `json:"academic_year_id" validate:"required,gt=0"`
	Title              string            `json:"title" validate:"required,min=3,max=255"`
	Description        string            `json:"description"`
	OpensAt            time.Time         `json:"opens_at" validate:"required"`
	ClosesAt           time.Time         `json:"closes_at" validate:"required,gtfield=OpensAt"`
	DurationMinutes    *int              `json:"duration_minutes" validate:"omitempty,gt=0"`
	MaxScore           float64           `json:"max_score" validate:"omitempty,gt=0"`
	RandomizeQuestions bool              `json:"randomize_questions"`
	RandomizeOptions   bool              `json:"randomize_options"`
	Questions          []QuestionRequest `json:"questions" validate:"dive"`
}

// QuestionOptionResponse exposes an option including its correctness flag to tutors.
type QuestionOptionResponse struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

// QuestionResponse is the tutor view of a question.
type QuestionResponse struct {
	ID             uint                     `json:"id"`
	Position       int                      `json:"position"`
	Text           string                   `json:"text"`
	Type           string                   `json:"type"`
	Points         float64                  `json:"points"`
	CorrectAnswer  *string                  `json:"correct_answer"`
	Explanation    *string                  `json:"explanation"`
	ImageURL       *string                  `json:"image_url"`
	MatchTolerance int                      `json:"match_tolerance"`
	Options        []QuestionOptionResponse `json:"options"`
}

// AssessmentResponse is the tutor view of an assessment.
type AssessmentResponse struct {
	ID                 uint               `json:"id"`
	Kind               string             `json:"kind"`
	Type               string             `json:"type"`
	ClassID            uint               `json:"class_id"`
	SubjectID          uint               `json:"subject_id"`
	TutorID            uint               `json:"tutor_id"`
	AcademicYearID     uint               `json:"academic_year_id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	OpensAt            time.Time          `json:"opens_at"`
	ClosesAt           time.Time          `json:"closes_at"`
	DurationMinutes    *int               `json:"duration_minutes"`
	MaxScore           float64            `json:"max_score"`
	TotalPoints        float64            `json:"total_points"`
	RandomizeQuestions bool               `json:"randomize_questions"`
	RandomizeOptions   bool               `json:"randomize_options"`
	QuestionPDFURL     *string            `json:"question_pdf_url"`
	Questions          []QuestionResponse `json:"questions"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewAssessmentResponse converts a model into the tutor DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	response := AssessmentResponse{
		ID:                 model.ID,
		Kind:               string(model.Kind),
		Type:               string(model.Type),
		ClassID:            model.ClassID,
		SubjectID:          model.SubjectID,
		TutorID:            model.TutorID,
		AcademicYearID:     model.AcademicYearID,
		Title:              model.Title,
		Description:        model.Description,
		OpensAt:            model.OpensAt,
		ClosesAt:           model.ClosesAt,
		DurationMinutes:    model.DurationMinutes,
		MaxScore:           model.MaxScore,
		TotalPoints:        model.TotalPoints(),
		RandomizeQuestions: model.RandomizeQuestions,
		RandomizeOptions:   model.RandomizeOptions,
		QuestionPDFURL:     model.QuestionPDFURL,
		Questions:          make([]QuestionResponse, 0, len(model.Questions)),
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}

	for _, question := range model.Questions {
		item := QuestionResponse{
			ID:             question.ID,
			Position:       question.Position,
			Text:           question.Text,
			Type:           string(question.Type),
			Points:         question.Points,
			CorrectAnswer:  question.CorrectAnswer,
			Explanation:    question.Explanation,
			ImageURL:       question.ImageURL,
			MatchTolerance: question.MatchTolerance,
			Options:        make([]QuestionOptionResponse, 0, len(question.Options)),
		}
		for _, option := range question.Options {
			item.Options = append(item.Options, QuestionOptionResponse{
				ID:        option.ID,
				Code:      option.Code,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
				Position:  option.Position,
			})
		}
		response.Questions = append(response.Questions, item)
	}

	return response
}
