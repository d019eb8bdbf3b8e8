package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// AssessmentService manages the question bank of assessments.
type AssessmentService interface {
	Create(ctx context.Context, payload dto.AssessmentRequest, tutorID uint) (dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssessmentRequest, tutorID uint) (dto.AssessmentResponse, error)
	UploadQuestionPDF(ctx context.Context, id uint, file *multipart.FileHeader) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	repo      repository.AssessmentRepository
	uploads   UploadService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAssessmentService constructs the question bank service.
func NewAssessmentService(repo repository.AssessmentRepository, uploads UploadService, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		repo:      repo,
		uploads:   uploads,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, payload dto.AssessmentRequest, tutorID uint) (dto.AssessmentResponse, error) {
	model, err := s.buildModel(payload)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	model.TutorID = tutorID

	if err := s.repo.Create(ctx, &model); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().
		Uint("assessment_id", model.ID).
		Uint("tutor_id", tutorID).
		Int("questions", len(model.Questions)).
		Msg("assessment created")

	return s.Get(ctx, model.ID)
}

func (s *assessmentService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	model, err := s.repo.GetWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}
	return dto.NewAssessmentResponse(model), nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, payload dto.AssessmentRequest, tutorID uint) (dto.AssessmentResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if err := s.ensureEditable(ctx, id); err != nil {
		return dto.AssessmentResponse{}, err
	}

	model, err := s.buildModel(payload)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	model.ID = current.ID
	model.TutorID = tutorID
	model.CreatedAt = current.CreatedAt
	if len(model.Questions) == 0 {
		model.QuestionPDFURL = current.QuestionPDFURL
	}

	if err := s.repo.ReplaceContent(ctx, &model); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", id).Uint("tutor_id", tutorID).Msg("assessment updated")
	return s.Get(ctx, id)
}

func (s *assessmentService) UploadQuestionPDF(ctx context.Context, id uint, file *multipart.FileHeader) (dto.AssessmentResponse, error) {
	current, err := s.repo.GetWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if err := s.ensureEditable(ctx, id); err != nil {
		return dto.AssessmentResponse{}, err
	}
	if len(current.Questions) > 0 {
		return dto.AssessmentResponse{}, fmt.Errorf("%w: a question PDF replaces structured questions, remove them first", ErrInvalidQuestion)
	}

	stored, err := s.uploads.Store(ctx, file, UploadPurposeQuestionPDF)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	if err := s.repo.SetQuestionPDF(ctx, id, stored.URL); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().Uint("assessment_id", id).Str("url", stored.URL).Msg("question pdf attached")
	return s.Get(ctx, id)
}

func (s *assessmentService) ensureEditable(ctx context.Context, id uint) error {
	started, err := s.repo.HasStartedSubmissions(ctx, id)
	if err != nil {
		return err
	}
	if started {
		return ErrAssessmentLocked
	}
	return nil
}

func (s *assessmentService) buildModel(payload dto.AssessmentRequest) (models.Assessment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Assessment{}, err
	}

	maxScore := payload.MaxScore
	if maxScore == 0 {
		maxScore = 100
	}

	model := models.Assessment{
		Kind:               models.AssessmentKind(payload.Kind),
		Type:               models.AssessmentType(payload.Type),
		ClassID:            payload.ClassID,
		SubjectID:          payload.SubjectID,
		AcademicYearID:     payload.AcademicYearID,
		Title:              strings.TrimSpace(payload.Title),
		Description:        s.sanitizer.Sanitize(payload.Description),
		OpensAt:            payload.OpensAt.UTC(),
		ClosesAt:           payload.ClosesAt.UTC(),
		DurationMinutes:    payload.DurationMinutes,
		MaxScore:           maxScore,
		RandomizeQuestions: payload.RandomizeQuestions,
		RandomizeOptions:   payload.RandomizeOptions,
		Questions:          make([]models.Question, 0, len(payload.Questions)),
	}

	for i, item := range payload.Questions {
		question, err := buildQuestion(i, item)
		if err != nil {
			return models.Assessment{}, err
		}
		model.Questions = append(model.Questions, question)
	}

	return model, nil
}

func buildQuestion(index int, item dto.QuestionRequest) (models.Question, error) {
	questionType := models.QuestionType(item.Type)
	number := index + 1

	question := models.Question{
		Position:       index,
		Text:           strings.TrimSpace(item.Text),
		Type:           questionType,
		Points:         item.Points,
		CorrectAnswer:  item.CorrectAnswer,
		Explanation:    item.Explanation,
		ImageURL:       item.ImageURL,
		MatchTolerance: item.MatchTolerance,
	}

	if !questionType.HasOptions() {
		if len(item.Options) > 0 {
			return models.Question{}, fmt.Errorf("%w: question %d of type %s cannot have options", ErrInvalidQuestion, number, item.Type)
		}
		return question, nil
	}

	if len(item.Options) < 2 {
		return models.Question{}, fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuestion, number)
	}

	codes := make(map[string]struct{}, len(item.Options))
	correct := 0
	for j, option := range item.Options {
		code := strings.ToUpper(strings.TrimSpace(option.Code))
		if _, dup := codes[code]; dup {
			return models.Question{}, fmt.Errorf("%w: question %d repeats option code %s", ErrInvalidQuestion, number, code)
		}
		codes[code] = struct{}{}
		if option.IsCorrect {
			correct++
		}
		question.Options = append(question.Options, models.QuestionOption{
			Code:      code,
			Text:      strings.TrimSpace(option.Text),
			IsCorrect: option.IsCorrect,
			Position:  j,
		})
	}
	if correct != 1 {
		return models.Question{}, fmt.Errorf("%w: question %d must have exactly one correct option", ErrInvalidQuestion, number)
	}

	return question, nil
}
