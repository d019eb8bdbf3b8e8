package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

const scoreEpsilon = 1e-9

// GradingService encapsulates manual grading by tutors.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, tutorID uint) (dto.GradeSubmissionResponse, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]dto.SubmissionSummaryResponse, error)
	Get(ctx context.Context, submissionID uint) (dto.SubmissionDetailResponse, error)
}

type gradingService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(assessments repository.AssessmentRepository, submissions repository.SubmissionRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		assessments: assessments,
		submissions: submissions,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, tutorID uint) (dto.GradeSubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-assessment-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.grade")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.tutor_id", int64(tutorID)),
		attribute.Bool("grading.auto_scale", payload.AutoScale),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradeSubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.GradeSubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.GradeSubmissionResponse{}, err
	}

	if !submission.Status.IsGradable() {
		span.SetStatus(codes.Error, "not_gradable")
		return dto.GradeSubmissionResponse{}, ErrNotGradable
	}

	assessment := submission.Assessment
	if assessment.IsPDFBased() && (payload.AutoScale || len(payload.Answers) > 0) {
		span.SetStatus(codes.Error, "holistic_required")
		return dto.GradeSubmissionResponse{}, fmt.Errorf("%w: pdf assessments are graded with a single nilai", ErrInvalidScore)
	}

	answers, err := applyOverrides(submission, payload.Answers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_answer_score")
		return dto.GradeSubmissionResponse{}, err
	}

	maxScore := assessment.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	mode := "holistic"
	var nilai float64
	if payload.AutoScale {
		mode = "auto_scale"
		for _, answer := range answers {
			if answer.AwardedPoints == nil {
				span.SetStatus(codes.Error, "pending_answers")
				return dto.GradeSubmissionResponse{}, ErrPendingAnswers
			}
		}
		awarded := grading.SumAwarded(answers)
		total := 0.0
		if awarded != nil {
			total = *awarded
		}
		nilai = grading.ScaleToMax(total, assessment.TotalPoints(), maxScore)
	} else {
		nilai = *payload.Nilai
	}

	if nilai < 0 || nilai > maxScore+scoreEpsilon {
		span.SetStatus(codes.Error, "score_out_of_range")
		return dto.GradeSubmissionResponse{}, fmt.Errorf("%w: nilai must be between 0 and %.2f", ErrInvalidScore, maxScore)
	}
	nilai = grading.Round2(nilai)

	var feedback *string
	if cleaned := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)); cleaned != "" {
		feedback = &cleaned
	}

	gradedAt := s.now()
	graded, err := s.submissions.Grade(ctx, repository.GradeParams{
		SubmissionID: submission.ID,
		Answers:      answers,
		Score:        grading.SumAwarded(answers),
		Nilai:        nilai,
		Feedback:     feedback,
		GradedBy:     tutorID,
		GradedAt:     gradedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_failed")
		return dto.GradeSubmissionResponse{}, err
	}
	if !graded {
		return dto.GradeSubmissionResponse{}, ErrNotGradable
	}

	observability.Grades().WithLabelValues(mode).Inc()
	span.SetAttributes(
		attribute.Float64("grading.nilai", nilai),
		attribute.String("grading.mode", mode),
	)
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("tutor_id", tutorID).
		Float64("nilai", nilai).
		Str("mode", mode).
		Msg("submission graded")

	publishEvent(ctx, s.events, s.logger, EventSubmissionGraded, map[string]interface{}{
		"submission_id":    submission.ID,
		"assessment_id":    submission.AssessmentID,
		"student_id":       submission.StudentID,
		"subject_id":       assessment.SubjectID,
		"academic_year_id": assessment.AcademicYearID,
		"nilai":            nilai,
	})

	return dto.GradeSubmissionResponse{
		SubmissionID: submission.ID,
		Nilai:        nilai,
		Score:        grading.SumAwarded(answers),
		Status:       string(models.SubmissionStatusGraded),
		IsLate:       submission.IsLate,
		Feedback:     feedback,
		GradedBy:     tutorID,
		GradedAt:     gradedAt,
	}, nil
}

// applyOverrides merges the tutor's per-answer points into the stored answers
// after checking them against each question's point value.
func applyOverrides(submission models.Submission, overrides []dto.AnswerGradeRequest) ([]models.Answer, error) {
	answers := make([]models.Answer, len(submission.Answers))
	copy(answers, submission.Answers)

	index := make(map[uint]int, len(answers))
	for i, answer := range answers {
		index[answer.ID] = i
	}

	for _, override := range overrides {
		i, ok := index[override.AnswerID]
		if !ok {
			return nil, fmt.Errorf("%w: answer %d does not belong to the submission", ErrInvalidScore, override.AnswerID)
		}
		question, ok := findQuestion(submission.Assessment.Questions, answers[i].QuestionID)
		if !ok {
			return nil, ErrQuestionNotFound
		}
		if override.AwardedPoints < 0 || override.AwardedPoints > question.Points+scoreEpsilon {
			return nil, fmt.Errorf("%w: answer %d must score between 0 and %.2f", ErrInvalidScore, override.AnswerID, question.Points)
		}

		points := override.AwardedPoints
		answers[i].AwardedPoints = &points
		if override.IsCorrect != nil {
			correct := *override.IsCorrect
			answers[i].IsCorrect = &correct
		}
	}

	return answers, nil
}

func (s *gradingService) ListByAssessment(ctx context.Context, assessmentID uint) ([]dto.SubmissionSummaryResponse, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionSummaryResponseSlice(submissions), nil
}

func (s *gradingService) Get(ctx context.Context, submissionID uint) (dto.SubmissionDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetailResponse{}, err
	}

	return dto.NewSubmissionDetailResponse(submission), nil
}
