package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// Finalization triggers recorded in metrics and events.
const (
	triggerExplicit = "explicit"
	triggerTimeout  = "timeout"
)

// AttemptService drives a student's attempt from start to submit.
type AttemptService interface {
	Start(ctx context.Context, assessmentID, studentID uint) (dto.StartAttemptResponse, error)
	SaveAnswer(ctx context.Context, submissionID, studentID uint, payload dto.SaveAnswerRequest) (dto.AnswerResponse, error)
	UploadAttachment(ctx context.Context, submissionID, studentID uint, questionID *uint, file *multipart.FileHeader) (dto.AttachmentResponse, error)
	Timer(ctx context.Context, submissionID, studentID uint) (dto.TimerResponse, error)
	Submit(ctx context.Context, submissionID, studentID uint, payload dto.SubmitAttemptRequest) (dto.SubmitAttemptResponse, error)
}

type attemptService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	uploads     UploadService
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	grace       time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	seed        func() int64
}

// NewAttemptService constructs the attempt service. grace extends the submit
// deadline; answer writes never get a grace period.
func NewAttemptService(
	assessments repository.AssessmentRepository,
	submissions repository.SubmissionRepository,
	uploads UploadService,
	events EventPublisher,
	validate *validator.Validate,
	grace time.Duration,
	logger zerolog.Logger,
) AttemptService {
	if grace < 0 {
		grace = 0
	}
	return &attemptService{
		assessments: assessments,
		submissions: submissions,
		uploads:     uploads,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		grace:       grace,
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-assessment-api/internal/service/attempt"),
		now:         time.Now,
		seed:        rand.Int64,
	}
}

func (s *attemptService) Start(ctx context.Context, assessmentID, studentID uint) (dto.StartAttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.start", trace.WithAttributes(
		attribute.Int64("attempt.assessment_id", int64(assessmentID)),
		attribute.Int64("attempt.student_id", int64(studentID)),
	))
	defer span.End()

	assessment, err := s.assessments.GetWithQuestions(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assessment_not_found")
			return dto.StartAttemptResponse{}, ErrAssessmentNotFound
		}
		span.RecordError(err)
		return dto.StartAttemptResponse{}, err
	}

	now := s.now()
	window := grading.WindowFor(assessment)

	existing, err := s.submissions.GetByAssessmentAndStudent(ctx, assessmentID, studentID)
	switch {
	case err == nil:
		return s.continueExisting(ctx, span, window, existing, now)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		span.RecordError(err)
		return dto.StartAttemptResponse{}, err
	}

	decision := window.Decide(now, nil)
	span.SetAttributes(attribute.String("attempt.decision", string(decision)))
	switch decision {
	case grading.DecisionNotYetOpen:
		observability.AttemptStarts().WithLabelValues(string(decision)).Inc()
		return dto.StartAttemptResponse{}, ErrNotYetOpen
	case grading.DecisionClosed:
		observability.AttemptStarts().WithLabelValues(string(decision)).Inc()
		return dto.StartAttemptResponse{}, ErrClosed
	}

	submission := models.Submission{
		AssessmentID: assessmentID,
		StudentID:    studentID,
		Status:       models.SubmissionStatusInProgress,
		StartedAt:    now,
		Layout:       datatypes.NewJSONType(grading.BuildLayout(assessment, s.seed())),
	}
	created, err := s.submissions.CreateIfAbsent(ctx, &submission)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.StartAttemptResponse{}, err
	}
	if !created {
		// a concurrent start won the insert
		submission.Assessment = assessment
		return s.continueExisting(ctx, span, window, submission, now)
	}

	observability.AttemptStarts().WithLabelValues(string(grading.DecisionStart)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assessment_id", assessmentID).
		Uint("student_id", studentID).
		Msg("attempt started")

	return s.startResponse(assessment, window, submission, false, now), nil
}

func (s *attemptService) continueExisting(ctx context.Context, span trace.Span, window grading.Window, submission models.Submission, now time.Time) (dto.StartAttemptResponse, error) {
	status := submission.Status
	decision := window.Decide(now, &status)
	if decision == grading.DecisionResume && window.Expired(submission.StartedAt, now) {
		if _, err := s.forceFinalize(ctx, submission, now); err != nil {
			span.RecordError(err)
			return dto.StartAttemptResponse{}, err
		}
		decision = grading.DecisionAlreadySubmitted
	}

	span.SetAttributes(attribute.String("attempt.decision", string(decision)))
	observability.AttemptStarts().WithLabelValues(string(decision)).Inc()
	if decision == grading.DecisionAlreadySubmitted {
		return dto.StartAttemptResponse{}, ErrAlreadySubmitted
	}

	return s.startResponse(submission.Assessment, window, submission, true, now), nil
}

func (s *attemptService) startResponse(assessment models.Assessment, window grading.Window, submission models.Submission, resumed bool, now time.Time) dto.StartAttemptResponse {
	questions := grading.ApplyLayout(assessment.Questions, submission.Layout.Data())
	return dto.StartAttemptResponse{
		SubmissionID:     submission.ID,
		AssessmentID:     assessment.ID,
		Title:            assessment.Title,
		Resumed:          resumed,
		DisplayStatus:    dto.DisplayStatus(submission.Status),
		StartedAt:        submission.StartedAt,
		Deadline:         window.Deadline(submission.StartedAt),
		RemainingSeconds: window.RemainingSeconds(submission.StartedAt, now),
		QuestionPDFURL:   assessment.QuestionPDFURL,
		AttachmentURL:    submission.AttachmentURL,
		Questions:        dto.NewAttemptQuestions(questions),
		PreviousAnswers:  dto.NewAnswerResponseSlice(submission.Answers),
	}
}

// loadOwned fetches a submission with its assessment and verifies the caller owns it.
func (s *attemptService) loadOwned(ctx context.Context, submissionID, studentID uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	if submission.StudentID != studentID {
		return models.Submission{}, ErrNotSubmissionOwner
	}
	return submission, nil
}

// ensureWritable rejects writes to finalized or expired attempts. An expired
// attempt is finalized with the answers it already has.
func (s *attemptService) ensureWritable(ctx context.Context, submission models.Submission, now time.Time) error {
	if submission.Status.IsTerminal() {
		return ErrAlreadySubmitted
	}
	window := grading.WindowFor(submission.Assessment)
	if window.Expired(submission.StartedAt, now) {
		if _, err := s.forceFinalize(ctx, submission, now); err != nil {
			return err
		}
		return ErrAttemptExpired
	}
	return nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, submissionID, studentID uint, payload dto.SaveAnswerRequest) (dto.AnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.answer", trace.WithAttributes(
		attribute.Int64("attempt.submission_id", int64(submissionID)),
		attribute.Int64("attempt.question_id", int64(payload.QuestionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AnswerResponse{}, err
	}

	submission, err := s.loadOwned(ctx, submissionID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	now := s.now()
	if err := s.ensureWritable(ctx, submission, now); err != nil {
		observability.AnswerWrites().WithLabelValues(answerWriteResult(err)).Inc()
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	answer, err := s.buildAnswer(submission, payload)
	if err != nil {
		observability.AnswerWrites().WithLabelValues("invalid").Inc()
		return dto.AnswerResponse{}, err
	}

	if err := s.submissions.SaveAnswer(ctx, &answer, now, repository.AnswerContentColumns); err != nil {
		if errors.Is(err, repository.ErrSubmissionNotInProgress) {
			observability.AnswerWrites().WithLabelValues("finalized").Inc()
			return dto.AnswerResponse{}, ErrAlreadySubmitted
		}
		span.RecordError(err)
		return dto.AnswerResponse{}, err
	}

	observability.AnswerWrites().WithLabelValues("saved").Inc()
	return dto.NewAnswerResponse(answer), nil
}

func answerWriteResult(err error) string {
	switch {
	case errors.Is(err, ErrAttemptExpired):
		return "expired"
	case errors.Is(err, ErrAlreadySubmitted):
		return "finalized"
	default:
		return "error"
	}
}

// buildAnswer checks the payload against the question bank of the attempt.
func (s *attemptService) buildAnswer(submission models.Submission, payload dto.SaveAnswerRequest) (models.Answer, error) {
	question, ok := findQuestion(submission.Assessment.Questions, payload.QuestionID)
	if !ok {
		return models.Answer{}, ErrQuestionNotFound
	}

	answer := models.Answer{
		SubmissionID: submission.ID,
		QuestionID:   question.ID,
		Response:     payload.Response,
	}

	if question.Type == models.QuestionTypeEssay {
		answer.Response = s.sanitizer.Sanitize(payload.Response)
	}

	if payload.SelectedOption != nil {
		code := strings.TrimSpace(*payload.SelectedOption)
		if !question.Type.HasOptions() || !hasOption(question, code) {
			return models.Answer{}, ErrInvalidOption
		}
		answer.SelectedOption = &code
	}

	return answer, nil
}

func findQuestion(questions []models.Question, id uint) (models.Question, bool) {
	for _, question := range questions {
		if question.ID == id {
			return question, true
		}
	}
	return models.Question{}, false
}

func hasOption(question models.Question, code string) bool {
	for _, option := range question.Options {
		if strings.EqualFold(option.Code, code) {
			return true
		}
	}
	return false
}

func (s *attemptService) UploadAttachment(ctx context.Context, submissionID, studentID uint, questionID *uint, file *multipart.FileHeader) (dto.AttachmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.attachment", trace.WithAttributes(
		attribute.Int64("attempt.submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.loadOwned(ctx, submissionID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.AttachmentResponse{}, err
	}

	now := s.now()
	if err := s.ensureWritable(ctx, submission, now); err != nil {
		span.RecordError(err)
		return dto.AttachmentResponse{}, err
	}
	if questionID != nil {
		if _, ok := findQuestion(submission.Assessment.Questions, *questionID); !ok {
			return dto.AttachmentResponse{}, ErrQuestionNotFound
		}
	}

	stored, err := s.uploads.Store(ctx, file, UploadPurposeAttachment)
	if err != nil {
		span.RecordError(err)
		return dto.AttachmentResponse{}, err
	}

	if questionID != nil {
		answer := models.Answer{SubmissionID: submission.ID, QuestionID: *questionID, AttachmentURL: &stored.URL}
		err = s.submissions.SaveAnswer(ctx, &answer, s.now(), repository.AnswerAttachmentColumns)
	} else {
		err = s.submissions.SetAttachment(ctx, submission.ID, stored.URL, s.now())
	}
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotInProgress) {
			return dto.AttachmentResponse{}, ErrAlreadySubmitted
		}
		span.RecordError(err)
		return dto.AttachmentResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("mime_type", stored.MimeType).
		Int64("size_bytes", stored.SizeBytes).
		Msg("attachment stored")

	return dto.AttachmentResponse{
		SubmissionID: submission.ID,
		QuestionID:   questionID,
		URL:          stored.URL,
		MimeType:     stored.MimeType,
		SizeBytes:    stored.SizeBytes,
		Checksum:     stored.Checksum,
	}, nil
}

func (s *attemptService) Timer(ctx context.Context, submissionID, studentID uint) (dto.TimerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.timer", trace.WithAttributes(
		attribute.Int64("attempt.submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.loadOwned(ctx, submissionID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.TimerResponse{}, err
	}

	now := s.now()
	window := grading.WindowFor(submission.Assessment)
	status := submission.Status
	if status == models.SubmissionStatusInProgress && window.Expired(submission.StartedAt, now) {
		if status, err = s.forceFinalize(ctx, submission, now); err != nil {
			span.RecordError(err)
			return dto.TimerResponse{}, err
		}
	}

	response := dto.TimerResponse{
		SubmissionID:  submission.ID,
		DisplayStatus: dto.DisplayStatus(status),
		Deadline:      window.Deadline(submission.StartedAt),
		ServerTime:    now,
	}
	if status == models.SubmissionStatusInProgress {
		response.RemainingSeconds = window.RemainingSeconds(submission.StartedAt, now)
	}
	return response, nil
}

func (s *attemptService) Submit(ctx context.Context, submissionID, studentID uint, payload dto.SubmitAttemptRequest) (dto.SubmitAttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.submit", trace.WithAttributes(
		attribute.Int64("attempt.submission_id", int64(submissionID)),
		attribute.Int("attempt.answer_count", len(payload.Answers)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitAttemptResponse{}, err
	}

	submission, err := s.loadOwned(ctx, submissionID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAttemptResponse{}, err
	}

	if submission.Status.IsTerminal() {
		span.SetAttributes(attribute.Bool("attempt.noop", true))
		return submitResponse(submission, true), nil
	}

	now := s.now()
	window := grading.WindowFor(submission.Assessment)
	if !window.WithinGrace(submission.StartedAt, now, s.grace) {
		if _, err := s.forceFinalize(ctx, submission, now); err != nil {
			span.RecordError(err)
			return dto.SubmitAttemptResponse{}, err
		}
		reloaded, err := s.submissions.GetByID(ctx, submission.ID)
		if err != nil {
			return dto.SubmitAttemptResponse{}, err
		}
		span.SetAttributes(attribute.Bool("attempt.expired", true))
		return submitResponse(reloaded, false), nil
	}

	answers := make([]models.Answer, 0, len(payload.Answers))
	for _, item := range payload.Answers {
		answer, err := s.buildAnswer(submission, item)
		if err != nil {
			return dto.SubmitAttemptResponse{}, err
		}
		answers = append(answers, answer)
	}

	if _, err := s.finalize(ctx, submission, answers, window.FinalStatus(now), now, triggerExplicit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize_failed")
		return dto.SubmitAttemptResponse{}, err
	}

	reloaded, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmitAttemptResponse{}, err
	}
	return submitResponse(reloaded, true), nil
}

func submitResponse(submission models.Submission, accepted bool) dto.SubmitAttemptResponse {
	return dto.SubmitAttemptResponse{
		SubmissionID: submission.ID,
		Accepted:     accepted,
		FinalStatus:  dto.DisplayStatus(submission.Status),
		SubmittedAt:  submission.SubmittedAt,
	}
}

// forceFinalize closes an attempt whose time ran out with the answers already
// stored. The attempt is stamped at its deadline, while LATE follows the
// instant the expiry was detected.
func (s *attemptService) forceFinalize(ctx context.Context, submission models.Submission, now time.Time) (models.SubmissionStatus, error) {
	window := grading.WindowFor(submission.Assessment)
	at := window.Deadline(submission.StartedAt)
	if at.After(now) {
		at = now
	}
	return s.finalize(ctx, submission, nil, window.FinalStatus(now), at, triggerTimeout)
}

// finalize runs the guarded transition with auto-grading and returns the status
// the submission ends up in, whether or not this call performed the transition.
func (s *attemptService) finalize(ctx context.Context, submission models.Submission, answers []models.Answer, status models.SubmissionStatus, at time.Time, trigger string) (models.SubmissionStatus, error) {
	questions := submission.Assessment.Questions
	var score *float64

	transitioned, err := s.submissions.Finalize(ctx, repository.FinalizeParams{
		SubmissionID: submission.ID,
		Status:       status,
		At:           at,
		Answers:      answers,
		Grade: func(stored []models.Answer) *float64 {
			score = grading.ApplyAutoGrade(questions, stored)
			return score
		},
	})
	if err != nil {
		return "", err
	}

	if !transitioned {
		current, err := s.submissions.GetByID(ctx, submission.ID)
		if err != nil {
			return "", err
		}
		return current.Status, nil
	}

	observability.SubmissionsFinalized().WithLabelValues(string(status), trigger).Inc()
	event := s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("status", string(status)).
		Str("trigger", trigger)
	if score != nil {
		event = event.Float64("provisional_score", *score)
	}
	event.Msg("attempt finalized")

	publishEvent(ctx, s.events, s.logger, EventSubmissionSubmitted, map[string]interface{}{
		"submission_id": submission.ID,
		"assessment_id": submission.AssessmentID,
		"student_id":    submission.StudentID,
		"status":        string(status),
		"trigger":       trigger,
		"is_late":       status == models.SubmissionStatusLate,
	})

	return status, nil
}
