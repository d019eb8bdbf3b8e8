package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// ScoreService maintains skill and behaviour inputs and recomputes final scores.
type ScoreService interface {
	Recompute(ctx context.Context, payload dto.RecomputeFinalScoresRequest) ([]dto.FinalScoreResponse, error)
	GetFinalScores(ctx context.Context, studentID, academicYearID uint) (dto.StudentFinalScoresResponse, error)
	UpsertSkill(ctx context.Context, payload dto.SkillScoreRequest) (dto.SkillScoreResponse, error)
	UpsertBehavior(ctx context.Context, payload dto.BehaviorScoreRequest) (dto.BehaviorScoreResponse, error)
}

// ScoreServiceDeps groups the collaborators of the score service.
type ScoreServiceDeps struct {
	Assessments repository.AssessmentRepository
	Submissions repository.SubmissionRepository
	Scores      repository.ScoreRepository
	Enrollments repository.EnrollmentRepository
	Attendance  AttendanceCalculator
	Events      EventPublisher
	Cache       *redis.Client
	CacheTTL    time.Duration
	Weights     grading.Weights
}

type scoreService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	scores      repository.ScoreRepository
	enrollments repository.EnrollmentRepository
	attendance  AttendanceCalculator
	events      EventPublisher
	cache       *redis.Client
	cacheTTL    time.Duration
	weights     grading.Weights
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewScoreService builds the aggregation service.
func NewScoreService(deps ScoreServiceDeps, validate *validator.Validate, logger zerolog.Logger) ScoreService {
	weights := deps.Weights
	if weights.Academic == 0 && weights.Behavior == 0 {
		weights = grading.DefaultWeights()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &scoreService{
		assessments: deps.Assessments,
		submissions: deps.Submissions,
		scores:      deps.Scores,
		enrollments: deps.Enrollments,
		attendance:  deps.Attendance,
		events:      deps.Events,
		cache:       deps.Cache,
		cacheTTL:    ttl,
		weights:     weights,
		validator:   validate,
		logger:      logger.With().Str("component", "score_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-assessment-api/internal/service/score"),
		now:         time.Now,
	}
}

func finalScoreCacheKey(studentID, academicYearID uint) string {
	return fmt.Sprintf("final_scores:student:%d:year:%d", studentID, academicYearID)
}

func (s *scoreService) Recompute(ctx context.Context, payload dto.RecomputeFinalScoresRequest) ([]dto.FinalScoreResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	scope := "student"
	if payload.ClassID != nil {
		scope = "class"
	}

	ctx, span := s.tracer.Start(ctx, "final_scores.recompute", trace.WithAttributes(
		attribute.String("scores.scope", scope),
		attribute.Int64("scores.academic_year_id", int64(payload.AcademicYearID)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.FinalScoreDuration().Observe(time.Since(start).Seconds())
	}()

	type target struct {
		studentID uint
		classID   uint
	}
	var targets []target

	if payload.ClassID != nil {
		studentIDs, err := s.enrollments.ListStudentIDs(ctx, *payload.ClassID, payload.AcademicYearID)
		if err != nil {
			observability.FinalScoreRecomputes().WithLabelValues(scope, "error").Inc()
			span.RecordError(err)
			return nil, err
		}
		for _, studentID := range studentIDs {
			targets = append(targets, target{studentID: studentID, classID: *payload.ClassID})
		}
	} else {
		studentID := *payload.StudentID
		enrollment, err := s.enrollments.GetForStudent(ctx, studentID, payload.AcademicYearID)
		switch {
		case err == nil:
			targets = append(targets, target{studentID: studentID, classID: enrollment.ClassID})
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Warn().Uint("student_id", studentID).Uint("academic_year_id", payload.AcademicYearID).Msg("student has no enrollment, class subjects and attendance skipped")
			targets = append(targets, target{studentID: studentID})
		default:
			observability.FinalScoreRecomputes().WithLabelValues(scope, "error").Inc()
			span.RecordError(err)
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("scores.students", len(targets)))

	results := make([]dto.FinalScoreResponse, 0)
	for _, t := range targets {
		rows, err := s.recomputeStudent(ctx, t.studentID, payload.AcademicYearID, t.classID)
		if err != nil {
			observability.FinalScoreRecomputes().WithLabelValues(scope, "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "recompute_failed")
			return nil, fmt.Errorf("recompute student %d: %w", t.studentID, err)
		}
		results = append(results, dto.NewFinalScoreResponseSlice(rows)...)
	}

	observability.FinalScoreRecomputes().WithLabelValues(scope, "ok").Inc()
	return results, nil
}

// recomputeStudent rebuilds and overwrites every final score row of one student.
func (s *scoreService) recomputeStudent(ctx context.Context, studentID, academicYearID, classID uint) ([]models.FinalScore, error) {
	submissions, err := s.submissions.ListGraded(ctx, studentID, academicYearID)
	if err != nil {
		return nil, err
	}
	skills, err := s.scores.ListSkills(ctx, studentID, academicYearID)
	if err != nil {
		return nil, err
	}

	var classSubjects []uint
	if classID != 0 {
		if classSubjects, err = s.assessments.ListSubjectIDs(ctx, classID, academicYearID); err != nil {
			return nil, err
		}
	}

	subjects, order := collectComponents(classSubjects, submissions, skills)

	behavior, err := s.behavior(ctx, studentID, academicYearID, classID)
	if err != nil {
		return nil, err
	}

	result := grading.Aggregate(subjects, order, behavior, s.weights)
	computedAt := s.now()

	rows := make([]models.FinalScore, 0, len(result.Subjects))
	for _, subject := range result.Subjects {
		rows = append(rows, models.FinalScore{
			StudentID:       studentID,
			SubjectID:       subject.SubjectID,
			AcademicYearID:  academicYearID,
			Exercise:        grading.Round2Ptr(subject.Components.Exercise),
			Quiz:            grading.Round2Ptr(subject.Components.Quiz),
			DailyTest:       grading.Round2Ptr(subject.Components.DailyTest),
			Midterm:         grading.Round2Ptr(subject.Components.Midterm),
			FinalExam:       grading.Round2Ptr(subject.Components.FinalExam),
			Skill:           grading.Round2Ptr(subject.Components.Skill),
			SubjectAverage:  grading.Round2(subject.Average),
			HasData:         subject.HasData,
			AcademicAverage: grading.Round2(result.AcademicAverage),
			BehaviorAverage: grading.Round2(result.BehaviorAverage),
			FinalGrade:      grading.Round2(result.FinalGrade),
			ComputedAt:      computedAt,
		})
	}

	if err := s.scores.ReplaceFinalScores(ctx, studentID, academicYearID, rows); err != nil {
		return nil, err
	}

	s.storeCache(ctx, dto.NewStudentFinalScoresResponse(studentID, academicYearID, rows))
	s.logger.Info().
		Uint("student_id", studentID).
		Uint("academic_year_id", academicYearID).
		Int("subjects", len(rows)).
		Float64("final_grade", grading.Round2(result.FinalGrade)).
		Msg("final scores recomputed")

	publishEvent(ctx, s.events, s.logger, EventFinalScoresRecomputed, map[string]interface{}{
		"student_id":       studentID,
		"academic_year_id": academicYearID,
		"final_grade":      grading.Round2(result.FinalGrade),
	})

	return rows, nil
}

// collectComponents groups graded work per subject and component. Each
// component is the mean of its submissions normalised to a 0–100 scale.
func collectComponents(classSubjects []uint, submissions []models.Submission, skills []models.SkillScore) (map[uint]grading.SubjectComponents, []uint) {
	type key struct {
		subjectID uint
		component grading.Component
	}

	seen := make(map[uint]struct{})
	order := make([]uint, 0, len(classSubjects))
	addSubject := func(subjectID uint) {
		if _, ok := seen[subjectID]; ok {
			return
		}
		seen[subjectID] = struct{}{}
		order = append(order, subjectID)
	}
	for _, subjectID := range classSubjects {
		addSubject(subjectID)
	}

	values := make(map[key][]float64)
	for _, submission := range submissions {
		if submission.Nilai == nil {
			continue
		}
		component, ok := grading.ComponentFor(submission.Assessment.Type)
		if !ok {
			continue
		}
		subjectID := submission.Assessment.SubjectID
		addSubject(subjectID)
		k := key{subjectID: subjectID, component: component}
		values[k] = append(values[k], grading.Percent(*submission.Nilai, submission.Assessment.MaxScore))
	}

	subjects := make(map[uint]grading.SubjectComponents, len(order))
	for k, list := range values {
		components := subjects[k.subjectID]
		mean := grading.Mean(list)
		components.Set(k.component, &mean)
		subjects[k.subjectID] = components
	}

	for _, skill := range skills {
		addSubject(skill.SubjectID)
		components := subjects[skill.SubjectID]
		score := skill.Score
		components.Set(grading.ComponentSkill, &score)
		subjects[skill.SubjectID] = components
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return subjects, order
}

func (s *scoreService) behavior(ctx context.Context, studentID, academicYearID, classID uint) (grading.Behavior, error) {
	var behavior grading.Behavior
	stored, err := s.scores.GetBehavior(ctx, studentID, academicYearID)
	switch {
	case err == nil:
		behavior = grading.Behavior{Spiritual: stored.Spiritual, Social: stored.Social, Attendance: stored.Attendance}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return grading.Behavior{}, err
	}

	if s.attendance == nil || classID == 0 {
		return behavior, nil
	}

	attendance, ok, err := s.attendance.Attendance(ctx, studentID, academicYearID, classID)
	if err != nil {
		return grading.Behavior{}, err
	}
	if !ok {
		return behavior, nil
	}

	behavior.Attendance = &attendance
	if err := s.scores.SetAttendance(ctx, studentID, academicYearID, &attendance, s.now()); err != nil {
		return grading.Behavior{}, err
	}
	return behavior, nil
}

func (s *scoreService) GetFinalScores(ctx context.Context, studentID, academicYearID uint) (dto.StudentFinalScoresResponse, error) {
	cacheKey := finalScoreCacheKey(studentID, academicYearID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentFinalScoresResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.FinalScoreCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("final score cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read final score cache")
		}
	}
	observability.FinalScoreCache().WithLabelValues("miss").Inc()

	rows, err := s.scores.ListFinalScores(ctx, studentID, academicYearID)
	if err != nil {
		return dto.StudentFinalScoresResponse{}, err
	}

	response := dto.NewStudentFinalScoresResponse(studentID, academicYearID, rows)
	s.storeCache(ctx, response)
	return response, nil
}

func (s *scoreService) storeCache(ctx context.Context, response dto.StudentFinalScoresResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, finalScoreCacheKey(response.StudentID, response.AcademicYearID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store final score cache")
	}
}

func (s *scoreService) UpsertSkill(ctx context.Context, payload dto.SkillScoreRequest) (dto.SkillScoreResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SkillScoreResponse{}, err
	}

	score := models.SkillScore{
		StudentID:      payload.StudentID,
		SubjectID:      payload.SubjectID,
		AcademicYearID: payload.AcademicYearID,
		Score:          payload.Score,
	}
	if err := s.scores.UpsertSkill(ctx, &score); err != nil {
		return dto.SkillScoreResponse{}, err
	}

	return dto.NewSkillScoreResponse(score), nil
}

func (s *scoreService) UpsertBehavior(ctx context.Context, payload dto.BehaviorScoreRequest) (dto.BehaviorScoreResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BehaviorScoreResponse{}, err
	}

	score := models.BehaviorScore{
		StudentID:      payload.StudentID,
		AcademicYearID: payload.AcademicYearID,
		Spiritual:      payload.Spiritual,
		Social:         payload.Social,
	}
	if err := s.scores.UpsertBehavior(ctx, &score); err != nil {
		return dto.BehaviorScoreResponse{}, err
	}

	return dto.NewBehaviorScoreResponse(score), nil
}
