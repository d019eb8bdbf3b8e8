package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// ErrSubmissionNotInProgress is returned when a write loses the compare-and-swap on the submission status.
var ErrSubmissionNotInProgress = errors.New("submission is not in progress")

// Answer columns overwritten by an upsert.
var (
	AnswerContentColumns    = []string{"response", "selected_option"}
	AnswerAttachmentColumns = []string{"attachment_url"}
)

// FinalizeParams describes the in_progress → submitted|late transition.
type FinalizeParams struct {
	SubmissionID uint
	Status       models.SubmissionStatus
	At           time.Time
	// Answers are upserted inside the transaction before grading.
	Answers []models.Answer
	// Grade scores the answers visible after the transition and returns the raw score.
	Grade func(answers []models.Answer) *float64
}

// GradeParams describes a manual grading write.
type GradeParams struct {
	SubmissionID uint
	Answers      []models.Answer
	Score        *float64
	Nilai        float64
	Feedback     *string
	GradedBy     uint
	GradedAt     time.Time
}

// SubmissionRepository defines data operations for attempts and their answers.
type SubmissionRepository interface {
	CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (models.Submission, error)
	SaveAnswer(ctx context.Context, answer *models.Answer, at time.Time, columns []string) error
	SetAttachment(ctx context.Context, submissionID uint, url string, at time.Time) error
	Finalize(ctx context.Context, params FinalizeParams) (bool, error)
	Grade(ctx context.Context, params GradeParams) (bool, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error)
	ListGraded(ctx context.Context, studentID, academicYearID uint) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) detailQuery(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Answers", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("question_id ASC")
		}).
		Preload("Assessment")
	return preloadQuestions(query, "Assessment.Questions")
}

// CreateIfAbsent inserts the submission unless one already exists for the
// (assessment, student) pair. The stored row is loaded into submission either way.
func (r *submissionRepository) CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(submission)
	if result.Error != nil {
		return false, result.Error
	}

	created := result.RowsAffected > 0
	if !created {
		stored, err := r.GetByAssessmentAndStudent(ctx, submission.AssessmentID, submission.StudentID)
		if err != nil {
			return false, err
		}
		*submission = stored
	}

	return created, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.detailQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// GetByAssessmentAndStudent returns gorm.ErrRecordNotFound when the student has
// not started yet. The lookup uses Find so a first start is not logged as a
// query error.
func (r *submissionRepository) GetByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	result := r.detailQuery(ctx).
		Where("assessment_id = ?", assessmentID).
		Where("student_id = ?", studentID).
		Limit(1).
		Find(&submission)
	if result.Error != nil {
		return models.Submission{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Submission{}, gorm.ErrRecordNotFound
	}

	return submission, nil
}

// touchInProgress bumps updated_at only while the submission still accepts
// answers, locking the row for the rest of the transaction.
func touchInProgress(tx *gorm.DB, submissionID uint, at time.Time) error {
	result := tx.Model(&models.Submission{}).
		Where("id = ? AND status = ?", submissionID, models.SubmissionStatusInProgress).
		Update("updated_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionNotInProgress
	}
	return nil
}

func upsertAnswer(tx *gorm.DB, answer *models.Answer, at time.Time, columns []string) error {
	answer.ID = 0
	answer.CreatedAt = at
	answer.UpdatedAt = at
	update := append(append([]string{}, columns...), "updated_at")
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(answer).Error; err != nil {
		return err
	}

	return tx.Where("submission_id = ? AND question_id = ?", answer.SubmissionID, answer.QuestionID).First(answer).Error
}

// SaveAnswer upserts one answer per question while the submission is in progress.
func (r *submissionRepository) SaveAnswer(ctx context.Context, answer *models.Answer, at time.Time, columns []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchInProgress(tx, answer.SubmissionID, at); err != nil {
			return err
		}
		return upsertAnswer(tx, answer, at, columns)
	})
}

// SetAttachment stores the whole-submission attachment while the submission is in progress.
func (r *submissionRepository) SetAttachment(ctx context.Context, submissionID uint, url string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", submissionID, models.SubmissionStatusInProgress).
		Updates(map[string]interface{}{"attachment_url": url, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionNotInProgress
	}
	return nil
}

// Finalize performs the guarded transition out of in_progress together with the
// auto-grade writes. It returns false without error when another caller won.
func (r *submissionRepository) Finalize(ctx context.Context, params FinalizeParams) (bool, error) {
	transitioned := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", params.SubmissionID, models.SubmissionStatusInProgress).
			Updates(map[string]interface{}{
				"status":       params.Status,
				"is_late":      params.Status == models.SubmissionStatusLate,
				"submitted_at": params.At,
				"updated_at":   params.At,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		transitioned = true

		for i := range params.Answers {
			if err := upsertAnswer(tx, &params.Answers[i], params.At, AnswerContentColumns); err != nil {
				return err
			}
		}

		var answers []models.Answer
		if err := tx.Where("submission_id = ?", params.SubmissionID).Order("question_id ASC").Find(&answers).Error; err != nil {
			return err
		}

		var score *float64
		if params.Grade != nil {
			score = params.Grade(answers)
		}
		if err := writeAnswerGrades(tx, answers); err != nil {
			return err
		}

		return tx.Model(&models.Submission{}).Where("id = ?", params.SubmissionID).Update("score", score).Error
	})
	if err != nil {
		return false, err
	}

	return transitioned, nil
}

// Grade stores a manual grade. Submissions that are still in progress are left untouched.
func (r *submissionRepository) Grade(ctx context.Context, params GradeParams) (bool, error) {
	graded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ? AND status IN ?", params.SubmissionID, []models.SubmissionStatus{
				models.SubmissionStatusSubmitted,
				models.SubmissionStatusLate,
				models.SubmissionStatusGraded,
			}).
			Updates(map[string]interface{}{
				"status":     models.SubmissionStatusGraded,
				"score":      params.Score,
				"nilai":      params.Nilai,
				"feedback":   params.Feedback,
				"graded_by":  params.GradedBy,
				"graded_at":  params.GradedAt,
				"updated_at": params.GradedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		graded = true

		return writeAnswerGrades(tx, params.Answers)
	})
	if err != nil {
		return false, err
	}

	return graded, nil
}

func writeAnswerGrades(tx *gorm.DB, answers []models.Answer) error {
	for _, answer := range answers {
		if err := tx.Model(&models.Answer{}).Where("id = ?", answer.ID).Updates(map[string]interface{}{
			"is_correct":     answer.IsCorrect,
			"awarded_points": answer.AwardedPoints,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *submissionRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("assessment_id = ?", assessmentID).
		Order("started_at ASC, id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListGraded returns the graded submissions of a student whose assessments belong to the academic year.
func (r *submissionRepository) ListGraded(ctx context.Context, studentID, academicYearID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Joins("JOIN assessments ON assessments.id = submissions.assessment_id").
		Preload("Assessment").
		Where("submissions.student_id = ?", studentID).
		Where("submissions.status = ?", models.SubmissionStatusGraded).
		Where("assessments.academic_year_id = ?", academicYearID).
		Order("submissions.id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
