package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AssessmentRepository defines persistence operations for assessments and their question bank.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	ReplaceContent(ctx context.Context, assessment *models.Assessment) error
	SetQuestionPDF(ctx context.Context, id uint, url string) error
	HasStartedSubmissions(ctx context.Context, id uint) (bool, error)
	ListSubjectIDs(ctx context.Context, classID, academicYearID uint) ([]uint, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates a GORM-backed repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := preloadQuestions(r.db.WithContext(ctx), "Questions").First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

// ReplaceContent overwrites the assessment columns and swaps its whole question set.
func (r *assessmentRepository) ReplaceContent(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(assessment).Omit(clause.Associations, "created_at").Select("*").Updates(assessment)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		questionIDs := tx.Model(&models.Question{}).Select("id").Where("assessment_id = ?", assessment.ID)
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assessment_id = ?", assessment.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}

		for i := range assessment.Questions {
			assessment.Questions[i].ID = 0
			assessment.Questions[i].AssessmentID = assessment.ID
			for j := range assessment.Questions[i].Options {
				assessment.Questions[i].Options[j].ID = 0
			}
		}
		if len(assessment.Questions) == 0 {
			return nil
		}
		return tx.Create(&assessment.Questions).Error
	})
}

func (r *assessmentRepository) SetQuestionPDF(ctx context.Context, id uint, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Assessment{}).Where("id = ?", id).Update("question_pdf_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasStartedSubmissions reports whether any student already opened an attempt.
func (r *assessmentRepository) HasStartedSubmissions(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).Where("assessment_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListSubjectIDs returns the distinct subjects assessed in a class during an academic year.
func (r *assessmentRepository) ListSubjectIDs(ctx context.Context, classID, academicYearID uint) ([]uint, error) {
	var subjectIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Assessment{}).
		Where("class_id = ? AND academic_year_id = ?", classID, academicYearID).
		Distinct().
		Order("subject_id ASC").
		Pluck("subject_id", &subjectIDs).Error; err != nil {
		return nil, err
	}

	return subjectIDs, nil
}

func preloadQuestions(db *gorm.DB, path string) *gorm.DB {
	return db.
		Preload(path, func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, id ASC")
		}).
		Preload(path+".Options", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC, id ASC")
		})
}
