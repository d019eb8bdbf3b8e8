package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// EnrollmentRepository resolves class rosters per academic year.
type EnrollmentRepository interface {
	GetForStudent(ctx context.Context, studentID, academicYearID uint) (models.Enrollment, error)
	ListStudentIDs(ctx context.Context, classID, academicYearID uint) ([]uint, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) GetForStudent(ctx context.Context, studentID, academicYearID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year_id = ?", studentID, academicYearID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) ListStudentIDs(ctx context.Context, classID, academicYearID uint) ([]uint, error) {
	var studentIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("class_id = ? AND academic_year_id = ?", classID, academicYearID).
		Order("student_id ASC").
		Pluck("student_id", &studentIDs).Error; err != nil {
		return nil, err
	}

	return studentIDs, nil
}
