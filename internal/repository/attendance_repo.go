package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AttendanceRepository reads the summaries produced by the attendance calculator.
type AttendanceRepository interface {
	GetSummary(ctx context.Context, studentID, academicYearID, classID uint) (models.AttendanceSummary, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) GetSummary(ctx context.Context, studentID, academicYearID, classID uint) (models.AttendanceSummary, error) {
	var summary models.AttendanceSummary
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year_id = ? AND class_id = ?", studentID, academicYearID, classID).
		First(&summary).Error; err != nil {
		return models.AttendanceSummary{}, err
	}

	return summary, nil
}
