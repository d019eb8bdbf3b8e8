package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// AttendanceCalculator yields the pre-computed attendance component (0–100) of a student.
type AttendanceCalculator interface {
	Attendance(ctx context.Context, studentID, academicYearID, classID uint) (float64, bool, error)
}

type summaryAttendanceCalculator struct {
	repo repository.AttendanceRepository
}

// NewAttendanceCalculator reads the summaries the attendance module stores.
func NewAttendanceCalculator(repo repository.AttendanceRepository) AttendanceCalculator {
	return &summaryAttendanceCalculator{repo: repo}
}

func (c *summaryAttendanceCalculator) Attendance(ctx context.Context, studentID, academicYearID, classID uint) (float64, bool, error) {
	summary, err := c.repo.GetSummary(ctx, studentID, academicYearID, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return summary.Percentage, true, nil
}
