package models

import "time"

// Enrollment places a student in a class for an academic year.
type Enrollment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_year" json:"student_id"`
	AcademicYearID uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_year;index:idx_enrollment_class_year" json:"academic_year_id"`
	ClassID        uint      `gorm:"not null;index:idx_enrollment_class_year" json:"class_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// AttendanceSummary is the attendance component produced by the attendance calculator.
type AttendanceSummary struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_attendance_student_year_class" json:"student_id"`
	AcademicYearID uint      `gorm:"not null;uniqueIndex:idx_attendance_student_year_class" json:"academic_year_id"`
	ClassID        uint      `gorm:"not null;uniqueIndex:idx_attendance_student_year_class" json:"class_id"`
	Percentage     float64   `gorm:"not null" json:"percentage"`
	UpdatedAt      time.Time `json:"updated_at"`
}
