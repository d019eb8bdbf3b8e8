package models

import "time"

// SkillScore stores the practical grade of a student for a subject.
type SkillScore struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_skill_student_subject_year" json:"student_id"`
	SubjectID      uint      `gorm:"not null;uniqueIndex:idx_skill_student_subject_year" json:"subject_id"`
	AcademicYearID uint      `gorm:"not null;uniqueIndex:idx_skill_student_subject_year" json:"academic_year_id"`
	Score          float64   `gorm:"not null" json:"score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BehaviorScore stores the behavioural components of a student for an academic year.
type BehaviorScore struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_behavior_student_year" json:"student_id"`
	AcademicYearID uint      `gorm:"not null;uniqueIndex:idx_behavior_student_year" json:"academic_year_id"`
	Spiritual      *float64  `json:"spiritual"`
	Social         *float64  `json:"social"`
	Attendance     *float64  `json:"attendance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FinalScore is the persisted aggregation output per student, subject and academic year.
type FinalScore struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StudentID       uint      `gorm:"not null;uniqueIndex:idx_final_student_subject_year" json:"student_id"`
	SubjectID       uint      `gorm:"not null;uniqueIndex:idx_final_student_subject_year" json:"subject_id"`
	AcademicYearID  uint      `gorm:"not null;uniqueIndex:idx_final_student_subject_year;index" json:"academic_year_id"`
	Exercise        *float64  `json:"exercise"`
	Quiz            *float64  `json:"quiz"`
	DailyTest       *float64  `json:"daily_test"`
	Midterm         *float64  `json:"midterm"`
	FinalExam       *float64  `json:"final_exam"`
	Skill           *float64  `json:"skill"`
	SubjectAverage  float64   `gorm:"not null" json:"subject_average"`
	HasData         bool      `gorm:"not null" json:"has_data"`
	AcademicAverage float64   `gorm:"not null" json:"academic_average"`
	BehaviorAverage float64   `gorm:"not null" json:"behavior_average"`
	FinalGrade      float64   `gorm:"not null" json:"final_grade"`
	ComputedAt      time.Time `gorm:"not null" json:"computed_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
