package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// RecomputeFinalScoresRequest selects one student or a whole class for recomputation.
type RecomputeFinalScoresRequest struct {
	StudentID      *uint `json:"student_id" validate:"required_without=ClassID,excluded_with=ClassID"`
	ClassID        *uint `json:"class_id" validate:"omitempty,gt=0"`
	AcademicYearID uint  `json:"academic_year_id" validate:"required,gt=0"`
}

// SkillScoreRequest upserts a practical grade.
type SkillScoreRequest struct {
	StudentID      uint    `json:"student_id" validate:"required,gt=0"`
	SubjectID      uint    `json:"subject_id" validate:"required,gt=0"`
	AcademicYearID uint    `json:"academic_year_id" validate:"required,gt=0"`
	Score          float64 `json:"score" validate:"gte=0,lte=100"`
}

// BehaviorScoreRequest upserts the tutor-entered behavioural components.
type BehaviorScoreRequest struct {
	StudentID      uint     `json:"student_id" validate:"required,gt=0"`
	AcademicYearID uint     `json:"academic_year_id" validate:"required,gt=0"`
	Spiritual      *float64 `json:"spiritual" validate:"omitempty,gte=0,lte=100"`
	Social         *float64 `json:"social" validate:"omitempty,gte=0,lte=100"`
}

// SkillScoreResponse serialises a skill score.
type SkillScoreResponse struct {
	ID             uint      `json:"id"`
	StudentID      uint      `json:"student_id"`
	SubjectID      uint      `json:"subject_id"`
	AcademicYearID uint      `json:"academic_year_id"`
	Score          float64   `json:"score"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSkillScoreResponse converts a skill score model.
func NewSkillScoreResponse(model models.SkillScore) SkillScoreResponse {
	return SkillScoreResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		SubjectID:      model.SubjectID,
		AcademicYearID: model.AcademicYearID,
		Score:          model.Score,
		UpdatedAt:      model.UpdatedAt,
	}
}

// BehaviorScoreResponse serialises a behaviour score.
type BehaviorScoreResponse struct {
	ID             uint      `json:"id"`
	StudentID      uint      `json:"student_id"`
	AcademicYearID uint      `json:"academic_year_id"`
	Spiritual      *float64  `json:"spiritual"`
	Social         *float64  `json:"social"`
	Attendance     *float64  `json:"attendance"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewBehaviorScoreResponse converts a behaviour score model.
func NewBehaviorScoreResponse(model models.BehaviorScore) BehaviorScoreResponse {
	return BehaviorScoreResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		AcademicYearID: model.AcademicYearID,
		Spiritual:      model.Spiritual,
		Social:         model.Social,
		Attendance:     model.Attendance,
		UpdatedAt:      model.UpdatedAt,
	}
}

// FinalScoreResponse is one persisted per-subject final score row.
type FinalScoreResponse struct {
	StudentID       uint      `json:"student_id"`
	SubjectID       uint      `json:"subject_id"`
	AcademicYearID  uint      `json:"academic_year_id"`
	Exercise        *float64  `json:"exercise"`
	Quiz            *float64  `json:"quiz"`
	DailyTest       *float64  `json:"daily_test"`
	Midterm         *float64  `json:"midterm"`
	FinalExam       *float64  `json:"final_exam"`
	Skill           *float64  `json:"skill"`
	SubjectAverage  float64   `json:"subject_average"`
	HasData         bool      `json:"has_data"`
	AcademicAverage float64   `json:"academic_average"`
	BehaviorAverage float64   `json:"behavior_average"`
	FinalGrade      float64   `json:"final_grade"`
	ComputedAt      time.Time `json:"computed_at"`
}

// NewFinalScoreResponse converts a final score model.
func NewFinalScoreResponse(model models.FinalScore) FinalScoreResponse {
	return FinalScoreResponse{
		StudentID:       model.StudentID,
		SubjectID:       model.SubjectID,
		AcademicYearID:  model.AcademicYearID,
		Exercise:        model.Exercise,
		Quiz:            model.Quiz,
		DailyTest:       model.DailyTest,
		Midterm:         model.Midterm,
		FinalExam:       model.FinalExam,
		Skill:           model.Skill,
		SubjectAverage:  model.SubjectAverage,
		HasData:         model.HasData,
		AcademicAverage: model.AcademicAverage,
		BehaviorAverage: model.BehaviorAverage,
		FinalGrade:      model.FinalGrade,
		ComputedAt:      model.ComputedAt,
	}
}

// NewFinalScoreResponseSlice converts final score models.
func NewFinalScoreResponseSlice(scores []models.FinalScore) []FinalScoreResponse {
	responses := make([]FinalScoreResponse, 0, len(scores))
	for _, score := range scores {
		responses = append(responses, NewFinalScoreResponse(score))
	}
	return responses
}

// StudentFinalScoresResponse groups the final scores of one student for an academic year.
type StudentFinalScoresResponse struct {
	StudentID       uint                 `json:"student_id"`
	AcademicYearID  uint                 `json:"academic_year_id"`
	AcademicAverage float64              `json:"academic_average"`
	BehaviorAverage float64              `json:"behavior_average"`
	FinalGrade      float64              `json:"final_grade"`
	Subjects        []FinalScoreResponse `json:"subjects"`
}

// NewStudentFinalScoresResponse groups persisted rows; the student-level
// averages are carried on every row.
func NewStudentFinalScoresResponse(studentID, academicYearID uint, scores []models.FinalScore) StudentFinalScoresResponse {
	response := StudentFinalScoresResponse{
		StudentID:      studentID,
		AcademicYearID: academicYearID,
		Subjects:       NewFinalScoreResponseSlice(scores),
	}
	if len(scores) > 0 {
		response.AcademicAverage = scores[0].AcademicAverage
		response.BehaviorAverage = scores[0].BehaviorAverage
		response.FinalGrade = scores[0].FinalGrade
	}
	return response
}
