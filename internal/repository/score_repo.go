package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// ScoreRepository persists skill, behaviour and final scores.
type ScoreRepository interface {
	UpsertSkill(ctx context.Context, score *models.SkillScore) error
	ListSkills(ctx context.Context, studentID, academicYearID uint) ([]models.SkillScore, error)
	UpsertBehavior(ctx context.Context, score *models.BehaviorScore) error
	SetAttendance(ctx context.Context, studentID, academicYearID uint, attendance *float64, at time.Time) error
	GetBehavior(ctx context.Context, studentID, academicYearID uint) (models.BehaviorScore, error)
	ReplaceFinalScores(ctx context.Context, studentID, academicYearID uint, scores []models.FinalScore) error
	ListFinalScores(ctx context.Context, studentID, academicYearID uint) ([]models.FinalScore, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository constructs a score repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) UpsertSkill(ctx context.Context, score *models.SkillScore) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "subject_id"}, {Name: "academic_year_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(score).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND academic_year_id = ?", score.StudentID, score.SubjectID, score.AcademicYearID).
		First(score).Error
}

func (r *scoreRepository) ListSkills(ctx context.Context, studentID, academicYearID uint) ([]models.SkillScore, error) {
	var scores []models.SkillScore
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year_id = ?", studentID, academicYearID).
		Order("subject_id ASC").
		Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

// UpsertBehavior writes the tutor-entered components and leaves attendance to the calculator.
func (r *scoreRepository) UpsertBehavior(ctx context.Context, score *models.BehaviorScore) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "academic_year_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"spiritual", "social", "updated_at"}),
	}).Create(score).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year_id = ?", score.StudentID, score.AcademicYearID).
		First(score).Error
}

func (r *scoreRepository) SetAttendance(ctx context.Context, studentID, academicYearID uint, attendance *float64, at time.Time) error {
	row := models.BehaviorScore{
		StudentID:      studentID,
		AcademicYearID: academicYearID,
		Attendance:     attendance,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "academic_year_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"attendance", "updated_at"}),
	}).Create(&row).Error
}

func (r *scoreRepository) GetBehavior(ctx context.Context, studentID, academicYearID uint) (models.BehaviorScore, error) {
	var score models.BehaviorScore
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year_id = ?", studentID, academicYearID).
		First(&score).Error; err != nil {
		return models.BehaviorScore{}, err
	}

	return score, nil
}

// ReplaceFinalScores overwrites every final score of the student for the academic year.
func (r *scoreRepository) ReplaceFinalScores(ctx context.Context, studentID, academicYearID uint, scores []models.FinalScore) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ? AND academic_year_id = ?", studentID, academicYearID).
			Delete(&models.FinalScore{}).Error; err != nil {
			return err
		}
		if len(scores) == 0 {
			return nil
		}
		return tx.Create(&scores).Error
	})
}

func (r *scoreRepository) ListFinalScores(ctx context.Context, studentID, academicYearID uint) ([]models.FinalScore, error) {
	var scores []models.FinalScore
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year_id = ?", studentID, academicYearID).
		Order("subject_id ASC").
		Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}
