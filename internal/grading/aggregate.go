package grading

import (
	"math"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// Default weights of the final grade.
const (
	DefaultAcademicWeight = 0.7
	DefaultBehaviorWeight = 0.3
)

// Component names a score source of a subject.
type Component string

const (
	ComponentExercise  Component = "exercise"
	ComponentQuiz      Component = "quiz"
	ComponentDailyTest Component = "daily_test"
	ComponentMidterm   Component = "midterm"
	ComponentFinalExam Component = "final_exam"
	ComponentSkill     Component = "skill"
)

// ComponentFor maps an assessment type tag to the component it feeds. MATERIAL
// assessments feed nothing.
func ComponentFor(tag models.AssessmentType) (Component, bool) {
	switch tag {
	case models.AssessmentTypeExercise:
		return ComponentExercise, true
	case models.AssessmentTypeQuiz:
		return ComponentQuiz, true
	case models.AssessmentTypeDailyTest:
		return ComponentDailyTest, true
	case models.AssessmentTypeMidterm:
		return ComponentMidterm, true
	case models.AssessmentTypeFinalExam:
		return ComponentFinalExam, true
	default:
		return "", false
	}
}

// SubjectComponents holds the six component scores of one subject. Nil means no data.
type SubjectComponents struct {
	Exercise  *float64
	Quiz      *float64
	DailyTest *float64
	Midterm   *float64
	FinalExam *float64
	Skill     *float64
}

// Set stores value under the given component.
func (c *SubjectComponents) Set(component Component, value *float64) {
	switch component {
	case ComponentExercise:
		c.Exercise = value
	case ComponentQuiz:
		c.Quiz = value
	case ComponentDailyTest:
		c.DailyTest = value
	case ComponentMidterm:
		c.Midterm = value
	case ComponentFinalExam:
		c.FinalExam = value
	case ComponentSkill:
		c.Skill = value
	}
}

func (c SubjectComponents) values() []*float64 {
	return []*float64{c.Exercise, c.Quiz, c.DailyTest, c.Midterm, c.FinalExam, c.Skill}
}

// Average is the mean of the non-nil components. A subject without any
// component averages to 0 and reports hasData=false.
func (c SubjectComponents) Average() (average float64, hasData bool) {
	return NullSkipMean(c.values()...)
}

// NullSkipMean averages only the non-nil values.
func NullSkipMean(values ...*float64) (float64, bool) {
	var (
		sum   float64
		count int
	)
	for _, value := range values {
		if value == nil {
			continue
		}
		sum += *value
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// Mean averages plain values; an empty input averages to 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

// SubjectResult is the per-subject part of an aggregation.
type SubjectResult struct {
	SubjectID  uint
	Components SubjectComponents
	Average    float64
	HasData    bool
}

// Weights configures the final grade composition.
type Weights struct {
	Academic float64
	Behavior float64
	// IncludeEmptySubjects counts subjects without any component as a literal 0
	// in the academic average instead of leaving them out.
	IncludeEmptySubjects bool
}

// DefaultWeights returns the 70/30 composition that skips empty subjects.
func DefaultWeights() Weights {
	return Weights{Academic: DefaultAcademicWeight, Behavior: DefaultBehaviorWeight}
}

// Behavior holds the behavioural inputs of a student for an academic year.
type Behavior struct {
	Spiritual  *float64
	Social     *float64
	Attendance *float64
}

// Average is the null-skip mean of the behavioural inputs.
func (b Behavior) Average() float64 {
	average, _ := NullSkipMean(b.Spiritual, b.Social, b.Attendance)
	return average
}

// StudentResult is the full aggregation of one student for one academic year.
// Values are unrounded; rounding happens when persisting.
type StudentResult struct {
	Subjects        []SubjectResult
	AcademicAverage float64
	BehaviorAverage float64
	FinalGrade      float64
}

// Aggregate combines per-subject components and behavioural inputs into a final grade.
func Aggregate(subjects map[uint]SubjectComponents, order []uint, behavior Behavior, weights Weights) StudentResult {
	result := StudentResult{Subjects: make([]SubjectResult, 0, len(order))}

	averages := make([]float64, 0, len(order))
	for _, subjectID := range order {
		components := subjects[subjectID]
		average, hasData := components.Average()
		result.Subjects = append(result.Subjects, SubjectResult{
			SubjectID:  subjectID,
			Components: components,
			Average:    average,
			HasData:    hasData,
		})
		if hasData || weights.IncludeEmptySubjects {
			averages = append(averages, average)
		}
	}

	result.AcademicAverage = Mean(averages)
	result.BehaviorAverage = behavior.Average()
	result.FinalGrade = FinalGrade(result.AcademicAverage, result.BehaviorAverage, weights)
	return result
}

// FinalGrade weights the academic and behavioural averages without rounding.
func FinalGrade(academic, behavior float64, weights Weights) float64 {
	return academic*weights.Academic + behavior*weights.Behavior
}

// Round2 rounds half away from zero to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Round2Ptr rounds a nullable value.
func Round2Ptr(value *float64) *float64 {
	if value == nil {
		return nil
	}
	rounded := Round2(*value)
	return &rounded
}

// ScaleToMax converts awarded points into a score on the assessment scale.
func ScaleToMax(awarded, possible, maxScore float64) float64 {
	if possible <= 0 {
		return 0
	}
	return awarded / possible * maxScore
}

// Percent normalises a score on a maxScore scale to 0–100.
func Percent(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return score
	}
	return score / maxScore * 100
}
