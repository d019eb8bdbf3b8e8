package models

import "time"

// AssessmentKind discriminates the three kinds of gradable work sharing one lifecycle.
type AssessmentKind string

const (
	AssessmentKindAssignment AssessmentKind = "assignment"
	AssessmentKindQuiz       AssessmentKind = "quiz"
	AssessmentKindExam       AssessmentKind = "exam"
)

// AssessmentType tags an assessment with the score component it feeds.
type AssessmentType string

const (
	AssessmentTypeExercise  AssessmentType = "EXERCISE"
	AssessmentTypeQuiz      AssessmentType = "QUIZ"
	AssessmentTypeDailyTest AssessmentType = "DAILY_TEST"
	AssessmentTypeMidterm   AssessmentType = "MIDTERM"
	AssessmentTypeFinalExam AssessmentType = "FINAL_EXAM"
	AssessmentTypeMaterial  AssessmentType = "MATERIAL"
)

// Assessment represents an assignment, quiz or exam with a time window.
type Assessment struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Kind               AssessmentKind `gorm:"size:16;not null;index" json:"kind"`
	Type               AssessmentType `gorm:"size:32;not null;index" json:"type"`
	ClassID            uint           `gorm:"not null;index" json:"class_id"`
	SubjectID          uint           `gorm:"not null;index" json:"subject_id"`
	TutorID            uint           `gorm:"not null;index" json:"tutor_id"`
	AcademicYearID     uint           `gorm:"not null;index" json:"academic_year_id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	OpensAt            time.Time      `gorm:"not null" json:"opens_at"`
	ClosesAt           time.Time      `gorm:"not null" json:"closes_at"`
	DurationMinutes    *int           `json:"duration_minutes"`
	MaxScore           float64        `gorm:"not null;default:100" json:"max_score"`
	RandomizeQuestions bool           `gorm:"not null;default:false" json:"randomize_questions"`
	RandomizeOptions   bool           `gorm:"not null;default:false" json:"randomize_options"`
	QuestionPDFURL     *string        `gorm:"size:512" json:"question_pdf_url"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Questions          []Question     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// IsPDFBased reports whether the assessment is delivered as a single PDF instead of structured questions.
func (a Assessment) IsPDFBased() bool {
	return a.QuestionPDFURL != nil && *a.QuestionPDFURL != ""
}

// Duration returns the attempt-relative cap, or zero when the assessment has none.
func (a Assessment) Duration() time.Duration {
	if a.DurationMinutes == nil || *a.DurationMinutes <= 0 {
		return 0
	}
	return time.Duration(*a.DurationMinutes) * time.Minute
}

// TotalPoints sums the point value of every structured question.
func (a Assessment) TotalPoints() float64 {
	var total float64
	for _, question := range a.Questions {
		total += question.Points
	}
	return total
}

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionTypeEssay          QuestionType = "ESSAY"
	QuestionTypeMatching       QuestionType = "MATCHING"
)

// HasOptions reports whether the question type is answered by picking an option.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question belongs to exactly one assessment.
type Question struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	AssessmentID   uint             `gorm:"not null;index" json:"assessment_id"`
	Position       int              `gorm:"not null" json:"position"`
	Text           string           `gorm:"type:text;not null" json:"text"`
	Type           QuestionType     `gorm:"size:32;not null" json:"type"`
	Points         float64          `gorm:"not null" json:"points"`
	CorrectAnswer  *string          `gorm:"type:text" json:"correct_answer"`
	Explanation    *string          `gorm:"type:text" json:"explanation"`
	ImageURL       *string          `gorm:"size:512" json:"image_url"`
	MatchTolerance int              `gorm:"not null;default:0" json:"match_tolerance"`
	Options        []QuestionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
}

// CorrectOption returns the single option flagged as correct.
func (q Question) CorrectOption() (QuestionOption, bool) {
	var found QuestionOption
	count := 0
	for _, option := range q.Options {
		if option.IsCorrect {
			found = option
			count++
		}
	}
	return found, count == 1
}

// QuestionOption is one selectable choice of a multiple choice or true/false question.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Code       string `gorm:"size:16;not null" json:"code"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	Position   int    `gorm:"not null" json:"position"`
}
