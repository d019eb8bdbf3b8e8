package grading

import (
	"strings"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// answerAlternativeSeparator splits a canonical short answer into accepted alternatives.
const answerAlternativeSeparator = "|"

// Outcome is the auto-grading result of a single answer. A nil IsCorrect means
// the answer is not objectively gradable and waits for a tutor.
type Outcome struct {
	IsCorrect     *bool
	AwardedPoints *float64
}

// Pending reports whether the answer still needs manual grading.
func (o Outcome) Pending() bool {
	return o.AwardedPoints == nil
}

// GradeAnswer scores one answer against its question.
func GradeAnswer(question models.Question, answer models.Answer) Outcome {
	switch question.Type {
	case models.QuestionTypeMultipleChoice, models.QuestionTypeTrueFalse:
		return gradeOption(question, answer)
	case models.QuestionTypeShortAnswer:
		return gradeShortAnswer(question, answer)
	default:
		return Outcome{}
	}
}

func gradeOption(question models.Question, answer models.Answer) Outcome {
	correct, ok := question.CorrectOption()
	if !ok {
		return Outcome{}
	}

	selected := answer.Response
	if answer.SelectedOption != nil {
		selected = *answer.SelectedOption
	}

	isCorrect := strings.EqualFold(strings.TrimSpace(selected), strings.TrimSpace(correct.Code))
	return decided(isCorrect, question.Points)
}

func gradeShortAnswer(question models.Question, answer models.Answer) Outcome {
	if question.CorrectAnswer == nil || strings.TrimSpace(*question.CorrectAnswer) == "" {
		return Outcome{}
	}

	response := normalizeText(answer.Response)
	if response == "" && answer.AttachmentURL != nil {
		return Outcome{}
	}

	for _, alternative := range strings.Split(*question.CorrectAnswer, answerAlternativeSeparator) {
		expected := normalizeText(alternative)
		if expected == "" {
			continue
		}
		if expected == response {
			return decided(true, question.Points)
		}
		if question.MatchTolerance > 0 && response != "" && levenshtein(expected, response) <= question.MatchTolerance {
			return decided(true, question.Points)
		}
	}

	return decided(false, question.Points)
}

func decided(isCorrect bool, points float64) Outcome {
	awarded := 0.0
	if isCorrect {
		awarded = points
	}
	return Outcome{IsCorrect: &isCorrect, AwardedPoints: &awarded}
}

// ApplyAutoGrade grades every answer in place and returns the provisional raw
// score, which is nil when no answer carries points yet.
func ApplyAutoGrade(questions []models.Question, answers []models.Answer) *float64 {
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	for i := range answers {
		question, ok := byID[answers[i].QuestionID]
		if !ok {
			continue
		}
		outcome := GradeAnswer(question, answers[i])
		answers[i].IsCorrect = outcome.IsCorrect
		answers[i].AwardedPoints = outcome.AwardedPoints
	}

	return SumAwarded(answers)
}

// SumAwarded adds up the awarded points of answers that have them.
func SumAwarded(answers []models.Answer) *float64 {
	var (
		total  float64
		scored bool
	)
	for _, answer := range answers {
		if answer.AwardedPoints == nil {
			continue
		}
		total += *answer.AwardedPoints
		scored = true
	}
	if !scored {
		return nil
	}
	return &total
}

func normalizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
}
