package grading

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// BuildLayout fixes the question and option order of an attempt. The full
// permutation is returned so callers can persist it instead of re-deriving it
// from the seed on every read.
func BuildLayout(assessment models.Assessment, seed int64) models.AttemptLayout {
	questions := sortedQuestions(assessment.Questions)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(assessment.ID)))

	order := make([]uint, 0, len(questions))
	for _, question := range questions {
		order = append(order, question.ID)
	}
	if assessment.RandomizeQuestions {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	layout := models.AttemptLayout{Seed: seed, Questions: order}
	if !assessment.RandomizeOptions {
		return layout
	}

	layout.Options = make(map[string][]string)
	for _, question := range questions {
		if len(question.Options) == 0 {
			continue
		}
		codes := make([]string, 0, len(question.Options))
		for _, option := range sortedOptions(question.Options) {
			codes = append(codes, option.Code)
		}
		rng.Shuffle(len(codes), func(i, j int) { codes[i], codes[j] = codes[j], codes[i] })
		layout.Options[layoutKey(question.ID)] = codes
	}

	return layout
}

// ApplyLayout orders questions and their options according to a stored layout.
// Questions missing from the layout are appended in authoring order.
func ApplyLayout(questions []models.Question, layout models.AttemptLayout) []models.Question {
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range sortedQuestions(questions) {
		question.Options = sortedOptions(question.Options)
		byID[question.ID] = question
	}

	ordered := make([]models.Question, 0, len(questions))
	seen := make(map[uint]struct{}, len(questions))
	for _, id := range layout.Questions {
		question, ok := byID[id]
		if !ok {
			continue
		}
		ordered = append(ordered, applyOptionOrder(question, layout.Options[layoutKey(id)]))
		seen[id] = struct{}{}
	}
	for _, question := range sortedQuestions(questions) {
		if _, ok := seen[question.ID]; ok {
			continue
		}
		ordered = append(ordered, byID[question.ID])
	}

	return ordered
}

func applyOptionOrder(question models.Question, codes []string) models.Question {
	if len(codes) == 0 {
		return question
	}

	rank := make(map[string]int, len(codes))
	for i, code := range codes {
		rank[code] = i
	}

	options := make([]models.QuestionOption, len(question.Options))
	copy(options, question.Options)
	sort.SliceStable(options, func(i, j int) bool {
		ri, okI := rank[options[i].Code]
		rj, okJ := rank[options[j].Code]
		switch {
		case okI && okJ:
			return ri < rj
		case okI:
			return true
		default:
			return false
		}
	})
	question.Options = options
	return question
}

func sortedQuestions(questions []models.Question) []models.Question {
	sorted := make([]models.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position == sorted[j].Position {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

func sortedOptions(options []models.QuestionOption) []models.QuestionOption {
	sorted := make([]models.QuestionOption, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position == sorted[j].Position {
			return sorted[i].Code < sorted[j].Code
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

func layoutKey(questionID uint) string {
	return strconv.FormatUint(uint64(questionID), 10)
}
