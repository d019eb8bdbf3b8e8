package grading

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// StartDecision is the outcome of evaluating a start-attempt request.
type StartDecision string

const (
	DecisionStart            StartDecision = "START"
	DecisionResume           StartDecision = "RESUME"
	DecisionNotYetOpen       StartDecision = "NOT_YET_OPEN"
	DecisionClosed           StartDecision = "CLOSED"
	DecisionAlreadySubmitted StartDecision = "ALREADY_SUBMITTED"
)

// Window is the timing envelope of an assessment. Every method takes the
// current instant explicitly; nothing here reads the wall clock.
type Window struct {
	OpensAt  time.Time
	ClosesAt time.Time
	// Duration caps an attempt relative to its start. Zero means no cap.
	Duration time.Duration
}

// WindowFor builds the window of an assessment.
func WindowFor(assessment models.Assessment) Window {
	return Window{
		OpensAt:  assessment.OpensAt,
		ClosesAt: assessment.ClosesAt,
		Duration: assessment.Duration(),
	}
}

// Contains reports whether now lies inside the inclusive [OpensAt, ClosesAt] range.
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.OpensAt) && !now.After(w.ClosesAt)
}

// IsLate reports whether now is past the close instant.
func (w Window) IsLate(now time.Time) bool {
	return now.After(w.ClosesAt)
}

// Decide evaluates a start request. existing is nil when no submission row exists.
func (w Window) Decide(now time.Time, existing *models.SubmissionStatus) StartDecision {
	if existing != nil {
		if existing.IsTerminal() {
			return DecisionAlreadySubmitted
		}
		return DecisionResume
	}
	if now.Before(w.OpensAt) {
		return DecisionNotYetOpen
	}
	if now.After(w.ClosesAt) {
		return DecisionClosed
	}
	return DecisionStart
}

// Deadline is the instant at which an attempt started at startedAt runs out of time.
func (w Window) Deadline(startedAt time.Time) time.Time {
	if w.Duration <= 0 {
		return w.ClosesAt
	}
	capped := startedAt.Add(w.Duration)
	if capped.Before(w.ClosesAt) {
		return capped
	}
	return w.ClosesAt
}

// Remaining is the time left for an attempt, floored at zero.
func (w Window) Remaining(startedAt, now time.Time) time.Duration {
	remaining := w.Deadline(startedAt).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSeconds is Remaining truncated to whole seconds.
func (w Window) RemainingSeconds(startedAt, now time.Time) int64 {
	return int64(w.Remaining(startedAt, now) / time.Second)
}

// Expired reports whether no time is left for the attempt.
func (w Window) Expired(startedAt, now time.Time) bool {
	return w.Remaining(startedAt, now) <= 0
}

// WithinGrace reports whether now is no later than the deadline extended by grace.
func (w Window) WithinGrace(startedAt, now time.Time, grace time.Duration) bool {
	if grace <= 0 {
		return !w.Expired(startedAt, now)
	}
	return !now.After(w.Deadline(startedAt).Add(grace))
}

// FinalStatus is the status an attempt finalized at now should carry.
func (w Window) FinalStatus(now time.Time) models.SubmissionStatus {
	if w.IsLate(now) {
		return models.SubmissionStatusLate
	}
	return models.SubmissionStatusSubmitted
}
