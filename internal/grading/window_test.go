package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

func testWindow(duration time.Duration) Window {
	opens := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return Window{OpensAt: opens, ClosesAt: opens.Add(2 * time.Hour), Duration: duration}
}

func statusPtr(status models.SubmissionStatus) *models.SubmissionStatus {
	return &status
}

func TestWindowDecideBoundaries(t *testing.T) {
	w := testWindow(0)

	require.Equal(t, DecisionNotYetOpen, w.Decide(w.OpensAt.Add(-time.Millisecond), nil))
	require.Equal(t, DecisionStart, w.Decide(w.OpensAt, nil))
	require.Equal(t, DecisionStart, w.Decide(w.ClosesAt, nil))
	require.Equal(t, DecisionClosed, w.Decide(w.ClosesAt.Add(time.Millisecond), nil))
}

func TestWindowDecideExistingSubmission(t *testing.T) {
	w := testWindow(0)
	during := w.OpensAt.Add(time.Minute)

	require.Equal(t, DecisionResume, w.Decide(during, statusPtr(models.SubmissionStatusInProgress)))
	for _, status := range []models.SubmissionStatus{models.SubmissionStatusSubmitted, models.SubmissionStatusLate, models.SubmissionStatusGraded} {
		require.Equal(t, DecisionAlreadySubmitted, w.Decide(during, statusPtr(status)), string(status))
	}
	require.Equal(t, DecisionAlreadySubmitted, w.Decide(w.ClosesAt.Add(time.Hour), statusPtr(models.SubmissionStatusGraded)))
}

func TestWindowRemainingWithoutDuration(t *testing.T) {
	w := testWindow(0)
	started := w.OpensAt.Add(30 * time.Minute)
	now := started.Add(10 * time.Minute)

	require.Equal(t, w.ClosesAt.Sub(now), w.Remaining(started, now))
	require.Equal(t, int64(80*60), w.RemainingSeconds(started, now))
	require.Equal(t, w.ClosesAt, w.Deadline(started))
}

func TestWindowRemainingCappedByDuration(t *testing.T) {
	w := testWindow(45 * time.Minute)
	started := w.OpensAt.Add(10 * time.Minute)
	now := started.Add(15 * time.Minute)

	require.Equal(t, 30*time.Minute, w.Remaining(started, now))
	require.Equal(t, started.Add(45*time.Minute), w.Deadline(started))
}

func TestWindowRemainingCappedByClose(t *testing.T) {
	w := testWindow(45 * time.Minute)
	started := w.ClosesAt.Add(-20 * time.Minute)
	now := started.Add(5 * time.Minute)

	require.Equal(t, 15*time.Minute, w.Remaining(started, now))
	require.Equal(t, w.ClosesAt, w.Deadline(started))
}

func TestWindowRemainingFlooredAtZero(t *testing.T) {
	w := testWindow(10 * time.Minute)
	started := w.OpensAt
	now := started.Add(11 * time.Minute)

	require.Equal(t, time.Duration(0), w.Remaining(started, now))
	require.Equal(t, int64(0), w.RemainingSeconds(started, now))
	require.True(t, w.Expired(started, now))
	require.True(t, w.Expired(started, started.Add(10*time.Minute)))
	require.False(t, w.Expired(started, started.Add(10*time.Minute-time.Millisecond)))
}

func TestWindowGraceAndFinalStatus(t *testing.T) {
	w := testWindow(0)
	started := w.OpensAt

	require.False(t, w.WithinGrace(started, w.ClosesAt.Add(time.Second), 0))
	require.True(t, w.WithinGrace(started, w.ClosesAt.Add(time.Second), 30*time.Second))
	require.False(t, w.WithinGrace(started, w.ClosesAt.Add(31*time.Second), 30*time.Second))

	require.Equal(t, models.SubmissionStatusSubmitted, w.FinalStatus(w.ClosesAt))
	require.Equal(t, models.SubmissionStatusLate, w.FinalStatus(w.ClosesAt.Add(time.Millisecond)))
}

func TestWindowForAssessment(t *testing.T) {
	minutes := 30
	opens := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	assessment := models.Assessment{OpensAt: opens, ClosesAt: opens.Add(time.Hour), DurationMinutes: &minutes}

	w := WindowFor(assessment)
	require.Equal(t, 30*time.Minute, w.Duration)
	require.True(t, w.Contains(opens))
	require.False(t, w.Contains(opens.Add(-time.Nanosecond)))
}
