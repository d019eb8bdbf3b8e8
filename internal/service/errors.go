package service

import "errors"

var (
	// ErrNotYetOpen indicates the assessment window has not opened.
	ErrNotYetOpen = errors.New("assessment is not open yet")
	// ErrClosed indicates the assessment window has closed.
	ErrClosed = errors.New("assessment is closed")
	// ErrAlreadySubmitted indicates the student already finalized the attempt.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrAttemptExpired indicates the attempt ran out of time and was finalized instead of accepting the write.
	ErrAttemptExpired = errors.New("attempt time has expired")
	// ErrNotGradable indicates the submission is still in progress.
	ErrNotGradable = errors.New("submission cannot be graded yet")
	// ErrInvalidScore indicates a grading value outside its allowed range.
	ErrInvalidScore = errors.New("score out of range")
	// ErrPendingAnswers indicates auto-scaling was requested while answers still lack points.
	ErrPendingAnswers = errors.New("some answers have not been scored")
	// ErrAssessmentNotFound indicates the assessment was not located.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrSubmissionNotFound indicates the submission was not located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotSubmissionOwner indicates a student touched another student's attempt.
	ErrNotSubmissionOwner = errors.New("submission belongs to another student")
	// ErrQuestionNotFound indicates an answer referenced a question outside the assessment.
	ErrQuestionNotFound = errors.New("question not found in assessment")
	// ErrInvalidOption indicates a selected option code the question does not offer.
	ErrInvalidOption = errors.New("selected option does not exist")
	// ErrAssessmentLocked indicates the question bank can no longer change because attempts exist.
	ErrAssessmentLocked = errors.New("assessment already has attempts")
	// ErrInvalidQuestion indicates a question violates the question bank rules.
	ErrInvalidQuestion = errors.New("invalid question")
)
