package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrExamNotFound      = errors.New("exam not found")
	ErrExamNotPublished  = errors.New("exam not published")
	ErrExamNotAccessible = errors.New("exam not accessible")

	// Fatal configuration error: fixed-count rules exceed the exam's
	// question count. Not retryable.
	ErrExamMisconfigured = errors.New("exam is not properly configured")

	// The global question pool cannot fill the quota even with all
	// fallbacks. Retryable once content changes.
	ErrInsufficientQuestions = errors.New("not enough questions to allocate exam")

	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	ErrAttemptExpired   = errors.New("attempt time expired")
	ErrMockLimitReached = errors.New("mock attempt limit reached")
)
