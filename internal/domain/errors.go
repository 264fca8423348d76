package domain

import "errors"

var (
	// ErrInvalidCredentials is returned when no demo account matches a login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUnknownRole indicates a role outside researcher/parent/child.
	ErrUnknownRole = errors.New("unknown role")
	// ErrValidation covers empty required fields and malformed inputs.
	ErrValidation = errors.New("validation failed")
	// ErrNotLoggedIn is returned when an operation requires a current user.
	ErrNotLoggedIn = errors.New("no user logged in")

	// ErrQuizNotFound indicates the quiz no longer exists in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound indicates the study session no longer exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuizHasNoQuestions rejects starting an attempt on an empty quiz.
	ErrQuizHasNoQuestions = errors.New("quiz has no questions")
	// ErrPublishedNeedsQuestions rejects emptying the question list of a
	// published quiz without unpublishing it first.
	ErrPublishedNeedsQuestions = errors.New("published quiz must keep at least one question")

	// ErrAlreadyAnswered enforces the first-selection-is-final rule.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionUnanswered blocks forward navigation past an open question.
	ErrQuestionUnanswered = errors.New("current question not answered")
	// ErrAttemptSubmitted rejects answers and navigation after submission.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	// ErrNoSuchQuestion indicates navigation outside the question range.
	ErrNoSuchQuestion = errors.New("no such question")
	// ErrInvalidOption indicates an option index outside the question's options.
	ErrInvalidOption = errors.New("invalid option index")
)
