package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"mathflix/internal/domain"
)

func fourQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:       "quiz-1",
		Title:    "Addition Basics",
		Duration: 5,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1, Points: 10},
			{ID: "q2", Prompt: "What is 3 + 3?", Options: []string{"6", "7", "8"}, CorrectAnswer: 0, Points: 10},
			{ID: "q3", Prompt: "What is 4 + 4?", Options: []string{"6", "7", "8"}, CorrectAnswer: 2, Points: 10},
			{ID: "q4", Prompt: "What is 5 + 5?", Options: []string{"10", "11", "12"}, CorrectAnswer: 0, Points: 10},
		},
	}
}

type attemptRecorder struct {
	submitted []domain.QuizAttempt
	err       error
}

func (r *attemptRecorder) submit(_ context.Context, attempt domain.QuizAttempt) error {
	if r.err != nil {
		return r.err
	}
	r.submitted = append(r.submitted, attempt)
	return nil
}

func newTestRunner(quiz domain.Quiz, recorder *attemptRecorder, now func() time.Time) *AttemptRunner {
	return newAttemptRunner(quiz, "child-1", "attempt-1", recorder.submit, now)
}

func frozenClock() func() time.Time {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestHalfCorrectScoresFifty(t *testing.T) {
	ctx := context.Background()
	recorder := &attemptRecorder{}
	quiz := fourQuestionQuiz()
	runner := newTestRunner(quiz, recorder, frozenClock())

	// Two right, two wrong.
	selections := []int{1, 1, 2, 1}
	for i, option := range selections {
		if _, err := runner.Answer(option); err != nil {
			t.Fatalf("answer q%d: %v", i+1, err)
		}
		if _, _, err := runner.AdvanceOrSubmit(ctx); err != nil {
			t.Fatalf("advance q%d: %v", i+1, err)
		}
	}

	if len(recorder.submitted) != 1 {
		t.Fatalf("expected 1 submitted attempt, got %d", len(recorder.submitted))
	}
	attempt := recorder.submitted[0]
	if attempt.Score != 50 || attempt.CorrectAnswers != 2 {
		t.Fatalf("expected score 50 with 2 correct, got score=%d correct=%d", attempt.Score, attempt.CorrectAnswers)
	}
	if attempt.TotalQuestions != len(quiz.Questions) {
		t.Fatalf("expected totalQuestions %d, got %d", len(quiz.Questions), attempt.TotalQuestions)
	}
	if len(attempt.Answers) != len(quiz.Questions) {
		t.Fatalf("expected %d answer records, got %d", len(quiz.Questions), len(attempt.Answers))
	}
	for _, answer := range attempt.Answers {
		if answer.SelectedOption == domain.UnansweredOption {
			t.Fatalf("submitted attempt contains an unanswered record: %+v", answer)
		}
	}
	if attempt.CompletedAt == "" {
		t.Fatalf("expected completion timestamp")
	}
	if runner.State() != StateResults {
		t.Fatalf("expected results state, got %v", runner.State())
	}
}

func TestFirstSelectionIsFinal(t *testing.T) {
	recorder := &attemptRecorder{}
	runner := newTestRunner(fourQuestionQuiz(), recorder, frozenClock())

	if _, err := runner.Answer(0); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := runner.Answer(1); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
}

func TestForwardBlockedOnUnansweredQuestion(t *testing.T) {
	recorder := &attemptRecorder{}
	runner := newTestRunner(fourQuestionQuiz(), recorder, frozenClock())

	if err := runner.Forward(); !errors.Is(err, domain.ErrQuestionUnanswered) {
		t.Fatalf("expected ErrQuestionUnanswered, got %v", err)
	}

	if _, err := runner.Answer(1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := runner.Forward(); err != nil {
		t.Fatalf("forward after answering: %v", err)
	}
	if err := runner.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if _, idx := runner.CurrentQuestion(); idx != 0 {
		t.Fatalf("expected to be back on question 0, got %d", idx)
	}
}

func TestTimerExpiryForcesSubmission(t *testing.T) {
	ctx := context.Background()
	recorder := &attemptRecorder{}
	quiz := fourQuestionQuiz()
	quiz.Duration = 1 // 60 seconds
	runner := newTestRunner(quiz, recorder, frozenClock())

	// Answer only the first question, correctly.
	if _, err := runner.Answer(1); err != nil {
		t.Fatalf("answer: %v", err)
	}

	expired := false
	for i := 0; i < 60; i++ {
		var err error
		expired, err = runner.Tick(ctx)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if !expired {
		t.Fatalf("expected countdown to expire after 60 ticks")
	}

	if len(recorder.submitted) != 1 {
		t.Fatalf("expected 1 submitted attempt, got %d", len(recorder.submitted))
	}
	attempt := recorder.submitted[0]
	if attempt.CorrectAnswers != 1 {
		t.Fatalf("expected 1 correct with remaining questions counted wrong, got %d", attempt.CorrectAnswers)
	}
	if attempt.Score != 25 {
		t.Fatalf("expected score 25, got %d", attempt.Score)
	}
	if attempt.TimeTaken != 60 {
		t.Fatalf("expected full duration 60s, got %d", attempt.TimeTaken)
	}
	if len(attempt.Answers) != 1 {
		t.Fatalf("expected only the answered question recorded, got %d", len(attempt.Answers))
	}

	// Ticks after submission must not touch the attempt.
	if _, err := runner.Tick(ctx); err != nil {
		t.Fatalf("tick after submit: %v", err)
	}
	if len(recorder.submitted) != 1 {
		t.Fatalf("tick after submission appended another attempt")
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	recorder := &attemptRecorder{}
	runner := newTestRunner(fourQuestionQuiz(), recorder, frozenClock())

	first, err := runner.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := runner.Submit(ctx)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if len(recorder.submitted) != 1 {
		t.Fatalf("expected a single submitted attempt, got %d", len(recorder.submitted))
	}
	if first.ID != second.ID || first.Score != second.Score {
		t.Fatalf("expected identical attempt on resubmit, got %+v vs %+v", first, second)
	}
}

func TestSubmitRetryableAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	recorder := &attemptRecorder{err: errors.New("store down")}
	runner := newTestRunner(fourQuestionQuiz(), recorder, frozenClock())

	if _, err := runner.Submit(ctx); err == nil {
		t.Fatalf("expected submit error")
	}
	if runner.State() != StateSubmitting {
		t.Fatalf("expected to stay in submitting state, got %v", runner.State())
	}
	if _, err := runner.Answer(0); !errors.Is(err, domain.ErrAttemptSubmitted) {
		t.Fatalf("expected answers rejected during submission, got %v", err)
	}

	recorder.err = nil
	attempt, err := runner.Submit(ctx)
	if err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if len(recorder.submitted) != 1 {
		t.Fatalf("expected one record after retry, got %d", len(recorder.submitted))
	}
	if runner.State() != StateResults || attempt.CompletedAt == "" {
		t.Fatalf("expected graded attempt after retry, got state=%v attempt=%+v", runner.State(), attempt)
	}
}

func TestTimeSpentPerQuestion(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return at }
	recorder := &attemptRecorder{}
	runner := newTestRunner(fourQuestionQuiz(), recorder, now)

	at = at.Add(7 * time.Second)
	answer, err := runner.Answer(1)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.TimeSpent != 7 {
		t.Fatalf("expected 7s spent, got %d", answer.TimeSpent)
	}
	if !answer.IsCorrect {
		t.Fatalf("expected option 1 to be correct for q1")
	}
}
