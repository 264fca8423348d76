package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"mathflix/internal/domain"
)

// AttemptState tracks where a quiz run is in its lifecycle.
type AttemptState int

const (
	// StateAnswering means questions are being presented one at a time.
	StateAnswering AttemptState = iota
	// StateSubmitting means grading has started; reached either by
	// answering the last question or by timer expiry. The attempt stays
	// here if persisting fails, so Submit can be re-invoked.
	StateSubmitting
	// StateResults means the attempt was graded and recorded.
	StateResults
)

// FeedbackDelay is the window a driver should leave between recording an
// answer and advancing, so the selection can be shown as right or wrong.
const FeedbackDelay = 800 * time.Millisecond

// AttemptRunner drives a single timed run through a quiz: one question at a
// time, first selection final, countdown forcing submission at zero, and
// exactly one attempt record appended per run no matter how submission is
// triggered.
type AttemptRunner struct {
	mu        sync.Mutex
	quiz      domain.Quiz
	attempt   domain.QuizAttempt
	selected  []int // per-question option index, UnansweredOption until answered
	current   int
	remaining int // seconds on the countdown
	shownAt   time.Time
	state     AttemptState
	now       func() time.Time
	submit    func(context.Context, domain.QuizAttempt) error
}

func newAttemptRunner(quiz domain.Quiz, childID, attemptID string, submit func(context.Context, domain.QuizAttempt) error, now func() time.Time) *AttemptRunner {
	selected := make([]int, len(quiz.Questions))
	for i := range selected {
		selected[i] = domain.UnansweredOption
	}
	return &AttemptRunner{
		quiz: quiz,
		attempt: domain.QuizAttempt{
			ID:             attemptID,
			QuizID:         quiz.ID,
			ChildID:        childID,
			TotalQuestions: len(quiz.Questions),
			Answers:        []domain.UserAnswer{},
		},
		selected:  selected,
		remaining: quiz.Duration * 60,
		shownAt:   now(),
		now:       now,
		submit:    submit,
	}
}

// State returns the current lifecycle state.
func (r *AttemptRunner) State() AttemptState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentQuestion returns the question being presented and its index.
func (r *AttemptRunner) CurrentQuestion() (domain.Question, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quiz.Questions[r.current], r.current
}

// Remaining returns the seconds left on the countdown.
func (r *AttemptRunner) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Attempt returns a snapshot of the attempt record.
func (r *AttemptRunner) Attempt() domain.QuizAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *AttemptRunner) snapshotLocked() domain.QuizAttempt {
	attempt := r.attempt
	attempt.Answers = append([]domain.UserAnswer{}, r.attempt.Answers...)
	return attempt
}

// Answer records the selection for the current question. The first selection
// is final: re-answering is rejected. Time spent is measured from when the
// question was first shown.
func (r *AttemptRunner) Answer(option int) (domain.UserAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAnswering {
		return domain.UserAnswer{}, domain.ErrAttemptSubmitted
	}
	question := r.quiz.Questions[r.current]
	if option < 0 || option >= len(question.Options) {
		return domain.UserAnswer{}, fmt.Errorf("%w: %d", domain.ErrInvalidOption, option)
	}
	if r.selected[r.current] != domain.UnansweredOption {
		return domain.UserAnswer{}, domain.ErrAlreadyAnswered
	}

	r.selected[r.current] = option
	answer := domain.UserAnswer{
		QuestionID:     question.ID,
		SelectedOption: option,
		IsCorrect:      option == question.CorrectAnswer,
		TimeSpent:      int(r.now().Sub(r.shownAt).Seconds()),
	}
	r.attempt.Answers = append(r.attempt.Answers, answer)
	return answer, nil
}

// AdvanceOrSubmit is the step after the feedback window: move to the next
// question if one remains, otherwise start submission.
func (r *AttemptRunner) AdvanceOrSubmit(ctx context.Context) (domain.QuizAttempt, bool, error) {
	r.mu.Lock()
	if r.state != StateAnswering {
		r.mu.Unlock()
		return domain.QuizAttempt{}, false, domain.ErrAttemptSubmitted
	}
	if r.current < len(r.quiz.Questions)-1 {
		r.current++
		r.shownAt = r.now()
		r.mu.Unlock()
		return domain.QuizAttempt{}, false, nil
	}
	r.mu.Unlock()

	attempt, err := r.Submit(ctx)
	return attempt, true, err
}

// Forward navigates to the next question. Moving past an unanswered current
// question is blocked.
func (r *AttemptRunner) Forward() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAnswering {
		return domain.ErrAttemptSubmitted
	}
	if r.selected[r.current] == domain.UnansweredOption {
		return domain.ErrQuestionUnanswered
	}
	if r.current >= len(r.quiz.Questions)-1 {
		return domain.ErrNoSuchQuestion
	}
	r.current++
	r.shownAt = r.now()
	return nil
}

// Back navigates to the previous question.
func (r *AttemptRunner) Back() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAnswering {
		return domain.ErrAttemptSubmitted
	}
	if r.current == 0 {
		return domain.ErrNoSuchQuestion
	}
	r.current--
	r.shownAt = r.now()
	return nil
}

// Tick decrements the countdown by one second. Hitting zero forces
// submission with every unanswered slot graded incorrect. Ticks arriving
// once submission has started are ignored, so an in-flight submission is
// never preempted.
func (r *AttemptRunner) Tick(ctx context.Context) (bool, error) {
	r.mu.Lock()
	if r.state != StateAnswering {
		r.mu.Unlock()
		return true, nil
	}
	if r.remaining > 0 {
		r.remaining--
	}
	if r.remaining > 0 {
		r.mu.Unlock()
		return false, nil
	}
	r.mu.Unlock()

	_, err := r.Submit(ctx)
	return true, err
}

// RunTimer drives Tick once per second until the attempt is submitted or the
// context is canceled. The returned stop function is idempotent.
func (r *AttemptRunner) RunTimer(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if expired, _ := r.Tick(ctx); expired {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return stop
}

// Submit grades the attempt and hands it to the catalog. It is idempotent:
// once an attempt record was appended, further calls return the same graded
// attempt without appending again. If persisting fails the state stays
// StateSubmitting and Submit can be called again.
func (r *AttemptRunner) Submit(ctx context.Context) (domain.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateResults {
		return r.snapshotLocked(), nil
	}
	r.state = StateSubmitting

	correct := 0
	for i, question := range r.quiz.Questions {
		if r.selected[i] == question.CorrectAnswer {
			correct++
		}
	}
	total := len(r.quiz.Questions)

	r.attempt.CorrectAnswers = correct
	r.attempt.Score = int(math.Round(float64(correct) / float64(total) * 100))
	r.attempt.TimeTaken = r.quiz.Duration*60 - r.remaining
	r.attempt.CompletedAt = r.now().Format(time.RFC3339)

	if err := r.submit(ctx, r.snapshotLocked()); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("submit attempt: %w", err)
	}
	r.state = StateResults
	return r.snapshotLocked(), nil
}
