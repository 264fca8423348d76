package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mathflix/internal/domain"
)

// QuizService owns the quiz catalog: authoring operations, role-scoped
// visibility and attempt submission. As with the other stores the in-memory
// list is authoritative and the full list is written back after every
// mutation; only attempt submission treats a failed write as an error so the
// attempt can be resubmitted (see AttemptRunner.Submit).
type QuizService struct {
	store KeyValueStore
	now   func() time.Time
	idgen func() string

	mu      sync.RWMutex
	quizzes []domain.Quiz
}

// NewQuizService loads the persisted catalog; a read failure is logged and
// the service starts empty.
func NewQuizService(ctx context.Context, store KeyValueStore) *QuizService {
	s := &QuizService{store: store, now: time.Now, idgen: uuid.NewString}

	var quizzes []domain.Quiz
	if _, err := loadValue(ctx, store, KeyQuizzes, &quizzes); err != nil {
		log.Printf("quizzes: loading persisted catalog: %v", err)
	} else {
		s.quizzes = quizzes
	}
	return s
}

// QuizInput carries the author-provided fields of a new quiz.
type QuizInput struct {
	Title       string
	Description string
	Duration    int // minutes
	Subject     string
	Difficulty  domain.Difficulty
	Questions   []domain.Question
	CreatedBy   string
	AssignedTo  []string
	IsPublished bool
}

// Create validates the input and appends a new quiz with a fresh ID,
// creation timestamp and empty attempt list.
func (s *QuizService) Create(ctx context.Context, input QuizInput) (domain.Quiz, error) {
	if err := validateQuizInput(input); err != nil {
		return domain.Quiz{}, err
	}

	quiz := domain.Quiz{
		ID:          s.idgen(),
		Title:       input.Title,
		Description: input.Description,
		Duration:    input.Duration,
		Subject:     input.Subject,
		Difficulty:  input.Difficulty,
		Questions:   input.Questions,
		CreatedBy:   input.CreatedBy,
		AssignedTo:  dedupe(input.AssignedTo),
		IsPublished: input.IsPublished,
		CreatedAt:   s.now().Format(time.RFC3339),
		Attempts:    []domain.QuizAttempt{},
	}

	s.mu.Lock()
	s.quizzes = append(s.quizzes, quiz)
	s.mu.Unlock()

	s.persist(ctx)
	return quiz, nil
}

// QuizUpdate names each updatable field explicitly; nil means "leave as is".
// The attempt list and creation metadata are not updatable.
type QuizUpdate struct {
	Title       *string
	Description *string
	Duration    *int
	Subject     *string
	Difficulty  *domain.Difficulty
	Questions   *[]domain.Question
	AssignedTo  *[]string
	IsPublished *bool
}

// Update applies the provided fields to a quiz. Emptying the question list
// of a published quiz is rejected unless the same update unpublishes it.
func (s *QuizService) Update(ctx context.Context, quizID string, update QuizUpdate) (domain.Quiz, error) {
	s.mu.Lock()
	idx := s.indexLocked(quizID)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz := s.quizzes[idx]

	if update.Questions != nil && len(*update.Questions) == 0 {
		published := quiz.IsPublished
		if update.IsPublished != nil {
			published = *update.IsPublished
		}
		if published {
			s.mu.Unlock()
			return domain.Quiz{}, domain.ErrPublishedNeedsQuestions
		}
	}

	if update.Title != nil {
		quiz.Title = *update.Title
	}
	if update.Description != nil {
		quiz.Description = *update.Description
	}
	if update.Duration != nil {
		quiz.Duration = *update.Duration
	}
	if update.Subject != nil {
		quiz.Subject = *update.Subject
	}
	if update.Difficulty != nil {
		if !update.Difficulty.Valid() {
			s.mu.Unlock()
			return domain.Quiz{}, fmt.Errorf("%w: unknown difficulty %q", domain.ErrValidation, *update.Difficulty)
		}
		quiz.Difficulty = *update.Difficulty
	}
	if update.Questions != nil {
		quiz.Questions = *update.Questions
	}
	if update.AssignedTo != nil {
		quiz.AssignedTo = dedupe(*update.AssignedTo)
	}
	if update.IsPublished != nil {
		quiz.IsPublished = *update.IsPublished
	}

	s.quizzes[idx] = quiz
	s.mu.Unlock()

	s.persist(ctx)
	return quiz, nil
}

// Delete removes a quiz, and with it its attempt history.
func (s *QuizService) Delete(ctx context.Context, quizID string) error {
	s.mu.Lock()
	kept := s.quizzes[:0]
	found := false
	for _, quiz := range s.quizzes {
		if quiz.ID == quizID {
			found = true
			continue
		}
		kept = append(kept, quiz)
	}
	s.quizzes = kept
	s.mu.Unlock()

	if !found {
		return domain.ErrQuizNotFound
	}
	s.persist(ctx)
	return nil
}

// Publish makes a quiz visible to its assigned children.
func (s *QuizService) Publish(ctx context.Context, quizID string) (domain.Quiz, error) {
	s.mu.Lock()
	idx := s.indexLocked(quizID)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	s.quizzes[idx].IsPublished = true
	quiz := s.quizzes[idx]
	s.mu.Unlock()

	s.persist(ctx)
	return quiz, nil
}

// Assign adds a child to a quiz's assignment list with set semantics:
// assigning the same child twice leaves a single occurrence.
func (s *QuizService) Assign(ctx context.Context, quizID, childID string) (domain.Quiz, error) {
	s.mu.Lock()
	idx := s.indexLocked(quizID)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	s.quizzes[idx].AssignedTo = dedupe(append(s.quizzes[idx].AssignedTo, childID))
	quiz := s.quizzes[idx]
	s.mu.Unlock()

	s.persist(ctx)
	return quiz, nil
}

// Get returns a quiz by ID.
func (s *QuizService) Get(quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(quizID); idx >= 0 {
		return s.quizzes[idx], nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// List returns the whole catalog in insertion order.
func (s *QuizService) List() []domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, len(s.quizzes))
	copy(out, s.quizzes)
	return out
}

// ForParent returns the quizzes a parent authored.
func (s *QuizService) ForParent(parentID string) []domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.CreatedBy == parentID {
			out = append(out, quiz)
		}
	}
	return out
}

// ForChild returns exactly the published quizzes assigned to the child.
func (s *QuizService) ForChild(childID string) []domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.IsPublished && contains(quiz.AssignedTo, childID) {
			out = append(out, quiz)
		}
	}
	return out
}

// StartAttempt begins a timed run through a quiz for a child. A missing
// quiz fails fast so the caller can return to the previous screen.
func (s *QuizService) StartAttempt(quizID, childID string) (*AttemptRunner, error) {
	quiz, err := s.Get(quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrQuizHasNoQuestions
	}
	return newAttemptRunner(quiz, childID, s.idgen(), s.submitAttempt, s.now), nil
}

// submitAttempt appends a finished attempt to its parent quiz. Unlike the
// other mutations the store write happens before the in-memory swap, so a
// failed write leaves nothing appended and the submission stays retryable.
func (s *QuizService) submitAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(attempt.QuizID)
	if idx < 0 {
		return domain.ErrQuizNotFound
	}

	next := make([]domain.Quiz, len(s.quizzes))
	copy(next, s.quizzes)
	quiz := next[idx]
	quiz.Attempts = append(append([]domain.QuizAttempt{}, quiz.Attempts...), attempt)
	next[idx] = quiz

	if err := saveValue(ctx, s.store, KeyQuizzes, next); err != nil {
		return err
	}
	s.quizzes = next
	return nil
}

func (s *QuizService) indexLocked(quizID string) int {
	for i := range s.quizzes {
		if s.quizzes[i].ID == quizID {
			return i
		}
	}
	return -1
}

func (s *QuizService) persist(ctx context.Context) {
	s.mu.RLock()
	quizzes := make([]domain.Quiz, len(s.quizzes))
	copy(quizzes, s.quizzes)
	s.mu.RUnlock()

	if err := saveValue(ctx, s.store, KeyQuizzes, quizzes); err != nil {
		log.Printf("quizzes: persisting catalog: %v", err)
	}
}

func validateQuizInput(input QuizInput) error {
	if input.Title == "" {
		return fmt.Errorf("%w: quiz title is required", domain.ErrValidation)
	}
	if input.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes", domain.ErrValidation)
	}
	if !input.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrValidation, input.Difficulty)
	}
	for i, q := range input.Questions {
		if q.Prompt == "" {
			return fmt.Errorf("%w: question %d has no prompt", domain.ErrValidation, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", domain.ErrValidation, i+1)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d has correct answer out of range", domain.ErrValidation, i+1)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
