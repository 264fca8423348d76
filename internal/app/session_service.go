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

// SessionService owns the study-session log. The in-memory list is
// authoritative; the full list is written back under KeySessions after every
// mutation and write failures are logged, not surfaced.
//
// Sessions are not scoped to an owner: every logged-in subject user sees and
// can mutate the same list. That mirrors the mobile app as shipped.
type SessionService struct {
	store KeyValueStore
	now   func() time.Time
	idgen func() string

	mu       sync.RWMutex
	sessions []domain.Session
}

// NewSessionService loads the persisted session list; a read failure is
// logged and the service starts empty.
func NewSessionService(ctx context.Context, store KeyValueStore) *SessionService {
	s := &SessionService{store: store, now: time.Now, idgen: uuid.NewString}

	var sessions []domain.Session
	if _, err := loadValue(ctx, store, KeySessions, &sessions); err != nil {
		log.Printf("sessions: loading persisted list: %v", err)
	} else {
		s.sessions = sessions
	}
	return s
}

// Add validates the input and prepends a new incomplete session.
func (s *SessionService) Add(ctx context.Context, input domain.SessionInput) (domain.Session, error) {
	if input.Title == "" {
		return domain.Session{}, fmt.Errorf("%w: session title is required", domain.ErrValidation)
	}
	if input.Duration <= 0 {
		return domain.Session{}, fmt.Errorf("%w: duration must be a positive number of minutes", domain.ErrValidation)
	}

	session := domain.Session{
		ID:          s.idgen(),
		Title:       input.Title,
		Duration:    input.Duration,
		Date:        s.now().Format(time.RFC3339),
		Description: input.Description,
		IsCompleted: false,
	}

	s.mu.Lock()
	s.sessions = append([]domain.Session{session}, s.sessions...)
	s.mu.Unlock()

	s.persist(ctx)
	return session, nil
}

// Delete removes a session by ID.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	kept := s.sessions[:0]
	found := false
	for _, session := range s.sessions {
		if session.ID == sessionID {
			found = true
			continue
		}
		kept = append(kept, session)
	}
	s.sessions = kept
	s.mu.Unlock()

	if !found {
		return domain.ErrSessionNotFound
	}
	s.persist(ctx)
	return nil
}

// ToggleCompletion flips the completion flag of a session.
func (s *SessionService) ToggleCompletion(ctx context.Context, sessionID string) (domain.Session, error) {
	s.mu.Lock()
	var toggled *domain.Session
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].IsCompleted = !s.sessions[i].IsCompleted
			toggled = &s.sessions[i]
			break
		}
	}
	var out domain.Session
	if toggled != nil {
		out = *toggled
	}
	s.mu.Unlock()

	if toggled == nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	s.persist(ctx)
	return out, nil
}

// List returns the sessions in insertion order, newest first.
func (s *SessionService) List() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *SessionService) persist(ctx context.Context) {
	s.mu.RLock()
	sessions := make([]domain.Session, len(s.sessions))
	copy(sessions, s.sessions)
	s.mu.RUnlock()

	if err := saveValue(ctx, s.store, KeySessions, sessions); err != nil {
		log.Printf("sessions: persisting list: %v", err)
	}
}
