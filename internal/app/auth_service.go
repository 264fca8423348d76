package app

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mathflix/internal/domain"
)

// demoUsers are the fixed demo accounts; authentication is a plaintext
// comparison against this list, there is no real credential store.
func demoUsers() []domain.User {
	return []domain.User{
		{
			ID:       "1",
			Username: "researcher",
			Password: "password123",
			Email:    "researcher@mathflix.com",
			Name:     "Dr. Jane Smith",
			Role:     domain.RoleResearcher,
		},
		{
			ID:       "2",
			Username: "parent",
			Password: "parent123",
			Email:    "parent@mathflix.com",
			Name:     "John Doe",
			Role:     domain.RoleParent,
			ParentID: "PAR-001",
		},
		{
			ID:       "3",
			Username: "child",
			Password: "child123",
			Email:    "child@mathflix.com",
			Name:     "Child User",
			Role:     domain.RoleChild,
			ChildID:  "CHI-001",
		},
	}
}

// AuthService owns the identity store: the current logged-in user, persisted
// under KeyUser so a login survives process restarts until logout.
type AuthService struct {
	store KeyValueStore
	idgen func() string

	mu      sync.RWMutex
	current *domain.User
}

// NewAuthService loads any persisted user. A read failure is logged and the
// service starts logged out; in-memory state is authoritative from then on.
func NewAuthService(ctx context.Context, store KeyValueStore) *AuthService {
	s := &AuthService{store: store, idgen: uuid.NewString}

	var user domain.User
	ok, err := loadValue(ctx, store, KeyUser, &user)
	if err != nil {
		log.Printf("auth: loading persisted user: %v", err)
	} else if ok {
		s.current = &user
	}
	return s
}

// Login matches credentials against the demo accounts. On success the user
// (password stripped) becomes current and is persisted; on failure the
// identity store is untouched.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	if creds.Username == "" || creds.Password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	for _, u := range demoUsers() {
		if u.Username == creds.Username && u.Password == creds.Password {
			u.Password = ""

			s.mu.Lock()
			s.current = &u
			s.mu.Unlock()

			if err := saveValue(ctx, s.store, KeyUser, u); err != nil {
				log.Printf("auth: persisting user: %v", err)
			}
			return u, nil
		}
	}
	return domain.User{}, domain.ErrInvalidCredentials
}

// Register creates a new account and logs it in. There is no backing user
// database; the only uniqueness check is against the demo usernames.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	if err := validateRegistration(reg); err != nil {
		return domain.User{}, err
	}

	for _, u := range demoUsers() {
		if u.Username == reg.Username {
			return domain.User{}, domain.ErrUsernameTaken
		}
	}

	id := s.idgen()
	user := domain.User{
		ID:       id,
		Username: reg.Username,
		Email:    reg.Email,
		Name:     reg.Name,
		Role:     reg.Role,
	}
	switch reg.Role {
	case domain.RoleParent:
		user.ParentID = "PAR-" + linkSuffix(id)
	case domain.RoleChild:
		user.ChildID = "CHI-" + linkSuffix(id)
	case domain.RoleResearcher:
		// researchers carry no link identifier
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()

	if err := saveValue(ctx, s.store, KeyUser, user); err != nil {
		log.Printf("auth: persisting user: %v", err)
	}
	return user, nil
}

// Logout clears the current user and the persisted entry.
func (s *AuthService) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx, KeyUser); err != nil {
		log.Printf("auth: clearing persisted user: %v", err)
	}
}

// Current returns the logged-in user, if any.
func (s *AuthService) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

func validateRegistration(reg domain.Registration) error {
	if reg.Username == "" || reg.Password == "" || reg.Name == "" {
		return fmt.Errorf("%w: username, password and name are required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return fmt.Errorf("%w: malformed email %q", domain.ErrValidation, reg.Email)
	}
	if !reg.Role.Valid() {
		return domain.ErrUnknownRole
	}
	return nil
}

// linkSuffix mimics the short PAR-/CHI- link identifiers of the mobile app.
func linkSuffix(id string) string {
	trimmed := strings.ReplaceAll(id, "-", "")
	if len(trimmed) <= 4 {
		return trimmed
	}
	return trimmed[len(trimmed)-4:]
}
