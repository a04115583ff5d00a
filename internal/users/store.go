// Package users persists admin accounts in a small JSON file, mirroring
// the catalog's file-backed storage.
package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarrel/kinotek/internal/auth"
)

var (
	ErrEmailExists = errors.New("email already registered")
	ErrNotFound    = errors.New("user not found")
)

type User struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// storedUser keeps the hash on disk while User keeps it out of API
// responses.
type storedUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

type Store struct {
	mu   sync.Mutex
	path string
	log  *log.Logger
}

func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, log: logger}
}

// Create registers a user. The first account becomes the admin; later
// ones are plain users until promoted by hand.
func (s *Store) Create(fullName, email, password string) (User, error) {
	email = auth.NormalizeEmail(email)
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return User{}, err
	}
	for _, u := range list {
		if u.Email == email {
			return User{}, ErrEmailExists
		}
	}

	role := auth.RoleUser
	if len(list) == 0 {
		role = auth.RoleAdmin
	}
	u := storedUser{
		User: User{
			ID:        uuid.New(),
			FullName:  fullName,
			Email:     email,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: hash,
	}
	list = append(list, u)
	if err := s.save(list); err != nil {
		return User{}, err
	}
	return u.User, nil
}

// Authenticate returns the user matching email+password.
func (s *Store) Authenticate(email, password string) (User, error) {
	email = auth.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return User{}, err
	}
	for _, u := range list {
		if u.Email == email && auth.CheckPassword(u.PasswordHash, password) {
			return u.User, nil
		}
	}
	return User{}, auth.ErrInvalidCredentials
}

func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// load self-heals a missing or broken user file to an empty list, same
// policy as the catalog store.
func (s *Store) load() ([]storedUser, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []storedUser{}, nil
		}
		return nil, fmt.Errorf("read users: %w", err)
	}
	list := []storedUser{}
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.Printf("users: %s is not valid JSON, starting empty", s.path)
		return []storedUser{}, nil
	}
	return list, nil
}

func (s *Store) save(list []storedUser) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	return nil
}
