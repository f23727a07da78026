package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"condoPortal/internal/logging"
	"condoPortal/internal/models"
)

// Storage keys
const (
	TokenKey = "token"
	UserKey  = "user"
)

// DefaultMaxAge is how long a stored session survives
const DefaultMaxAge = 7 * 24 * time.Hour

// ErrCorruptedUser is reported when the stored user record does not decode
var ErrCorruptedUser = errors.New("stored user record is corrupted")

// Store reads and writes the session token and user record
type Store struct {
	storage Storage
	maxAge  time.Duration
	logger  *logging.Logger
}

// Option configures a Store
type Option func(*Store)

// WithMaxAge overrides the expiration applied on writes
func WithMaxAge(maxAge time.Duration) Option {
	return func(s *Store) {
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

// WithLogger sets the logger used for corrupted-record reports
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a session store over the given storage
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		maxAge:  DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SetToken(token string) error {
	if err := s.storage.Set(TokenKey, token, s.maxAge); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *Store) SetUser(user *models.User) error {
	if user == nil {
		return errors.New("user is required")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.storage.Set(UserKey, string(data), s.maxAge); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// Token returns the stored token, if any
func (s *Store) Token() (string, bool) {
	token, ok := s.storage.Get(TokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// UserState tells apart a missing user record from a corrupted one
type UserState int

const (
	UserAbsent UserState = iota
	UserPresent
	UserCorrupted
)

func (s UserState) String() string {
	switch s {
	case UserPresent:
		return "present"
	case UserCorrupted:
		return "corrupted"
	default:
		return "absent"
	}
}

// UserLookup is the typed result of reading the user record
type UserLookup struct {
	State UserState
	User  *models.User
	Err   error
}

// LookupUser decodes the stored user record without logging
func (s *Store) LookupUser() UserLookup {
	raw, ok := s.storage.Get(UserKey)
	if !ok || raw == "" {
		return UserLookup{State: UserAbsent}
	}

	var user *models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return UserLookup{State: UserCorrupted, Err: fmt.Errorf("%w: %v", ErrCorruptedUser, err)}
	}
	if user == nil {
		return UserLookup{State: UserCorrupted, Err: ErrCorruptedUser}
	}
	return UserLookup{State: UserPresent, User: user}
}

// User returns the stored user. A corrupted record is logged and reported as
// absent.
func (s *Store) User() (*models.User, bool) {
	lookup := s.LookupUser()
	switch lookup.State {
	case UserPresent:
		return lookup.User, true
	case UserCorrupted:
		s.logger.WithError(lookup.Err).Warn("Failed to parse stored user")
	}
	return nil, false
}

// Session returns the token/user pair as currently stored
func (s *Store) Session() models.Session {
	token, _ := s.Token()
	user, _ := s.User()
	return models.Session{Token: token, User: user}
}

func (s *Store) RemoveToken() error {
	return s.storage.Remove(TokenKey)
}

func (s *Store) RemoveUser() error {
	return s.storage.Remove(UserKey)
}

// Logout clears the token and the user together. Both removals are attempted
// even if the first one fails.
func (s *Store) Logout() error {
	return errors.Join(s.RemoveToken(), s.RemoveUser())
}
