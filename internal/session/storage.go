package session

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/sessions"
)

// Storage is the key/value backend the session store persists into.
// A missing key is reported through the bool, never as an error.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string, maxAge time.Duration) error
	Remove(key string) error
}

// CookieStorage keeps every key in its own HttpOnly cookie on the
// request/response pair.
type CookieStorage struct {
	w      http.ResponseWriter
	secure bool

	mu       sync.Mutex
	incoming map[string]string
	pending  map[string]*string
}

// NewCookieStorage binds cookie storage to one request. The request's cookies
// are copied up front so reads never touch r afterwards.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, secure bool) *CookieStorage {
	incoming := make(map[string]string)
	for _, cookie := range r.Cookies() {
		if _, seen := incoming[cookie.Name]; !seen {
			incoming[cookie.Name] = cookie.Value
		}
	}
	return &CookieStorage{
		w:        w,
		secure:   secure,
		incoming: incoming,
		pending:  make(map[string]*string),
	}
}

// Get returns writes made during this request before falling back to the
// cookies the browser sent.
func (c *CookieStorage) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.pending[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	raw, ok := c.incoming[key]
	if !ok {
		return "", false
	}

	value, err := url.QueryUnescape(raw)
	if err != nil {
		return raw, true
	}
	return value, true
}

func (c *CookieStorage) Set(key, value string, maxAge time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.pending[key] = &value
	return nil
}

func (c *CookieStorage) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.pending[key] = nil
	return nil
}

// SignedCookieName is the cookie holding the signed session values
const SignedCookieName = "condo-session"

// SignedStorage keeps the keys inside one gorilla/sessions session, so the
// values are signed with the configured secret and cannot be forged.
type SignedStorage struct {
	store sessions.Store
	r     *http.Request
	w     http.ResponseWriter

	mu      sync.Mutex
	sess    *sessions.Session
	loadErr error
}

// NewSignedStorage binds a gorilla/sessions store to one request. The session
// is decoded here on the caller's goroutine; the gorilla registry rewrites r
// while decoding, so later reads must not reach the request.
func NewSignedStorage(store sessions.Store, w http.ResponseWriter, r *http.Request) *SignedStorage {
	s := &SignedStorage{store: store, r: r, w: w}
	s.sess, s.loadErr = s.load()
	return s
}

// load decodes the session cookie. A cookie that fails signature checks
// yields a fresh, empty session.
func (s *SignedStorage) load() (*sessions.Session, error) {
	sess, err := s.store.Get(s.r, SignedCookieName)
	if err != nil || sess == nil {
		sess, err = s.store.New(s.r, SignedCookieName)
		if sess == nil {
			return nil, err
		}
	}
	if sess.Options == nil {
		sess.Options = &sessions.Options{Path: "/"}
	}
	return sess, nil
}

func (s *SignedStorage) session() (*sessions.Session, error) {
	if s.sess == nil {
		if s.loadErr != nil {
			return nil, s.loadErr
		}
		return nil, errors.New("signed session unavailable")
	}
	return s.sess, nil
}

func (s *SignedStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session()
	if err != nil {
		return "", false
	}
	value, ok := sess.Values[key].(string)
	return value, ok
}

func (s *SignedStorage) Set(key, value string, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session()
	if err != nil {
		return err
	}
	sess.Values[key] = value
	sess.Options.MaxAge = int(maxAge / time.Second)
	return sess.Save(s.r, s.w)
}

func (s *SignedStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session()
	if err != nil {
		return err
	}
	delete(sess.Values, key)
	if len(sess.Values) == 0 {
		sess.Options.MaxAge = -1
	}
	return sess.Save(s.r, s.w)
}

// MemoryStorage is an in-process Storage used by tests and tooling
type MemoryStorage struct {
	mu      sync.RWMutex
	values  map[string]string
	maxAges map[string]time.Duration
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values:  make(map[string]string),
		maxAges: make(map[string]time.Duration),
	}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string, maxAge time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.maxAges[key] = maxAge
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.maxAges, key)
	return nil
}

// MaxAge returns the expiration the key was last written with
func (m *MemoryStorage) MaxAge(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxAges[key]
}
