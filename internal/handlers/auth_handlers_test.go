package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"condoPortal/internal/logging"
	"condoPortal/internal/models"
	"condoPortal/internal/services"
	"condoPortal/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	result *services.LoginResult
	err    error
	calls  int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	f.calls++
	return f.result, f.err
}

// memoryStores shares one MemoryStorage across requests
func memoryStores(storage session.Storage) StoreFactory {
	return func(w http.ResponseWriter, r *http.Request) *session.Store {
		return session.NewStore(storage)
	}
}

func postLogin(h *AuthHandlers, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func TestLoginStoresSessionAndRedirectsAdmin(t *testing.T) {
	storage := session.NewMemoryStorage()
	auth := &fakeAuth{result: &services.LoginResult{
		Token: "tok-1",
		User:  &models.User{ID: "u1", Role: models.RoleSuperAdmin, Email: "ana@example.com"},
	}}
	h := NewAuthHandlers(auth, memoryStores(storage), logging.Discard())

	rec := postLogin(h, url.Values{"email": {"ana@example.com"}, "password": {"secret"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/payments", rec.Header().Get("Location"))

	store := session.NewStore(storage)
	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)
	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
}

func TestLoginRedirectsResidentHome(t *testing.T) {
	auth := &fakeAuth{result: &services.LoginResult{
		Token: "tok-2",
		User:  &models.User{ID: "u2", Role: models.RoleResident},
	}}
	h := NewAuthHandlers(auth, memoryStores(session.NewMemoryStorage()), logging.Discard())

	rec := postLogin(h, url.Values{"email": {"res@example.com"}, "password": {"secret"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginValidationSkipsUpstream(t *testing.T) {
	auth := &fakeAuth{}
	h := NewAuthHandlers(auth, memoryStores(session.NewMemoryStorage()), logging.Discard())

	rec := postLogin(h, url.Values{"email": {"not-an-email"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "correo válido")
	assert.Contains(t, rec.Body.String(), "Contraseña: campo obligatorio")
	assert.Zero(t, auth.calls)
}

func TestLoginInvalidCredentials(t *testing.T) {
	storage := session.NewMemoryStorage()
	h := NewAuthHandlers(&fakeAuth{err: services.ErrInvalidCredentials}, memoryStores(storage), logging.Discard())

	rec := postLogin(h, url.Values{"email": {"a@example.com"}, "password": {"wrong"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credenciales inválidas")
	_, ok := session.NewStore(storage).Token()
	assert.False(t, ok)
}

func TestLoginUpstreamError(t *testing.T) {
	h := NewAuthHandlers(&fakeAuth{err: errors.New("boom")}, memoryStores(session.NewMemoryStorage()), logging.Discard())

	rec := postLogin(h, url.Values{"email": {"a@example.com"}, "password": {"x"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error interno del servidor")
	assert.NotContains(t, rec.Body.String(), "boom")
}

type failingUserStorage struct {
	*session.MemoryStorage
}

func (f failingUserStorage) Set(key, value string, maxAge time.Duration) error {
	if key == session.UserKey {
		return errors.New("write failed")
	}
	return f.MemoryStorage.Set(key, value, maxAge)
}

func TestLoginPartialWriteIsRolledBack(t *testing.T) {
	storage := failingUserStorage{session.NewMemoryStorage()}
	auth := &fakeAuth{result: &services.LoginResult{Token: "tok", User: &models.User{Role: models.RoleAdmin}}}
	h := NewAuthHandlers(auth, memoryStores(storage), logging.Discard())

	rec := postLogin(h, url.Values{"email": {"a@example.com"}, "password": {"x"}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	_, ok := session.NewStore(storage).Token()
	assert.False(t, ok)
}

func TestLoginPageRedirectsExistingSession(t *testing.T) {
	storage := session.NewMemoryStorage()
	store := session.NewStore(storage)
	require.NoError(t, store.SetToken("tok"))
	require.NoError(t, store.SetUser(&models.User{Role: models.RoleAdmin}))
	h := NewAuthHandlers(&fakeAuth{}, memoryStores(storage), logging.Discard())

	rec := httptest.NewRecorder()
	h.HandleLoginPage(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/admin/payments", rec.Header().Get("Location"))
}

func TestLoginPageRendersForm(t *testing.T) {
	h := NewAuthHandlers(&fakeAuth{}, memoryStores(session.NewMemoryStorage()), logging.Discard())

	rec := httptest.NewRecorder()
	h.HandleLoginPage(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestLogoutClearsSession(t *testing.T) {
	storage := session.NewMemoryStorage()
	store := session.NewStore(storage)
	require.NoError(t, store.SetToken("tok"))
	require.NoError(t, store.SetUser(&models.User{Role: models.RoleAdmin}))
	h := NewAuthHandlers(&fakeAuth{}, memoryStores(storage), logging.Discard())

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.User()
	assert.False(t, ok)
}
