package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"condoPortal/internal/gate"
	"condoPortal/internal/logging"
	"condoPortal/internal/services"
	"condoPortal/internal/session"
)

// Authenticator exchanges credentials for a session
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// StoreFactory builds the session store bound to one request
type StoreFactory func(w http.ResponseWriter, r *http.Request) *session.Store

// AuthHandlers handles login and logout
type AuthHandlers struct {
	auth   Authenticator
	stores StoreFactory
	logger *logging.Logger
}

// NewAuthHandlers creates new authentication handlers
func NewAuthHandlers(auth Authenticator, stores StoreFactory, logger *logging.Logger) *AuthHandlers {
	return &AuthHandlers{
		auth:   auth,
		stores: stores,
		logger: logger,
	}
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="utf-8">
    <title>Iniciar sesión - Portal del Condominio</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .container { max-width: 420px; }
        input { width: 100%; padding: 10px; margin-bottom: 12px; }
        button { padding: 10px 20px; background: #007cba; color: white; border: none; cursor: pointer; }
        .errors { background: #f8d7da; color: #721c24; padding: 12px; border-radius: 4px; margin-bottom: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Portal del Condominio</h1>
        {{if .Errors}}
        <div class="errors">
            {{range .Errors}}<div>{{.}}</div>{{end}}
        </div>
        {{end}}
        <form action="/login" method="POST">
            <label for="email">Correo</label>
            <input type="email" name="email" id="email" value="{{.Email}}" required>
            <label for="password">Contraseña</label>
            <input type="password" name="password" id="password" required>
            <button type="submit">Entrar</button>
        </form>
    </div>
</body>
</html>`))

type loginPage struct {
	Email  string
	Errors []string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, status int, page loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, page); err != nil {
		h.logger.WithError(err).Error("Failed to execute login template")
	}
}

// HandleLoginPage renders the login form, or forwards visitors who already
// hold a valid session to their landing page.
func (h *AuthHandlers) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := h.stores(w, r).Session()
	if sess.IsValid() {
		http.Redirect(w, r, gate.LandingPath(sess.User), http.StatusTemporaryRedirect)
		return
	}
	h.renderLogin(w, http.StatusOK, loginPage{})
}

// HandleLogin validates the form, logs in upstream and stores the session
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, loginPage{Errors: []string{"Formulario inválido"}})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	v := NewValidator().
		ValidateRequired(email, "Correo").
		ValidateEmail(email, "Correo").
		ValidateRequired(password, "Contraseña").
		ValidateMaxLength(password, "Contraseña", 256)
	if v.HasErrors() {
		h.renderLogin(w, http.StatusBadRequest, loginPage{Email: email, Errors: v.Errors()})
		return
	}

	log := h.logger.ForContext(r.Context())
	result, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.WithField("email", email).Info("Login rejected")
			h.renderLogin(w, http.StatusUnauthorized, loginPage{Email: email, Errors: []string{"Credenciales inválidas"}})
			return
		}
		log.WithField("email", email).WithError(err).Error("Login failed")
		h.renderLogin(w, http.StatusInternalServerError, loginPage{Email: email, Errors: []string{"Error interno del servidor"}})
		return
	}

	store := h.stores(w, r)
	if err := store.SetToken(result.Token); err != nil {
		h.failSession(w, log, store, email, err)
		return
	}
	if err := store.SetUser(result.User); err != nil {
		h.failSession(w, log, store, email, err)
		return
	}

	log.WithFields(map[string]interface{}{
		"user_id": result.User.ID,
		"role":    string(result.User.Role),
	}).Info("User logged in")
	http.Redirect(w, r, gate.LandingPath(result.User), http.StatusSeeOther)
}

// failSession drops whatever half of the session was written
func (h *AuthHandlers) failSession(w http.ResponseWriter, log *logging.Logger, store *session.Store, email string, err error) {
	log.WithField("email", email).WithError(err).Error("Failed to store session")
	if err := store.Logout(); err != nil {
		log.WithError(err).Warn("Failed to clear partial session")
	}
	h.renderLogin(w, http.StatusInternalServerError, loginPage{Email: email, Errors: []string{"Error interno del servidor"}})
}

// HandleLogout clears token and user together and returns to the login page
func (h *AuthHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	log := h.logger.ForContext(r.Context())
	if err := h.stores(w, r).Logout(); err != nil {
		log.WithError(err).Warn("Failed to clear session during logout")
	}
	log.Info("User logged out")
	http.Redirect(w, r, gate.LoginPath, http.StatusTemporaryRedirect)
}
