package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"condoPortal/internal/gate"
	"condoPortal/internal/handlers"
	"condoPortal/internal/logging"
	"condoPortal/internal/proxy"
	"condoPortal/internal/services"
	"condoPortal/internal/session"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

type App struct {
	Config       *Config
	Logger       *logging.Logger
	SessionStore *sessions.CookieStore
	Auth         handlers.Authenticator
	Templates    *TemplateCache

	LoginLimiter *RateLimiter
	APILimiter   *RateLimiter

	// stores builds the per-request session store; tests swap the storage
	stores handlers.StoreFactory
}

// NewApp wires the session store, upstream login and limiters from config
func NewApp(config *Config, logger *logging.Logger) *App {
	sessionStore := sessions.NewCookieStore(config.SessionSecret)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(config.SessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	app := &App{
		Config:       config,
		Logger:       logger,
		SessionStore: sessionStore,
		Auth:         services.NewAuthService(config.UpstreamURL, config.UpstreamTimeout),
		Templates:    NewTemplateCache(),
		LoginLimiter: NewRateLimiter(10, 20),
		APILimiter:   NewRateLimiter(120, 240),
	}
	app.stores = app.cookieStores
	return app
}

// cookieStores binds the configured storage backend to the request
func (app *App) cookieStores(w http.ResponseWriter, r *http.Request) *session.Store {
	var storage session.Storage
	if app.Config.SessionStorage == StorageSigned {
		storage = session.NewSignedStorage(app.SessionStore, w, r)
	} else {
		storage = session.NewCookieStorage(w, r, app.Config.IsProduction())
	}

	return session.NewStore(storage,
		session.WithMaxAge(app.Config.SessionMaxAge),
		session.WithLogger(app.Logger),
	)
}

// Router builds the full route table
func (app *App) Router() (http.Handler, error) {
	r := mux.NewRouter()

	r.Use(app.RecoveryMiddleware)
	r.Use(app.RequestIDMiddleware)
	r.Use(app.LoggingMiddleware)

	auth := handlers.NewAuthHandlers(app.Auth, app.stores, app.Logger)

	r.HandleFunc("/healthz", app.handleHealth).Methods("GET")
	r.HandleFunc("/", app.handleHome).Methods("GET")
	r.HandleFunc("/login", auth.HandleLoginPage).Methods("GET")
	r.Handle("/login", app.RateLimitMiddleware(app.LoginLimiter)(http.HandlerFunc(auth.HandleLogin))).Methods("POST")
	r.HandleFunc("/logout", auth.HandleLogout).Methods("GET")
	r.HandleFunc("/unauthorized", app.handleUnauthorized).Methods("GET")
	r.HandleFunc("/payments/validate", app.handlePaymentValidation).Methods("GET")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(app.RoleGateMiddleware(gate.Admin()))
	for _, section := range Sections {
		admin.HandleFunc(section.Path[len("/admin"):], app.handleDashboard(section)).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(app.RateLimitMiddleware(app.APILimiter))
	for _, section := range Sections {
		h, err := proxy.New(app.Config.UpstreamURL, "/"+section.Resource,
			proxy.WithTimeout(app.Config.UpstreamTimeout),
			proxy.WithLogger(app.Logger),
		)
		if err != nil {
			return nil, err
		}
		api.Handle("/"+section.Resource, h).Methods("GET")
		api.Handle("/"+section.Resource+"/{id}", h).Methods("GET")
	}

	return r, nil
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger := logging.New(config.LogLevel, logOutput(config))
	app := NewApp(config, logger)

	router, err := app.Router()
	if err != nil {
		logger.WithError(err).Error("Failed to build router")
		os.Exit(1)
	}

	stop := make(chan struct{})
	app.LoginLimiter.StartCleanupRoutine(stop)
	app.APILimiter.StartCleanupRoutine(stop)

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithFields(map[string]interface{}{
			"port":            config.Port,
			"upstream":        config.UpstreamURL,
			"session_storage": config.SessionStorage,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Server shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// logOutput writes to logs/app.log in production when the file can be opened
func logOutput(config *Config) io.Writer {
	if !config.IsProduction() {
		return os.Stdout
	}
	if err := os.MkdirAll("logs", 0755); err != nil {
		return os.Stdout
	}
	file, err := os.OpenFile("logs/app.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return os.Stdout
	}
	return file
}
