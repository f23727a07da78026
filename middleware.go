package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"condoPortal/internal/gate"
	"condoPortal/internal/session"
	"condoPortal/utils"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id to and from the browser
const RequestIDHeader = "X-Request-ID"

func (app *App) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), id)))
	})
}

func (app *App) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		app.Logger.ForContext(r.Context()).WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
			"status_code": wrapper.statusCode,
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request completed")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (app *App) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				app.Logger.ForContext(r.Context()).WithFields(map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"panic":       fmt.Sprintf("%v", err),
					"remote_addr": r.RemoteAddr,
				}).Error("Panic recovered in HTTP handler")
				http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RoleGateMiddleware loads the session and lets g decide whether the wrapped
// pages render. If the session read outlasts SessionLoadTimeout the loading
// page is shown instead, which refreshes itself.
func (app *App) RoleGateMiddleware(g gate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessor := session.Load(app.stores(w, r))

			ctx := r.Context()
			if timeout := app.Config.SessionLoadTimeout; timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			snap := accessor.Wait(ctx)

			decision := g.Decide(snap)
			switch decision.Action {
			case gate.ActionPlaceholder:
				app.renderLoading(w, r)
			case gate.ActionRedirect:
				fields := map[string]interface{}{
					"path":   r.URL.Path,
					"target": decision.Target,
				}
				if snap.User != nil {
					fields["role"] = string(snap.User.Role)
				}
				app.Logger.ForContext(r.Context()).WithFields(fields).Info("Role gate redirected visitor")
				http.Redirect(w, r, decision.Target, http.StatusTemporaryRedirect)
			default:
				next.ServeHTTP(w, r.WithContext(utils.WithSnapshot(r.Context(), snap)))
			}
		})
	}
}
