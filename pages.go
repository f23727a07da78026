package main

import (
	"net/http"

	"condoPortal/internal/gate"
	"condoPortal/internal/models"
	internalutils "condoPortal/internal/utils"
	"condoPortal/utils"
)

// Section is one admin dashboard backed by a proxied upstream resource
type Section struct {
	Title    string
	Path     string
	Resource string
}

// Sections lists the admin dashboards in navigation order
var Sections = []Section{
	{Title: "Pagos", Path: "/admin/payments", Resource: "payments"},
	{Title: "Presupuestos", Path: "/admin/budgets", Resource: "budgets"},
	{Title: "Actividades económicas", Path: "/admin/economic-activities", Resource: "economic-activities"},
}

type sectionLink struct {
	Title  string
	Path   string
	Active bool
}

func (app *App) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := app.stores(w, r).Session()

	data := struct {
		User    *models.User
		IsAdmin bool
	}{}
	if sess.IsValid() {
		data.User = sess.User
		data.IsAdmin = gate.IsAuthorized(sess.User, models.AdminRoles...)
	}

	app.render(w, http.StatusOK, "home", data)
}

func (app *App) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	app.render(w, http.StatusForbidden, "unauthorized", nil)
}

func (app *App) renderLoading(w http.ResponseWriter, r *http.Request) {
	internalutils.NoStore(w)
	app.render(w, http.StatusOK, "loading", struct{ RefreshSeconds int }{RefreshSeconds: 1})
}

// handleDashboard renders an admin section; records are fetched by the page
// through the matching /api proxy route, using the gated session's token.
func (app *App) handleDashboard(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := utils.GetSnapshot(r)
		if !ok || snap.Token == "" || snap.User == nil {
			http.Redirect(w, r, gate.UnauthorizedPath, http.StatusTemporaryRedirect)
			return
		}

		links := make([]sectionLink, 0, len(Sections))
		for _, s := range Sections {
			links = append(links, sectionLink{Title: s.Title, Path: s.Path, Active: s.Path == section.Path})
		}

		internalutils.NoStore(w)
		app.render(w, http.StatusOK, "dashboard", struct {
			Title    string
			Endpoint string
			Token    string
			User     *models.User
			Sections []sectionLink
		}{
			Title:    section.Title,
			Endpoint: "/api/" + section.Resource,
			Token:    snap.Token,
			User:     snap.User,
			Sections: links,
		})
	}
}

// handlePaymentValidation routes visitors by role alone; the token is not
// consulted here.
func (app *App) handlePaymentValidation(w http.ResponseWriter, r *http.Request) {
	user, _ := app.stores(w, r).User()
	http.Redirect(w, r, gate.PaymentValidationTarget(user), http.StatusTemporaryRedirect)
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	internalutils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) render(w http.ResponseWriter, status int, name string, data interface{}) {
	if err := app.Templates.RenderTemplate(w, status, name, data); err != nil {
		app.Logger.WithField("template", name).WithError(err).Error("Failed to render template")
		http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
	}
}
