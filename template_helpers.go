package main

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"condoPortal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateCache holds parsed page templates, each layered over base.html
type TemplateCache struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateCache creates a new template cache
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		templates: make(map[string]*template.Template),
	}
}

// GetTemplate returns a cached template or parses it on first use
func (tc *TemplateCache) GetTemplate(name string) (*template.Template, error) {
	tc.mutex.RLock()
	tmpl, exists := tc.templates[name]
	tc.mutex.RUnlock()

	if exists {
		return tmpl, nil
	}

	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tmpl, exists := tc.templates[name]; exists {
		return tmpl, nil
	}

	tmpl, err := template.New("").Funcs(CreateTemplateFuncMap()).
		ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	tc.templates[name] = tmpl
	return tmpl, nil
}

// RenderTemplate writes the named page with the given status code
func (tc *TemplateCache) RenderTemplate(w http.ResponseWriter, status int, name string, data interface{}) error {
	tmpl, err := tc.GetTemplate(name)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

// RoleBadge renders a small label for the user's role
func RoleBadge(role models.Role) template.HTML {
	badges := map[models.Role]string{
		models.RoleSuperAdmin: `<span class="badge badge-admin">SUPERADMIN</span>`,
		models.RoleAdmin:      `<span class="badge badge-admin">ADMIN</span>`,
		models.RoleResident:   `<span class="badge">RESIDENTE</span>`,
		models.RoleSupplier:   `<span class="badge">PROVEEDOR</span>`,
	}

	if badge, exists := badges[role]; exists {
		return template.HTML(badge)
	}
	return ""
}

// NavButton renders a link button when condition holds
func NavButton(text, url, buttonType string, condition bool) template.HTML {
	if !condition {
		return ""
	}

	class := "btn"
	if buttonType != "" {
		class += " btn-" + buttonType
	}

	return template.HTML(fmt.Sprintf(
		`<a href="%s" class="%s">%s</a>`,
		template.HTMLEscapeString(url), class, template.HTMLEscapeString(text),
	))
}

// ConditionalClass appends conditionalClass when condition holds
func ConditionalClass(baseClass, conditionalClass string, condition bool) string {
	if condition {
		return baseClass + " " + conditionalClass
	}
	return baseClass
}

// CreateTemplateFuncMap returns the helpers available to every page
func CreateTemplateFuncMap() template.FuncMap {
	return template.FuncMap{
		"roleBadge":        RoleBadge,
		"navButton":        NavButton,
		"conditionalClass": ConditionalClass,
	}
}
