// Package gate decides whether a visitor may see a protected page.
//
// Every role check in the portal goes through IsAuthorized so the admin area,
// the payment-validation redirect and the login landing agree on who counts
// as an administrator.
package gate

import (
	"condoPortal/internal/models"
	"condoPortal/internal/session"
)

// Redirect targets
const (
	UnauthorizedPath  = "/unauthorized"
	LoginPath         = "/login"
	HomePath          = "/"
	AdminPaymentsPath = "/admin/payments"
)

// IsAuthorized reports whether user holds one of the required roles
func IsAuthorized(user *models.User, required ...models.Role) bool {
	if user == nil {
		return false
	}
	for _, role := range required {
		if user.Role == role {
			return true
		}
	}
	return false
}

// Action is what the caller should do with the protected content
type Action int

const (
	ActionPlaceholder Action = iota
	ActionRender
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	default:
		return "placeholder"
	}
}

// Decision is the outcome of evaluating a snapshot
type Decision struct {
	Action Action
	Target string
}

// Gate admits sessions whose user holds one of Roles
type Gate struct {
	Roles    []models.Role
	Redirect string
}

// Admin is the gate in front of the admin area
func Admin() Gate {
	return Gate{Roles: models.AdminRoles, Redirect: UnauthorizedPath}
}

// Decide never redirects while the snapshot is still loading
func (g Gate) Decide(snap session.Snapshot) Decision {
	if snap.Loading {
		return Decision{Action: ActionPlaceholder}
	}

	if snap.Token == "" || !IsAuthorized(snap.User, g.Roles...) {
		target := g.Redirect
		if target == "" {
			target = UnauthorizedPath
		}
		return Decision{Action: ActionRedirect, Target: target}
	}

	return Decision{Action: ActionRender}
}

// PaymentValidationTarget picks where the payment-validation page sends the
// visitor. Only the user record is consulted, not the token.
func PaymentValidationTarget(user *models.User) string {
	switch {
	case user == nil:
		return LoginPath
	case IsAuthorized(user, models.AdminRoles...):
		return AdminPaymentsPath
	default:
		return HomePath
	}
}

// LandingPath is where a freshly logged-in user is sent
func LandingPath(user *models.User) string {
	if IsAuthorized(user, models.AdminRoles...) {
		return AdminPaymentsPath
	}
	return HomePath
}
