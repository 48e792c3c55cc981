// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/system/auditlog"
	"github.com/dalemusser/neurohub/internal/app/system/auth"
)

// UserCtx returns the user's role (lowercased), name, backend user id, and a
// found flag. Without a signed-in user it returns "visitor", "", "", false.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user == nil {
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleAdmin
}

// Actor identifies the current user for the audit log.
func Actor(r *http.Request) auditlog.Actor {
	user, ok := auth.CurrentUser(r)
	if !ok || user == nil {
		return auditlog.Actor{}
	}
	name := user.LoginID
	if name == "" {
		name = user.Name
	}
	return auditlog.Actor{UserID: user.ID, Name: name}
}
