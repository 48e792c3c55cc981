package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/neurohub/internal/app/system/auth"
)

// TestUser is the identity a handler test signs in as.
type TestUser struct {
	ID        string
	Name      string
	LoginID   string
	Email     string
	Role      string
	Token     string
	SessionID string
}

// AdminUser returns a TestUser with the admin role and a backend token.
func AdminUser() TestUser {
	return TestUser{
		ID:      "1",
		Name:    "Test Admin",
		LoginID: "editor",
		Email:   "editor@example.org",
		Role:    auth.RoleAdmin,
		Token:   "test-token",
	}
}

// MemberUser returns a signed-in TestUser without console access.
func MemberUser() TestUser {
	return TestUser{
		ID:      "2",
		Name:    "Test Member",
		LoginID: "member",
		Email:   "member@example.org",
		Role:    auth.RoleMember,
		Token:   "member-token",
	}
}

// WithUser puts user into r's context without going through the session
// cookie and store.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:        user.ID,
		Name:      user.Name,
		LoginID:   user.LoginID,
		Email:     user.Email,
		Role:      user.Role,
		Token:     user.Token,
		SessionID: user.SessionID,
	})
}

// NewAuthenticatedRequest is a body-less request signed in as user.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewFormRequest creates a url-encoded POST with a user in context.
func NewFormRequest(target, body string, user TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return WithUser(req, user)
}

// HTMX marks req as sent by htmx, optionally targeting an element id.
func HTMX(req *http.Request, target string) *http.Request {
	req.Header.Set("HX-Request", "true")
	if target != "" {
		req.Header.Set("HX-Target", target)
	}
	return req
}
