package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/neurohub/internal/app/store/sessions"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, map[string]string{key: value})
}

// WithChiURLParams adds several chi URL parameters at once.
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// SignIn opens a server-side session for user and returns user with its
// SessionID set.
func (f *Fixtures) SignIn(ctx context.Context, user TestUser) TestUser {
	f.t.Helper()
	sess, err := sessions.New(f.db).Create(ctx, sessions.NewSession{
		UserID:   user.ID,
		Username: user.LoginID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		Token:    user.Token,
		IP:       "127.0.0.1",
	})
	if err != nil {
		f.t.Fatalf("create session: %v", err)
	}
	user.SessionID = sess.ID.Hex()
	return user
}

// Record builds a backend record payload as the REST API would send it.
func Record(title, status string, featured bool) map[string]any {
	return map[string]any{
		"title":           title,
		"description":     "About " + title,
		"category":        "Epilepsy Basics",
		"status":          status,
		"language":        "en",
		"is_featured":     featured,
		"tags":            []any{},
		"keywords":        []any{},
		"target_audience": []any{"Caregivers"},
		"authors":         []any{"Dr. Okafor"},
		"download_count":  0,
		"view_count":      0,
		"created_at":      "2026-01-01T00:00:00Z",
		"updated_at":      "2026-01-01T00:00:00Z",
	}
}

// SeedMany stores n published records titled "<prefix> 1".."<prefix> n".
func SeedMany(api *FakeAPI, kind, prefix string, n int) {
	for i := 1; i <= n; i++ {
		api.Seed(kind, Record(fmt.Sprintf("%s %d", prefix, i), "Published", false))
	}
}
