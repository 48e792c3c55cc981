// Package apiclient talks to the association's catalog REST backend.
//
// A Client is bound to one base URL and, optionally, one bearer token.
// Handlers derive an authenticated client from the session with WithToken
// and pass it explicitly; nothing reads credentials from ambient state.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/neurohub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds every request when Options.Timeout is zero.
	DefaultTimeout = 30 * time.Second
	// DefaultLoginPath is the token endpoint, relative to /api/.
	DefaultLoginPath = "auth/login/"

	maxBodyBytes = 16 << 20
)

// Options configures New.
type Options struct {
	HTTPClient *http.Client // nil means a fresh client with Timeout
	Timeout    time.Duration
	LoginPath  string
	Logger     *zap.Logger
}

// Client issues requests against one backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	token     string
	loginPath string
	log       *zap.Logger
}

// New builds a Client for baseURL (e.g. "https://api.example.org").
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute http(s): %q", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	loginPath := strings.Trim(opts.LoginPath, "/")
	if loginPath == "" {
		loginPath = strings.Trim(DefaultLoginPath, "/")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{base: u, http: hc, loginPath: loginPath, log: log}, nil
}

// WithToken returns a copy of c that sends "Authorization: Bearer <token>".
// An empty token yields an anonymous client.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

// Authenticated reports whether c carries a bearer token.
func (c *Client) Authenticated() bool { return c.token != "" }

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// Resource returns the per-kind operations for k.
func (c *Client) Resource(k models.Kind) *Resource {
	return &Resource{c: c, kind: k}
}

// Identity is what the token endpoint tells us about the signed-in user.
type Identity struct {
	Token  string
	UserID string
	Name   string
	Email  string
	Role   string
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (Identity, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return Identity{}, fmt.Errorf("encode login: %w", err)
	}

	var body map[string]any
	if err := c.do(ctx, http.MethodPost, c.endpoint(strings.Split(c.loginPath, "/")...), nil,
		bytes.NewReader(payload), "application/json", &body); err != nil {
		return Identity{}, err
	}

	id := Identity{Token: str(body, "token", "access", "access_token", "key")}
	if id.Token == "" {
		return Identity{}, &Error{Kind: KindDecode, Op: "POST " + c.loginPath, Message: "token missing from login response"}
	}

	user, _ := body["user"].(map[string]any)
	if user == nil {
		user = body
	}
	id.UserID = str(user, "id", "pk")
	id.Email = str(user, "email")
	id.Name = strings.TrimSpace(str(user, "first_name") + " " + str(user, "last_name"))
	if id.Name == "" {
		id.Name = str(user, "name", "full_name", "username")
	}
	if id.Name == "" {
		id.Name = username
	}
	id.Role = roleOf(user)
	return id, nil
}

// roleOf maps the backend's user flags to this app's roles. A response that
// grants nothing maps to "member".
func roleOf(user map[string]any) string {
	if boolean(user, "is_staff") || boolean(user, "is_superuser") {
		return "admin"
	}
	if strings.EqualFold(str(user, "role"), "admin") {
		return "admin"
	}
	if r := strings.ToLower(str(user, "role")); r != "" {
		return r
	}
	return "member"
}

// Ping checks that the backend answers. Any status below 500 counts as up.
func (c *Client) Ping(ctx context.Context) error {
	u := c.endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &Error{Kind: KindTransport, Op: "GET " + u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: "GET " + u, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode >= 500 {
		return &Error{Kind: KindStatus, Op: "GET " + u, Status: resp.StatusCode,
			Message: fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)}
	}
	return nil
}

// endpoint builds base/api/<segments...>/ with each segment path-escaped.
func (c *Client) endpoint(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.base.String())
	b.WriteString("/api/")
	for _, s := range segments {
		if s == "" {
			continue
		}
		b.WriteString(url.PathEscape(s))
		b.WriteByte('/')
	}
	return b.String()
}

// absolute resolves a backend-relative media path ("/media/x.pdf") against
// the base URL. Absolute URLs and "" pass through.
func (c *Client) absolute(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

// do sends one request. out, when non-nil, receives the decoded JSON body
// (numbers as json.Number). Failures are always *Error.
func (c *Client) do(ctx context.Context, method, endpoint string, q url.Values, body io.Reader, contentType string, out any) error {
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	op := method + " " + endpoint

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", zap.String("op", op), zap.Error(err))
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}

	c.log.Debug("api request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Message: "malformed response body", Err: err}
	}
	return nil
}
