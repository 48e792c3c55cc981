package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeAPI is an in-memory stand-in for the catalog REST backend. It speaks
// the same URL contract (/api/<kind>/, /api/<kind>/<id>/<action>/) and
// records every call so tests can assert what was (and was not) fetched.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	records  map[string][]map[string]any
	nextID   int
	calls    map[string]int
	failures map[string]failure
	token    string
	lastAuth string
	lastForm map[string]map[string][]string
	lastFile map[string]map[string]string
	users    map[string]string
}

type failure struct {
	status int
	body   string
}

// NewFakeAPI starts a fake backend that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		records:  map[string][]map[string]any{},
		calls:    map[string]int{},
		failures: map[string]failure{},
		lastForm: map[string]map[string][]string{},
		lastFile: map[string]map[string]string{},
		users:    map[string]string{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to hand to apiclient.New.
func (f *FakeAPI) URL() string { return f.Server.URL }

// RequireToken makes every /api/<kind>/ request without the bearer token
// fail with 401.
func (f *FakeAPI) RequireToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// AddUser registers credentials for POST /api/auth/login/.
func (f *FakeAPI) AddUser(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
}

// Seed stores records for kind. Records without an "id" get the next
// number, starting at 1 and shared by every kind.
func (f *FakeAPI) Seed(kind string, recs ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range recs {
		if _, ok := r["id"]; !ok {
			f.nextID++
			r["id"] = f.nextID
		}
		f.records[kind] = append(f.records[kind], r)
	}
}

// Records returns a snapshot of kind's records.
func (f *FakeAPI) Records(kind string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, len(f.records[kind]))
	copy(out, f.records[kind])
	return out
}

// Fail makes "<METHOD> <path>" answer with status and body until cleared
// with status 0.
func (f *FakeAPI) Fail(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(f.failures, key)
		return
	}
	f.failures[key] = failure{status: status, body: body}
}

// Calls reports how many times "<METHOD> <path>" was requested.
func (f *FakeAPI) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

// LastAuthorization is the Authorization header of the latest request.
func (f *FakeAPI) LastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

// LastForm returns the multipart fields of the latest create/update on kind.
func (f *FakeAPI) LastForm(kind string) map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm[kind]
}

// LastFiles returns field name -> file name of the latest create/update on kind.
func (f *FakeAPI) LastFiles(kind string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFile[kind]
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.calls[key]++
	f.lastAuth = r.Header.Get("Authorization")

	if fl, ok := f.failures[key]; ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fl.status)
		_, _ = w.Write([]byte(fl.body))
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || parts[0] != "api" {
		http.NotFound(w, r)
		return
	}
	parts = parts[1:]

	switch {
	case len(parts) == 0:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	case len(parts) == 2 && parts[0] == "auth" && parts[1] == "login":
		f.login(w, r)
		return
	}

	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
		return
	}

	kind := parts[0]
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		f.list(w, r, kind)
	case len(parts) == 1 && r.Method == http.MethodPost:
		f.create(w, r, kind)
	case len(parts) == 2 && parts[1] == "analytics":
		f.analytics(w, kind)
	case len(parts) == 2 && (parts[1] == "categories" || parts[1] == "target_audiences" || parts[1] == "authors"):
		f.distinct(w, kind, parts[1])
	case len(parts) == 2:
		f.item(w, r, kind, parts[1])
	case len(parts) == 3:
		f.action(w, r, kind, parts[1], parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}
	pw, ok := f.users[in.Username]
	if !ok || pw != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
		return
	}
	token := f.token
	if token == "" {
		token = "token-" + in.Username
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id": 1, "username": in.Username, "email": in.Username + "@example.org",
			"first_name": "Test", "last_name": "Admin", "is_staff": true,
		},
	})
}

func (f *FakeAPI) find(kind, id string) (int, map[string]any) {
	for i, rec := range f.records[kind] {
		if fmt.Sprint(rec["id"]) == id {
			return i, rec
		}
	}
	return -1, nil
}

func (f *FakeAPI) list(w http.ResponseWriter, r *http.Request, kind string) {
	q := r.URL.Query()
	out := []map[string]any{}
	for _, rec := range f.records[kind] {
		if s := q.Get("status"); s != "" && !strings.EqualFold(fmt.Sprint(rec["status"]), s) {
			continue
		}
		if c := q.Get("category"); c != "" && fmt.Sprint(rec["category"]) != c {
			continue
		}
		if ft := q.Get("featured"); ft != "" {
			want, _ := strconv.ParseBool(ft)
			got, _ := rec["is_featured"].(bool)
			if want != got {
				continue
			}
		}
		if s := strings.ToLower(q.Get("search")); s != "" &&
			!strings.Contains(strings.ToLower(fmt.Sprint(rec["title"])), s) &&
			!strings.Contains(strings.ToLower(fmt.Sprint(rec["description"])), s) {
			continue
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) create(w http.ResponseWriter, r *http.Request, kind string) {
	rec, ok := f.readForm(w, r, kind)
	if !ok {
		return
	}
	if strings.TrimSpace(fmt.Sprint(rec["title"])) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": []string{"This field is required."}})
		return
	}
	f.nextID++
	rec["id"] = f.nextID
	rec["download_count"] = 0
	rec["view_count"] = 0
	rec["created_at"] = "2026-01-01T00:00:00Z"
	rec["updated_at"] = "2026-01-01T00:00:00Z"
	f.records[kind] = append(f.records[kind], rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (f *FakeAPI) readForm(w http.ResponseWriter, r *http.Request, kind string) (map[string]any, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "expected multipart/form-data"})
		return nil, false
	}
	f.lastForm[kind] = r.MultipartForm.Value
	files := map[string]string{}
	rec := map[string]any{}
	for k, vs := range r.MultipartForm.Value {
		if len(vs) == 0 {
			continue
		}
		v := vs[0]
		switch k {
		case "tags", "keywords", "target_audience", "authors":
			var arr []any
			if err := json.Unmarshal([]byte(v), &arr); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{k: []string{"Value must be valid JSON."}})
				return nil, false
			}
			rec[k] = arr
		case "is_featured":
			b, _ := strconv.ParseBool(v)
			rec[k] = b
		default:
			rec[k] = v
		}
	}
	for k, fhs := range r.MultipartForm.File {
		if len(fhs) > 0 {
			files[k] = fhs[0].Filename
			rec[k] = "/media/" + kind + "/" + fhs[0].Filename
		}
	}
	f.lastFile[kind] = files
	return rec, true
}

func (f *FakeAPI) item(w http.ResponseWriter, r *http.Request, kind, id string) {
	i, rec := f.find(kind, id)
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPatch:
		patch, ok := f.readForm(w, r, kind)
		if !ok {
			return
		}
		for k, v := range patch {
			rec[k] = v
		}
		rec["updated_at"] = "2026-02-01T00:00:00Z"
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		f.records[kind] = append(f.records[kind][:i], f.records[kind][i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeAPI) action(w http.ResponseWriter, r *http.Request, kind, id, action string) {
	_, rec := f.find(kind, id)
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	switch action {
	case "toggle_featured":
		cur, _ := rec["is_featured"].(bool)
		rec["is_featured"] = !cur
		writeJSON(w, http.StatusOK, map[string]any{"id": rec["id"], "is_featured": !cur})
	case "update_status":
		var in struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Status == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "status is required"})
			return
		}
		rec["status"] = in.Status
		writeJSON(w, http.StatusOK, map[string]any{"id": rec["id"], "status": in.Status})
	case "increment_download":
		rec["download_count"] = toInt(rec["download_count"]) + 1
		writeJSON(w, http.StatusOK, map[string]any{"download_count": rec["download_count"]})
	case "increment_view":
		rec["view_count"] = toInt(rec["view_count"]) + 1
		writeJSON(w, http.StatusOK, map[string]any{"view_count": rec["view_count"]})
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeAPI) analytics(w http.ResponseWriter, kind string) {
	var total, published, drafts, archived, featured, downloads, views int
	byCat := map[string]int{}
	for _, rec := range f.records[kind] {
		total++
		switch strings.ToLower(fmt.Sprint(rec["status"])) {
		case "published":
			published++
		case "draft":
			drafts++
		case "archived":
			archived++
		}
		if b, _ := rec["is_featured"].(bool); b {
			featured++
		}
		downloads += toInt(rec["download_count"])
		views += toInt(rec["view_count"])
		if c, ok := rec["category"].(string); ok && c != "" {
			byCat[c]++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": total, "published": published, "drafts": drafts, "archived": archived,
		"featured": featured, "total_downloads": downloads, "total_views": views,
		"by_category": byCat, "top_downloaded": []any{},
	})
}

func (f *FakeAPI) distinct(w http.ResponseWriter, kind, field string) {
	src := map[string]string{"categories": "category", "target_audiences": "target_audience", "authors": "authors"}[field]
	seen := map[string]bool{}
	for _, rec := range f.records[kind] {
		switch v := rec[src].(type) {
		case string:
			if v != "" {
				seen[v] = true
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					seen[s] = true
				}
			}
		case []string:
			for _, s := range v {
				if s != "" {
					seen[s] = true
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	writeJSON(w, http.StatusOK, out)
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case json.Number:
		n, _ := t.Int64()
		return int(n)
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
