package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindTransport: the request never produced a response (DNS, refused,
	// timeout, canceled context).
	KindTransport ErrorKind = iota
	// KindStatus: the backend answered with a non-2xx status.
	KindStatus
	// KindDecode: the body could not be parsed as the expected JSON.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var (
	// ErrNotFound matches any *Error carrying a 404.
	ErrNotFound = errors.New("apiclient: not found")
	// ErrUnauthorized matches any *Error carrying a 401 or 403.
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	// ErrUnsupported is returned for metadata or analytics calls on a kind
	// whose backend does not expose that endpoint.
	ErrUnsupported = errors.New("apiclient: endpoint not available for this kind")
)

// Error is returned by every Client and Resource method that fails.
type Error struct {
	Kind    ErrorKind
	Op      string // "GET http://.../api/ebooklets/"
	Status  int    // set for KindStatus
	Message string // best-effort, user-presentable
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus:
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers test with errors.Is(err, apiclient.ErrNotFound).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindStatus && e.Status == 404
	case ErrUnauthorized:
		return e.Kind == KindStatus && (e.Status == 401 || e.Status == 403)
	}
	return false
}

// Message returns the user-presentable message for err. Non-API errors get a
// generic sentence so internal details never reach a page.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindStatus:
			return apiErr.Message
		case KindDecode:
			return "The server returned an unexpected response."
		default:
			return "The server could not be reached. Please try again."
		}
	}
	return "Something went wrong. Please try again."
}

func statusError(op string, status int, body []byte) *Error {
	return &Error{
		Kind:    KindStatus,
		Op:      op,
		Status:  status,
		Message: messageFromBody(status, body),
	}
}

// messageFromBody extracts {error} or {message} (or DRF's {detail} and
// field-error maps) from an error body, falling back to the generic
// "HTTP error! status: <code>" string.
func messageFromBody(status int, body []byte) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", status)

	var obj map[string]any
	if len(body) == 0 || json.Unmarshal(body, &obj) != nil {
		return fallback
	}

	for _, key := range []string{"error", "message", "detail"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	// {"title": ["This field is required."], "file": ["..."]}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		var msgs []string
		switch v := obj[k].(type) {
		case string:
			msgs = append(msgs, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					msgs = append(msgs, s)
				}
			}
		}
		if len(msgs) > 0 {
			parts = append(parts, k+": "+strings.Join(msgs, " "))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return fallback
}
