package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/neurohub/internal/domain/models"
)

// FileUpload is a file forwarded to the backend inside a multipart payload.
type FileUpload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// RecordInput is the create/update intent built by the wizard.
type RecordInput struct {
	Title           string
	Description     string
	Category        string
	Status          string
	Language        string
	PublicationDate string
	IsFeatured      bool

	Tags           []string
	Keywords       []string
	TargetAudience []string
	Authors        []string

	// Extra carries kind-specific scalars keyed by backend field name.
	// Keys the kind does not declare are not sent.
	Extra map[string]string

	Image    *FileUpload
	Document *FileUpload
}

func (in RecordInput) array(field string) []string {
	var v []string
	switch field {
	case models.FieldTags:
		v = in.Tags
	case models.FieldKeywords:
		v = in.Keywords
	case models.FieldTargetAudience:
		v = in.TargetAudience
	case models.FieldAuthors:
		v = in.Authors
	}
	if v == nil {
		return []string{}
	}
	return v
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeRecordInput builds the multipart body for POST/PATCH: scalar fields
// as plain strings, the kind's declared array fields JSON-encoded, and files
// under the kind's fixed keys. Empty date and numeric fields are omitted
// because the backend rejects "" for them.
func encodeRecordInput(k models.Kind, in RecordInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	write := func(key, val string) error {
		if err := mw.WriteField(key, val); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
		return nil
	}

	status := in.Status
	if status == "" {
		status = models.DefaultStatus
	}

	scalars := []struct{ key, val string }{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"status", status},
		{"language", in.Language},
		{"is_featured", strconv.FormatBool(in.IsFeatured)},
	}
	for _, s := range scalars {
		if err := write(s.key, s.val); err != nil {
			return nil, "", err
		}
	}
	if in.PublicationDate != "" {
		if err := write("publication_date", in.PublicationDate); err != nil {
			return nil, "", err
		}
	}

	extraKeys := make([]string, 0, len(in.Extra))
	for key := range in.Extra {
		extraKeys = append(extraKeys, key)
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		def, ok := k.Extra(key)
		if !ok {
			continue
		}
		val := strings.TrimSpace(in.Extra[key])
		if val == "" && (def.Numeric || def.Input == "date") {
			continue
		}
		if err := write(key, val); err != nil {
			return nil, "", err
		}
	}

	for _, field := range k.ArrayFields {
		b, err := json.Marshal(in.array(field))
		if err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", field, err)
		}
		if err := write(field, string(b)); err != nil {
			return nil, "", err
		}
	}

	if in.Image != nil && k.ImageField != "" {
		if err := writeFile(mw, k.ImageField, in.Image); err != nil {
			return nil, "", err
		}
	}
	if in.Document != nil && k.DocumentField != "" {
		if err := writeFile(mw, k.DocumentField, in.Document); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, key string, f *FileUpload) error {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(key), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", key, err)
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return fmt.Errorf("copy %s: %w", key, err)
	}
	return nil
}
