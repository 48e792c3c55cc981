package wizard

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the webp decoder with image.Decode
)

// FileLimits caps accepted upload sizes.
type FileLimits struct {
	ImageMaxBytes    int64
	DocumentMaxBytes int64
}

// DefaultLimits are 5 MiB for images and 25 MiB for documents.
var DefaultLimits = FileLimits{ImageMaxBytes: 5 << 20, DocumentMaxBytes: 25 << 20}

// ThumbSize bounds the longest edge of a cover preview.
const ThumbSize = 320

var imageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

type docType struct {
	mime  string
	sniff string // required http.DetectContentType result; "" accepts any
}

var documentTypes = map[string]docType{
	".pdf":  {mime: "application/pdf", sniff: "application/pdf"},
	".epub": {mime: "application/epub+zip", sniff: "application/zip"},
	".docx": {mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", sniff: "application/zip"},
	".doc":  {mime: "application/msword"},
}

// FileError is a rejected upload. The previous selection stays in place.
type FileError struct {
	Field   string
	Message string
}

func (e *FileError) Error() string { return e.Message }

// Accepted is an upload that passed its checks.
type Accepted struct {
	Name        string
	ContentType string
	Data        []byte
	Thumb       []byte // JPEG preview; images only
}

// CheckImage reads a cover image, checks its type and size, decodes it and
// builds a preview thumbnail.
func CheckImage(name string, r io.Reader, limits FileLimits) (*Accepted, error) {
	data, err := readLimited(r, limits.ImageMaxBytes)
	if err != nil {
		return nil, fileErr(InputImage, "The image could not be read.")
	}
	if int64(len(data)) > limits.ImageMaxBytes {
		return nil, fileErr(InputImage, fmt.Sprintf("The image is larger than %s.", humanSize(limits.ImageMaxBytes)))
	}
	if len(data) == 0 {
		return nil, fileErr(InputImage, "The image file is empty.")
	}

	ctype := http.DetectContentType(data)
	exts, ok := imageTypes[ctype]
	if !ok || !hasExt(name, exts) {
		return nil, fileErr(InputImage, "Images must be JPEG, PNG, WebP or GIF files.")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fileErr(InputImage, "The image appears to be damaged.")
	}
	var thumb bytes.Buffer
	if err := imaging.Encode(&thumb, imaging.Fit(img, ThumbSize, ThumbSize, imaging.Lanczos), imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Accepted{Name: cleanName(name), ContentType: ctype, Data: data, Thumb: thumb.Bytes()}, nil
}

// CheckDocument reads a primary document and checks its extension, sniffed
// content and size.
func CheckDocument(name string, r io.Reader, limits FileLimits) (*Accepted, error) {
	dt, ok := documentTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, fileErr(InputDocument, "Documents must be PDF, EPUB, DOC or DOCX files.")
	}
	data, err := readLimited(r, limits.DocumentMaxBytes)
	if err != nil {
		return nil, fileErr(InputDocument, "The document could not be read.")
	}
	if int64(len(data)) > limits.DocumentMaxBytes {
		return nil, fileErr(InputDocument, fmt.Sprintf("The document is larger than %s.", humanSize(limits.DocumentMaxBytes)))
	}
	if len(data) == 0 {
		return nil, fileErr(InputDocument, "The document file is empty.")
	}
	if dt.sniff != "" && http.DetectContentType(data) != dt.sniff {
		return nil, fileErr(InputDocument, "The document's contents do not match its file type.")
	}
	return &Accepted{Name: cleanName(name), ContentType: dt.mime, Data: data}, nil
}

// readLimited reads at most max+1 bytes so oversize input is detectable
// without buffering all of it.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, max+1))
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "upload"
	}
	return name
}

func fileErr(field, msg string) *FileError {
	return &FileError{Field: field, Message: msg}
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%d KB", (n+1023)/1024)
}
