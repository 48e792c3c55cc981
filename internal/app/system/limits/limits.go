// internal/app/system/limits/limits.go
package limits

import "github.com/dalemusser/neurohub/internal/app/system/wizard"

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxLoginFormSize is the maximum size for login form submissions.
	MaxLoginFormSize = 16 << 10 // 16 KB

	// MaxStepFormSize is the maximum size for a wizard step without files.
	MaxStepFormSize = 1 << 20 // 1 MB

	// MultipartMemory is how much of a multipart body ParseMultipartForm
	// keeps in memory before spilling to temp files.
	MultipartMemory = 8 << 20 // 8 MB

	// multipartSlack covers boundaries, headers and the text fields.
	multipartSlack = 1 << 20
)

// MaxMediaStepSize bounds the media step body: both files at their limits
// plus room for the rest of the form.
func MaxMediaStepSize(fl wizard.FileLimits) int64 {
	return fl.ImageMaxBytes + fl.DocumentMaxBytes + multipartSlack
}
