package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize caps uploaded files at 10 MiB.
const MaxUploadSize = 10 << 20

// storedName builds a collision-resistant name for an uploaded file: a
// unix-nano timestamp, a random suffix, and the sanitized original name.
func storedName(originalName string) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), suffix, sanitizeFileName(originalName))
}

// sanitizeFileName strips path components and replaces characters outside
// [A-Za-z0-9._-] so the name is safe on disk and in URLs.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	s := b.String()
	if s == "" || s == "." || s == ".." {
		return "file"
	}
	return s
}
