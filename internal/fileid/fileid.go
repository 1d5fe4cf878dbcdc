// Package fileid derives stable document IDs for PDFs picked up from watched directories.
package fileid

import (
	"path/filepath"

	"github.com/google/uuid"
)

// namespace scopes path-derived IDs so they never collide with random upload IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pdfqa:inbox"))

// FileDocID returns a stable document ID for the given absolute path.
// The same cleaned path always yields the same UUID, so rewriting a watched
// file re-indexes into the same document.
func FileDocID(absolutePath string) string {
	return uuid.NewSHA1(namespace, []byte(filepath.Clean(absolutePath))).String()
}
