package validate

import (
	"path/filepath"
	"strings"
)

// splitUNC breaks \\host\share\rest (either slash direction) into parts.
func splitUNC(p string) (host, shareName, rest string, ok bool) {
	normalized := strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(normalized, "//") {
		return "", "", "", false
	}
	parts := strings.Split(strings.Trim(normalized[2:], "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], strings.Join(parts[2:], "/"), true
}

// rewriteSubdirForShare maps a subdirectory that is relative to an alternate
// share onto a path relative to the already-connected default share. The
// mismatch is resolved algebraically, never by a second absolute connection:
// climb out of share/rest to the host root, then descend into the alternate
// share.
func rewriteSubdirForShare(defaultRest, altShare, subdir string) string {
	ups := 1
	if defaultRest != "" {
		ups += len(strings.Split(strings.Trim(defaultRest, "/"), "/"))
	}
	segments := make([]string, 0, ups+2)
	for i := 0; i < ups; i++ {
		segments = append(segments, "..")
	}
	segments = append(segments, altShare)
	if subdir != "" {
		segments = append(segments, subdir)
	}
	return filepath.Join(segments...)
}
