// Package pathnorm implements the canonical-path normalizer: a pure,
// idempotent function that turns a native filesystem path into the
// forward-slash-separated string (lowercased on Windows, case-preserving on
// POSIX) used as the unique key in
// every mediacat index. It is invoked at the boundary of every
// pkg/mediacat.DB method that accepts a native path, before the path
// reaches any collaborator that compares or stores it.
//
// The platform-specific pieces (drive letters, UNC shares, the
// extended-length \\?\ prefix) live behind a build tag so the POSIX build
// carries none of the Windows-only string handling.
package pathnorm

import "strings"

// ToCanonical normalizes a native path into mediacat's canonical form.
// Mixed separators are unified to "/"; the platform-specific ToCanonical
// implementation additionally lowercases Windows non-UNC paths and strips
// the \\?\ extended-length prefix.
func ToCanonical(native string) (string, error) {
	return toCanonical(native)
}

// unifySeparators replaces backslashes with forward slashes, shared by both
// platform implementations.
func unifySeparators(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// collapseSlashes collapses duplicate "/" runs introduced by separator
// unification, while preserving a single leading "/" for POSIX absolute
// paths and exactly "//" for a UNC share marker.
func collapseSlashes(p string) string {
	unc := strings.HasPrefix(p, "//")
	leadingSlash := !unc && strings.HasPrefix(p, "/")

	parts := strings.Split(p, "/")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		kept = append(kept, part)
	}
	joined := strings.Join(kept, "/")

	switch {
	case unc:
		return "//" + joined
	case leadingSlash:
		return "/" + joined
	default:
		return joined
	}
}
