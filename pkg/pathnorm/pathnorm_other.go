//go:build !windows

package pathnorm

// toCanonical implements the POSIX rules: case-preserving, forward-slash
// separated. Symbolic link resolution is the filesystem collaborator's
// job, performed before this function ever sees the path.
func toCanonical(native string) (string, error) {
	p := unifySeparators(native)
	return collapseSlashes(p), nil
}
