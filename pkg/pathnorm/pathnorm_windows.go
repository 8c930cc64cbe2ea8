//go:build windows

package pathnorm

import "strings"

// toCanonical implements the Windows rules: lowercase, forward slashes,
// drive letters retained as "c:/...", UNC paths become
// "//server/share/...", and the extended-length "\\?\" prefix is stripped.
func toCanonical(native string) (string, error) {
	p := unifySeparators(native)

	// Extended-length prefix: "\\?\C:\foo" unified to "//?/C:/foo".
	if strings.HasPrefix(p, "//?/") {
		p = p[len("//?/"):]
		// A stripped UNC extended prefix looks like "//?/UNC/server/share/...".
		if strings.HasPrefix(p, "UNC/") || strings.HasPrefix(p, "unc/") {
			p = "//" + p[len("UNC/"):]
		}
	}

	// collapseSlashes keeps exactly "//" in front of a UNC path.
	p = collapseSlashes(p)

	return strings.ToLower(p), nil
}
