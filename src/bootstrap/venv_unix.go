//go:build !windows

package bootstrap

import "path/filepath"

// -----------------------------------------------------------------------------

// VenvPython returns the interpreter path inside the virtualenv
func VenvPython(venvDir string) string {
	return filepath.Join(venvDir, "bin", "python")
}

// -----------------------------------------------------------------------------

// VenvPip returns the pip path inside the virtualenv
func VenvPip(venvDir string) string {
	return filepath.Join(venvDir, "bin", "pip")
}
