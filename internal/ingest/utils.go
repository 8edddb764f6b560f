package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/certificates-processor/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// IsVault reports whether path is a duplicate vault directory.
func IsVault(path string) bool {
	return filepath.Base(path) == constants.VaultDirName
}

// Allowed reports whether a file may enter the state machine on extension alone.
func Allowed(path string) bool {
	return !constants.IsForbiddenExt(filepath.Ext(path))
}
