package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/certificates-processor/constants"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// maxCollisions is the highest N tried for _dup{N}.
var maxCollisions = 10000

// Vault is the quarantine directory of one folder. The directory is created on first use and
// files moved in never overwrite an existing entry.
type Vault struct {
	dir    string
	logger *slog.Logger
}

func New(folder string, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{dir: filepath.Join(folder, constants.VaultDirName), logger: logger}
}

// Path is the vault directory, whether or not it exists yet.
func (v *Vault) Path() string {
	return v.dir
}

// Ensure creates the vault directory if needed and returns its path.
func (v *Vault) Ensure() (string, error) {
	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return "", common.FileSystemError("create duplicates directory", err)
	}
	return v.dir, nil
}

// MoveIn moves src into the vault keeping its base name.
func (v *Vault) MoveIn(src, reason string) (string, error) {
	return v.MoveInAs(src, filepath.Base(src), reason)
}

// MoveInAs moves src into the vault under name, appending _dup{N} before the extension when
// name is taken. It returns the final file name inside the vault.
func (v *Vault) MoveInAs(src, name, reason string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.FileSystemError(fmt.Sprintf("source %s no longer exists", filepath.Base(src)), err)
		}
		return "", common.FileSystemError("stat source", err)
	}
	if _, err := v.Ensure(); err != nil {
		return "", err
	}

	final, err := v.freeName(name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(v.dir, final)
	if err := os.Rename(src, dst); err != nil {
		v.logger.Error("vault.move.failed", "src", src, "dst", dst, "error", err)
		return "", common.FileSystemError("move into duplicates", err)
	}
	v.logger.Info("vault.move.ok", "src", filepath.Base(src), "final", final, "reason", reason)
	return final, nil
}

func (v *Vault) freeName(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n <= maxCollisions; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s%s%d%s", stem, constants.DuplicateSuffix, n, ext)
		}
		_, err := os.Lstat(filepath.Join(v.dir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", common.FileSystemError("inspect duplicates directory", err)
		}
	}
	return "", common.FileSystemError(fmt.Sprintf("no free name for %s", name), nil)
}
