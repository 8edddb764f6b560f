package naming

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
	"github.com/joseph-ayodele/certificates-processor/internal/vault"
)

// Kind says where a renamed certificate ended up.
type Kind int

const (
	Renamed Kind = iota + 1
	MovedToDuplicateVault
)

func (k Kind) String() string {
	switch k {
	case Renamed:
		return "renamed"
	case MovedToDuplicateVault:
		return "moved_to_duplicate_vault"
	default:
		return "unknown"
	}
}

// Outcome of Namer.Rename.
type Outcome struct {
	Kind Kind
	// Target is the computed dated name.
	Target string
	// Final is the resulting file name: Target in the original folder when Renamed, or the
	// (possibly _dup-suffixed) name inside the vault.
	Final string
}

// IsAlreadyProcessed reports whether filename carries the issue-date marker in any of its
// underscore-delimited segments.
func IsAlreadyProcessed(filename string) bool {
	for _, seg := range strings.Split(filepath.Base(filename), "_") {
		if strings.Contains(seg, constants.IssueDateMarker) {
			return true
		}
	}
	return false
}

// DateOnly keeps the part of an ISO timestamp before the "T" separator.
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

// DatedName builds {stem}[_issueddate{date}][_expirationdate{date}]{ext}. A segment already
// present in the stem is not appended again.
func DatedName(original string, issueDate, expirationDate *string) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var b strings.Builder
	b.WriteString(stem)
	appendSegment := func(marker string, date *string) {
		if date == nil || strings.TrimSpace(*date) == "" {
			return
		}
		seg := "_" + marker + DateOnly(*date)
		if strings.Contains(stem, seg) {
			return
		}
		b.WriteString(seg)
	}
	appendSegment(constants.IssueDateMarker, issueDate)
	appendSegment(constants.ExpirationDateMarker, expirationDate)
	b.WriteString(ext)
	return b.String()
}

// Namer renames identified certificates in place.
type Namer struct {
	logger *slog.Logger
}

func NewNamer(logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namer{logger: logger}
}

// Rename gives originalPath its dated name. When a file with that name already exists in the
// folder, the certificate was handled by an earlier run and the source is moved into v under the
// dated name instead. Filesystem failures are returned as FILESYSTEM_ERROR and never retried.
func (n *Namer) Rename(originalPath, identification string, issueDate, expirationDate *string, v *vault.Vault) (Outcome, error) {
	dir := filepath.Dir(originalPath)
	target := DatedName(originalPath, issueDate, expirationDate)
	out := Outcome{Target: target}

	if target == filepath.Base(originalPath) {
		out.Kind, out.Final = Renamed, target
		n.logger.Info("naming.rename.noop", "file", target, "identification", identification)
		return out, nil
	}

	targetPath := filepath.Join(dir, target)
	_, err := os.Lstat(targetPath)
	switch {
	case err == nil:
		final, mErr := v.MoveInAs(originalPath, target, fmt.Sprintf("%s already exists from a previous run", target))
		if mErr != nil {
			return out, mErr
		}
		out.Kind, out.Final = MovedToDuplicateVault, final
		n.logger.Info("naming.rename.collision", "file", filepath.Base(originalPath), "target", target, "vault_name", final, "identification", identification)
		return out, nil
	case !errors.Is(err, fs.ErrNotExist):
		return out, common.FileSystemError("inspect rename target", err)
	}

	if err := os.Rename(originalPath, targetPath); err != nil {
		n.logger.Error("naming.rename.failed", "file", filepath.Base(originalPath), "target", target, "error", err)
		return out, common.FileSystemError("rename certificate", err)
	}
	out.Kind, out.Final = Renamed, target
	n.logger.Info("naming.rename.ok", "file", filepath.Base(originalPath), "target", target, "identification", identification)
	return out, nil
}
