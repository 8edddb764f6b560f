package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestListCandidates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cursos")
	for _, name := range []string{
		"b.pdf", "a.jpg", "c.docx", "setup.exe", "page.html", "old.bak", "desktop.ini", "x.tmp",
		".hidden.pdf", "reporte_cursos.xlsx", "multi.pdf", "notes",
	} {
		touch(t, filepath.Join(dir, name))
	}
	touch(t, filepath.Join(dir, "duplicates", "d.pdf"))

	got, stats, err := ListCandidates(dir, ListOptions{
		SkipHidden: true,
		Exclude:    map[string]struct{}{"multi.pdf": {}},
	})
	require.NoError(t, err)

	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.jpg", "b.pdf", "c.docx", "notes"}, names)
	assert.Equal(t, uint32(12), stats.Scanned)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(8), stats.Excluded)
}

func TestListCandidates_MissingFolder(t *testing.T) {
	_, _, err := ListCandidates(filepath.Join(t.TempDir(), "nope"), ListOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFileSystem)
}

func TestWalkFolders(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "x.pdf"))
	touch(t, filepath.Join(root, "a", "duplicates", "x.pdf"))
	touch(t, filepath.Join(root, ".git", "HEAD"))
	touch(t, filepath.Join(root, "b", "c", "y.pdf"))

	var seen []string
	err := WalkFolders(context.Background(), root, true, func(_ context.Context, folder string) error {
		rel, err := filepath.Rel(root, folder)
		require.NoError(t, err)
		seen = append(seen, rel)
		if rel == "b" {
			// folders created while visiting a parent are walked as well
			require.NoError(t, os.MkdirAll(filepath.Join(folder, "new"), 0o755))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{".", "a", "b", filepath.Join("b", "c"), filepath.Join("b", "new")}, seen)
}

func TestWalkFolders_RootNotFound(t *testing.T) {
	err := WalkFolders(context.Background(), filepath.Join(t.TempDir(), "missing"), true, func(context.Context, string) error {
		t.Fatal("callback must not run")
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRootNotFound)
	assert.Equal(t, common.CodeRootNotFound, common.ErrorCode(err))
}

func TestWalkFolders_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "x.pdf"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WalkFolders(ctx, root, true, func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTriggers(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/r/cursos/new.pdf", true},
		{"/r/cursos/new_issueddate2020-01-01.pdf", false},
		{"/r/cursos/reporte_cursos.xlsx", false},
		{"/r/cursos/duplicates/new.pdf", false},
		{"/r/cursos/.swp", false},
		{"/r/cursos/setup.exe", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Triggers(tt.path, true))
		})
	}
}
