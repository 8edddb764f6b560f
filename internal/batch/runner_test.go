package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

func TestRunner_AggregatesFolders(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "ana")
	require.NoError(t, os.Mkdir(sub, 0o755))
	write(t, root, "r.pdf", "r")
	write(t, sub, "s.pdf", "s")
	write(t, sub, "t.pdf", "t")

	inf := &fakeInference{records: map[string]certificate.Record{
		"r.pdf": cert("1", "2020-01-01"),
		"s.pdf": cert("2", "2020-01-01"),
		"t.pdf": cert("2", "2020-01-01"),
	}}
	r := NewRunner(NewProcessor(&fakeExtractor{}, inf, &memorySink{}, nil), true, nil)

	sum, err := r.Run(context.Background(), root)
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Folders)
	assert.Equal(t, 3, sum.Totals.TotalFiles)
	assert.Equal(t, 2, sum.Totals.Processed)
	assert.Equal(t, 1, sum.Totals.Duplicates)
}

func TestRunner_MissingRoot(t *testing.T) {
	r := NewRunner(NewProcessor(&fakeExtractor{}, &fakeInference{}, &memorySink{}, nil), true, nil)
	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, common.ErrRootNotFound)
}
