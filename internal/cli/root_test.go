package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/pool-watch/pkg/storage"
)

func TestOpenHistory_MissingFileIsNotCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "history.db")

	_, err := openHistory(path)
	require.ErrorIs(t, err, errNoHistory)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenHistory_Disabled(t *testing.T) {
	_, err := openHistory("")
	assert.Error(t, err)
}

func TestOpenHistory_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := storage.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.RecordCycle(context.Background(), &storage.Cycle{
		StartedAt: time.Now(),
		Result:    "empty",
	}))
	require.NoError(t, db.Close())

	h, err := openHistory(path)
	require.NoError(t, err)
	defer h.Close()

	cycles, err := h.ListCycles(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, cycles, 1)
}
