package storage

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T) *JobMirror {
	t.Helper()
	mirror, err := NewJobMirror(filepath.Join(t.TempDir(), "jobs.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })
	return mirror
}

func TestUpsertIsIdempotentPerRef(t *testing.T) {
	mirror := newTestMirror(t)
	refID := uuid.NewString()

	require.NoError(t, mirror.Upsert(JobEntry{
		RefID: refID, JobID: "j1", Machine: "M1", Shots: 100, Status: "queued",
	}))
	require.NoError(t, mirror.Upsert(JobEntry{
		RefID: refID, JobID: "j1", Machine: "M1", Shots: 100, Status: "completed", ResultCount: 100,
	}))

	entries, err := mirror.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "completed", entries[0].Status)
	require.Equal(t, 100, entries[0].ResultCount)
}

func TestUpsertRequiresRefID(t *testing.T) {
	mirror := newTestMirror(t)
	require.Error(t, mirror.Upsert(JobEntry{JobID: "j1"}))
}

func TestListRecentOrdering(t *testing.T) {
	mirror := newTestMirror(t)
	for _, jobID := range []string{"j1", "j2", "j3"} {
		require.NoError(t, mirror.Upsert(JobEntry{
			RefID: uuid.NewString(), JobID: jobID, Machine: "M1", Shots: 10, Status: "queued",
		}))
	}

	entries, err := mirror.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestFindByJobID(t *testing.T) {
	mirror := newTestMirror(t)
	require.NoError(t, mirror.Upsert(JobEntry{
		RefID: uuid.NewString(), JobID: "j42", Machine: "M1", Shots: 10, Status: "running",
	}))

	entry, err := mirror.FindByJobID("j42")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "M1", entry.Machine)

	missing, err := mirror.FindByJobID("nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestResolveMirrorPathEnvOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom.sqlite")
	t.Setenv(EnvMirrorPath, override)

	path, err := ResolveMirrorPath()
	require.NoError(t, err)
	require.Equal(t, override, path)
}
