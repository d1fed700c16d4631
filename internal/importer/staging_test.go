package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore records calls and can be made to fail.
type fakeObjectStore struct {
	objects map[string][]byte

	listErr   error
	deleteErr error
	putErr    error

	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var keys []string
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, keys []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, key := range keys {
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func TestStagingPrepareRemovesPriorArtifacts(t *testing.T) {
	remote := newFakeObjectStore()
	remote.objects["T1/widgets.csv"] = []byte("stale")
	m := &StagingManager{Root: t.TempDir(), Remote: remote}

	// Leftovers from a crashed previous job.
	dir := m.Dir("T1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.csv"), []byte("stale"), 0o644))

	require.NoError(t, m.Prepare(context.Background(), "T1"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging dir should contain only the new job's files")
	assert.Empty(t, remote.objects, "remote prefix should be purged")
}

func TestStagingPrepareDoesNotTouchOtherTenants(t *testing.T) {
	remote := newFakeObjectStore()
	remote.objects["T2/widgets.csv"] = []byte("other tenant")
	m := &StagingManager{Root: t.TempDir(), Remote: remote}

	require.NoError(t, m.Prepare(context.Background(), "T1"))

	assert.Contains(t, remote.objects, "T2/widgets.csv")
}

func TestStagingCleanupToleratesRemoteFailures(t *testing.T) {
	remote := newFakeObjectStore()
	remote.listErr = errors.New("remote down")
	m := &StagingManager{Root: t.TempDir(), Remote: remote}

	// Cleanup failures are logged, never escalated.
	require.NoError(t, m.Prepare(context.Background(), "T1"))
	_, err := os.Stat(m.Dir("T1"))
	assert.NoError(t, err)
}

func TestStagingTeardownRemovesDir(t *testing.T) {
	m := &StagingManager{Root: t.TempDir(), Remote: newFakeObjectStore()}
	require.NoError(t, m.Prepare(context.Background(), "T1"))

	m.Teardown("T1")

	_, err := os.Stat(m.Dir("T1"))
	assert.True(t, os.IsNotExist(err))
}

func TestStagingMirrorUploadsFile(t *testing.T) {
	remote := newFakeObjectStore()
	m := &StagingManager{Root: t.TempDir(), Remote: remote}
	require.NoError(t, m.Prepare(context.Background(), "T1"))

	path := filepath.Join(m.Dir("T1"), "widgets.rdf")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	m.Mirror(context.Background(), "T1", path)

	assert.Equal(t, []byte("payload"), remote.objects["T1/widgets.rdf"])
}
