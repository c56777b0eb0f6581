package roleseer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highlight-eng/roleseer/source"
)

// countingSource is an in-memory Source that records how many fetches
// happened, so staleness tests do not depend on filesystem timing.
type countingSource struct {
	path    string
	data    []byte
	err     error
	fetches int
}

func (c *countingSource) Fetch(ctx context.Context) ([]byte, error) {
	c.fetches++
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

func (c *countingSource) Path() string { return c.path }
func (c *countingSource) Name() string { return "test" }

type fakeScheduler struct {
	fn    func()
	every time.Duration
}

func (f *fakeScheduler) Schedule(fn func(), every time.Duration) {
	f.fn = fn
	f.every = every
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func newFileMap(t *testing.T, path string, opts ...Option) *LiveMap {
	t.Helper()
	src, err := source.NewFileSource(path)
	require.NoError(t, err)
	return NewLiveMap(src, opts...)
}

func TestLiveMapReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	writeFile(t, path, "master:\n  master.hl:\n    ip: 10.0.0.1\n")
	m := newFileMap(t, path)

	require.ErrorIs(t, m.Set("master", "x"), ErrReadOnly)
	require.ErrorIs(t, m.SetDefault("master", "x"), ErrReadOnly)
	require.ErrorIs(t, m.Delete("master"), ErrReadOnly)

	// The failed mutations must not have touched the snapshot.
	v, err := m.Lookup(context.Background(), "master")
	require.NoError(t, err)
	assert.Contains(t, v, "master.hl")
}

func TestLiveMapMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	m := newFileMap(t, path)

	assert.Equal(t, 0, m.Len())
	_, err := m.Lookup(context.Background(), "master")
	require.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, "fallback", m.Get(context.Background(), "master", "fallback"))
}

func TestLiveMapMalformedKeepsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	writeFile(t, path, "master:\n  master.hl:\n    ip: 10.0.0.1\n")
	m := newFileMap(t, path)
	before := m.Snapshot()
	require.Len(t, before, 1)

	writeFile(t, path, "master: [unclosed\n")
	m.Reload(context.Background())

	assert.Equal(t, before, m.Snapshot())
}

func TestLiveMapFormatDispatch(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "roles.json")
	writeFile(t, jsonPath, `{"master": {"a": {"ip": "1.1.1.1"}}}`)
	m := newFileMap(t, jsonPath)
	v, err := m.Lookup(context.Background(), "master")
	require.NoError(t, err)
	assert.Contains(t, v, "a")

	yamlPath := filepath.Join(dir, "roles.yaml")
	writeFile(t, yamlPath, "worker:\n  w1:\n    ip: 2.2.2.2\n")
	m = newFileMap(t, yamlPath)
	v, err = m.Lookup(context.Background(), "worker")
	require.NoError(t, err)
	assert.Contains(t, v, "w1")

	// Valid YAML behind an unsupported suffix is still a format error and
	// must leave the map empty.
	txtPath := filepath.Join(dir, "roles.txt")
	writeFile(t, txtPath, "worker:\n  w1:\n    ip: 2.2.2.2\n")
	m = newFileMap(t, txtPath)
	assert.Equal(t, 0, m.Len())
	m.Reload(context.Background())
	assert.Equal(t, 0, m.Len())
}

func TestLiveMapStalenessBound(t *testing.T) {
	cs := &countingSource{path: "roles.yaml", data: []byte("v: 1\n")}
	m := NewLiveMap(cs, WithReloadInterval(200*time.Millisecond))
	require.Equal(t, 1, cs.fetches)

	cs.data = []byte("v: 2\n")

	// Fresh snapshot, no reload on read.
	v, err := m.Lookup(context.Background(), "v")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, cs.fetches)

	time.Sleep(250 * time.Millisecond)

	// Stale snapshot, exactly one reload before the read.
	v, err = m.Lookup(context.Background(), "v")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, cs.fetches)

	// Fresh again.
	_, err = m.Lookup(context.Background(), "v")
	require.NoError(t, err)
	assert.Equal(t, 2, cs.fetches)
}

func TestLiveMapStalenessStampedOnFailure(t *testing.T) {
	cs := &countingSource{
		path: "roles.yaml",
		err:  fmt.Errorf("roles.yaml: %w", fs.ErrNotExist),
	}
	m := NewLiveMap(cs, WithReloadInterval(time.Hour))
	require.Equal(t, 1, cs.fetches)

	// The failed construction-time attempt still counts for staleness, so
	// reads within the interval must not retry.
	_, err := m.Lookup(context.Background(), "v")
	require.ErrorIs(t, err, ErrKeyNotFound)
	_ = m.Get(context.Background(), "v", nil)
	assert.Equal(t, 1, cs.fetches)
}

func TestLiveMapBulkAccessorsSkipStaleness(t *testing.T) {
	cs := &countingSource{path: "roles.yaml", data: []byte("v: 1\n")}
	m := NewLiveMap(cs, WithReloadInterval(10*time.Millisecond))

	cs.data = []byte("v: 2\nw: 3\n")
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, []string{"v"}, m.Keys())
	assert.Equal(t, map[string]interface{}{"v": 1}, m.Snapshot())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, cs.fetches)

	// Key-by-key access does reload.
	v, err := m.Lookup(context.Background(), "w")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, m.Len())
}

func TestLiveMapSchedulerMode(t *testing.T) {
	cs := &countingSource{path: "roles.yaml", data: []byte("v: 1\n")}
	sched := &fakeScheduler{}
	m := NewLiveMap(cs, WithReloadInterval(10*time.Millisecond), WithScheduler(sched))

	require.NotNil(t, sched.fn)
	assert.Equal(t, 10*time.Millisecond, sched.every)
	require.Equal(t, 1, cs.fetches)

	cs.data = []byte("v: 2\n")
	time.Sleep(30 * time.Millisecond)

	// Well past the interval, but reads never reload in scheduler mode.
	v, err := m.Lookup(context.Background(), "v")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, cs.fetches)

	// Only the scheduler's callback refreshes the snapshot.
	sched.fn()
	v, err = m.Lookup(context.Background(), "v")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestLiveMapGetFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	writeFile(t, path, "master:\n  master.hl:\n    ip: 10.0.0.1\n")
	m := newFileMap(t, path)

	assert.NotNil(t, m.Get(context.Background(), "master", nil))
	assert.Nil(t, m.Get(context.Background(), "absent", nil))
	assert.Equal(t, 42, m.Get(context.Background(), "absent", 42))
}
