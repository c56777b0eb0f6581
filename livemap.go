package roleseer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/highlight-eng/roleseer/metrics"
	"github.com/highlight-eng/roleseer/source"
)

// LiveMap is a read-only map that mirrors a role document on a backing store
// and re-reads it when the in-memory snapshot goes stale.
//
// The snapshot only ever holds a successfully decoded document: a failed
// reload keeps the previous snapshot, and before the first successful load
// the map is empty. Staleness is measured from the start of the last reload
// attempt, successful or not, so a persistently broken document is retried
// once per interval rather than on every read.
//
// In the default pull mode, Lookup and Get check staleness inline and the
// caller of a stale read pays for the fetch and decode. With WithScheduler,
// reloads happen at a fixed cadence on the scheduler's goroutine instead and
// the on-access check is bypassed.
//
// Bulk accessors (Keys, Snapshot, Len) never check staleness. Callers that
// need bounded staleness must use key-by-key access or run in scheduler
// mode.
type LiveMap struct {
	src         source.Source
	reloadEvery time.Duration
	scheduled   bool
	ctx         context.Context

	mu       sync.RWMutex
	lastLoad time.Time
	contents map[string]interface{}
}

// NewLiveMap creates a LiveMap over the given source and performs one
// synchronous reload before returning, so the map is as fresh as the backing
// store allows from the first read. If a scheduler was provided it is
// registered with the reload at the configured interval.
func NewLiveMap(src source.Source, opts ...Option) *LiveMap {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &LiveMap{
		src:         src,
		reloadEvery: o.reloadEvery,
		scheduled:   o.scheduler != nil,
		ctx:         o.ctx,
		contents:    make(map[string]interface{}),
	}

	m.Reload(o.ctx)

	if o.scheduler != nil {
		o.scheduler.Schedule(func() {
			m.Reload(m.ctx)
		}, m.reloadEvery)
	}

	return m
}

// Reload re-reads the document from the backing store and replaces the
// snapshot all-or-nothing. It is best-effort: a missing document is logged
// as a warning and any fetch or decode failure as an error, and in every
// failure case the previous snapshot is kept. Errors never propagate to the
// caller.
func (m *LiveMap) Reload(ctx context.Context) {
	// Stamp the attempt before doing anything else; staleness is bounded
	// by attempt time, not success time.
	m.mu.Lock()
	m.lastLoad = time.Now()
	m.mu.Unlock()

	data, err := m.src.Fetch(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.Warnf("%s not found", m.src.Path())
			metrics.MetricReloads.WithLabelValues(m.src.Name(), "missing").Inc()
			return
		}
		logrus.WithError(err).Errorf("error fetching %s", m.src.Path())
		metrics.MetricReloads.WithLabelValues(m.src.Name(), "fetch_error").Inc()
		return
	}

	contents, err := decode(m.src.Path(), data)
	if err != nil {
		logrus.WithError(err).Errorf("bad config format: %s", m.src.Path())
		metrics.MetricReloads.WithLabelValues(m.src.Name(), "bad_format").Inc()
		return
	}

	m.mu.Lock()
	m.contents = contents
	m.mu.Unlock()

	metrics.MetricReloads.WithLabelValues(m.src.Name(), "ok").Inc()
	metrics.MetricLastReload.WithLabelValues(m.src.Name()).SetToCurrentTime()
}

// reloadIfStale reloads inline when the snapshot is older than the reload
// interval. Scheduler mode skips the check entirely.
func (m *LiveMap) reloadIfStale(ctx context.Context) {
	if m.scheduled {
		return
	}
	m.mu.RLock()
	stale := time.Now().After(m.lastLoad.Add(m.reloadEvery))
	m.mu.RUnlock()
	if stale {
		m.Reload(ctx)
	}
}

// Lookup returns the value for key, reloading first if the snapshot is
// stale. An absent key returns an error wrapping ErrKeyNotFound.
func (m *LiveMap) Lookup(ctx context.Context, key string) (interface{}, error) {
	m.reloadIfStale(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.contents[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	return v, nil
}

// Get returns the value for key, or fallback if the key is absent. It never
// returns an error. The same staleness check as Lookup applies.
func (m *LiveMap) Get(ctx context.Context, key string, fallback interface{}) interface{} {
	v, err := m.Lookup(ctx, key)
	if err != nil {
		return fallback
	}
	return v
}

// Set always fails: the map is read-through only.
func (m *LiveMap) Set(key string, value interface{}) error {
	return fmt.Errorf("set %q: %w", key, ErrReadOnly)
}

// SetDefault always fails: the map is read-through only.
func (m *LiveMap) SetDefault(key string, value interface{}) error {
	return fmt.Errorf("set default %q: %w", key, ErrReadOnly)
}

// Delete always fails: the map is read-through only.
func (m *LiveMap) Delete(key string) error {
	return fmt.Errorf("delete %q: %w", key, ErrReadOnly)
}

// Keys returns the keys of the current snapshot. No staleness check.
func (m *LiveMap) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.contents))
	for k := range m.contents {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the current snapshot. No staleness
// check.
func (m *LiveMap) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contents := make(map[string]interface{}, len(m.contents))
	for k, v := range m.contents {
		contents[k] = v
	}
	return contents
}

// Len returns the size of the current snapshot. No staleness check.
func (m *LiveMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contents)
}
