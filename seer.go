package roleseer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/highlight-eng/roleseer/metrics"
	"github.com/highlight-eng/roleseer/source"
)

// DefaultRoleFile is where the role document lives unless told otherwise.
const DefaultRoleFile = "/etc/highlight/roles.yaml"

// DefaultRoleReloadInterval bounds staleness of the role document. It is
// deliberately shorter than DefaultReloadInterval: role membership changes
// during failovers and lookups must notice quickly.
const DefaultRoleReloadInterval = 10 * time.Second

// Seer looks up servers by role. It owns a LiveMap over the role document
// and answers each lookup with one uniformly random server of the requested
// role.
type Seer struct {
	roles *LiveMap

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeer tracks the role file at path, or DefaultRoleFile if path is empty.
func NewSeer(path string, opts ...Option) (*Seer, error) {
	if path == "" {
		path = DefaultRoleFile
	}
	src, err := source.NewFileSource(path)
	if err != nil {
		return nil, err
	}
	return NewSeerFromSource(src, opts...), nil
}

// NewSeerFromSource tracks a role document on an arbitrary source. The
// reload interval defaults to DefaultRoleReloadInterval; options may
// override it or attach a scheduler.
func NewSeerFromSource(src source.Source, opts ...Option) *Seer {
	opts = append([]Option{WithReloadInterval(DefaultRoleReloadInterval)}, opts...)
	return &Seer{
		roles: NewLiveMap(src, opts...),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Roles exposes the underlying LiveMap, e.g. for serving the full document.
func (s *Seer) Roles() *LiveMap {
	return s.roles
}

// Lookup picks one server registered under role, uniformly at random. The
// result is a shallow copy of the server's attributes with "name" set to the
// selected server name. A role with zero servers is indistinguishable from
// an absent role: both return an error wrapping ErrKeyNotFound.
//
// Lookup may trigger a synchronous reload of the role document; see LiveMap.
func (s *Seer) Lookup(ctx context.Context, role string) (map[string]interface{}, error) {
	v, err := s.roles.Lookup(ctx, role)
	if err != nil {
		metrics.MetricLookups.WithLabelValues("miss").Inc()
		return nil, err
	}

	servers, _ := v.(map[string]interface{})
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	if len(names) == 0 {
		metrics.MetricLookups.WithLabelValues("miss").Inc()
		return nil, fmt.Errorf("%q: %w", role, ErrKeyNotFound)
	}

	s.mu.Lock()
	name := names[s.rng.Intn(len(names))]
	s.mu.Unlock()

	result := make(map[string]interface{})
	if attrs, ok := servers[name].(map[string]interface{}); ok {
		for k, v := range attrs {
			result[k] = v
		}
	}
	result["name"] = name

	metrics.MetricLookups.WithLabelValues("hit").Inc()
	return result, nil
}
