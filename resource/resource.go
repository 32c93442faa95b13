// Package resource keeps per-URL request state: the newest successful
// entity and the newest normalized error. Concurrent loads of the same
// resource are collapsed into one request.
package resource

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SocratisM/siesta/client"
	"github.com/SocratisM/siesta/entity"
	"github.com/SocratisM/siesta/reqerror"
)

// Service hands out Resources and owns the deduplication group shared by
// all of them.
type Service struct {
	client *client.Client

	mu        sync.Mutex
	resources map[string]*Resource
	group     singleflight.Group
}

func NewService(c *client.Client) *Service {
	return &Service{
		client:    c,
		resources: make(map[string]*Resource),
	}
}

// Resource returns the resource for path, creating it on first use. The
// same path always yields the same *Resource.
func (s *Service) Resource(path string) *Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resources[path]; ok {
		return r
	}
	r := &Resource{Path: path, svc: s}
	s.resources[path] = r
	return r
}

// Resource is one remote endpoint plus the latest observed outcome. Data
// and error values are immutable; a new outcome replaces, never mutates.
type Resource struct {
	Path string
	svc  *Service

	mu          sync.RWMutex
	latestData  *entity.Entity
	latestError *reqerror.Error
	loadedAt    time.Time
}

// Load fetches the resource. Calls racing on the same path share one
// request and one outcome. On success the previous error is cleared; on
// failure the previous data is kept so stale content stays renderable.
func (r *Resource) Load(ctx context.Context) (*entity.Entity, error) {
	v, err, _ := r.svc.group.Do(r.Path, func() (any, error) {
		return r.svc.client.Get(ctx, r.Path)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		var reqErr *reqerror.Error
		if !errors.As(err, &reqErr) {
			// the client always returns *reqerror.Error; normalize anyway
			// in case a custom transport leaked something else through
			reqErr = reqerror.FromResponse(nil, nil, err, "")
		}
		r.latestError = reqErr
		return nil, reqErr
	}

	ent, _ := v.(*entity.Entity)
	r.latestData = ent
	r.latestError = nil
	r.loadedAt = time.Now()
	return ent, nil
}

// LatestData returns the most recent successful entity, nil before the
// first success.
func (r *Resource) LatestData() *entity.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latestData
}

// LatestError returns the most recent failure, nil after a success.
func (r *Resource) LatestError() *reqerror.Error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latestError
}

// LoadedAt reports when the latest data arrived, zero before the first
// success.
func (r *Resource) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}
