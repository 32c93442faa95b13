package resource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SocratisM/siesta/client"
	"github.com/SocratisM/siesta/resource"
)

func newService(t *testing.T, h http.Handler) (*resource.Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := client.NewClient(srv.URL, client.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return resource.NewService(c), srv
}

func TestService_SameResourceForSamePath(t *testing.T) {
	svc, _ := newService(t, http.NotFoundHandler())

	a := svc.Resource("users/1")
	b := svc.Resource("users/1")
	other := svc.Resource("users/2")

	if a != b {
		t.Fatalf("same path must yield the same *Resource")
	}
	if a == other {
		t.Fatalf("different paths must not share a *Resource")
	}
}

func TestResource_LoadStoresLatestData(t *testing.T) {
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ada"}`))
	}))

	r := svc.Resource("users/1")
	if r.LatestData() != nil || r.LatestError() != nil {
		t.Fatalf("fresh resource must have no state")
	}

	ent, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ent == nil || ent.Text() != `{"name":"ada"}` {
		t.Fatalf("entity = %v", ent)
	}
	if r.LatestData() != ent {
		t.Fatalf("LatestData should hold the loaded entity")
	}
	if r.LatestError() != nil {
		t.Fatalf("LatestError = %v, want nil after success", r.LatestError())
	}
	if r.LoadedAt().IsZero() {
		t.Fatalf("LoadedAt not recorded")
	}
}

func TestResource_LoadFailureKeepsStaleData(t *testing.T) {
	var fail atomic.Bool
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"v":1}`))
	}))

	r := svc.Resource("config")
	if _, err := r.Load(context.Background()); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	stale := r.LatestData()

	fail.Store(true)
	if _, err := r.Load(context.Background()); err == nil {
		t.Fatalf("expected error once the server breaks")
	}

	reqErr := r.LatestError()
	if reqErr == nil {
		t.Fatalf("LatestError = nil after failure")
	}
	if reqErr.StatusCode != http.StatusNotFound {
		t.Fatalf("StatusCode = %d", reqErr.StatusCode)
	}
	if reqErr.UserMessage != "Not Found" {
		t.Fatalf("UserMessage = %q", reqErr.UserMessage)
	}
	// stale content stays renderable
	if r.LatestData() != stale {
		t.Fatalf("LatestData must survive a failed reload")
	}

	// recovery clears the error again
	fail.Store(false)
	if _, err := r.Load(context.Background()); err != nil {
		t.Fatalf("recovery Load: %v", err)
	}
	if r.LatestError() != nil {
		t.Fatalf("LatestError = %v, want nil after recovery", r.LatestError())
	}
}

func TestResource_EachFailureIsAFreshValue(t *testing.T) {
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	r := svc.Resource("down")
	_, _ = r.Load(context.Background())
	first := r.LatestError()
	_, _ = r.Load(context.Background())
	second := r.LatestError()

	if first == nil || second == nil {
		t.Fatalf("both loads should record errors")
	}
	if first == second {
		t.Fatalf("a new failure must produce a new error value, not reuse the old one")
	}
	if !second.Timestamp.After(first.Timestamp) && !second.Timestamp.Equal(first.Timestamp) {
		t.Fatalf("second failure (%v) predates first (%v)", second.Timestamp, first.Timestamp)
	}
}

func TestResource_ConcurrentLoadsShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	svc, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"shared":true}`))
	}))

	r := svc.Resource("popular")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.Load(context.Background())
		}()
	}

	// let the goroutines pile up on the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("server hits = %d, want 1 (loads must be deduplicated)", got)
	}
	if r.LatestData() == nil {
		t.Fatalf("LatestData missing after shared load")
	}
}
