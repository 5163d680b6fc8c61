package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"cedra_storefront/internal/models"
	"cedra_storefront/internal/notify"
)

type response struct {
	body  string
	err   error
	block chan struct{}
}

// fakeGateway rejoue des réponses par "MÉTHODE endpoint" ; la dernière réponse
// d'une file est réutilisée. Les invalidations sont journalisées avec les appels.
type fakeGateway struct {
	mu        sync.Mutex
	calls     []string
	bodies    map[string]any
	responses map[string][]response
	entered   chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		bodies:    make(map[string]any),
		responses: make(map[string][]response),
		entered:   make(chan string, 16),
	}
}

func (f *fakeGateway) on(key string, r response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = append(f.responses[key], r)
}

func (f *fakeGateway) next(key string) response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	queue := f.responses[key]
	if len(queue) == 0 {
		return response{err: errors.New("pas de réponse pour " + key)}
	}
	r := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return r
}

func (f *fakeGateway) serve(key string, out any) error {
	r := f.next(key)
	if r.block != nil {
		f.entered <- key
		<-r.block
	}
	if r.err != nil {
		return r.err
	}
	if out == nil || r.body == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.body), out)
}

func (f *fakeGateway) Get(_ context.Context, endpoint string, out any) error {
	return f.serve("GET "+endpoint, out)
}

func (f *fakeGateway) Mutate(_ context.Context, method, endpoint string, body, out any) error {
	key := method + " " + endpoint
	f.mu.Lock()
	f.bodies[key] = body
	f.mu.Unlock()
	return f.serve(key, out)
}

func (f *fakeGateway) Invalidate(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "INVALIDATE "+prefix)
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeGateway) count(key string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == key {
			n++
		}
	}
	return n
}

type fakeIdentity struct {
	mu sync.Mutex
	id models.Identity
	ok bool
}

func signedIn() *fakeIdentity {
	return &fakeIdentity{id: models.Identity{UserID: "42", Email: "ana@example.com"}, ok: true}
}

func (f *fakeIdentity) Current() (models.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id, f.ok
}

func (f *fakeIdentity) signOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id, f.ok = models.Identity{}, false
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) all() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTimer(nil), s.timers...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type verifierFunc func(ctx context.Context, code string) (*models.Coupon, error)

func (f verifierFunc) Verify(ctx context.Context, code string) (*models.Coupon, error) {
	return f(ctx, code)
}

type harness struct {
	store     *Store
	api       *fakeGateway
	identity  *fakeIdentity
	clock     *fakeClock
	scheduler *fakeScheduler
	notes     *notify.Recorder
}

func newHarness(verifier CouponVerifier) *harness {
	h := &harness{
		api:       newFakeGateway(),
		identity:  signedIn(),
		clock:     &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		scheduler: &fakeScheduler{},
		notes:     &notify.Recorder{},
	}
	h.store = NewStore(Options{
		Gateway:   h.api,
		Identity:  h.identity,
		Coupons:   verifier,
		Notifier:  h.notes,
		Debounce:  2 * time.Second,
		Clock:     h.clock.now,
		Scheduler: h.scheduler,
	})
	return h
}

// eventually attend qu'une condition devienne vraie (relectures asynchrones).
func eventually(t *testing.T, cond func() bool, msg func() string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
