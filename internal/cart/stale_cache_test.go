package cart

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cedra_storefront/internal/gateway"
	"cedra_storefront/internal/notify"
)

// cartServer sert /cart/ et /cart-items/ ; le premier GET reste bloqué jusqu'à release
// et renvoie le panier tel qu'il était à son arrivée.
type cartServer struct {
	mu       sync.Mutex
	quantity int
	gets     int
	entered  chan struct{}
	release  chan struct{}
}

func (s *cartServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/cart/":
		s.mu.Lock()
		s.gets++
		first, qty := s.gets == 1, s.quantity
		s.mu.Unlock()
		if first {
			s.entered <- struct{}{}
			<-s.release
		}
		w.Header().Set("Content-Type", "application/json")
		if qty == 0 {
			fmt.Fprint(w, `{"items":[],"subtotal":"0","total":"0"}`)
			return
		}
		fmt.Fprintf(w, `{"items":[{"id":1,"product":{"id":7,"name":"Lampe","price":"100.00"},"quantity":%d}]}`, qty)
	case r.Method == http.MethodPost && r.URL.Path == "/cart-items/":
		s.mu.Lock()
		s.quantity++
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	default:
		http.NotFound(w, r)
	}
}

func (s *cartServer) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func TestAddDuringFetchIsNotMaskedByCachedCart(t *testing.T) {
	backend := &cartServer{entered: make(chan struct{}, 1), release: make(chan struct{})}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := NewStore(Options{
		Gateway:  gateway.New(gateway.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Scope: "42"}),
		Identity: signedIn(),
		Notifier: &notify.Recorder{},
		Debounce: time.Minute,
	})
	t.Cleanup(store.Close)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- store.FetchCart(ctx, true) }()
	<-backend.entered

	if err := store.AddItem(ctx, "7", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	close(backend.release)
	if err := <-done; err != nil {
		t.Fatalf("FetchCart: %v", err)
	}

	eventually(t, func() bool {
		return store.Snapshot().Count == 1
	}, func() string {
		return fmt.Sprintf("stale cart after add: count=%d, want 1 (server GETs=%d)", store.Snapshot().Count, backend.getCount())
	})
	if got := backend.getCount(); got != 2 {
		t.Fatalf("server GETs = %d, want 2", got)
	}

	// la lecture suivante sort du cache, qui contient bien le panier à jour
	if err := store.FetchCart(ctx, true); err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if store.Snapshot().Count != 1 || backend.getCount() != 2 {
		t.Fatalf("count=%d gets=%d after cached read", store.Snapshot().Count, backend.getCount())
	}
}
