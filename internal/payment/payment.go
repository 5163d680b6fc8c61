// Package payment route un paiement vers le processeur de la méthode choisie.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cedra_storefront/internal/models"
)

var (
	ErrUnknownMethod = errors.New("méthode de paiement inconnue")
	ErrDeclined      = errors.New("paiement refusé")
)

type Processor interface {
	Process(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error)
}

// Registry associe un nom de méthode (card, paypal, installments...) à son processeur.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
}

func NewRegistry() *Registry {
	return &Registry{processors: make(map[string]Processor)}
}

func (r *Registry) Register(method string, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[method] = p
}

func (r *Registry) Lookup(method string) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return p, nil
}

// Methods liste les méthodes enregistrées, triées.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.processors))
	for m := range r.processors {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Process envoie le paiement ; un résultat sans succès devient ErrDeclined.
func (r *Registry) Process(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error) {
	p, err := r.Lookup(req.Method)
	if err != nil {
		return models.PaymentResult{}, err
	}
	result, err := p.Process(ctx, req)
	if err != nil {
		return result, err
	}
	if !result.Success {
		if result.Message != "" {
			return result, fmt.Errorf("%w: %s", ErrDeclined, result.Message)
		}
		return result, ErrDeclined
	}
	return result, nil
}
