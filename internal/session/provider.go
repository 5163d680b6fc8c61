// Package session expose l'identité authentifiée courante (ou son absence)
// et la conserve entre deux rechargements via un cookie signé.
package session

import (
	"sync"

	"cedra_storefront/internal/models"
)

// Listener reçoit chaque changement d'identité ; ok=false signifie déconnexion.
type Listener func(identity models.Identity, ok bool)

// Provider détient l'identité d'une session et implémente gateway.Credentials.
type Provider struct {
	mu        sync.RWMutex
	identity  models.Identity
	present   bool
	listeners map[int]Listener
	nextID    int
}

func NewProvider() *Provider {
	return &Provider{listeners: make(map[int]Listener)}
}

// Current renvoie l'identité courante, ok=false si personne n'est connecté.
func (p *Provider) Current() (models.Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity, p.present
}

// Set établit l'identité et prévient les abonnés.
func (p *Provider) Set(identity models.Identity) {
	p.mu.Lock()
	p.identity = identity
	p.present = true
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	for _, l := range listeners {
		l(identity, true)
	}
}

// Clear supprime l'identité (déconnexion) et prévient les abonnés.
func (p *Provider) Clear() {
	p.mu.Lock()
	if !p.present {
		p.mu.Unlock()
		return
	}
	p.identity = models.Identity{}
	p.present = false
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	for _, l := range listeners {
		l(models.Identity{}, false)
	}
}

// Subscribe enregistre un abonné et renvoie la fonction de désabonnement.
func (p *Provider) Subscribe(l Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity.AccessToken
}

func (p *Provider) RefreshToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity.RefreshToken
}

// SetAccessToken remplace le jeton après rafraîchissement ; SessionRequired
// réécrit le cookie quand il diffère de celui de la requête.
func (p *Provider) SetAccessToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.present {
		p.identity.AccessToken = token
	}
}

// Invalidate : le rafraîchissement a échoué, l'identité n'est plus valable.
func (p *Provider) Invalidate() {
	p.Clear()
}

func (p *Provider) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		out = append(out, l)
	}
	return out
}
