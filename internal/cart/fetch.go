package cart

import (
	"context"
	"encoding/json"

	"cedra_storefront/internal/notify"

	"go.uber.org/zap"
)

// FetchCart recharge le panier depuis le serveur.
// Sans force, un appel dans la fenêtre d'anti-rebond est reporté : le dernier
// appel gagne et le fetch part une fenêtre après lui.
func (s *Store) FetchCart(ctx context.Context, force bool) error {
	_, err := s.fetch(ctx, force)
	return err
}

// fetch renvoie started=false quand l'appel n'a rien envoyé (déjà en vol, reporté, pas connecté).
func (s *Store) fetch(ctx context.Context, force bool) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if !s.signedIn() {
		hadCart := s.cart != nil
		if hadCart {
			s.resetLocked()
		}
		s.mu.Unlock()
		if hadCart {
			s.changed()
		}
		return false, nil
	}
	if s.fetching {
		s.mu.Unlock()
		return false, nil
	}
	if !force && !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.debounce {
		s.scheduleLocked()
		s.mu.Unlock()
		return false, nil
	}
	s.fetching = true
	epoch := s.beginLocked()
	s.mu.Unlock()
	s.changed()

	var again bool
	defer func() {
		if again {
			go func() {
				defer s.wg.Done()
				if err := s.FetchCart(s.ctx, true); err != nil {
					s.logger.Debug("relecture après mutation échouée", zap.Error(err))
				}
			}()
		}
	}()
	defer s.end(epoch, func() {
		s.fetching = false
		if s.refetch && !s.closed {
			s.refetch, again = false, true
			s.wg.Add(1)
		}
	})

	var raw json.RawMessage
	err := s.api.Get(ctx, cartEndpoint, &raw)
	var result decoded
	if err == nil {
		result, err = decodeCart(raw, nil)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return true, err
	}
	if err != nil {
		s.errMsg = userMessage(err, "Impossible de charger le panier")
		msg := s.errMsg
		s.mu.Unlock()
		s.logger.Warn("❌ Erreur chargement panier", zap.Error(err))
		notify.Error(s.notifier, msg)
		return true, err
	}
	s.adoptLocked(result.cart)
	s.mu.Unlock()
	return true, nil
}

// scheduleLocked (re)programme le fetch différé, en remplaçant le précédent.
func (s *Store) scheduleLocked() {
	s.cancelDeferredLocked()
	seq := s.deferredSeq
	s.deferred = s.scheduler.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if s.deferredSeq != seq || s.closed {
			s.mu.Unlock()
			return
		}
		s.deferred = nil
		s.mu.Unlock()

		if err := s.FetchCart(s.ctx, true); err != nil {
			s.logger.Debug("fetch différé échoué", zap.Error(err))
		}
	})
}

// refresh force une relecture après mutation ; si une lecture est déjà en vol
// (partie avant la mutation), une relecture forcée part dès qu'elle se termine.
func (s *Store) refresh(ctx context.Context) error {
	started, err := s.fetch(ctx, true)
	if err != nil || started {
		return err
	}
	s.mu.Lock()
	if s.fetching && !s.closed {
		s.refetch = true
	}
	s.mu.Unlock()
	return nil
}
