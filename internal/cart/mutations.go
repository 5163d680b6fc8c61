package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cedra_storefront/internal/models"
	"cedra_storefront/internal/notify"

	"go.uber.org/zap"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddItem ajoute un produit au panier.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int) error {
	if !s.signedIn() {
		notify.Error(s.notifier, "Veuillez vous connecter pour ajouter des articles au panier")
		return ErrNotAuthenticated
	}
	if productID == "" || quantity < 1 {
		notify.Error(s.notifier, "Quantité invalide")
		return fmt.Errorf("ajout au panier: produit %q, quantité %d invalide", productID, quantity)
	}

	c, err := s.apply(ctx, http.MethodPost, itemsEndpoint, addItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		s.logger.Warn("❌ Erreur ajout panier", zap.String("product_id", productID), zap.Error(err))
		notify.Error(s.notifier, userMessage(err, "Impossible d'ajouter le produit au panier"))
		return err
	}

	s.logger.Info("✅ Produit ajouté au panier", zap.String("product_id", productID), zap.Int("quantity", quantity))
	if name := productName(c, productID); name != "" {
		notify.Success(s.notifier, fmt.Sprintf("« %s » ajouté au panier", name))
	} else {
		notify.Success(s.notifier, "Produit ajouté au panier")
	}
	return nil
}

// UpdateItemQuantity change la quantité d'une ligne (quantité >= 1).
func (s *Store) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	if !s.signedIn() {
		notify.Error(s.notifier, "Veuillez vous connecter pour modifier votre panier")
		return ErrNotAuthenticated
	}
	if itemID == "" || quantity < 1 {
		notify.Error(s.notifier, "Quantité invalide")
		return fmt.Errorf("mise à jour panier: ligne %q, quantité %d invalide", itemID, quantity)
	}

	_, err := s.apply(ctx, http.MethodPatch, itemsEndpoint+itemID+"/", quantityRequest{Quantity: quantity})
	if err != nil {
		s.logger.Warn("❌ Erreur mise à jour quantité", zap.String("item_id", itemID), zap.Error(err))
		notify.Error(s.notifier, userMessage(err, "Impossible de mettre à jour la quantité"))
		return err
	}
	notify.Success(s.notifier, "Quantité mise à jour")
	return nil
}

// RemoveItem supprime une ligne du panier.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	if !s.signedIn() {
		notify.Error(s.notifier, "Veuillez vous connecter pour modifier votre panier")
		return ErrNotAuthenticated
	}

	_, err := s.apply(ctx, http.MethodDelete, itemsEndpoint+itemID+"/", nil)
	if err != nil {
		s.logger.Warn("❌ Erreur suppression ligne", zap.String("item_id", itemID), zap.Error(err))
		notify.Error(s.notifier, userMessage(err, "Impossible de retirer le produit"))
		return err
	}
	notify.Success(s.notifier, "Produit retiré du panier")
	return nil
}

// ClearCart vide le panier ; un second appel pendant que le premier est en vol ne fait rien.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	if !s.signedIn() {
		s.mu.Unlock()
		notify.Error(s.notifier, "Veuillez vous connecter pour modifier votre panier")
		return ErrNotAuthenticated
	}
	if s.clearing {
		s.mu.Unlock()
		return nil
	}
	s.clearing = true
	epoch := s.beginLocked()
	s.mu.Unlock()
	s.changed()

	defer s.end(epoch, func() { s.clearing = false })

	s.api.Invalidate(cartPrefix)
	if err := s.api.Mutate(ctx, http.MethodDelete, itemsEndpoint+"clear/", nil, nil); err != nil {
		s.fail(epoch, err, "Impossible de vider le panier")
		return err
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.adoptLocked(models.EmptyCart())
	}
	s.mu.Unlock()
	s.logger.Info("🗑️ Panier vidé")
	notify.Success(s.notifier, "Panier vidé avec succès")
	return nil
}

// apply envoie une mutation panier : le cache est invalidé avant l'envoi, puis
// la réponse est adoptée si elle contient les lignes, sinon le panier est relu.
func (s *Store) apply(ctx context.Context, method, endpoint string, body any) (*models.Cart, error) {
	s.mu.Lock()
	epoch := s.beginLocked()
	var current *models.Coupon
	if s.cart != nil {
		current = s.cart.Coupon
	}
	s.mu.Unlock()
	s.changed()

	defer s.end(epoch, nil)

	s.api.Invalidate(cartPrefix)
	var raw json.RawMessage
	if err := s.api.Mutate(ctx, method, endpoint, body, &raw); err != nil {
		s.fail(epoch, err, "")
		return nil, err
	}
	return s.ingest(ctx, epoch, raw, current, nil)
}

// ingest adopte une réponse de mutation, ou relit le panier si elle est partielle.
// patch ajuste le panier décodé avant adoption.
func (s *Store) ingest(ctx context.Context, epoch uint64, raw []byte, fallback *models.Coupon, patch func(*models.Cart, decoded)) (*models.Cart, error) {
	result, err := decodeCart(raw, fallback)
	if err == nil && result.hasItems {
		if patch != nil {
			patch(result.cart, result)
		}
		s.mu.Lock()
		if s.epoch == epoch {
			s.adoptLocked(result.cart)
		}
		s.mu.Unlock()
		return result.cart.Clone(), nil
	}

	s.logger.Debug("réponse de mutation partielle, relecture du panier")
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone(), nil
}

// fail garde le panier tel quel et note l'erreur.
func (s *Store) fail(epoch uint64, err error, fallback string) {
	s.mu.Lock()
	if s.epoch == epoch {
		s.errMsg = userMessage(err, fallback)
		if s.errMsg == "" {
			s.errMsg = err.Error()
		}
	}
	s.mu.Unlock()
}

func productName(c *models.Cart, productID string) string {
	if c == nil {
		return ""
	}
	for _, item := range c.Items {
		if string(item.ProductID) == productID {
			return item.Name
		}
	}
	return ""
}
