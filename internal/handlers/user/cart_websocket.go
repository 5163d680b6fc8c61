package user

import (
	"net/http"
	"strings"
	"time"

	"cedra_storefront/internal/cart"
	"cedra_storefront/internal/middleware"
	"cedra_storefront/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type event struct {
	Type         string                `json:"type"`
	Cart         *cart.Snapshot        `json:"cart,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Message      string                `json:"message,omitempty"`
}

// CartWebSocket pousse en temps réel l'état du panier et les notifications de la session.
// allowed liste les origines acceptées ; vide = même hôte uniquement.
func CartWebSocket(allowed []string, logger *zap.Logger) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return strings.HasSuffix(origin, "://"+r.Host)
		},
	}

	return func(c *gin.Context) {
		s := middleware.CurrentSession(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("❌ Erreur upgrade WebSocket", zap.Error(err))
			return
		}
		defer conn.Close()

		snapshots := make(chan cart.Snapshot, 8)
		unsubscribeCart := s.Cart.Subscribe(func(snap cart.Snapshot) {
			select {
			case snapshots <- snap:
			default:
				// client lent : il recevra l'état suivant
			}
		})
		defer unsubscribeCart()

		notes, unsubscribeNotes := s.Notices.Subscribe(16)
		defer unsubscribeNotes()

		// lecture : détecte la fermeture côté client
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		initial := s.Cart.Snapshot()
		if err := conn.WriteJSON(event{Type: "connected", Message: "Synchronisation panier activée", Cart: &initial}); err != nil {
			return
		}

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			var out event
			select {
			case <-closed:
				return
			case snap := <-snapshots:
				out = event{Type: "cart_updated", Cart: &snap}
			case n, ok := <-notes:
				if !ok {
					return
				}
				out = event{Type: "notification", Notification: &n}
			case <-ping.C:
				// Ping pour garder la connexion active
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
				continue
			}

			if err := conn.WriteJSON(out); err != nil {
				logger.Debug("❌ Erreur envoi WebSocket", zap.Error(err))
				return
			}
		}
	}
}
