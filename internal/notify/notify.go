// Package notify porte les notifications éphémères (toasts) destinées à la présentation.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(n Notification)
}

func Success(n Notifier, msg string) { send(n, LevelSuccess, msg) }
func Error(n Notifier, msg string)   { send(n, LevelError, msg) }
func Info(n Notifier, msg string)    { send(n, LevelInfo, msg) }

func send(n Notifier, level Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(Notification{Level: level, Message: msg, At: time.Now()})
}

// Logger écrit les notifications dans les logs.
type Logger struct {
	L *zap.Logger
}

func (l Logger) Notify(n Notification) {
	if l.L == nil {
		return
	}
	switch n.Level {
	case LevelError:
		l.L.Warn("🔔 "+n.Message, zap.String("level", string(n.Level)))
	default:
		l.L.Debug("🔔 "+n.Message, zap.String("level", string(n.Level)))
	}
}

// Multi diffuse vers plusieurs destinataires.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}

// Hub relaie les notifications vers les abonnés (websocket).
// Un abonné trop lent perd les notifications plutôt que de bloquer l'émetteur.
type Hub struct {
	mu   sync.Mutex
	subs map[string]chan Notification
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Notification)}
}

func (h *Hub) Notify(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe renvoie le canal de l'abonné et sa fonction de désabonnement.
func (h *Hub) Subscribe(buffer int) (<-chan Notification, func()) {
	id := uuid.NewString()
	ch := make(chan Notification, buffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
}

// Recorder mémorise les notifications (tests, journal de session).
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last renvoie la dernière notification reçue.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
