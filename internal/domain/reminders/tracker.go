package reminders

import (
	"fmt"
	"sync"
	"time"
)

// TriggerWindow: una dosis dispara recordatorio recién cuando vence, dentro
// de [0, 60s) desde su horario. La ventana es unidireccional a propósito:
// una simétrica se puede re-entrar por drift de reloj y re-disparar.
const TriggerWindow = 60 * time.Second

// DoseRef es la vista mínima de una dosis que necesita el scheduler. Evita
// acoplar este paquete al modelo de medicamentos.
type DoseRef struct {
	MedicineID   string
	MedicineName string
	DoseID       string
	ScheduledAt  time.Time
	Taken        bool
}

type Notification struct {
	MedicineID   string
	MedicineName string
	DoseID       string
	ScheduledAt  time.Time
	Message      string
}

// Session es el estado de recordatorios de un login: el set de dosis ya
// notificadas y la cola pendiente de entregar. Es efímero: nace en el login,
// muere en el logout y no se persiste. Un usuario que sale y vuelve a entrar
// dentro de la ventana puede ver el mismo recordatorio dos veces; es una
// limitación documentada, no un bug.
type Session struct {
	mu       sync.Mutex
	notified map[string]struct{}
	pending  []Notification
}

func newSession() *Session {
	return &Session{notified: make(map[string]struct{})}
}

// Scan recorre las dosis y dispara a lo sumo una notificación por dosis y
// sesión. Elegible: sin tomar, programada para la fecha de "now", y "now"
// dentro de la ventana de disparo. La identidad en el set es el compuesto
// (nombre del medicamento, horario programado); nunca una posición de lista.
func (s *Session) Scan(doses []DoseRef, now time.Time) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fired []Notification
	for _, d := range doses {
		if d.Taken {
			continue
		}
		if !sameDay(d.ScheduledAt, now) {
			continue
		}
		delta := now.Sub(d.ScheduledAt)
		if delta < 0 || delta >= TriggerWindow {
			continue
		}

		key := doseKey(d.MedicineName, d.ScheduledAt)
		if _, dup := s.notified[key]; dup {
			continue
		}
		s.notified[key] = struct{}{}

		n := Notification{
			MedicineID:   d.MedicineID,
			MedicineName: d.MedicineName,
			DoseID:       d.DoseID,
			ScheduledAt:  d.ScheduledAt,
			Message:      fmt.Sprintf("Time to take %s (%s)", d.MedicineName, d.ScheduledAt.Format("15:04")),
		}
		fired = append(fired, n)
		s.pending = append(s.pending, n)
	}
	return fired
}

// Drain entrega y vacía la cola pendiente (el "toast" de la UI).
func (s *Session) Drain() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = nil
	return out
}

// SessionStore mantiene la sesión activa por usuario.
type SessionStore struct {
	mu     sync.RWMutex
	byUser map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byUser: make(map[string]*Session)}
}

// Start crea una sesión fresca (resetea el set de notificadas de un login
// anterior).
func (ss *SessionStore) Start(userID string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s := newSession()
	ss.byUser[userID] = s
	return s
}

func (ss *SessionStore) End(userID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.byUser, userID)
}

func (ss *SessionStore) Get(userID string) (*Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.byUser[userID]
	return s, ok
}

func (ss *SessionStore) ActiveUsers() []string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	out := make([]string, 0, len(ss.byUser))
	for u := range ss.byUser {
		out = append(out, u)
	}
	return out
}

func doseKey(medicineName string, scheduledAt time.Time) string {
	return medicineName + "|" + scheduledAt.Format("2006-01-02 15:04:05")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
