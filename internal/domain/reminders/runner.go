package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DoseSource entrega las dosis vigentes de un usuario. Lo implementa la capa
// de wiring sobre el servicio de medicamentos; el runner no conoce ese modelo.
type DoseSource interface {
	DosesForUser(ctx context.Context, userID string) ([]DoseRef, error)
}

// Runner es el tick periódico que reemplaza el auto-refresh de la página
// original: cada intervalo re-invoca el scan sobre cada sesión activa y deja
// las notificaciones en cola para que la UI las drene. El core no tiene hilos
// propios; este goroutine vive afuera, en plumbing de presentación.
type Runner struct {
	cron     *cron.Cron
	sessions *SessionStore
	source   DoseSource
	logger   *zap.Logger
	interval time.Duration
}

func NewRunner(sessions *SessionStore, source DoseSource, logger *zap.Logger, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		cron:     cron.New(),
		sessions: sessions,
		source:   source,
		logger:   logger,
		interval: interval,
	}
}

func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), r.tick); err != nil {
		return fmt.Errorf("schedule reminder tick: %w", err)
	}
	r.cron.Start()
	r.logger.Info("reminder runner started", zap.Duration("interval", r.interval))
	return nil
}

// Stop frena el cron y espera a que termine el tick en curso.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("reminder runner stopped")
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	for _, userID := range r.sessions.ActiveUsers() {
		sess, ok := r.sessions.Get(userID)
		if !ok {
			continue
		}

		doses, err := r.source.DosesForUser(ctx, userID)
		if err != nil {
			r.logger.Warn("reminder scan skipped",
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}

		for _, n := range sess.Scan(doses, now) {
			r.logger.Info("dose reminder",
				zap.String("user_id", userID),
				zap.String("medicine", n.MedicineName),
				zap.Time("scheduled_at", n.ScheduledAt))
		}
	}
}
