package router

import (
	"context"
	"net/http"

	"medtimer/internal/adapters/auth/tokens"
	mem "medtimer/internal/adapters/storage/memory"
	pg "medtimer/internal/adapters/storage/postgres"
	sqlitedb "medtimer/internal/adapters/storage/sqlite"
	"medtimer/internal/config"
	"medtimer/internal/domain/medicines"
	"medtimer/internal/domain/reminders"
	"medtimer/internal/domain/users"
	"medtimer/internal/middleware"
	"medtimer/internal/ports/auth"
	"medtimer/internal/report"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	Cfg    *config.Config
	Logger *zap.Logger

	// AuthVerifier puede venir nil en modo dev: el middleware acepta
	// X-Debug-User-ID. Si es nil y hay JWT_SECRET, se usa el verifier JWT.
	AuthVerifier auth.AuthVerifier

	// DevMode fuerza modo dev (sin verifier), útil en tests.
	DevMode bool
}

// NewRouter arma todo el wiring: repos según config, services, rutas.
// Devuelve también el runner de recordatorios para que main lo arranque.
func NewRouter(opts Options) (http.Handler, *reminders.Runner, error) {
	cfg := opts.Cfg
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		usersRepo users.Repository
		medsRepo  medicines.Repository
	)

	switch {
	case cfg.DBDSN != "":
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		usersRepo = pg.NewUsersRepo(db)
		medsRepo = pg.NewMedicinesRepo(db, log)

	case cfg.SQLitePath != "":
		db, err := sqlitedb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		usersRepo = sqlitedb.NewUsersRepo(db)
		medsRepo = sqlitedb.NewMedicinesRepo(db, log)

	default:
		usersRepo = mem.NewUsersRepo()
		medsRepo = mem.NewMedicinesRepo()
	}

	tokenSvc := tokens.New(cfg.JWTSecret, cfg.TokenTTL)

	verifier := opts.AuthVerifier
	if verifier == nil && !opts.DevMode {
		verifier = tokenSvc
	}

	usersSvc := users.NewService(usersRepo)
	medsSvc := medicines.NewService(medsRepo, medicines.Config{
		EditPolicy: medicines.EditPolicy(cfg.EditPolicy),
		DueWindow:  cfg.DueWindow(),
	})

	sessions := reminders.NewSessionStore()
	runner := reminders.NewRunner(sessions, doseSource{svc: medsSvc}, log, cfg.ReminderInterval())

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	users.RegisterRoutes(r, usersSvc, tokenSvc, sessions)
	medicines.RegisterRoutes(r, medsSvc, sessions)
	report.RegisterRoutes(r, medsSvc, cfg.ReportTolerance())

	return r, runner, nil
}

// doseSource adapta el servicio de medicamentos al puerto que consume el
// runner de recordatorios.
type doseSource struct {
	svc *medicines.Service
}

func (s doseSource) DosesForUser(ctx context.Context, userID string) ([]reminders.DoseRef, error) {
	meds, err := s.svc.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]reminders.DoseRef, 0)
	for _, m := range meds {
		for _, d := range m.Doses {
			out = append(out, reminders.DoseRef{
				MedicineID:   m.ID,
				MedicineName: m.Name,
				DoseID:       d.ID,
				ScheduledAt:  d.ScheduledAt,
				Taken:        d.Taken,
			})
		}
	}
	return out, nil
}
