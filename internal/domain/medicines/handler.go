package medicines

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medtimer/internal/domain/reminders"
	"medtimer/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, sessions *reminders.SessionStore) {
	r.Route("/medicines", func(mr chi.Router) {
		mr.Post("/", saveMedicineHandler(svc))
		mr.Get("/", listMedicinesHandler(svc))
		mr.Delete("/{medicineID}", deleteMedicineHandler(svc))

		mr.Post("/{medicineID}/doses/{doseID}/take", markTakenHandler(svc))
		mr.Delete("/{medicineID}/doses/{doseID}", deleteDoseHandler(svc))
	})

	// El refresh del checklist también corre la pasada de recordatorios,
	// igual que el rerender de la página original.
	r.Get("/checklist", checklistHandler(svc, sessions))
	r.Get("/reminders", drainRemindersHandler(sessions))
}

type saveMedicineRequest struct {
	Name      string   `json:"name"`
	StartDate string   `json:"start_date"` // YYYY-MM-DD
	Days      int      `json:"days"`
	Times     []string `json:"times"` // "HH:MM", 1 a 5 entradas, en orden
}

type doseResponse struct {
	ID          string     `json:"id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Taken       bool       `json:"taken"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
}

type medicineResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	StartDate string         `json:"start_date"`
	Days      int            `json:"days"`
	Times     []string       `json:"times"`
	Doses     []doseResponse `json:"doses"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type doseViewResponse struct {
	MedicineID   string     `json:"medicine_id"`
	MedicineName string     `json:"medicine_name"`
	DoseID       string     `json:"dose_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Taken        bool       `json:"taken"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	Status       DoseStatus `json:"status"`
}

type checklistResponse struct {
	Items []doseViewResponse `json:"items"`
	Score int                `json:"score"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

type notificationResponse struct {
	MedicineID   string    `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	DoseID       string    `json:"dose_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Message      string    `json:"message"`
}

// saveMedicineHandler godoc
// @Summary Guardar medicamento
// @Description Crea el medicamento expandiendo su lista de dosis, o lo edita
// si ya existe uno con el mismo nombre (upsert por usuario+nombre). La
// validación de rangos (days 1-365, times 1-5) vive acá, antes del engine.
// @Tags medicines
// @Accept json
// @Produce json
// @Param payload body saveMedicineRequest true "Formulario del medicamento"
// @Success 201 {object} medicineResponse
// @Failure 400 {string} string "invalid json / formulario inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /medicines [post]
func saveMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req saveMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := time.ParseInLocation(DateLayout, req.StartDate, time.Local)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if req.Days < MinDays || req.Days > MaxDays {
			http.Error(w, "days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		if len(req.Times) < MinTimesPerDay || len(req.Times) > MaxTimesPerDay {
			http.Error(w, "times must have 1 to 5 entries", http.StatusBadRequest)
			return
		}

		times := make([]TimeOfDay, 0, len(req.Times))
		for _, s := range req.Times {
			t, err := ParseTimeOfDay(s)
			if err != nil {
				http.Error(w, "times entries must be HH:MM", http.StatusBadRequest)
				return
			}
			times = append(times, t)
		}

		m, err := svc.Save(r.Context(), claims.UserID, SaveInput{
			Name:      req.Name,
			StartDate: start,
			Days:      req.Days,
			Times:     times,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(m))
	}
}

// listMedicinesHandler godoc
// @Summary Listar medicamentos del usuario
// @Tags medicines
// @Produce json
// @Success 200 {array} medicineResponse
// @Failure 401 {string} string "unauthorized"
// @Router /medicines [get]
func listMedicinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicineResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicineResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// deleteMedicineHandler borra el medicamento con todas sus dosis. Si ya no
// existe devuelve 200 con changed=false, no 404: un delete repetido sobre un
// índice viejo no es un error del cliente.
func deleteMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		changed, err := svc.DeleteMedicine(r.Context(), claims.UserID, chi.URLParam(r, "medicineID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: changed})
	}
}

// markTakenHandler godoc
// @Summary Marcar dosis como tomada
// @Description Setea taken y taken_at una sola vez. Dosis ya tomada o
// inexistente => changed=false. Acepta ?now=RFC3339 para fijar el reloj.
// @Tags medicines
// @Produce json
// @Param medicineID path string true "ID del medicamento"
// @Param doseID path string true "ID de la dosis"
// @Param now query string false "Reloj de pared a usar (RFC3339)"
// @Success 200 {object} changedResponse
// @Failure 401 {string} string "unauthorized"
// @Router /medicines/{medicineID}/doses/{doseID}/take [post]
func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		now, err := parseNow(r)
		if err != nil {
			http.Error(w, "now must be RFC3339", http.StatusBadRequest)
			return
		}

		_, changed, err := svc.MarkTaken(r.Context(), claims.UserID,
			chi.URLParam(r, "medicineID"), chi.URLParam(r, "doseID"), now)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: changed})
	}
}

func deleteDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		changed, err := svc.DeleteDose(r.Context(), claims.UserID,
			chi.URLParam(r, "medicineID"), chi.URLParam(r, "doseID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: changed})
	}
}

// checklistHandler godoc
// @Summary Checklist del día
// @Description Dosis programadas para hoy en orden canónico con su estado en
// vivo, más el score de adherencia. Si hay sesión de recordatorios activa,
// corre además la pasada de scan (como el auto-refresh de la página).
// @Tags checklist
// @Produce json
// @Param now query string false "Reloj de pared a usar (RFC3339)"
// @Success 200 {object} checklistResponse
// @Failure 401 {string} string "unauthorized"
// @Router /checklist [get]
func checklistHandler(svc *Service, sessions *reminders.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		now, err := parseNow(r)
		if err != nil {
			http.Error(w, "now must be RFC3339", http.StatusBadRequest)
			return
		}
		if now.IsZero() {
			now = time.Now()
		}

		if sess, ok := sessions.Get(claims.UserID); ok {
			meds, err := svc.ListByUser(r.Context(), claims.UserID)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			sess.Scan(toDoseRefs(meds), now)
		}

		view, err := svc.Checklist(r.Context(), claims.UserID, now)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := checklistResponse{Items: make([]doseViewResponse, 0, len(view.Items)), Score: view.Score}
		for _, it := range view.Items {
			out.Items = append(out.Items, doseViewResponse{
				MedicineID:   it.MedicineID,
				MedicineName: it.MedicineName,
				DoseID:       it.DoseID,
				ScheduledAt:  it.ScheduledAt,
				Taken:        it.Taken,
				TakenAt:      it.TakenAt,
				Status:       it.Status,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// drainRemindersHandler entrega y vacía la cola de notificaciones de la
// sesión (el toast visual del mismo proceso). Sin sesión => lista vacía.
func drainRemindersHandler(sessions *reminders.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		out := make([]notificationResponse, 0)
		if sess, ok := sessions.Get(claims.UserID); ok {
			for _, n := range sess.Drain() {
				out = append(out, notificationResponse{
					MedicineID:   n.MedicineID,
					MedicineName: n.MedicineName,
					DoseID:       n.DoseID,
					ScheduledAt:  n.ScheduledAt,
					Message:      n.Message,
				})
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// toDoseRefs aplana los medicamentos a la vista mínima que usa el scheduler
// de recordatorios.
func toDoseRefs(meds []Medicine) []reminders.DoseRef {
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
	return out
}

func toMedicineResponse(m Medicine) medicineResponse {
	times := make([]string, 0, len(m.Times))
	for _, t := range m.Times {
		times = append(times, t.String())
	}
	doses := make([]doseResponse, 0, len(m.Doses))
	for _, d := range m.Doses {
		doses = append(doses, doseResponse{
			ID:          d.ID,
			ScheduledAt: d.ScheduledAt,
			Taken:       d.Taken,
			TakenAt:     d.TakenAt,
		})
	}
	return medicineResponse{
		ID:        m.ID,
		Name:      m.Name,
		StartDate: m.StartDate.Format(DateLayout),
		Days:      m.Days,
		Times:     times,
		Doses:     doses,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// parseNow lee el reloj de pared que manda la presentación (?now=RFC3339).
// Vacío => time.Time cero; el service cae a su propio reloj.
func parseNow(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("now"))
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
