package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medtimer/internal/domain/medicines"
	"medtimer/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *medicines.Service, tolerance time.Duration) {
	if tolerance <= 0 {
		tolerance = medicines.DefaultReportTolerance
	}
	r.Get("/report", reportHandler(svc, tolerance))
	r.Get("/report/export", exportHandler(svc, tolerance))
}

type reportResponse struct {
	Score int   `json:"score"`
	Rows  []Row `json:"rows"`
}

// reportHandler godoc
// @Summary Reporte de adherencia
// @Description Una fila por dosis del usuario en orden canónico, con la
// calificación por tolerancia, más el score global.
// @Tags report
// @Produce json
// @Success 200 {object} reportResponse
// @Failure 401 {string} string "unauthorized"
// @Router /report [get]
func reportHandler(svc *medicines.Service, tolerance time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		meds, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := reportResponse{
			Score: medicines.Score(meds),
			Rows:  BuildRows(meds, tolerance),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(out)
	}
}

// exportHandler godoc
// @Summary Descargar reporte de adherencia (xlsx)
// @Tags report
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 401 {string} string "unauthorized"
// @Router /report/export [get]
func exportHandler(svc *medicines.Service, tolerance time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		meds, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		title := fmt.Sprintf("Medicine Adherence Report | Patient: %s | Generated: %s",
			claims.Username, time.Now().Format(medicines.DateLayout))

		f, err := BuildWorkbook(title, BuildRows(meds, tolerance))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="medicine_adherence_report.xlsx"`)
		if err := f.Write(w); err != nil {
			// headers ya salieron; solo queda cortar
			return
		}
	}
}
