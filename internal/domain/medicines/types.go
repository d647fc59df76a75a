package medicines

import "time"

// DoseStatus es el estado "en vivo" de una dosis, recalculado en cada pasada.
type DoseStatus string

const (
	StatusTaken    DoseStatus = "taken"
	StatusDueNow   DoseStatus = "due_now"
	StatusMissed   DoseStatus = "missed"
	StatusUpcoming DoseStatus = "upcoming"
)

// ReportStatus es la calificación de una dosis en el reporte de adherencia.
// Es independiente del estado en vivo: una dosis puede figurar "taken" en el
// checklist y a la vez "late" en el reporte.
type ReportStatus string

const (
	ReportOnTime   ReportStatus = "on_time"
	ReportEarly    ReportStatus = "early"
	ReportLate     ReportStatus = "late"
	ReportNotTaken ReportStatus = "not_taken"
)

// Label devuelve el texto humano que va en la columna Status del reporte.
func (s ReportStatus) Label() string {
	switch s {
	case ReportOnTime:
		return "On Time"
	case ReportEarly:
		return "Early"
	case ReportLate:
		return "Late"
	default:
		return "Not Taken"
	}
}

const (
	// DefaultDueWindow: |now - scheduled| <= ventana => due_now.
	DefaultDueWindow = 10 * time.Minute

	// DefaultReportTolerance: |taken - scheduled| <= tolerancia => on_time.
	DefaultReportTolerance = 10 * time.Minute
)

const (
	MinDays = 1
	MaxDays = 365

	MinTimesPerDay = 1
	MaxTimesPerDay = 5
)
