// Package report arma el reporte de adherencia: una fila por dosis, en el
// orden canónico de expansión, con la calificación on-time/early/late.
// El orden de columnas y de filas es el artefacto externo del sistema y no
// se toca.
package report

import (
	"time"

	"medtimer/internal/domain/medicines"
)

// Headers en el orden exacto del reporte.
var Headers = []string{"Date", "Weekday", "Medicine", "Scheduled", "Taken", "Status"}

type Row struct {
	Date      string `json:"date"`     // DD-MM-YYYY
	Weekday   string `json:"weekday"`  // Monday, Tuesday, ...
	Medicine  string `json:"medicine"`
	Scheduled string `json:"scheduled"` // HH:MM
	Taken     string `json:"taken"`     // HH:MM o "-"
	Status    string `json:"status"`    // On Time / Early / Late / Not Taken
}

// BuildRows genera las filas del usuario: medicamentos en orden de creación,
// dosis en orden canónico dentro de cada uno.
func BuildRows(meds []medicines.Medicine, tolerance time.Duration) []Row {
	rows := make([]Row, 0)
	for _, m := range meds {
		for _, d := range m.Doses {
			taken := "-"
			if d.TakenAt != nil {
				taken = d.TakenAt.Format("15:04")
			}
			rows = append(rows, Row{
				Date:      d.ScheduledAt.Format("02-01-2006"),
				Weekday:   d.ScheduledAt.Weekday().String(),
				Medicine:  m.Name,
				Scheduled: d.ScheduledAt.Format("15:04"),
				Taken:     taken,
				Status:    medicines.Grade(d, tolerance).Label(),
			})
		}
	}
	return rows
}
