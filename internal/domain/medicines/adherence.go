package medicines

import "time"

// Score calcula el porcentaje de adherencia sobre todas las dosis de la
// lista: floor(100 * tomadas / total). Con 0 dosis devuelve 0 (no hay
// división por cero por definición).
func Score(meds []Medicine) int {
	total := 0
	taken := 0
	for _, m := range meds {
		total += len(m.Doses)
		for _, d := range m.Doses {
			if d.Taken {
				taken++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return taken * 100 / total
}

// Grade califica una dosis para el reporte con la tolerancia dada.
// diff = taken - scheduled:
//
//	|diff| <= tolerancia => on_time
//	diff < -tolerancia   => early
//	diff > tolerancia    => late
//
// Sin tomar => not_taken.
func Grade(d Dose, tolerance time.Duration) ReportStatus {
	if !d.Taken || d.TakenAt == nil {
		return ReportNotTaken
	}

	diff := d.TakenAt.Sub(d.ScheduledAt)
	switch {
	case diff < -tolerance:
		return ReportEarly
	case diff > tolerance:
		return ReportLate
	default:
		return ReportOnTime
	}
}
