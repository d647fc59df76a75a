package medicines

import (
	"time"

	"github.com/google/uuid"
)

// ExpandDoses genera la lista completa de dosis para un esquema: para cada
// día d en [0, days) y cada horario en times (en ese orden) emite una dosis
// sin tomar. El largo de salida es exactamente days*len(times) y el orden
// (día asc, índice de horario asc) es el orden canónico del sistema.
//
// Asume inputs ya validados (rango de days y times); acá no hay errores.
func ExpandDoses(startDate time.Time, days int, times []TimeOfDay) []Dose {
	out := make([]Dose, 0, days*len(times))
	base := atMidnight(startDate)

	for d := 0; d < days; d++ {
		date := base.AddDate(0, 0, d)
		for _, t := range times {
			out = append(out, Dose{
				ID:          uuid.NewString(),
				ScheduledAt: t.At(date),
			})
		}
	}
	return out
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
