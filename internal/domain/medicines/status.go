package medicines

import "time"

// Classify evalúa el estado en vivo de una dosis contra "now". No hay campo
// de estado persistido más allá de Taken/TakenAt: se recalcula en cada pasada.
//
//   - Taken es terminal: una vez tomada, siempre "taken" sin importar el reloj.
//   - |Δ| <= window  => due_now (el borde Δ == window es inclusivo: la
//     transición a missed usa >, no >=).
//   - Δ > window     => missed
//   - Δ < -window    => upcoming
func Classify(d Dose, now time.Time, window time.Duration) DoseStatus {
	if d.Taken {
		return StatusTaken
	}

	delta := now.Sub(d.ScheduledAt)
	switch {
	case delta >= -window && delta <= window:
		return StatusDueNow
	case delta > window:
		return StatusMissed
	default:
		return StatusUpcoming
	}
}
