package medicines

import (
	"errors"
	"fmt"
	"time"
)

// StampLayout es el formato con el que los timestamps de dosis cruzan la
// frontera de almacenamiento (los adapters guardan/leen strings).
const StampLayout = "2006-01-02 15:04:05"

// DateLayout es el formato de start_date en la API y en storage.
const DateLayout = "2006-01-02"

// TimeOfDay es un horario dentro del día, granularidad minuto (segundos = 0).
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// At combina el horario con la fecha calendario de d (hora local).
func (t TimeOfDay) At(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// ParseTimeOfDay acepta "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day must be HH:MM: %w", err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, errors.New("time of day out of range")
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Medicine es la definición de un esquema de tomas. Es dueña exclusiva de sus
// Doses: se crean juntas, se borran juntas.
type Medicine struct {
	ID          string
	OwnerUserID string

	Name      string
	StartDate time.Time // solo fecha; la hora queda en medianoche local
	Days      int
	Times     []TimeOfDay // orden dado por el usuario, 1..5 entradas

	// Invariante: len(Doses) == Days * len(Times), orden día-mayor /
	// horario-menor. Todo consumidor (checklist, reporte) depende de ese orden.
	Doses []Dose

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dose es una toma concreta. ScheduledAt es inmutable una vez generada.
// TakenAt es no-nil si y solo si Taken; la transición false→true ocurre una
// sola vez y no se revierte.
type Dose struct {
	ID          string
	ScheduledAt time.Time
	Taken       bool
	TakenAt     *time.Time
}

// FormatStamp / ParseStamp: el core formatea y parsea en la frontera; un
// string que no parsea es un CorruptRecord (el adapter saltea la dosis).
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}

func ParseStamp(s string) (time.Time, error) {
	return time.ParseInLocation(StampLayout, s, time.Local)
}
