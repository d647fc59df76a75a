package medicines

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

// EditPolicy define qué pasa con el historial de tomas al editar un esquema.
// El regenerado de dosis es total; "preserve" re-aplica Taken/TakenAt a los
// slots (fecha, horario) que sobreviven al cambio, "reset" descarta todo.
type EditPolicy string

const (
	EditPolicyPreserve EditPolicy = "preserve"
	EditPolicyReset    EditPolicy = "reset"
)

type Service struct {
	repo      Repository
	policy    EditPolicy
	dueWindow time.Duration
	now       func() time.Time
}

type Config struct {
	EditPolicy EditPolicy    // default: preserve
	DueWindow  time.Duration // default: DefaultDueWindow
}

func NewService(repo Repository, cfg Config) *Service {
	if cfg.EditPolicy == "" {
		cfg.EditPolicy = EditPolicyPreserve
	}
	if cfg.DueWindow <= 0 {
		cfg.DueWindow = DefaultDueWindow
	}
	return &Service{
		repo:      repo,
		policy:    cfg.EditPolicy,
		dueWindow: cfg.DueWindow,
		now:       time.Now,
	}
}

type SaveInput struct {
	Name      string
	StartDate time.Time
	Days      int
	Times     []TimeOfDay
}

// Save crea el medicamento, o si ya existe uno del mismo usuario con el mismo
// nombre, lo edita regenerando la lista de dosis completa (upsert por
// usuario+nombre). El formulario ya viene validado por el handler; acá solo
// se chequean los rangos duros.
func (s *Service) Save(ctx context.Context, ownerUserID string, in SaveInput) (Medicine, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Medicine{}, ErrInvalidInput
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Medicine{}, ErrInvalidInput
	}
	if in.StartDate.IsZero() {
		return Medicine{}, ErrInvalidInput
	}
	if in.Days < MinDays || in.Days > MaxDays {
		return Medicine{}, ErrInvalidInput
	}
	if len(in.Times) < MinTimesPerDay || len(in.Times) > MaxTimesPerDay {
		return Medicine{}, ErrInvalidInput
	}

	now := s.now()
	doses := ExpandDoses(in.StartDate, in.Days, in.Times)

	existing, err := s.repo.GetByName(ctx, ownerUserID, in.Name)
	switch {
	case err == nil:
		if s.policy == EditPolicyPreserve {
			carryOverTaken(doses, existing.Doses)
		}
		m := existing
		m.StartDate = atMidnight(in.StartDate)
		m.Days = in.Days
		m.Times = in.Times
		m.Doses = doses
		m.UpdatedAt = now
		if err := s.repo.Update(ctx, m); err != nil {
			return Medicine{}, fmt.Errorf("persistence: %w", err)
		}
		return m, nil

	case errors.Is(err, ErrNotFound):
		m := Medicine{
			ID:          uuid.NewString(),
			OwnerUserID: ownerUserID,
			Name:        in.Name,
			StartDate:   atMidnight(in.StartDate),
			Days:        in.Days,
			Times:       in.Times,
			Doses:       doses,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, m); err != nil {
			return Medicine{}, fmt.Errorf("persistence: %w", err)
		}
		return m, nil

	default:
		return Medicine{}, fmt.Errorf("persistence: %w", err)
	}
}

// carryOverTaken re-aplica el historial sobre las dosis regeneradas: si el
// esquema anterior tenía una toma registrada para el mismo instante
// programado, la nueva dosis nace tomada con su TakenAt original.
func carryOverTaken(fresh []Dose, prior []Dose) {
	byStamp := make(map[string]Dose, len(prior))
	for _, d := range prior {
		if d.Taken {
			byStamp[FormatStamp(d.ScheduledAt)] = d
		}
	}
	for i := range fresh {
		if p, ok := byStamp[FormatStamp(fresh[i].ScheduledAt)]; ok {
			fresh[i].Taken = true
			fresh[i].TakenAt = p.TakenAt
		}
	}
}

// MarkTaken registra la toma de una dosis. Devuelve changed=false (sin error)
// cuando el medicamento o la dosis ya no existen, no pertenecen al usuario, o
// la dosis ya estaba tomada: la operación es un no-op recuperable, nunca un
// error duro para el caller. TakenAt se setea exactamente una vez.
func (s *Service) MarkTaken(ctx context.Context, ownerUserID, medicineID, doseID string, now time.Time) (Medicine, bool, error) {
	if now.IsZero() {
		now = s.now()
	}

	m, err := s.repo.GetByID(ctx, medicineID)
	if errors.Is(err, ErrNotFound) {
		return Medicine{}, false, nil
	}
	if err != nil {
		return Medicine{}, false, fmt.Errorf("persistence: %w", err)
	}
	if m.OwnerUserID != ownerUserID {
		return Medicine{}, false, nil
	}

	idx := -1
	for i := range m.Doses {
		if m.Doses[i].ID == doseID {
			idx = i
			break
		}
	}
	if idx < 0 || m.Doses[idx].Taken {
		return m, false, nil
	}

	t := now
	m.Doses[idx].Taken = true
	m.Doses[idx].TakenAt = &t
	m.UpdatedAt = s.now()

	if err := s.repo.ReplaceDoses(ctx, m.ID, m.Doses); err != nil {
		return Medicine{}, false, fmt.Errorf("persistence: %w", err)
	}
	return m, true, nil
}

// DeleteMedicine borra el medicamento entero con todas sus dosis.
// Inexistente o ajeno => no-op con changed=false.
func (s *Service) DeleteMedicine(ctx context.Context, ownerUserID, medicineID string) (bool, error) {
	m, err := s.repo.GetByID(ctx, medicineID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persistence: %w", err)
	}
	if m.OwnerUserID != ownerUserID {
		return false, nil
	}

	if err := s.repo.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("persistence: %w", err)
	}
	return true, nil
}

// DeleteDose borra una dosis puntual; si la lista queda vacía, el medicamento
// se poda entero. Inexistente => no-op con changed=false.
func (s *Service) DeleteDose(ctx context.Context, ownerUserID, medicineID, doseID string) (bool, error) {
	m, err := s.repo.GetByID(ctx, medicineID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persistence: %w", err)
	}
	if m.OwnerUserID != ownerUserID {
		return false, nil
	}

	idx := -1
	for i := range m.Doses {
		if m.Doses[i].ID == doseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	m.Doses = append(m.Doses[:idx], m.Doses[idx+1:]...)
	if len(m.Doses) == 0 {
		if err := s.repo.Delete(ctx, m.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("persistence: %w", err)
		}
		return true, nil
	}

	if err := s.repo.ReplaceDoses(ctx, m.ID, m.Doses); err != nil {
		return false, fmt.Errorf("persistence: %w", err)
	}
	return true, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medicine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, ownerUserID string) ([]Medicine, error) {
	return s.repo.ListByUser(ctx, ownerUserID)
}

// DoseView es lo que consume la capa de presentación por cada dosis del
// checklist: la dosis más su estado calculado.
type DoseView struct {
	MedicineID   string
	MedicineName string
	DoseID       string
	ScheduledAt  time.Time
	Taken        bool
	TakenAt      *time.Time
	Status       DoseStatus
}

type ChecklistView struct {
	Items []DoseView
	Score int
}

// Checklist arma la vista del día: las dosis programadas para la fecha de
// "now" en orden canónico, cada una clasificada contra "now", más el score de
// adherencia sobre todas las dosis del usuario.
func (s *Service) Checklist(ctx context.Context, ownerUserID string, now time.Time) (ChecklistView, error) {
	if now.IsZero() {
		now = s.now()
	}

	meds, err := s.repo.ListByUser(ctx, ownerUserID)
	if err != nil {
		return ChecklistView{}, fmt.Errorf("persistence: %w", err)
	}

	view := ChecklistView{Items: make([]DoseView, 0), Score: Score(meds)}
	for _, m := range meds {
		for _, d := range m.Doses {
			if !sameDay(d.ScheduledAt, now) {
				continue
			}
			view.Items = append(view.Items, DoseView{
				MedicineID:   m.ID,
				MedicineName: m.Name,
				DoseID:       d.ID,
				ScheduledAt:  d.ScheduledAt,
				Taken:        d.Taken,
				TakenAt:      d.TakenAt,
				Status:       Classify(d, now, s.dueWindow),
			})
		}
	}
	return view, nil
}
