package medicines

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Repository es la pasarela de persistencia de medicamentos. Los adapters
// garantizan que ListByUser devuelve los medicamentos en orden de creación y
// cada uno con sus dosis en el orden canónico de expansión.
type Repository interface {
	Create(ctx context.Context, m Medicine) error
	Update(ctx context.Context, m Medicine) error
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (Medicine, error)
	GetByName(ctx context.Context, ownerUserID, name string) (Medicine, error)
	ListByUser(ctx context.Context, ownerUserID string) ([]Medicine, error)

	// ReplaceDoses reemplaza la lista completa de dosis del medicamento.
	ReplaceDoses(ctx context.Context, medicineID string, doses []Dose) error
}
