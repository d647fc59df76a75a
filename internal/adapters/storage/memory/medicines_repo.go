package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medtimer/internal/domain/medicines"
)

type medicinesRepo struct {
	mu   sync.RWMutex
	byID map[string]medicines.Medicine
}

func NewMedicinesRepo() medicines.Repository {
	return &medicinesRepo{
		byID: make(map[string]medicines.Medicine),
	}
}

func (r *medicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medicine id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medicine already exists")
	}
	r.byID[m.ID] = clone(m)
	return nil
}

func (r *medicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; !exists {
		return medicines.ErrNotFound
	}
	r.byID[m.ID] = clone(m)
	return nil
}

func (r *medicinesRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return medicines.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *medicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return clone(m), nil
}

func (r *medicinesRepo) GetByName(ctx context.Context, ownerUserID, name string) (medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.byID {
		if m.OwnerUserID == ownerUserID && m.Name == name {
			return clone(m), nil
		}
	}
	return medicines.Medicine{}, medicines.ErrNotFound
}

func (r *medicinesRepo) ListByUser(ctx context.Context, ownerUserID string) ([]medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicines.Medicine, 0)
	for _, m := range r.byID {
		if m.OwnerUserID == ownerUserID {
			out = append(out, clone(m))
		}
	}

	// Orden estable por created_at asc; de esto depende el orden de filas
	// del reporte entre medicamentos.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *medicinesRepo) ReplaceDoses(ctx context.Context, medicineID string, doses []medicines.Dose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[medicineID]
	if !ok {
		return medicines.ErrNotFound
	}
	m.Doses = append([]medicines.Dose(nil), doses...)
	r.byID[medicineID] = m
	return nil
}

// clone copia los slices para que las mutaciones del service no toquen lo
// guardado hasta el write correspondiente.
func clone(m medicines.Medicine) medicines.Medicine {
	m.Times = append([]medicines.TimeOfDay(nil), m.Times...)
	m.Doses = append([]medicines.Dose(nil), m.Doses...)
	return m
}
