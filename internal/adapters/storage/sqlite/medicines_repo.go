package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"medtimer/internal/domain/medicines"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type MedicinesRepo struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMedicinesRepo(db *sqlx.DB, logger *zap.Logger) *MedicinesRepo {
	return &MedicinesRepo{db: db, logger: logger}
}

type medicineRow struct {
	ID          string `db:"id"`
	OwnerUserID string `db:"owner_user_id"`
	Name        string `db:"name"`
	StartDate   string `db:"start_date"`
	Days        int    `db:"days"`
	Times       string `db:"times"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

type doseRow struct {
	ID          string         `db:"id"`
	MedicineID  string         `db:"medicine_id"`
	Position    int            `db:"position"`
	ScheduledAt string         `db:"scheduled_at"`
	Taken       bool           `db:"taken"`
	TakenAt     sql.NullString `db:"taken_at"`
}

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO medicines (id, owner_user_id, name, start_date, days, times, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.OwnerUserID, m.Name,
		m.StartDate.Format(medicines.DateLayout),
		m.Days, formatTimes(m.Times),
		medicines.FormatStamp(m.CreatedAt),
		medicines.FormatStamp(m.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if err := insertDoses(ctx, tx, m.ID, m.Doses); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MedicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE medicines
		SET name = ?, start_date = ?, days = ?, times = ?, updated_at = ?
		WHERE id = ?
	`,
		m.Name,
		m.StartDate.Format(medicines.DateLayout),
		m.Days, formatTimes(m.Times),
		medicines.FormatStamp(m.UpdatedAt),
		m.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return medicines.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM doses WHERE medicine_id = ?`, m.ID); err != nil {
		return err
	}
	if err := insertDoses(ctx, tx, m.ID, m.Doses); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MedicinesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	var row medicineRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, owner_user_id, name, start_date, days, times, created_at, updated_at
		FROM medicines WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	if err != nil {
		return medicines.Medicine{}, err
	}
	return r.hydrate(ctx, row)
}

func (r *MedicinesRepo) GetByName(ctx context.Context, ownerUserID, name string) (medicines.Medicine, error) {
	var row medicineRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, owner_user_id, name, start_date, days, times, created_at, updated_at
		FROM medicines WHERE owner_user_id = ? AND name = ?
	`, ownerUserID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	if err != nil {
		return medicines.Medicine{}, err
	}
	return r.hydrate(ctx, row)
}

func (r *MedicinesRepo) ListByUser(ctx context.Context, ownerUserID string) ([]medicines.Medicine, error) {
	var rows []medicineRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, owner_user_id, name, start_date, days, times, created_at, updated_at
		FROM medicines WHERE owner_user_id = ?
		ORDER BY created_at ASC, name ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}

	out := make([]medicines.Medicine, 0, len(rows))
	for _, row := range rows {
		m, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MedicinesRepo) ReplaceDoses(ctx context.Context, medicineID string, doses []medicines.Dose) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM medicines WHERE id = ?`, medicineID); err != nil {
		return err
	}
	if exists == 0 {
		return medicines.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM doses WHERE medicine_id = ?`, medicineID); err != nil {
		return err
	}
	if err := insertDoses(ctx, tx, medicineID, doses); err != nil {
		return err
	}
	return tx.Commit()
}

// hydrate completa el medicamento con sus dosis en orden canónico. Una dosis
// con timestamp ilegible es un registro corrupto: se saltea con warning en
// vez de abortar la carga entera.
func (r *MedicinesRepo) hydrate(ctx context.Context, row medicineRow) (medicines.Medicine, error) {
	start, err := medicines.ParseStamp(row.StartDate + " 00:00:00")
	if err != nil {
		return medicines.Medicine{}, fmt.Errorf("medicine %s: bad start_date %q", row.ID, row.StartDate)
	}
	createdAt, err := medicines.ParseStamp(row.CreatedAt)
	if err != nil {
		return medicines.Medicine{}, fmt.Errorf("medicine %s: bad created_at %q", row.ID, row.CreatedAt)
	}
	updatedAt, err := medicines.ParseStamp(row.UpdatedAt)
	if err != nil {
		return medicines.Medicine{}, fmt.Errorf("medicine %s: bad updated_at %q", row.ID, row.UpdatedAt)
	}

	m := medicines.Medicine{
		ID:          row.ID,
		OwnerUserID: row.OwnerUserID,
		Name:        row.Name,
		StartDate:   start,
		Days:        row.Days,
		Times:       parseTimes(row.Times),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}

	var drows []doseRow
	err = r.db.SelectContext(ctx, &drows, `
		SELECT id, medicine_id, position, scheduled_at, taken, taken_at
		FROM doses WHERE medicine_id = ?
		ORDER BY position ASC
	`, row.ID)
	if err != nil {
		return medicines.Medicine{}, err
	}

	m.Doses = make([]medicines.Dose, 0, len(drows))
	for _, dr := range drows {
		sched, err := medicines.ParseStamp(dr.ScheduledAt)
		if err != nil {
			r.logger.Warn("skipping corrupt dose record",
				zap.String("medicine_id", row.ID),
				zap.String("dose_id", dr.ID),
				zap.String("scheduled_at", dr.ScheduledAt))
			continue
		}

		d := medicines.Dose{ID: dr.ID, ScheduledAt: sched, Taken: dr.Taken}
		if dr.TakenAt.Valid {
			ta, err := medicines.ParseStamp(dr.TakenAt.String)
			if err != nil {
				r.logger.Warn("skipping corrupt dose record",
					zap.String("medicine_id", row.ID),
					zap.String("dose_id", dr.ID),
					zap.String("taken_at", dr.TakenAt.String))
				continue
			}
			d.TakenAt = &ta
		}
		m.Doses = append(m.Doses, d)
	}

	return m, nil
}

func insertDoses(ctx context.Context, tx *sqlx.Tx, medicineID string, doses []medicines.Dose) error {
	for i, d := range doses {
		takenAt := sql.NullString{}
		if d.TakenAt != nil {
			takenAt = sql.NullString{String: medicines.FormatStamp(*d.TakenAt), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doses (id, medicine_id, position, scheduled_at, taken, taken_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			d.ID, medicineID, i,
			medicines.FormatStamp(d.ScheduledAt),
			d.Taken, takenAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func formatTimes(times []medicines.TimeOfDay) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ",")
}

func parseTimes(s string) []medicines.TimeOfDay {
	out := make([]medicines.TimeOfDay, 0)
	for _, part := range strings.Split(s, ",") {
		t, err := medicines.ParseTimeOfDay(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}
