package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medtimer/internal/domain/medicines"

	"go.uber.org/zap"
)

// Esquema esperado (migración externa, igual que en el resto de adapters
// los timestamps viajan como strings YYYY-MM-DD HH:MM:SS):
//
//	medicines(id text pk, owner_user_id text, name text, start_date text,
//	          days int, times text, created_at text, updated_at text,
//	          unique(owner_user_id, name))
//	doses(id text pk, medicine_id text references medicines on delete cascade,
//	      position int, scheduled_at text, taken bool, taken_at text null)
type MedicinesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMedicinesRepo(db *sql.DB, logger *zap.Logger) *MedicinesRepo {
	return &MedicinesRepo{db: db, logger: logger}
}

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO medicines (id, owner_user_id, name, start_date, days, times, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE medicines
		SET name = $2, start_date = $3, days = $4, times = $5, updated_at = $6
		WHERE id = $1
	`,
		m.ID, m.Name,
		m.StartDate.Format(medicines.DateLayout),
		m.Days, formatTimes(m.Times),
		medicines.FormatStamp(m.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return medicines.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM doses WHERE medicine_id = $1`, m.ID); err != nil {
		return err
	}
	if err := insertDoses(ctx, tx, m.ID, m.Doses); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MedicinesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medicines.Medicine{}, medicines.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, start_date, days, times, created_at, updated_at
		FROM medicines WHERE id = $1
	`, id)
	return r.scanMedicine(ctx, row)
}

func (r *MedicinesRepo) GetByName(ctx context.Context, ownerUserID, name string) (medicines.Medicine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, name, start_date, days, times, created_at, updated_at
		FROM medicines WHERE owner_user_id = $1 AND name = $2
	`, ownerUserID, name)
	return r.scanMedicine(ctx, row)
}

func (r *MedicinesRepo) ListByUser(ctx context.Context, ownerUserID string) ([]medicines.Medicine, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_user_id, name, start_date, days, times, created_at, updated_at
		FROM medicines WHERE owner_user_id = $1
		ORDER BY created_at ASC, name ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medicines.Medicine, 0)
	for rows.Next() {
		m, err := r.scanMedicineRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		doses, err := r.loadDoses(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Doses = doses
	}
	return out, nil
}

func (r *MedicinesRepo) ReplaceDoses(ctx context.Context, medicineID string, doses []medicines.Dose) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM medicines WHERE id = $1`, medicineID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return medicines.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM doses WHERE medicine_id = $1`, medicineID); err != nil {
		return err
	}
	if err := insertDoses(ctx, tx, medicineID, doses); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MedicinesRepo) scanMedicine(ctx context.Context, row *sql.Row) (medicines.Medicine, error) {
	m, err := r.scanMedicineRow(row)
	if err == sql.ErrNoRows {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	if err != nil {
		return medicines.Medicine{}, err
	}

	doses, err := r.loadDoses(ctx, m.ID)
	if err != nil {
		return medicines.Medicine{}, err
	}
	m.Doses = doses
	return m, nil
}

func (r *MedicinesRepo) scanMedicineRow(row rowScanner) (medicines.Medicine, error) {
	var m medicines.Medicine
	var startDate, timesCSV, createdAt, updatedAt string

	if err := row.Scan(
		&m.ID,
		&m.OwnerUserID,
		&m.Name,
		&startDate,
		&m.Days,
		&timesCSV,
		&createdAt,
		&updatedAt,
	); err != nil {
		return medicines.Medicine{}, err
	}

	if t, err := medicines.ParseStamp(startDate + " 00:00:00"); err == nil {
		m.StartDate = t
	}
	if t, err := medicines.ParseStamp(createdAt); err == nil {
		m.CreatedAt = t
	}
	if t, err := medicines.ParseStamp(updatedAt); err == nil {
		m.UpdatedAt = t
	}
	m.Times = parseTimes(timesCSV)

	return m, nil
}

// loadDoses trae las dosis en orden canónico, salteando (con warning) los
// registros con timestamp corrupto en vez de abortar la carga.
func (r *MedicinesRepo) loadDoses(ctx context.Context, medicineID string) ([]medicines.Dose, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scheduled_at, taken, taken_at
		FROM doses WHERE medicine_id = $1
		ORDER BY position ASC
	`, medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medicines.Dose, 0)
	for rows.Next() {
		var d medicines.Dose
		var sched string
		var takenAt sql.NullString

		if err := rows.Scan(&d.ID, &sched, &d.Taken, &takenAt); err != nil {
			return nil, err
		}

		t, err := medicines.ParseStamp(sched)
		if err != nil {
			r.logger.Warn("skipping corrupt dose record",
				zap.String("medicine_id", medicineID),
				zap.String("dose_id", d.ID),
				zap.String("scheduled_at", sched))
			continue
		}
		d.ScheduledAt = t

		if takenAt.Valid {
			ta, err := medicines.ParseStamp(takenAt.String)
			if err != nil {
				r.logger.Warn("skipping corrupt dose record",
					zap.String("medicine_id", medicineID),
					zap.String("dose_id", d.ID),
					zap.String("taken_at", takenAt.String))
				continue
			}
			d.TakenAt = &ta
		}

		out = append(out, d)
	}
	return out, rows.Err()
}

func insertDoses(ctx context.Context, tx *sql.Tx, medicineID string, doses []medicines.Dose) error {
	for i, d := range doses {
		takenAt := sql.NullString{}
		if d.TakenAt != nil {
			takenAt = sql.NullString{String: medicines.FormatStamp(*d.TakenAt), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doses (id, medicine_id, position, scheduled_at, taken, taken_at)
			VALUES ($1,$2,$3,$4,$5,$6)
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
