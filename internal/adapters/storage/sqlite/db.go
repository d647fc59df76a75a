// Package sqlite es el store durable por defecto: un archivo local, igual
// que la app original. Se activa con SQLITE_PATH cuando no hay DB_DSN.
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	age           INTEGER NOT NULL,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS medicines (
	id            TEXT PRIMARY KEY,
	owner_user_id TEXT NOT NULL,
	name          TEXT NOT NULL,
	start_date    TEXT NOT NULL,
	days          INTEGER NOT NULL,
	times         TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	UNIQUE (owner_user_id, name)
);

CREATE TABLE IF NOT EXISTS doses (
	id           TEXT PRIMARY KEY,
	medicine_id  TEXT NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	scheduled_at TEXT NOT NULL,
	taken        INTEGER NOT NULL DEFAULT 0,
	taken_at     TEXT
);

CREATE INDEX IF NOT EXISTS idx_medicines_owner ON medicines(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_doses_medicine ON doses(medicine_id, position);
`

func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return db, nil
}
