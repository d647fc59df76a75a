package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"medtimer/internal/domain/users"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const stampLayout = "2006-01-02 15:04:05"

type UsersRepo struct {
	db *sqlx.DB
}

func NewUsersRepo(db *sqlx.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Age          int    `db:"age"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, age, username, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		u.ID, u.Name, u.Age, u.Username, u.PasswordHash,
		u.CreatedAt.Format(stampLayout),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return users.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, age, username, password_hash, created_at
		FROM users WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	return toUser(row), nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, age, username, password_hash, created_at
		FROM users WHERE username = ?
	`, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	return toUser(row), nil
}

func toUser(row userRow) users.User {
	u := users.User{
		ID:           row.ID,
		Name:         row.Name,
		Age:          row.Age,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
	}
	// created_at ilegible no invalida la cuenta; queda en cero
	if t, err := time.ParseInLocation(stampLayout, row.CreatedAt, time.Local); err == nil {
		u.CreatedAt = t
	}
	return u
}
