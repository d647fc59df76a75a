package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"medtimer/internal/domain/users"

	"github.com/jackc/pgx/v5/pgconn"
)

// users(id text pk, name text, age int, username text unique,
//       password_hash text, created_at text)
type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, age, username, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		u.ID, u.Name, u.Age, u.Username, u.PasswordHash,
		u.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return users.ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, age, username, password_hash, created_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, age, username, password_hash, created_at
		FROM users WHERE username = $1
	`, strings.TrimSpace(username))
	return scanUser(row)
}

func scanUser(row *sql.Row) (users.User, error) {
	var u users.User
	var createdAt string

	if err := row.Scan(&u.ID, &u.Name, &u.Age, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}

	if t, err := time.ParseInLocation("2006-01-02 15:04:05", createdAt, time.Local); err == nil {
		u.CreatedAt = t
	}
	return u, nil
}
