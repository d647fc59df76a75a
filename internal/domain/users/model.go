package users

import "time"

// User es solo la clave de partición de los medicamentos visibles; el core
// de adherencia no depende de nada más que de su ID.
type User struct {
	ID       string
	Name     string
	Age      int
	Username string

	PasswordHash string

	CreatedAt time.Time
}
