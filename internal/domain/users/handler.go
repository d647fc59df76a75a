package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medtimer/internal/domain/reminders"
	"medtimer/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// TokenIssuer emite el token de sesión tras un login válido. Lo implementa
// el adapter de tokens; este paquete no conoce JWT.
type TokenIssuer interface {
	Issue(userID, username string) (string, time.Time, error)
}

func RegisterRoutes(r chi.Router, svc *Service, issuer TokenIssuer, sessions *reminders.SessionStore) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc, issuer, sessions))
		ar.Post("/logout", logoutHandler(sessions))
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Username string `json:"username"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// registerHandler godoc
// @Summary Crear cuenta
// @Description Registra un usuario nuevo. El username es único.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de la cuenta"
// @Success 201 {object} userResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 409 {string} string "username already exists"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Name,
			Age:      req.Age,
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				http.Error(w, "username already exists", http.StatusConflict)
				return
			}
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

// loginHandler godoc
// @Summary Login
// @Description Valida credenciales, emite token y abre la sesión de
// recordatorios (el set de dosis notificadas arranca vacío).
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "invalid credentials"
// @Router /auth/login [post]
func loginHandler(svc *Service, issuer TokenIssuer, sessions *reminders.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		token, exp, err := issuer.Issue(u.ID, u.Username)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		sessions.Start(u.ID)

		writeJSON(w, http.StatusOK, loginResponse{
			Token:     token,
			ExpiresAt: exp,
			User:      toUserResponse(u),
		})
	}
}

// logoutHandler cierra la sesión de recordatorios. El token en sí no se
// revoca (expira solo); lo que importa acá es descartar el set de notificadas.
func logoutHandler(sessions *reminders.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sessions.End(claims.UserID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:       u.ID,
		Name:     u.Name,
		Age:      u.Age,
		Username: u.Username,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
