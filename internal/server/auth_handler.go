package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/workjournal/internal/db"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the signed token and its profile.
type AuthResponse struct {
	Token string      `json:"token"`
	User  *db.Profile `json:"user"`
}

// AuthHandler handles registration and login requests.
type AuthHandler struct {
	users    *UserService
	jwt      *JWTService
	validate *validator.Validate
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(users *UserService, jwt *JWTService) *AuthHandler {
	return &AuthHandler{
		users:    users,
		jwt:      jwt,
		validate: validator.New(),
	}
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, formatValidationError(err))
		return
	}

	profile, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		var exists *ErrEmailAlreadyExists
		if errors.As(err, &exists) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		log.Printf("[auth] registration failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := h.jwt.GenerateToken(profile.ID)
	if err != nil {
		log.Printf("[auth] token generation failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: profile})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, formatValidationError(err))
		return
	}

	profile, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var badCredentials *ErrInvalidCredentials
		if errors.As(err, &badCredentials) {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		log.Printf("[auth] login failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.jwt.GenerateToken(profile.ID)
	if err != nil {
		log.Printf("[auth] token generation failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: profile})
}

// formatValidationError turns a validator error into a readable message.
func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "email must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
