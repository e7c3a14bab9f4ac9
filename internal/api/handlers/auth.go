package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmr/account-service/internal/api/middleware"
	"github.com/dmr/account-service/internal/config"
	"github.com/dmr/account-service/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public user projection. The password hash is never
// part of it.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	SignupDate time.Time `json:"signupDate"`
}

type AuthData struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationErrors(w, fieldErrors(err))
		return
	}

	result, err := h.authService.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, err, h.cfg.IsDevelopment())
		return
	}

	respondData(w, http.StatusCreated, "User created successfully", AuthData{
		User:  userResponse(result),
		Token: result.Token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationErrors(w, fieldErrors(err))
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, err, h.cfg.IsDevelopment())
		return
	}

	respondData(w, http.StatusOK, "Login successful", AuthData{
		User:  userResponse(result),
		Token: result.Token,
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, h.cfg.IsDevelopment())
		return
	}

	respondData(w, http.StatusOK, "", map[string]UserResponse{
		"user": {
			ID:         user.ID.String(),
			Name:       user.Name,
			Email:      user.Email,
			SignupDate: user.SignupDate,
		},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		respondServiceError(w, err, h.cfg.IsDevelopment())
		return
	}

	respondJSON(w, http.StatusOK, Envelope{Success: true, Message: "Logout successful"})
}

func userResponse(result *service.AuthResult) UserResponse {
	return UserResponse{
		ID:         result.User.ID.String(),
		Name:       result.User.Name,
		Email:      result.User.Email,
		SignupDate: result.User.SignupDate,
	}
}
