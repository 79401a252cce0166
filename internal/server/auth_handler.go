package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-intake/internal/logger"
	"github.com/jonathan/resume-intake/internal/server/middleware"
	"github.com/jonathan/resume-intake/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	log         *logger.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		log:         log,
	}
}

// Login handles user login requests. Provisioned accounts are told to rotate their password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, validationError(err))
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.respond(w, http.StatusOK, types.LoginResponse{
		User:               user,
		Token:              token,
		MustChangePassword: user.MustChangePassword,
	})
}

// Me returns the signed-in user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		h.respond(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, user)
}

// UpdatePassword rotates the signed-in user's password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		h.respond(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req types.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, validationError(err))
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

// CreateUser lets an administrator create an account.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, validationError(err))
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("account created")
	h.respond(w, http.StatusCreated, user)
}

func (h *AuthHandler) respond(w http.ResponseWriter, status int, data any) {
	if err := writeJSON(w, status, data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *AuthHandler) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("auth request failed")
	}
	h.respond(w, status, errorBody(err, status))
}

// validationError converts the first validator failure into an ErrValidation.
func validationError(err error) *ErrValidation {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: fmt.Sprintf("invalid request: %v", err)}
}
