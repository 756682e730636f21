package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/bizdash/bizdash/internal/errutil"
	"github.com/bizdash/bizdash/internal/handler/dto"
	"github.com/bizdash/bizdash/internal/middleware"
	"github.com/bizdash/bizdash/internal/model"
	"github.com/bizdash/bizdash/internal/service"
)

// Client-facing messages.
const (
	msgRegistered         = "User registered successfully"
	msgLoggedIn           = "Login successful"
	msgValidationFailed   = "Validation failed"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgInternalError      = "Internal server error"
	msgInvalidBody        = "Invalid request body"
	msgBodyTooLarge       = "Request body too large"
)

// AuthService is the subset of *service.AuthService used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*model.PublicUser, error)
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	ListUsers(ctx context.Context) ([]model.PublicUser, error)
}

// AuthHandler handles HTTP requests for registration, login and user listing.
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, "register", err)
		return
	}

	h.logger.Info("user_registered",
		"user_id", user.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		Message: msgRegistered,
		User:    *user,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, "login", err)
		return
	}

	h.logger.Info("user_logged_in",
		"user_id", result.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Message:   msgLoggedIn,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
		User:      result.User,
	})
}

// ListUsers handles GET /api/users.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "list_users", err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// decode reads a single JSON object from the body. On failure it writes the
// error response and returns false.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	switch {
	case middleware.IsBodyTooLarge(err):
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: msgBodyTooLarge})
	case errors.Is(err, io.EOF):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: msgInvalidBody, Error: "request body is empty"})
	default:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: msgInvalidBody, Error: "malformed JSON"})
	}
	return false
}

// handleServiceError maps service errors to responses. Internal failures are
// logged with their code and answered without detail.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Message: msgValidationFailed,
			Error:   verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, service.ErrDuplicateEmail):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Message: msgUserExists,
			Error:   service.ErrDuplicateEmail.Error(),
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Message: msgInvalidCredentials})
	default:
		errutil.LogError(h.logger, "internal_error", err,
			"operation", op,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Message: msgInternalError,
			Error:   "internal error",
		})
	}
}
