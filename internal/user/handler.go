package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode"

	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	userService Service
	log         logrus.FieldLogger
}

func NewHandler(userService Service, log logrus.FieldLogger) *Handler {
	return &Handler{
		userService: userService,
		log:         log,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

func respondSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case IsValidationError(err):
		respondError(w, http.StatusBadRequest, capitalize(err.Error()))
	case IsConflict(err):
		respondError(w, http.StatusConflict, capitalize(err.Error()))
	case errors.Is(err, ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	default:
		h.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).WithError(err).Error(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Could not register user")
		return
	}

	respondSuccess(w, http.StatusCreated, "User successfully registered.", user)
}

func (h *Handler) HandleGetUserProfile(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), owner.String())
	if err != nil {
		h.fail(w, r, err, "Could not fetch user data")
		return
	}

	respondSuccess(w, http.StatusOK, "User retrieved successfully.", user)
}

func (h *Handler) HandleUpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), owner.String(), req)
	if err != nil {
		h.fail(w, r, err, "Could not update user")
		return
	}

	respondSuccess(w, http.StatusOK, "User successfully updated.", user)
}
