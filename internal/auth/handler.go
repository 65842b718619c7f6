package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sebuszqo/BudgetManager/internal/user"
	"github.com/sirupsen/logrus"
)

const refreshCookiePath = "/api/refresh/token"

type Handler struct {
	authService   Service
	refreshTTL    time.Duration
	secureCookies bool
	log           logrus.FieldLogger
}

func NewHandler(authService Service, refreshTTL time.Duration, secureCookies bool, log logrus.FieldLogger) *Handler {
	return &Handler{
		authService:   authService,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
		log:           log,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondSuccess(w http.ResponseWriter, message string, data interface{}) {
	payload := map[string]interface{}{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		payload["data"] = data
	}
	respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).WithError(err).Error(message)
	writeJSONError(w, http.StatusInternalServerError, message)
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) respondTokens(w http.ResponseWriter, message string, tokens *Tokens) {
	h.setRefreshCookie(w, tokens.RefreshToken, int(h.refreshTTL.Seconds()))
	respondSuccess(w, message, map[string]string{
		"access_token": tokens.AccessToken,
		"token_type":   "bearer",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// decodeLogin accepts a JSON body or the OAuth2 password form
// (username, password).
func decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, ErrUserInactive):
			writeJSONError(w, http.StatusForbidden, "Account is inactive")
		default:
			h.internalError(w, r, err, "Could not log in")
		}
		return
	}

	if result.TwoFactorRequired() {
		respondSuccess(w, "Two-factor authentication required", map[string]interface{}{
			"two_factor_required": true,
			"session_token":       result.SessionToken,
		})
		return
	}
	h.respondTokens(w, "Login successful.", result.Tokens)
}

func (h *Handler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionToken string `json:"session_token"`
		Code         string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionToken == "" || req.Code == "" {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.VerifyTwoFactor(r.Context(), req.SessionToken, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSessionToken), errors.Is(err, ErrExpiredSessionToken):
			writeJSONError(w, http.StatusUnauthorized, "Session token is invalid or expired")
		case errors.Is(err, ErrInvalid2FACode):
			writeJSONError(w, http.StatusUnauthorized, "Invalid two-factor code")
		case errors.Is(err, ErrUser2FANotEnabled), errors.Is(err, ErrTwoFactorNotRegistered):
			writeJSONError(w, http.StatusBadRequest, "Two-factor authentication is not enabled")
		case errors.Is(err, user.ErrUserNotFound):
			writeJSONError(w, http.StatusUnauthorized, "User not found")
		default:
			h.internalError(w, r, err, "Could not verify two-factor authentication")
		}
		return
	}
	h.respondTokens(w, "Login successful.", result.Tokens)
}

func (h *Handler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tokens, err := h.authService.RefreshAccessToken(r.Context(), owner.String())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			writeJSONError(w, http.StatusUnauthorized, "User not found")
		case errors.Is(err, ErrUserInactive):
			writeJSONError(w, http.StatusForbidden, "Account is inactive")
		default:
			h.internalError(w, r, err, "Could not refresh token")
		}
		return
	}
	h.respondTokens(w, "Token refreshed.", tokens)
}

// HandleLogout clears the refresh cookie. Access tokens stay valid until
// they expire.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.setRefreshCookie(w, "", -1)
	respondSuccess(w, "Logout successful.", nil)
}

func (h *Handler) HandleRegisterTwoFactor(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	otpURI, err := h.authService.RegisterTwoFactor(r.Context(), owner.String())
	if err != nil {
		if errors.Is(err, ErrUser2FAAlreadyEnabled) {
			writeJSONError(w, http.StatusConflict, "Two-factor authentication is already enabled")
			return
		}
		h.internalError(w, r, err, "Could not register two-factor authentication")
		return
	}

	respondSuccess(w, "Two-factor authentication initiated. Please verify to enable.", map[string]string{
		"otp_uri": otpURI,
	})
}

func decodeCode(r *http.Request) (string, bool) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	code := strings.TrimSpace(req.Code)
	return code, code != ""
}

func (h *Handler) HandleVerifyTwoFactorRegistration(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	code, ok := decodeCode(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authService.VerifyTwoFactorRegistration(r.Context(), owner.String(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalid2FACode):
			writeJSONError(w, http.StatusUnauthorized, "Invalid two-factor code")
		case errors.Is(err, ErrUser2FAAlreadyEnabled):
			writeJSONError(w, http.StatusConflict, "Two-factor authentication is already enabled")
		case errors.Is(err, ErrTwoFactorNotRegistered):
			writeJSONError(w, http.StatusBadRequest, "Two-factor authentication has not been registered")
		default:
			h.internalError(w, r, err, "Could not verify two-factor registration")
		}
		return
	}

	respondSuccess(w, "Two-factor authentication enabled.", nil)
}

func (h *Handler) HandleDisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	code, ok := decodeCode(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authService.DisableTwoFactor(r.Context(), owner.String(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalid2FACode):
			writeJSONError(w, http.StatusUnauthorized, "Invalid two-factor code")
		case errors.Is(err, ErrUser2FANotEnabled), errors.Is(err, ErrTwoFactorNotRegistered):
			writeJSONError(w, http.StatusBadRequest, "Two-factor authentication is not enabled")
		default:
			h.internalError(w, r, err, "Could not disable two-factor authentication")
		}
		return
	}

	respondSuccess(w, "Two-factor authentication disabled successfully.", nil)
}
