package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

const refreshCookieName = "refresh_token"

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// writeJSONError writes an error response in JSON format
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    statusCode,
	})
}

// authorize loads the token's user and attaches it as the request owner.
func (s *service) authorize(w http.ResponseWriter, r *http.Request, next http.Handler, userID string) {
	existingUser, err := s.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "User not found")
			return
		}
		s.log.WithFields(logrus.Fields{"path": r.URL.Path, "user_id": userID}).WithError(err).Error("could not load token user")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !existingUser.IsActive {
		writeJSONError(w, http.StatusForbidden, "Account is inactive")
		return
	}

	owner, err := identity.NewOwner(existingUser.ID)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), owner)))
}

func (s *service) JWTAccessTokenMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			userID, err := s.jwtManager.ValidateAccessToken(tokenString)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			s.authorize(w, r, next, userID)
		})
	}
}

func (s *service) JWTRefreshTokenMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(refreshCookieName)
			if err != nil || cookie.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "Refresh token is required")
				return
			}

			userID, err := s.jwtManager.ExtractUserIDFromRefreshToken(cookie.Value)
			if err != nil {
				if errors.Is(err, ErrExpiredJWTToken) {
					writeJSONError(w, http.StatusUnauthorized, "Refresh token is expired")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "Invalid refresh token")
				return
			}

			existingUser, err := s.userService.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					writeJSONError(w, http.StatusUnauthorized, "User not found")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if err := s.jwtManager.ValidateRefreshToken(cookie.Value, existingUser.HashToken); err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid refresh token")
				return
			}
			s.authorize(w, r, next, userID)
		})
	}
}
