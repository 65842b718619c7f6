package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

type (
	RespondJSONFunc  func(w http.ResponseWriter, status int, payload interface{})
	RespondErrorFunc func(w http.ResponseWriter, status int, message string, errors ...[]string)
)

// responder is shared by every finance handler: envelope helpers plus the
// mapping from service errors to status codes.
type responder struct {
	respondJSON  RespondJSONFunc
	respondError RespondErrorFunc
	log          logrus.FieldLogger
}

func newResponder(respondJSON RespondJSONFunc, respondError RespondErrorFunc, log logrus.FieldLogger) responder {
	if respondJSON == nil || respondError == nil || log == nil {
		panic("response functions and logger must not be nil")
	}
	return responder{respondJSON: respondJSON, respondError: respondError, log: log}
}

func (h responder) success(w http.ResponseWriter, status int, message string, data interface{}) {
	h.respondJSON(w, status, map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func (h responder) owner(w http.ResponseWriter, r *http.Request) (identity.Owner, bool) {
	owner, ok := identity.FromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return identity.Owner{}, false
	}
	return owner, true
}

// fail maps err to a response. Only unexpected errors are logged; action
// completes the generic "Failed to ..." message returned for those.
func (h responder) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	var validationErrors *financeErrors.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		h.respondError(w, http.StatusBadRequest, "Validation errors occurred", validationErrors.Messages())
	case financeErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case financeErrors.IsNotFound(err):
		h.respondError(w, http.StatusNotFound, capitalize(err.Error()))
	case financeErrors.IsConflict(err):
		h.respondError(w, http.StatusConflict, capitalize(err.Error()))
	default:
		fields := logrus.Fields{"method": r.Method, "path": r.URL.Path}
		if owner, ok := identity.FromContext(r.Context()); ok {
			fields["user_id"] = owner.String()
		}
		h.log.WithFields(fields).WithError(err).Error("failed to " + action)
		h.respondError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// decode reads a JSON body. Field level validation errors raised while
// decoding are reported as is.
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if financeErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return false
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h responder) pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

const dateLayout = "2006-01-02"

// parseDate accepts RFC 3339 timestamps and plain dates. dateOnly reports the latter.
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err = time.Parse(dateLayout, s)
	return t, err == nil, err
}

// flexibleTime is a JSON date that may be sent as RFC 3339 or YYYY-MM-DD.
type flexibleTime struct {
	time.Time
}

func (f *flexibleTime) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return financeErrors.NewValidationError("Date must be a string")
	}
	t, _, err := parseDate(strings.TrimSpace(s))
	if err != nil {
		return financeErrors.NewValidationError("Date must use RFC 3339 or YYYY-MM-DD")
	}
	f.Time = t
	return nil
}

func (f *flexibleTime) ptr() *time.Time {
	if f == nil {
		return nil
	}
	t := f.Time
	return &t
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
