package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"pantry/internal/catalog"
	applog "pantry/internal/log"
	"pantry/internal/pantry"
)

const maxBodyBytes = 1 << 20

var (
	sessionManager *scs.SessionManager
	service        *pantry.Service
	store          *catalog.Catalog
	userHeader     = "X-User-ID"
	expiringWindow = 3
)

// Dependencies are the collaborators shared by every handler.
type Dependencies struct {
	Sessions   *scs.SessionManager
	Service    *pantry.Service
	Catalog    *catalog.Catalog
	UserHeader string
	// ExpiringWindowDays is the default of the days query parameter.
	ExpiringWindowDays int
}

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(deps Dependencies) {
	sessionManager = deps.Sessions
	service = deps.Service
	store = deps.Catalog
	if strings.TrimSpace(deps.UserHeader) != "" {
		userHeader = deps.UserHeader
	}
	if deps.ExpiringWindowDays > 0 {
		expiringWindow = deps.ExpiringWindowDays
	}
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if service == nil || store == nil {
		applog.Debug(r.Context(), "api request without configured service", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type errorResponse struct {
	Error      string             `json:"error"`
	Code       pantry.Kind        `json:"code"`
	Ingredient string             `json:"ingredient,omitempty"`
	Unit       string             `json:"unit,omitempty"`
	Shortfalls []pantry.Shortfall `json:"shortfalls,omitempty"`
	Retryable  bool               `json:"retryable,omitempty"`
}

func statusFor(kind pantry.Kind) int {
	switch kind {
	case pantry.KindInvalidArgument, pantry.KindInvalidFactor:
		return http.StatusBadRequest
	case pantry.KindNotFound:
		return http.StatusNotFound
	case pantry.KindConflict, pantry.KindConversionExists, pantry.KindStaleWrite:
		return http.StatusConflict
	case pantry.KindInsufficientStock, pantry.KindUnknownConversion, pantry.KindUnknownIngredient:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err. Errors without a pantry kind are logged and
// reported as internal failures without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *pantry.Error
	if !errors.As(err, &pe) {
		applog.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := statusFor(pe.Kind)
	applog.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "code", string(pe.Kind), "error", err)
	writeJSON(w, status, errorResponse{
		Error:      pe.Error(),
		Code:       pe.Kind,
		Ingredient: pe.Ingredient,
		Unit:       pe.Unit,
		Shortfalls: pe.Shortfalls,
		Retryable:  pantry.IsRetryable(err),
	})
}

func invalid(format string, args ...any) error {
	return &pantry.Error{Kind: pantry.KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalid("malformed request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &pantry.Error{Kind: pantry.KindNotFound, Message: fmt.Sprintf("%s %q does not exist", name, raw)}
	}
	return uint(id), nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("query parameter %s must be an integer, got %q", name, raw)
	}
	return value, nil
}

// ingredientRef accepts either a JSON number (an id) or a string (an id or a
// name).
type ingredientRef string

func (ref *ingredientRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*ref = ingredientRef(name)
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("ingredient must be an id or a name")
	}
	*ref = ingredientRef(strconv.FormatUint(id, 10))
	return nil
}
