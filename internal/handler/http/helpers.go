package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// pathID returns the {id} URL parameter. Every stored id is a UUIDv7, so
// anything else names a record that cannot exist and reports notFound.
func pathID(r *http.Request, notFound error) (string, error) {
	id := chi.URLParam(r, "id")
	if err := checkID(id, notFound); err != nil {
		return "", err
	}
	return id, nil
}

func checkID(id string, notFound error) error {
	if !validator.IsValidUUID(id) {
		return fmt.Errorf("%w: %q", notFound, id)
	}
	return nil
}

// dateQueryParam reads a YYYY-MM-DD query parameter. A missing parameter
// falls back to the calendar date of now.
func dateQueryParam(r *http.Request, key string, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return timeliteral.DateOf(now), true
	}
	return timeliteral.ParseDate(raw)
}

func optionalQueryParam(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}
