package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
)

const maxBodyBytes = 1 << 16

// riskRequest is the POST body for /api/risk. The date may be given as
// "MM-DD" or as separate month and day fields.
type riskRequest struct {
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Location string   `json:"location"`
	Date     string   `json:"date"`
	Month    int      `json:"month"`
	Day      int      `json:"day"`
	Year     int      `json:"year"`
}

// hasCoordinates reports whether both lat and lon were sent. Without them the
// location name is geocoded.
func (r riskRequest) hasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

func (r riskRequest) toQuery() (domain.TargetQuery, error) {
	if (r.Lat == nil) != (r.Lon == nil) {
		return domain.TargetQuery{}, fmt.Errorf("%w: lat and lon must be given together", domain.ErrInvalidInput)
	}
	q := domain.TargetQuery{
		Location: r.Location,
		Month:    r.Month,
		Day:      r.Day,
		Year:     r.Year,
	}
	if r.hasCoordinates() {
		q.Latitude, q.Longitude = *r.Lat, *r.Lon
	}
	if r.Date != "" {
		m, d, err := domain.ParseMonthDay(r.Date)
		if err != nil {
			return domain.TargetQuery{}, err
		}
		q.Month, q.Day = m, d
	}
	return q, nil
}

type riskHandler struct {
	assessor Assessor
	logger   *slog.Logger
}

func (h *riskHandler) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	q, err := req.toQuery()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.hasCoordinates() {
		if q, err = h.assessor.Locate(r.Context(), q); err != nil {
			h.writeFailure(w, err)
			return
		}
	}

	assessment, err := h.assessor.Assess(r.Context(), q)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *riskHandler) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("assess request failed", "error", err, "status", status)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrNoClimatology):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
