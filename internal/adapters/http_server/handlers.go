// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"villarosa/internal/app"
	"villarosa/internal/domain"
)

type Handlers struct{ E *app.Engine }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/availability", h.getAvailability)
	s.mux.Delete("/v1/availability", h.invalidate)
	s.mux.Get("/v1/apartments/{id}", h.getApartment)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	checkIn, errIn := time.Parse(domain.DateLayout, q.Get("checkIn"))
	checkOut, errOut := time.Parse(domain.DateLayout, q.Get("checkOut"))
	if errIn != nil || errOut != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid dates", "checkIn and checkOut must be YYYY-MM-DD")
		return
	}

	guests := 2
	if gs := q.Get("guests"); gs != "" {
		g, err := strconv.Atoi(gs)
		if err != nil || g < 1 || g > 20 {
			writeProblem(w, http.StatusBadRequest, "Invalid guests", "guests must be an integer between 1 and 20")
			return
		}
		guests = g
	}
	children := 0
	if cs := q.Get("children"); cs != "" {
		c, err := strconv.Atoi(cs)
		if err != nil || c < 0 || c > 20 {
			writeProblem(w, http.StatusBadRequest, "Invalid children", "children must be an integer between 0 and 20")
			return
		}
		children = c
	}
	loyalty := 0.0
	if ls := q.Get("loyalty"); ls != "" {
		l, err := strconv.ParseFloat(ls, 64)
		if err != nil || l < 0 || l > 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid loyalty", "loyalty must be a fraction between 0 and 1")
			return
		}
		loyalty = l
	}

	start := time.Now()
	res, err := h.E.Check(r.Context(), app.CheckRequest{
		ApartmentID: q.Get("apartment"),
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      guests,
		Children:    children,
		LoyaltyRate: loyalty,
	})
	if err != nil {
		writeCheckError(w, err)
		return
	}

	// advisory observability headers, not part of the contract
	w.Header().Set("X-Cache", res.CacheStatus)
	w.Header().Set("X-Response-Time-Ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
	writeJSON(w, http.StatusOK, res)
}

func writeCheckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidRange):
		writeProblem(w, http.StatusBadRequest, "Invalid range", err.Error())
	case errors.Is(err, domain.ErrApartmentNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown apartment")
	case errors.Is(err, domain.ErrUpstreamConfig):
		// misconfiguration needs an operator; detail stays generic so
		// upstream credentials never leak through this surface
		writeProblem(w, http.StatusBadGateway, "Upstream configuration error", "calendar upstream rejected the request")
	case errors.Is(err, domain.ErrUpstreamDown):
		writeProblem(w, http.StatusServiceUnavailable, "Temporarily unavailable", "availability cannot be determined right now, please retry")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
	}
}

// invalidate serves the booking-creation collaborator: a confirmed booking
// drops every cached window for the affected apartment.
func (h *Handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		n   int
		err error
	)
	switch {
	case q.Get("apartment") != "":
		n, err = h.E.InvalidateApartment(r.Context(), q.Get("apartment"))
	case q.Get("pattern") != "":
		n, err = h.E.InvalidatePattern(r.Context(), q.Get("pattern"))
	case q.Get("clearAll") != "":
		n, err = h.E.InvalidateAll(r.Context())
	default:
		writeProblem(w, http.StatusBadRequest, "Missing scope", "one of apartment, pattern, clearAll is required")
		return
	}
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Invalidation failed", "cache backend unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"invalidated": n})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) getApartment(w http.ResponseWriter, r *http.Request) {
	apt, err := h.E.Describe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "apartment not found")
		return
	}

	etag, body := calcETagAndBody(apt)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getApartment body")
	}
}
