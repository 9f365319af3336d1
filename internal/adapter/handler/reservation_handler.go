// Package handler translates HTTP requests to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wanderstay/booking-engine/internal/core/domain"
	"github.com/wanderstay/booking-engine/internal/core/services"
)

type ReservationHandler struct {
	booking      *services.BookingService
	reservations *services.ReservationService
}

func NewReservationHandler(booking *services.BookingService, reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{booking: booking, reservations: reservations}
}

// Routes mounts the reservation API on r.
func (h *ReservationHandler) Routes(r chi.Router) {
	r.Route("/properties/{id}/reservations", func(r chi.Router) {
		r.Post("/", h.CreateReservation)
		r.Get("/", h.ListByProperty)
	})
	r.Get("/properties/{id}/quote", h.QuoteStay)
	r.Get("/properties/{id}/availability", h.CheckAvailability)
	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.ListForCaller)
		r.Get("/{id}", h.GetReservation)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/payment", h.UpdatePayment)
	})
	r.Get("/health", HealthCheck)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// callerID returns the authenticated user id supplied by the identity layer.
// The engine trusts it as given and does not re-authenticate.
func callerID(r *http.Request) (string, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// writeDomainError maps domain errors to HTTP statuses. Conflicts reduce to a
// plain "unavailable" message: the clashing stays belong to other guests.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDatesUnavailable):
		writeError(w, http.StatusConflict, "these dates are no longer available")
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, "property cannot accommodate this many guests")
	case errors.Is(err, domain.ErrInvalidStayRange):
		writeError(w, http.StatusBadRequest, "check-out must be after check-in")
	case errors.Is(err, domain.ErrInvalidDraft):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "transition not allowed from the current state")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "you are not allowed to perform this action")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type createReservationInput struct {
	CheckIn         time.Time `json:"checkIn"`
	CheckOut        time.Time `json:"checkOut"`
	GuestCount      int       `json:"guestCount"`
	SpecialRequests string    `json:"specialRequests"`
}

// CreateReservation handles POST /properties/{id}/reservations.
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID")
		return
	}

	var input createReservationInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reservation, err := h.booking.Book(r.Context(), services.BookStayRequest{
		ResourceID:      chi.URLParam(r, "id"),
		RequesterID:     requesterID,
		CheckIn:         input.CheckIn,
		CheckOut:        input.CheckOut,
		GuestCount:      input.GuestCount,
		SpecialRequests: input.SpecialRequests,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// ListByProperty handles GET /properties/{id}/reservations.
func (h *ReservationHandler) ListByProperty(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.reservations.ListByResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

func stayFromQuery(r *http.Request) (domain.StayRange, error) {
	checkIn, err := time.Parse(time.RFC3339, r.URL.Query().Get("checkIn"))
	if err != nil {
		return domain.StayRange{}, errors.New("checkIn must be RFC 3339")
	}
	checkOut, err := time.Parse(time.RFC3339, r.URL.Query().Get("checkOut"))
	if err != nil {
		return domain.StayRange{}, errors.New("checkOut must be RFC 3339")
	}
	return domain.StayRange{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// QuoteStay handles GET /properties/{id}/quote with checkIn/checkOut query
// parameters in RFC 3339.
func (h *ReservationHandler) QuoteStay(w http.ResponseWriter, r *http.Request) {
	stay, err := stayFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.booking.QuoteStay(r.Context(), chi.URLParam(r, "id"), stay)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// CheckAvailability handles GET /properties/{id}/availability. It is a UI
// convenience; booking itself re-checks atomically.
func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	stay, err := stayFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	available, err := h.booking.CheckAvailability(r.Context(), chi.URLParam(r, "id"), stay)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// ListForCaller handles GET /reservations?role=guest|host.
func (h *ReservationHandler) ListForCaller(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID")
		return
	}

	var (
		reservations []domain.Reservation
		err          error
	)
	switch r.URL.Query().Get("role") {
	case "guest":
		reservations, err = h.reservations.ListByRequester(r.Context(), userID)
	case "host":
		reservations, err = h.reservations.ListByOwner(r.Context(), userID)
	default:
		writeError(w, http.StatusBadRequest, "role must be guest or host")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, reservations)
}

// GetReservation handles GET /reservations/{id}.
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.reservations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

type updateStatusInput struct {
	Status domain.Status `json:"status"`
}

// UpdateStatus handles PATCH /reservations/{id}/status. The caller acts as
// guest or host; who may drive which transition is enforced in the domain.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid X-User-ID")
		return
	}

	var input updateStatusInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	actor := domain.Actor{ID: uuid.MustParse(userID)}
	reservation, err := h.reservations.ChangeStatus(r.Context(), chi.URLParam(r, "id"), input.Status, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

type updatePaymentInput struct {
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

// UpdatePayment handles PATCH /reservations/{id}/payment. It is called by the
// payment processor integration, which reaches the engine over the internal
// network; guests and hosts have no route to it.
func (h *ReservationHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var input updatePaymentInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reservation, err := h.reservations.ChangePayment(r.Context(), chi.URLParam(r, "id"), input.PaymentStatus)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
