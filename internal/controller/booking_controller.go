package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
	"github.com/taskner/marketplace/internal/orchestration"
)

type BookingController struct {
	facade *orchestration.BookingFacade
}

func NewBookingController(facade *orchestration.BookingFacade) *BookingController {
	return &BookingController{facade: facade}
}

// Create books a service, optionally taking payment inline. The facade
// resolves every payment outcome into the envelope, so the handler only
// maps the envelope to a status code.
func (c *BookingController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res := c.facade.CreateBookingWithPayment(r.Context(), req.toDomain())
	switch {
	case res.Success:
		writeJSON(w, http.StatusCreated, res)
	case res.Booking != nil:
		// Booking exists but its payment failed.
		writeJSON(w, http.StatusUnprocessableEntity, res)
	default:
		writeJSON(w, http.StatusBadRequest, res)
	}
}

func (c *BookingController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domainErrors.NewValidationError("id", "must be a valid UUID"))
		return
	}

	b, err := c.facade.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
