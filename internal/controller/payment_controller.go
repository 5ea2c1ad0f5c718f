package controller

import (
	"net/http"

	"github.com/taskner/marketplace/internal/orchestration"
)

type PaymentController struct {
	facade orchestration.PaymentOrchestrator
}

func NewPaymentController(facade orchestration.PaymentOrchestrator) *PaymentController {
	return &PaymentController{facade: facade}
}

// Process takes a standalone payment, outside any booking flow.
func (c *PaymentController) Process(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res := c.facade.ProcessPayment(r.Context(), req.toDomain())
	switch {
	case res.Success:
		writeJSON(w, http.StatusCreated, res)
	case res.RequiresAction:
		// Not an error: the caller must complete the gateway action.
		writeJSON(w, http.StatusAccepted, res)
	default:
		writeJSON(w, http.StatusUnprocessableEntity, res)
	}
}
