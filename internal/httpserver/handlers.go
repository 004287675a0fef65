package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/railclaw/orchestrator/internal/errors"
	"github.com/railclaw/orchestrator/internal/orchestrator"
)

// createPaymentRequest is the wire shape of POST /v1/payments.
type createPaymentRequest struct {
	Amount float64 `json:"amount"`
	Token  string  `json:"token"`
	Chain  string  `json:"chain"`
}

// createPayment routes a payment through the orchestrator and returns
// whichever of the executed/bridge_payment/rejected/not_ready shapes it
// produces, verbatim.
func (h handlers) createPayment(w http.ResponseWriter, r *http.Request) {
	var body createPaymentRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeBadRequest, "invalid request body")
		return
	}

	resp, err := h.orchestrator.Handle(r.Context(), orchestrator.Request{
		Action: orchestrator.ActionCreatePaymentLink,
		Amount: body.Amount,
		Token:  body.Token,
		Chain:  body.Chain,
	})
	if err != nil {
		h.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// getPayment returns the current state of one payment by ID.
func (h handlers) getPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	resp, err := h.orchestrator.Handle(r.Context(), orchestrator.Request{
		Action:    orchestrator.ActionCheckPayment,
		PaymentID: paymentID,
	})
	if err != nil {
		h.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// listPayments returns every payment matching the business/status filters
// given as query parameters.
func (h handlers) listPayments(w http.ResponseWriter, r *http.Request) {
	resp, err := h.orchestrator.Handle(r.Context(), orchestrator.Request{
		Action:   orchestrator.ActionListPayments,
		Business: r.URL.Query().Get("business"),
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		h.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// health reports process liveness and uptime.
func (h handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(serverStartTime).String(),
	})
}

// writeOrchestratorError maps an orchestrator-layer error to the standard
// error response shape, using each error kind's own HTTP status mapping.
func (h handlers) writeOrchestratorError(w http.ResponseWriter, err error) {
	var recErr *apierrors.RecordError
	var polErr *apierrors.PolicyError
	if errors.As(err, &recErr) {
		apierrors.WriteErrorWithDetail(w, recErr.Code(), recErr.Error(), "payment_id", recErr.PaymentID)
		return
	}
	if errors.As(err, &polErr) {
		apierrors.WriteSimpleError(w, polErr.Code(), polErr.Error())
		return
	}

	h.logger.Error().Err(err).Msg("httpserver.orchestrator_error")
	apierrors.WriteSimpleError(w, apierrors.ErrCodeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
