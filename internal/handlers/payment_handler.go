package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"trusthire/internal/metrics"
	"trusthire/internal/models"
	"trusthire/internal/project/pay"
)

// PaymentHandler funds escrow through one of the configured capture adapters.
type PaymentHandler struct {
	ProjectHandler
	RazorpaySecret string
}

type razorpayPayload struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (p razorpayPayload) complete() bool {
	return strings.TrimSpace(p.OrderID) != "" && strings.TrimSpace(p.PaymentID) != "" && strings.TrimSpace(p.Signature) != ""
}

func (h *PaymentHandler) capture(w http.ResponseWriter, r *http.Request, method string, req pay.CaptureRequest) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	p, err := h.Service.CapturePayment(r.Context(), id, userID, method, req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) CaptureEscrow(w http.ResponseWriter, r *http.Request) {
	h.capture(w, r, models.PaymentMethodEscrow, pay.CaptureRequest{})
}

func (h *PaymentHandler) CaptureWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TxHash) == "" {
		h.BadRequest(w, "tx_hash is required")
		return
	}
	h.capture(w, r, models.PaymentMethodWallet, pay.CaptureRequest{TxHash: strings.TrimSpace(req.TxHash)})
}

func (h *PaymentHandler) CreateRazorpayOrder(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	order, err := h.Service.CreateGatewayOrder(r.Context(), id, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, order)
}

func (h *PaymentHandler) CaptureRazorpay(w http.ResponseWriter, r *http.Request) {
	var req razorpayPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.complete() {
		h.BadRequest(w, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
		return
	}
	h.capture(w, r, models.PaymentMethodGateway, pay.CaptureRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
}

// VerifyRazorpayPayment checks a checkout callback signature without touching any project.
func (h *PaymentHandler) VerifyRazorpayPayment(w http.ResponseWriter, r *http.Request) {
	if h.RazorpaySecret == "" {
		metrics.SignatureVerifications.WithLabelValues("error").Inc()
		h.JSON(w, http.StatusInternalServerError, map[string]interface{}{"verified": false, "error": "payment gateway not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		metrics.SignatureVerifications.WithLabelValues("error").Inc()
		h.JSON(w, http.StatusInternalServerError, map[string]interface{}{"verified": false, "error": "cannot read body"})
		return
	}

	var req razorpayPayload
	if err := json.Unmarshal(body, &req); err != nil || !req.complete() {
		metrics.SignatureVerifications.WithLabelValues("invalid").Inc()
		h.JSON(w, http.StatusBadRequest, map[string]interface{}{"verified": false, "error": "missing payment fields"})
		return
	}
	if !pay.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, h.RazorpaySecret) {
		metrics.SignatureVerifications.WithLabelValues("mismatch").Inc()
		h.JSON(w, http.StatusBadRequest, map[string]interface{}{"verified": false, "error": "signature mismatch"})
		return
	}
	metrics.SignatureVerifications.WithLabelValues("ok").Inc()
	h.JSON(w, http.StatusOK, map[string]interface{}{"verified": true})
}
