package pay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trusthire/internal/models"
)

var (
	ErrMethodDisabled   = errors.New("payment method disabled")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrMissingProof     = errors.New("payment proof missing")
	ErrAmountMismatch   = errors.New("order amount does not cover escrow")
)

// CaptureRequest carries whatever evidence the client supplied for funding escrow.
type CaptureRequest struct {
	ProjectID int
	Amount    float64

	TxHash string

	OrderID   string
	PaymentID string
	Signature string
}

// Proof is what a capturer vouches for once the funds are verified.
type Proof struct {
	Method    string
	Reference string
}

// Capturer verifies one way of funding escrow.
type Capturer interface {
	Method() string
	Capture(ctx context.Context, req CaptureRequest) (Proof, error)
}

// Simulated stands in for a real processor. No money moves.
type Simulated struct {
	Enabled bool
}

func (Simulated) Method() string { return models.PaymentMethodEscrow }

func (s Simulated) Capture(_ context.Context, req CaptureRequest) (Proof, error) {
	if !s.Enabled {
		return Proof{}, ErrMethodDisabled
	}
	return Proof{Method: models.PaymentMethodEscrow, Reference: "sim_" + uuid.NewString()}, nil
}

// WalletCapturer verifies an on-chain transfer to the escrow address.
type WalletCapturer struct {
	Verifier *WalletVerifier
}

func (WalletCapturer) Method() string { return models.PaymentMethodWallet }

func (w WalletCapturer) Capture(ctx context.Context, req CaptureRequest) (Proof, error) {
	if w.Verifier == nil {
		return Proof{}, ErrMethodDisabled
	}
	if req.TxHash == "" {
		return Proof{}, ErrMissingProof
	}
	if err := w.Verifier.Verify(ctx, req.TxHash, req.Amount); err != nil {
		return Proof{}, err
	}
	return Proof{Method: models.PaymentMethodWallet, Reference: strings.ToLower(req.TxHash)}, nil
}

// OrderLookup resolves a gateway order id to the stored order.
type OrderLookup interface {
	GetByGatewayID(ctx context.Context, gatewayOrderID string) (models.PaymentOrder, error)
}

// GatewayCapturer accepts a checkout callback only after checking its signature.
type GatewayCapturer struct {
	Secret string
	Orders OrderLookup
}

func (GatewayCapturer) Method() string { return models.PaymentMethodGateway }

func (g GatewayCapturer) Capture(ctx context.Context, req CaptureRequest) (Proof, error) {
	if g.Secret == "" {
		return Proof{}, ErrMethodDisabled
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return Proof{}, ErrMissingProof
	}
	if !VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, g.Secret) {
		return Proof{}, ErrInvalidSignature
	}
	order, err := g.Orders.GetByGatewayID(ctx, req.OrderID)
	if err != nil {
		return Proof{}, fmt.Errorf("lookup order %s: %w", req.OrderID, err)
	}
	if order.ProjectID != req.ProjectID {
		return Proof{}, models.ErrPaymentOrderUnknown
	}
	if order.AmountMinor < ToMinor(req.Amount) {
		return Proof{}, ErrAmountMismatch
	}
	return Proof{Method: models.PaymentMethodGateway, Reference: req.PaymentID}, nil
}
