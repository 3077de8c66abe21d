package pay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

const defaultRazorpayURL = "https://api.razorpay.com"

// GatewayError is a non-2xx answer from the checkout provider.
type GatewayError struct {
	Status      int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("razorpay: %d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("razorpay: unexpected status %d", e.Status)
}

// RazorpayClient creates checkout orders.
type RazorpayClient struct {
	httpClient *http.Client
	keyID      string
	keySecret  string
	baseURL    string
}

// NewRazorpayClient constructs a client. A nil httpClient gets a 10s timeout default.
func NewRazorpayClient(httpClient *http.Client, keyID, keySecret string) *RazorpayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RazorpayClient{
		httpClient: httpClient,
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    defaultRazorpayURL,
	}
}

// WithBaseURL points the client at another host; used by tests.
func (c *RazorpayClient) WithBaseURL(u string) *RazorpayClient {
	c.baseURL = u
	return c
}

// KeyID is the public key the browser checkout needs.
func (c *RazorpayClient) KeyID() string { return c.keyID }

// CreateOrderRequest describes an order in major currency units.
type CreateOrderRequest struct {
	ProjectID int
	Amount    float64
	Currency  string
}

// Order is the provider's view of a created order.
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// ToMinor converts a major-unit amount to the smallest currency unit (paise).
func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder registers an order with the gateway.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, fmt.Errorf("razorpay: amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	payload := map[string]interface{}{
		"amount":   ToMinor(req.Amount),
		"currency": currency,
		"receipt":  strconv.Itoa(req.ProjectID),
		"notes": map[string]string{
			"project_id": strconv.Itoa(req.ProjectID),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Order{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Order{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Order{}, err
	}
	if resp.StatusCode >= 300 {
		gerr := &GatewayError{Status: resp.StatusCode}
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil {
			gerr.Code = apiErr.Error.Code
			gerr.Description = apiErr.Error.Description
		}
		return Order{}, gerr
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, err
	}
	if order.ID == "" {
		return Order{}, fmt.Errorf("razorpay: order id missing in response")
	}
	return order, nil
}
