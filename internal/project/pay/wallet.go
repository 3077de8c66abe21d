package pay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

var (
	ErrTxNotFound        = errors.New("wallet transaction not found")
	ErrTxFailed          = errors.New("wallet transaction reverted")
	ErrWrongRecipient    = errors.New("wallet transaction sent to a different address")
	ErrNotConfirmed      = errors.New("wallet transaction not confirmed yet")
	ErrInsufficientValue = errors.New("wallet transaction value below escrow amount")
	ErrNoExchangeRate    = errors.New("wallet exchange rate not configured")
)

// WalletConfig controls on-chain verification.
type WalletConfig struct {
	// RPCURL is an EVM JSON-RPC endpoint.
	RPCURL string
	// EscrowAddress receives client transfers.
	EscrowAddress string
	// MinConfirmations is the number of blocks on top of the receipt, inclusive.
	MinConfirmations uint64
	// WeiPerUnit converts one currency unit to wei. Required.
	WeiPerUnit *big.Int
}

// WalletVerifier checks a transaction hash against a JSON-RPC node.
type WalletVerifier struct {
	httpClient *http.Client
	cfg        WalletConfig
	nextID     atomic.Int64
}

func NewWalletVerifier(httpClient *http.Client, cfg WalletConfig) *WalletVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.MinConfirmations == 0 {
		cfg.MinConfirmations = 1
	}
	return &WalletVerifier{httpClient: httpClient, cfg: cfg}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type txReceipt struct {
	Status      string `json:"status"`
	To          string `json:"to"`
	BlockNumber string `json:"blockNumber"`
}

type txBody struct {
	To    string `json:"to"`
	Value string `json:"value"`
}

func (v *WalletVerifier) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: v.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("wallet rpc %s: unexpected status %s", method, resp.Status)
	}
	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("wallet rpc %s: %d %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return ErrTxNotFound
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// Verify confirms txHash paid at least amount to the escrow address.
func (v *WalletVerifier) Verify(ctx context.Context, txHash string, amount float64) error {
	if v.cfg.WeiPerUnit == nil {
		return ErrNoExchangeRate
	}
	var receipt txReceipt
	if err := v.call(ctx, "eth_getTransactionReceipt", []interface{}{txHash}, &receipt); err != nil {
		return err
	}
	if receipt.Status != "0x1" {
		return ErrTxFailed
	}
	if !strings.EqualFold(receipt.To, v.cfg.EscrowAddress) {
		return ErrWrongRecipient
	}

	var headHex string
	if err := v.call(ctx, "eth_blockNumber", []interface{}{}, &headHex); err != nil {
		return err
	}
	head, err := parseQuantity(headHex)
	if err != nil {
		return err
	}
	mined, err := parseQuantity(receipt.BlockNumber)
	if err != nil {
		return ErrNotConfirmed
	}
	confirmations := new(big.Int).Sub(head, mined)
	confirmations.Add(confirmations, big.NewInt(1))
	if confirmations.Cmp(new(big.Int).SetUint64(v.cfg.MinConfirmations)) < 0 {
		return ErrNotConfirmed
	}

	var tx txBody
	if err := v.call(ctx, "eth_getTransactionByHash", []interface{}{txHash}, &tx); err != nil {
		return err
	}
	value, err := parseQuantity(tx.Value)
	if err != nil {
		return err
	}
	if value.Cmp(ExpectedWei(amount, v.cfg.WeiPerUnit)) < 0 {
		return ErrInsufficientValue
	}
	return nil
}

// ExpectedWei converts amount currency units to wei, truncating fractions of a wei.
func ExpectedWei(amount float64, weiPerUnit *big.Int) *big.Int {
	f := new(big.Float).SetPrec(256).SetFloat64(amount)
	f.Mul(f, new(big.Float).SetPrec(256).SetInt(weiPerUnit))
	out, _ := f.Int(nil)
	return out
}

func parseQuantity(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, fmt.Errorf("empty quantity")
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q", s)
	}
	return n, nil
}
