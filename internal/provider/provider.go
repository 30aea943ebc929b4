package provider

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tarvale/coinledger/internal/config"
	"go.uber.org/zap"
)

// The provider accepts signed JSON over HTTP. Payments and payouts are
// separate notification classes with separate API keys.

var ErrRequestFailed = errors.New("provider request failed")

type HTTPClient interface {
	Post(url string, headers http.Header, body []byte) (statusCode int, respBody []byte, err error)
}

type CreatePaymentRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Network     string `json:"network,omitempty"`
	URLCallback string `json:"url_callback,omitempty"`
	Lifetime    int    `json:"lifetime,omitempty"`
}

type PaymentResult struct {
	UUID           string `json:"uuid"`
	OrderID        string `json:"order_id"`
	Amount         string `json:"amount"`
	MerchantAmount string `json:"merchant_amount"`
	PayerCurrency  string `json:"payer_currency"`
	Network        string `json:"network"`
	Address        string `json:"address"`
	URL            string `json:"url"`
	TxID           string `json:"txid"`
	ExpiredAt      int64  `json:"expired_at"`
	Status         string `json:"status"`
	IsFinal        bool   `json:"is_final"`
}

type CreatePayoutRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Address     string `json:"address"`
	Network     string `json:"network"`
	IsSubtract  bool   `json:"is_subtract"`
	URLCallback string `json:"url_callback,omitempty"`
}

type PayoutResult struct {
	UUID          string `json:"uuid"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Network       string `json:"network"`
	Address       string `json:"address"`
	TxID          string `json:"txid"`
	Status        string `json:"status"`
	IsFinal       bool   `json:"is_final"`
	PayerCurrency string `json:"payer_currency"`
	PayerAmount   string `json:"payer_amount"`
}

type response struct {
	State   int             `json:"state"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

type Client struct {
	baseURL    string
	merchantID string
	paymentKey string
	payoutKey  string
	client     HTTPClient
}

func New(cfg *config.Config, client HTTPClient) *Client {
	return &Client{
		baseURL:    cfg.ProviderAddress,
		merchantID: cfg.MerchantID,
		paymentKey: cfg.PaymentAPIKey,
		payoutKey:  cfg.PayoutAPIKey,
		client:     client,
	}
}

func (c *Client) CreatePayment(req CreatePaymentRequest) (*PaymentResult, error) {
	var result PaymentResult
	if err := c.call("/payment", req, c.paymentKey, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetPaymentInfo(orderID string) (*PaymentResult, error) {
	var result PaymentResult
	body := map[string]string{"order_id": orderID}
	if err := c.call("/payment/info", body, c.paymentKey, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreatePayout(req CreatePayoutRequest) (*PayoutResult, error) {
	var result PayoutResult
	if err := c.call("/payout", req, c.payoutKey, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) call(endpoint string, payload any, apiKey string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("can't marshal provider request: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("merchant", c.merchantID)
	headers.Set("sign", sign(body, apiKey))

	statusCode, respBody, err := c.client.Post(c.baseURL+endpoint, headers, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if statusCode != http.StatusOK {
		zap.L().Error("provider returned non-OK status",
			zap.String("endpoint", endpoint),
			zap.Int("status", statusCode),
		)
		return fmt.Errorf("%w: http status %d", ErrRequestFailed, statusCode)
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("can't parse provider response: %w", err)
	}
	if resp.State != 0 {
		return fmt.Errorf("%w: state %d: %s", ErrRequestFailed, resp.State, resp.Message)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("can't parse provider result: %w", err)
	}
	return nil
}

// VerifySignature checks a webhook signature: MD5 over the base64 of the
// payload without its sign field plus the class API key. Payment and payout
// notifications use different keys.
func (c *Client) VerifySignature(payload map[string]any, signature string, isPayment bool) bool {
	withoutSign := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == "sign" {
			continue
		}
		withoutSign[k] = v
	}

	body, err := json.Marshal(withoutSign)
	if err != nil {
		return false
	}

	key := c.payoutKey
	if isPayment {
		key = c.paymentKey
	}
	return sign(body, key) == signature
}

func sign(body []byte, apiKey string) string {
	encoded := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(encoded + apiKey))
	return hex.EncodeToString(sum[:])
}
