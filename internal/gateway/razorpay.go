package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Intent は決済ゲートウェイ側に作成した注文（決済の受け皿）。
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client は決済ゲートウェイの呼び出し口。
// usecase側はこのインターフェースだけに依存する。
type Client interface {
	// CreateIntent はゲートウェイ上に決済を作成する。amountは通貨の最小単位（パイサ）。
	CreateIntent(ctx context.Context, amount int64, currency string, receipt string) (Intent, error)
}

type razorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	httpc     *http.Client
	cb        *gobreaker.CircuitBreaker[Intent]
}

func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) Client {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}

	st := gobreaker.Settings{
		Name:    "razorpay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &razorpayClient{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpc:     &http.Client{Timeout: timeout},
		cb:        gobreaker.NewCircuitBreaker[Intent](st),
	}
}

func (c *razorpayClient) CreateIntent(ctx context.Context, amount int64, currency string, receipt string) (Intent, error) {
	return c.cb.Execute(func() (Intent, error) {
		return c.createIntent(ctx, amount, currency, receipt)
	})
}

func (c *razorpayClient) createIntent(ctx context.Context, amount int64, currency string, receipt string) (Intent, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return Intent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Intent{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Intent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Intent{}, fmt.Errorf("razorpay: create order failed: status=%d body=%s", resp.StatusCode, string(b))
	}

	var in Intent
	if err := json.NewDecoder(resp.Body).Decode(&in); err != nil {
		return Intent{}, err
	}
	return in, nil
}

// SignPayload は「ゲートウェイ注文ID|決済ID」のHMAC-SHA256署名（hex）を作る。
func SignPayload(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature は受信署名を定数時間で照合する。
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := SignPayload(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
