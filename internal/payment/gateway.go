package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"uziwear-be/internal/logger"

	"go.uber.org/zap"
)

const wompiBaseURL = "https://production.wompi.co/v1"

// Gateway is the payment processor collaborator. Checkout records a
// placeholder payment status; this interface covers the out-of-band side.
type Gateway interface {
	CreateCheckout(ctx context.Context, reference, customerEmail string, amountCOP int64) (*CheckoutResponse, error)
	GetStatus(ctx context.Context, transactionID string) (*TransactionStatus, error)
	VerifyCallback(r *http.Request) error
}

type wompiGateway struct {
	publicKey     string
	privateKey    string
	callbackToken string
	httpClient    *http.Client
	baseURL       string
	redirectURL   string
}

func NewWompiGateway(publicKey, privateKey, callbackToken string) Gateway {
	if privateKey == "" {
		logger.L().Warn("Wompi private key is empty")
	}

	return &wompiGateway{
		publicKey:     publicKey,
		privateKey:    privateKey,
		callbackToken: callbackToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     wompiBaseURL,
		redirectURL: os.Getenv("PAYMENT_REDIRECT_URL"),
	}
}

func (g *wompiGateway) CreateCheckout(ctx context.Context, reference, customerEmail string, amountCOP int64) (*CheckoutResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference", reference),
		zap.Int64("amount_cop", amountCOP),
	)

	payload := map[string]any{
		"name":            "Pedido " + reference,
		"single_use":      true,
		"currency":        "COP",
		"amount_in_cents": amountCOP * 100,
		"reference":       reference,
		"customer_email":  customerEmail,
		"redirect_url":    g.redirectURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment_links", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.privateKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("payment link request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error("payment link rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("wompi returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}

	log.Info("payment link created", zap.String("link_id", parsed.Data.ID))

	return &CheckoutResponse{
		Reference:     reference,
		TransactionID: parsed.Data.ID,
		CheckoutURL:   "https://checkout.wompi.co/l/" + parsed.Data.ID,
		AmountInCents: amountCOP * 100,
		Status:        StatusPending,
	}, nil
}

func (g *wompiGateway) GetStatus(ctx context.Context, transactionID string) (*TransactionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/transactions/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.privateKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wompi returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			ID          string     `json:"id"`
			Status      string     `json:"status"`
			FinalizedAt *time.Time `json:"finalized_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	return &TransactionStatus{
		TransactionID: parsed.Data.ID,
		Status:        parsed.Data.Status,
		PaidAt:        parsed.Data.FinalizedAt,
	}, nil
}

// VerifyCallback checks the shared callback token the gateway sends with
// every webhook delivery.
func (g *wompiGateway) VerifyCallback(r *http.Request) error {
	if g.callbackToken == "" {
		return errors.New("callback token not configured")
	}

	got := r.Header.Get("X-Callback-Token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(g.callbackToken)) != 1 {
		return errors.New("callback token mismatch")
	}

	return nil
}
