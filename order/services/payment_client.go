package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// PaymentDeclinedError carries the processor's reason for an explicit
// decline (insufficient balance, duplicate transaction).
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string { return e.Reason }

// TransactionRecord mirrors the payment service's transaction.
type TransactionRecord struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	OrderID uuid.UUID `json:"order_id"`
	Amount  int64     `json:"amount"`
	Status  string    `json:"status"`
}

// PaymentRequest is the payload sent to POST /internal/process.
type PaymentRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	OrderID uuid.UUID `json:"order_id"`
	Amount  int64     `json:"amount"`
}

// PaymentClient invokes the payment processor. A declined payment comes back
// as *PaymentDeclinedError; anything else non-200 is an upstream failure.
type PaymentClient interface {
	Process(ctx context.Context, req PaymentRequest) (*TransactionRecord, error)
	GetTransactionByOrder(ctx context.Context, orderID uuid.UUID) (*TransactionRecord, error)
}

type httpPaymentClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPaymentClient(baseURL string) PaymentClient {
	return &httpPaymentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *httpPaymentClient) Process(ctx context.Context, payment PaymentRequest) (*TransactionRecord, error) {
	body, err := json.Marshal(payment)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/internal/process", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var record TransactionRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, err
		}
		return &record, nil

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		var errResp map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		reason := errResp["error"]
		if reason == "" {
			reason = "Payment failed"
		}
		return nil, &PaymentDeclinedError{Reason: reason}

	default:
		return nil, fmt.Errorf("payment service returned %d", resp.StatusCode)
	}
}

func (c *httpPaymentClient) GetTransactionByOrder(ctx context.Context, orderID uuid.UUID) (*TransactionRecord, error) {
	url := fmt.Sprintf("%s/internal/transactions/by-order/%s", c.baseURL, orderID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment service returned %d", resp.StatusCode)
	}

	var record TransactionRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}
