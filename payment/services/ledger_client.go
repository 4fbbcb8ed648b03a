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

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
)

// LedgerClient is the balance ledger as seen from the payment processor.
// Reference is the deduplication token; the ledger treats a mutation with an
// already-applied reference as a no-op success, which is what makes retrying
// a debit safe.
type LedgerClient interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) error
}

type balanceRequest struct {
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// HTTPLedgerClient talks to the user service over HTTP.
type HTTPLedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPLedgerClient(baseURL string) *HTTPLedgerClient {
	return &HTTPLedgerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Debit sends PUT /internal/users/:id/balance with type "debit".
func (c *HTTPLedgerClient) Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) error {
	payload := balanceRequest{
		Type:      "debit",
		Amount:    amount,
		Reference: reference,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/users/%s/balance", c.baseURL, userID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return ErrInsufficientBalance
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		return fmt.Errorf("user service returned %d", resp.StatusCode)
	}
}
