package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuItem is the catalog view of an item; Price is in minor units.
type MenuItem struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
}

// MenuClient resolves menu items from the restaurant service.
type MenuClient interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error)
}

type httpMenuClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMenuClient(baseURL string) MenuClient {
	return &httpMenuClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *httpMenuClient) GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	url := fmt.Sprintf("%s/internal/menu-items/%s", c.baseURL, id.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("restaurant service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrMenuItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("restaurant service returned %d", resp.StatusCode)
	}

	var item MenuItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}
