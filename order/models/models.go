package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// validTransitions is the order status state machine. PENDING is finalized by
// the saga (or the reconciliation sweep); everything after that is a manual
// status update. REFUNDED is terminal.
var validTransitions = map[string][]string{
	StatusPending:   {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:      {StatusCancelled, StatusRefunded},
	StatusFailed:    {StatusCancelled, StatusRefunded},
	StatusCancelled: {StatusRefunded},
	StatusRefunded:  {},
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order.TotalPrice is in integer minor units and always equals the sum of
// PriceAtTime × Quantity over Items.
type Order struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	RestaurantID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	TotalPrice     int64       `gorm:"not null" json:"total_price"`
	Status         string      `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	IdempotencyKey *string     `gorm:"uniqueIndex" json:"-"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Items          []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem freezes the catalog price at order-creation time; it is never
// re-derived from the catalog afterward.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID  uuid.UUID `gorm:"type:uuid;not null" json:"menu_item_id"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	PriceAtTime int64     `gorm:"not null" json:"price_at_time"`
}

// OrderEvent is published to Kafka (and optionally SNS) when an order reaches
// a terminal saga status or is manually moved.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
