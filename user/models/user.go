package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries the balance in integer minor units (cents). Balance is never
// allowed to go negative; the repository enforces that with a conditional
// update.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Name      string    `json:"name"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Balance   int64     `gorm:"not null;default:100000" json:"balance"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BalanceEntry records an applied mutation keyed by a caller-supplied
// reference. The unique (user_id, reference) index is what makes replayed
// debits and credits no-ops.
type BalanceEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_entries_user_ref" json:"user_id"`
	Reference string    `gorm:"not null;uniqueIndex:idx_balance_entries_user_ref" json:"reference"`
	Type      string    `gorm:"type:varchar(10);not null" json:"type"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	MutationDebit  = "debit"
	MutationCredit = "credit"
)
