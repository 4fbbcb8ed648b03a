package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbite/backend/payment/models"
)

var (
	ErrNotFound       = errors.New("transaction not found")
	ErrDuplicateOrder = errors.New("transaction already exists for order")
)

type PaymentRepository interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error)
	FindAll(ctx context.Context) ([]models.Transaction, error)
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

// CreateTransaction inserts the PENDING row. The unique index on order_id is
// the arbiter under races; a violation comes back as ErrDuplicateOrder
// instead of an unhandled constraint error.
func (r *gormPaymentRepo) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateOrder
		}
		return err
	}
	return nil
}

func (r *gormPaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *gormPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormPaymentRepo) FindAll(ctx context.Context) ([]models.Transaction, error) {
	var ts []models.Transaction
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}
