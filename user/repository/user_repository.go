package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbite/backend/user/models"
)

var (
	ErrNotFound            = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// UserRepository defines the interface for user and balance data access.
// Debit and Credit take an optional deduplication reference; a mutation whose
// reference was already applied returns the current record unchanged.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.User, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.User, error)
}

type gormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepo{db: db}
}

func (r *gormUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Debit subtracts amount only if the balance covers it. The check and the
// subtraction are a single conditional UPDATE, so concurrent debits on the
// same user cannot both pass the balance check and drive it negative.
func (r *gormUserRepo) Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		applied, err := referenceApplied(tx, userID, reference)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", userID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		if err := recordEntry(tx, userID, models.MutationDebit, amount, reference); err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Credit adds unconditionally; there is no upper bound on a balance.
func (r *gormUserRepo) Credit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		applied, err := referenceApplied(tx, userID, reference)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}

		if err := recordEntry(tx, userID, models.MutationCredit, amount, reference); err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func referenceApplied(tx *gorm.DB, userID uuid.UUID, reference string) (bool, error) {
	if reference == "" {
		return false, nil
	}
	var count int64
	if err := tx.Model(&models.BalanceEntry{}).
		Where("user_id = ? AND reference = ?", userID, reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordEntry(tx *gorm.DB, userID uuid.UUID, mutationType string, amount int64, reference string) error {
	if reference == "" {
		return nil
	}
	entry := models.BalanceEntry{
		UserID:    userID,
		Reference: reference,
		Type:      mutationType,
		Amount:    amount,
	}
	return tx.Create(&entry).Error
}
