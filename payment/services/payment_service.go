package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickbite/backend/payment/models"
	"github.com/quickbite/backend/payment/repository"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// ProcessRequest is the payload of POST /internal/process.
type ProcessRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Amount  int64     `json:"amount" binding:"required,gt=0"`
}

// PaymentService owns the payment ledger: one transaction per order,
// finalized to SUCCESS or FAILED within the same Process call.
type PaymentService struct {
	repo   repository.PaymentRepository
	ledger LedgerClient
	logger *zap.Logger
}

func NewPaymentService(repo repository.PaymentRepository, ledger LedgerClient, logger *zap.Logger) *PaymentService {
	return &PaymentService{repo: repo, ledger: ledger, logger: logger}
}

// Process creates the transaction and debits the user's balance. The debit
// carries the order id as deduplication reference, so the retry on a lost
// response cannot double-charge: an already-applied debit replays as a no-op
// success.
func (s *PaymentService) Process(ctx context.Context, req *ProcessRequest) (*models.Transaction, *ServiceError) {
	if existing, err := s.repo.FindByOrderID(ctx, req.OrderID); err == nil && existing != nil {
		return nil, &ServiceError{StatusCode: 409, Message: "Transaction already exists for order"}
	}

	transaction := &models.Transaction{
		UserID:  req.UserID,
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Status:  models.StatusPending,
	}
	if err := s.repo.CreateTransaction(ctx, transaction); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return nil, &ServiceError{StatusCode: 409, Message: "Transaction already exists for order"}
		}
		s.logger.Error("transaction create failed", zap.String("order_id", req.OrderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create transaction"}
	}

	reference := req.OrderID.String()
	err := s.ledger.Debit(ctx, req.UserID, req.Amount, reference)
	if err != nil && !errors.Is(err, ErrInsufficientBalance) && !errors.Is(err, ErrUserNotFound) {
		// Unreachable or lost response. The reference makes a second attempt
		// idempotent, so retry once before declaring failure.
		s.logger.Warn("debit unreachable, retrying",
			zap.String("order_id", req.OrderID.String()), zap.Error(err))
		err = s.ledger.Debit(ctx, req.UserID, req.Amount, reference)
	}

	switch {
	case err == nil:
		if uerr := s.repo.UpdateStatus(ctx, transaction.ID, models.StatusSuccess); uerr != nil {
			s.logger.Error("transaction status update failed",
				zap.String("transaction_id", transaction.ID.String()), zap.Error(uerr))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to update transaction"}
		}
		transaction.Status = models.StatusSuccess
		s.logger.Info("payment succeeded",
			zap.String("order_id", req.OrderID.String()),
			zap.Int64("amount", req.Amount))
		return transaction, nil

	case errors.Is(err, ErrInsufficientBalance):
		s.markFailed(ctx, transaction)
		return nil, &ServiceError{StatusCode: 400, Message: "Insufficient balance"}

	case errors.Is(err, ErrUserNotFound):
		s.markFailed(ctx, transaction)
		return nil, &ServiceError{StatusCode: 400, Message: "User not found"}

	default:
		s.markFailed(ctx, transaction)
		s.logger.Error("debit failed after retry",
			zap.String("order_id", req.OrderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to connect to user service"}
	}
}

func (s *PaymentService) markFailed(ctx context.Context, t *models.Transaction) {
	if err := s.repo.UpdateStatus(ctx, t.ID, models.StatusFailed); err != nil {
		s.logger.Error("transaction status update failed",
			zap.String("transaction_id", t.ID.String()), zap.Error(err))
		return
	}
	t.Status = models.StatusFailed
}

// GetByOrderID backs the reconciliation read from the order service.
func (s *PaymentService) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Transaction, *ServiceError) {
	t, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Transaction not found"}
		}
		s.logger.Error("transaction lookup failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch transaction"}
	}
	return t, nil
}

func (s *PaymentService) List(ctx context.Context) ([]models.Transaction, *ServiceError) {
	ts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("transaction list failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch transactions"}
	}
	return ts, nil
}
