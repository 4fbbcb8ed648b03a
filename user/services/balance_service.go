package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickbite/backend/user/models"
	"github.com/quickbite/backend/user/repository"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// BalanceMutation is the payload of PUT /internal/users/:id/balance.
// Reference is the caller's deduplication token; the ledger never invents
// one, so mutations without it are applied unconditionally.
type BalanceMutation struct {
	Type      string `json:"type" binding:"required,oneof=debit credit"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Reference string `json:"reference"`
}

// BalanceService owns all mutations of user balances. Mutations targeting
// the same user are serialized through a per-user mutex; on top of that the
// repository applies debits as a conditional UPDATE. Either layer alone keeps
// the balance non-negative, together they also protect non-SQL stores.
type BalanceService struct {
	repo   repository.UserRepository
	logger *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewBalanceService(repo repository.UserRepository, logger *zap.Logger) *BalanceService {
	return &BalanceService{
		repo:   repo,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *BalanceService) userLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

// GetUser resolves a user record for the internal lookup endpoint.
func (s *BalanceService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, *ServiceError) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "User not found"}
		}
		s.logger.Error("user lookup failed", zap.String("user_id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch user"}
	}
	return user, nil
}

// Apply runs a debit or credit against a user's balance.
func (s *BalanceService) Apply(ctx context.Context, userID uuid.UUID, m *BalanceMutation) (*models.User, *ServiceError) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var (
		user *models.User
		err  error
	)
	switch m.Type {
	case models.MutationDebit:
		user, err = s.repo.Debit(ctx, userID, m.Amount, m.Reference)
	case models.MutationCredit:
		user, err = s.repo.Credit(ctx, userID, m.Amount, m.Reference)
	default:
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid mutation type"}
	}

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &ServiceError{StatusCode: 404, Message: "User not found"}
		case errors.Is(err, repository.ErrInsufficientBalance):
			return nil, &ServiceError{StatusCode: 400, Message: "Insufficient balance"}
		default:
			s.logger.Error("balance mutation failed",
				zap.String("user_id", userID.String()),
				zap.String("type", m.Type),
				zap.Int64("amount", m.Amount),
				zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to update balance"}
		}
	}

	s.logger.Info("balance updated",
		zap.String("user_id", userID.String()),
		zap.String("type", m.Type),
		zap.Int64("amount", m.Amount),
		zap.Int64("balance", user.Balance))
	return user, nil
}
