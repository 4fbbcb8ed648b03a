package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/quickbite/backend/order/kafka"
	"github.com/quickbite/backend/order/models"
	"github.com/quickbite/backend/order/repository"
)

// Reconciler resolves orders stranded in PENDING: a crash or client
// disconnect between the durability checkpoint and payment leaves the row
// PENDING forever, since no client-originated cancel is tracked. The sweep
// asks the payment service what actually happened and finalizes accordingly:
// a SUCCESS transaction means the debit went through (order becomes PAID),
// anything else (or no transaction at all) finalizes the order as FAILED.
type Reconciler struct {
	repo     repository.OrderRepository
	payments PaymentClient
	producer kafka.ProducerAPI
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
}

func NewReconciler(
	repo repository.OrderRepository,
	payments PaymentClient,
	producer kafka.ProducerAPI,
	maxAge, interval time.Duration,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		repo:     repo,
		payments: payments,
		producer: producer,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a ticker until the context is cancelled. Call in a goroutine.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler started",
		zap.Duration("interval", r.interval),
		zap.Duration("max_age", r.maxAge))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.SweepOnce(ctx); err != nil {
				r.logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce finalizes every PENDING order older than maxAge.
func (r *Reconciler) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-r.maxAge)
	stale, err := r.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return err
	}

	for i := range stale {
		order := &stale[i]
		status := r.resolve(ctx, order)
		if status == "" {
			continue
		}

		if err := r.repo.UpdateStatus(ctx, order.ID, status); err != nil {
			r.logger.Error("stale order finalize failed",
				zap.String("order_id", order.ID.String()), zap.Error(err))
			continue
		}
		order.Status = status

		r.logger.Info("stale order reconciled",
			zap.String("order_id", order.ID.String()),
			zap.String("status", status))

		if r.producer != nil {
			evt := models.OrderEvent{
				Type:      "order.failed",
				OrderID:   order.ID.String(),
				UserID:    order.UserID.String(),
				Amount:    order.TotalPrice,
				Timestamp: time.Now().UTC(),
			}
			if status == models.StatusPaid {
				evt.Type = "order.paid"
			}
			if err := r.producer.SendOrderEvent(evt); err != nil {
				r.logger.Warn("kafka publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
			}
		}
	}
	return nil
}

// resolve decides the terminal status for a stale order. Returns "" when the
// payment service cannot be reached; the order stays PENDING for the next
// sweep rather than being guessed at.
func (r *Reconciler) resolve(ctx context.Context, order *models.Order) string {
	transaction, err := r.payments.GetTransactionByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			// Payment was never invoked; safe to fail the order outright.
			return models.StatusFailed
		}
		r.logger.Warn("transaction lookup failed, keeping order pending",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return ""
	}

	if transaction.Status == "SUCCESS" {
		return models.StatusPaid
	}
	return models.StatusFailed
}
