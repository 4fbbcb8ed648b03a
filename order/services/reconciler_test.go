package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickbite/backend/order/models"
)

func staleOrder(repo *mockOrderRepo, age time.Duration) *models.Order {
	order := &models.Order{
		UserID:       uuid.New(),
		RestaurantID: uuid.New(),
		TotalPrice:   1599,
		Status:       models.StatusPending,
	}
	_ = repo.CreateWithItems(context.Background(), order)
	repo.mu.Lock()
	repo.orders[order.ID].CreatedAt = time.Now().Add(-age)
	repo.mu.Unlock()
	return order
}

func TestSweepOnce_NoTransactionFinalizesFailed(t *testing.T) {
	repo := newMockOrderRepo()
	payments := &mockPaymentClient{txByOrder: map[uuid.UUID]*TransactionRecord{}}
	order := staleOrder(repo, 10*time.Minute)

	r := NewReconciler(repo, payments, nil, 5*time.Minute, time.Minute, zap.NewNop())
	require.NoError(t, r.SweepOnce(context.Background()))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
}

func TestSweepOnce_SuccessfulTransactionFinalizesPaid(t *testing.T) {
	repo := newMockOrderRepo()
	order := staleOrder(repo, 10*time.Minute)
	payments := &mockPaymentClient{txByOrder: map[uuid.UUID]*TransactionRecord{
		order.ID: {OrderID: order.ID, Status: "SUCCESS"},
	}}

	r := NewReconciler(repo, payments, nil, 5*time.Minute, time.Minute, zap.NewNop())
	require.NoError(t, r.SweepOnce(context.Background()))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)
}

func TestSweepOnce_FailedTransactionFinalizesFailed(t *testing.T) {
	repo := newMockOrderRepo()
	order := staleOrder(repo, 10*time.Minute)
	payments := &mockPaymentClient{txByOrder: map[uuid.UUID]*TransactionRecord{
		order.ID: {OrderID: order.ID, Status: "FAILED"},
	}}

	r := NewReconciler(repo, payments, nil, 5*time.Minute, time.Minute, zap.NewNop())
	require.NoError(t, r.SweepOnce(context.Background()))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
}

func TestSweepOnce_UnreachablePaymentKeepsPending(t *testing.T) {
	repo := newMockOrderRepo()
	order := staleOrder(repo, 10*time.Minute)
	payments := &mockPaymentClient{lookupErr: errors.New("connection refused")}

	r := NewReconciler(repo, payments, nil, 5*time.Minute, time.Minute, zap.NewNop())
	require.NoError(t, r.SweepOnce(context.Background()))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestSweepOnce_FreshPendingIsLeftAlone(t *testing.T) {
	repo := newMockOrderRepo()
	payments := &mockPaymentClient{txByOrder: map[uuid.UUID]*TransactionRecord{}}
	order := staleOrder(repo, time.Minute)

	r := NewReconciler(repo, payments, nil, 5*time.Minute, time.Minute, zap.NewNop())
	require.NoError(t, r.SweepOnce(context.Background()))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := newMockOrderRepo()
	payments := &mockPaymentClient{txByOrder: map[uuid.UUID]*TransactionRecord{}}

	r := NewReconciler(repo, payments, nil, 5*time.Minute, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop on context cancel")
	}
}
