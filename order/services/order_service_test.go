package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quickbite/backend/order/models"
	"github.com/quickbite/backend/order/repository"
)

// mockOrderRepo is an in-memory OrderRepository.
type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	byKey  map[string]uuid.UUID

	createErr error
	updateErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[uuid.UUID]*models.Order),
		byKey:  make(map[string]uuid.UUID),
	}
}

func (m *mockOrderRepo) CreateWithItems(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if order.IdempotencyKey != nil {
		if _, exists := m.byKey[*order.IdempotencyKey]; exists {
			return gorm.ErrDuplicatedKey
		}
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	cp := *order
	m.orders[order.ID] = &cp
	if order.IdempotencyKey != nil {
		m.byKey[*order.IdempotencyKey] = order.ID
	}
	return nil
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m.orders[id]
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) FindStalePending(ctx context.Context, olderThan time.Time) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == models.StatusPending && o.CreatedAt.Before(olderThan) {
			out = append(out, *o)
		}
	}
	return out, nil
}

type mockUserClient struct {
	users map[uuid.UUID]*User
	err   error
}

func (m *mockUserClient) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type mockMenuClient struct {
	items map[uuid.UUID]*MenuItem
	err   error
}

func (m *mockMenuClient) GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[id]
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

type mockPaymentClient struct {
	mu         sync.Mutex
	calls      int
	processErr error
	record     *TransactionRecord

	txByOrder map[uuid.UUID]*TransactionRecord
	lookupErr error
}

func (m *mockPaymentClient) Process(ctx context.Context, req PaymentRequest) (*TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.processErr != nil {
		return nil, m.processErr
	}
	if m.record != nil {
		return m.record, nil
	}
	return &TransactionRecord{
		ID:      uuid.New(),
		UserID:  req.UserID,
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Status:  "SUCCESS",
	}, nil
}

func (m *mockPaymentClient) GetTransactionByOrder(ctx context.Context, orderID uuid.UUID) (*TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	t, ok := m.txByOrder[orderID]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

type testFixture struct {
	repo     *mockOrderRepo
	users    *mockUserClient
	menu     *mockMenuClient
	payments *mockPaymentClient
	service  *OrderService

	userID   uuid.UUID
	burgerID uuid.UUID
	friesID  uuid.UUID
	restoID  uuid.UUID
}

func newTestFixture() *testFixture {
	f := &testFixture{
		repo:     newMockOrderRepo(),
		userID:   uuid.New(),
		burgerID: uuid.New(),
		friesID:  uuid.New(),
		restoID:  uuid.New(),
	}
	f.users = &mockUserClient{users: map[uuid.UUID]*User{
		f.userID: {ID: f.userID, Username: "alice", Balance: 100000},
	}}
	f.menu = &mockMenuClient{items: map[uuid.UUID]*MenuItem{
		f.burgerID: {ID: f.burgerID, RestaurantID: f.restoID, Name: "Burger", Price: 1599},
		f.friesID:  {ID: f.friesID, RestaurantID: f.restoID, Name: "Fries", Price: 500},
	}}
	f.payments = &mockPaymentClient{}
	f.service = NewOrderService(f.repo, f.users, f.menu, f.payments, nil, nil, "", zap.NewNop())
	return f
}

func (f *testFixture) request() *CreateOrderRequest {
	return &CreateOrderRequest{
		UserID:       f.userID,
		RestaurantID: f.restoID,
		Items: []CreateOrderItem{
			{MenuItemID: f.burgerID, Quantity: 2},
			{MenuItemID: f.friesID, Quantity: 1},
		},
	}
}

func TestCreateOrder_HappyPath(t *testing.T) {
	f := newTestFixture()

	order, status, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
	require.Nil(t, svcErr)
	require.NotNil(t, order)

	assert.Equal(t, 201, status)
	assert.Equal(t, models.StatusPaid, order.Status)
	assert.Equal(t, int64(2*1599+500), order.TotalPrice)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(1599), order.Items[0].PriceAtTime)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, 1, f.payments.calls)

	stored, err := f.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
}

func TestCreateOrder_PaymentDeclined(t *testing.T) {
	f := newTestFixture()
	f.payments.processErr = &PaymentDeclinedError{Reason: "Insufficient balance"}

	order, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
	assert.Nil(t, order)
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, "Insufficient balance", svcErr.Message)

	// The order row exists and is finalized FAILED, not deleted.
	require.Len(t, f.repo.orders, 1)
	for _, o := range f.repo.orders {
		assert.Equal(t, models.StatusFailed, o.Status)
	}
}

func TestCreateOrder_MenuItemMissing(t *testing.T) {
	f := newTestFixture()
	missing := uuid.New()
	req := f.request()
	req.Items = append(req.Items, CreateOrderItem{MenuItemID: missing, Quantity: 1})

	order, _, svcErr := f.service.CreateOrder(context.Background(), req, "")
	assert.Nil(t, order)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, missing.String())

	// Pricing aborted before persistence and before payment.
	assert.Empty(t, f.repo.orders)
	assert.Equal(t, 0, f.payments.calls)
}

func TestCreateOrder_UserMissing(t *testing.T) {
	f := newTestFixture()
	req := f.request()
	req.UserID = uuid.New()

	order, _, svcErr := f.service.CreateOrder(context.Background(), req, "")
	assert.Nil(t, order)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Equal(t, "User not found", svcErr.Message)
	assert.Empty(t, f.repo.orders)
}

func TestCreateOrder_PaymentUnreachable(t *testing.T) {
	f := newTestFixture()
	f.payments.processErr = errors.New("payment service request failed: connection refused")

	order, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
	assert.Nil(t, order)
	require.NotNil(t, svcErr)
	assert.Equal(t, 500, svcErr.StatusCode)

	for _, o := range f.repo.orders {
		assert.Equal(t, models.StatusFailed, o.Status)
	}
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	f := newTestFixture()
	key := uuid.NewString()

	first, status, svcErr := f.service.CreateOrder(context.Background(), f.request(), key)
	require.Nil(t, svcErr)
	assert.Equal(t, 201, status)

	second, status, svcErr := f.service.CreateOrder(context.Background(), f.request(), key)
	require.Nil(t, svcErr)
	assert.Equal(t, 200, status)
	assert.Equal(t, first.ID, second.ID)

	// The saga ran once: one payment call, one order row.
	assert.Equal(t, 1, f.payments.calls)
	assert.Len(t, f.repo.orders, 1)
}

func TestCreateOrder_DistinctKeysCreateDistinctOrders(t *testing.T) {
	f := newTestFixture()

	first, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), uuid.NewString())
	require.Nil(t, svcErr)
	second, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), uuid.NewString())
	require.Nil(t, svcErr)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, f.payments.calls)
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	f := newTestFixture()
	order, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
	require.Nil(t, svcErr)
	require.Equal(t, models.StatusPaid, order.Status)

	updated, svcErr := f.service.UpdateStatus(context.Background(), order.ID, models.StatusCancelled)
	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusCancelled, updated.Status)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newTestFixture()
	order, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
	require.Nil(t, svcErr)

	_, svcErr = f.service.UpdateStatus(context.Background(), order.ID, models.StatusPending)
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Contains(t, svcErr.Message, "Cannot transition")
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	f := newTestFixture()
	order, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
	require.Nil(t, svcErr)

	updated, svcErr := f.service.UpdateStatus(context.Background(), order.ID, models.StatusPaid)
	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusPaid, updated.Status)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newTestFixture()

	_, svcErr := f.service.UpdateStatus(context.Background(), uuid.New(), "SHIPPED")
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	f := newTestFixture()

	_, svcErr := f.service.UpdateStatus(context.Background(), uuid.New(), models.StatusCancelled)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestGetOrders_Pagination(t *testing.T) {
	f := newTestFixture()
	for i := 0; i < 3; i++ {
		_, _, svcErr := f.service.CreateOrder(context.Background(), f.request(), "")
		require.Nil(t, svcErr)
	}

	resp, svcErr := f.service.GetOrders(context.Background(), 1, 2)
	require.Nil(t, svcErr)
	assert.Equal(t, int64(3), resp.Meta.TotalOrders)
	assert.Equal(t, int64(2), resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasMore)
}
