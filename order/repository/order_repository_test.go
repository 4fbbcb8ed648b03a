package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quickbite/backend/order/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCreateWithItems_SingleTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormOrderRepository(db)

	orderID := uuid.New()
	itemID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID.String()))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(itemID.String()))
	mock.ExpectCommit()

	order := &models.Order{
		UserID:       uuid.New(),
		RestaurantID: uuid.New(),
		TotalPrice:   3198,
		Status:       models.StatusPending,
		Items: []models.OrderItem{
			{MenuItemID: uuid.New(), Quantity: 2, PriceAtTime: 1599},
		},
	}
	err := repo.CreateWithItems(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, orderID, order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, orderID, order.Items[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithItems_ItemInsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnError(gorm.ErrInvalidData)
	mock.ExpectRollback()

	order := &models.Order{
		UserID:       uuid.New(),
		RestaurantID: uuid.New(),
		TotalPrice:   1599,
		Status:       models.StatusPending,
		Items: []models.OrderItem{
			{MenuItemID: uuid.New(), Quantity: 1, PriceAtTime: 1599},
		},
	}
	err := repo.CreateWithItems(context.Background(), order)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_NoMatchingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), uuid.New(), models.StatusPaid)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStalePending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormOrderRepository(db)

	cutoff := time.Now().Add(-5 * time.Minute)
	staleID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE status = \$1 AND created_at < \$2`).
		WithArgs(models.StatusPending, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "total_price"}).
			AddRow(staleID.String(), models.StatusPending, int64(1599)))

	orders, err := repo.FindStalePending(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, staleID, orders[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
