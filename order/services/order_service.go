package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quickbite/backend/order/kafka"
	"github.com/quickbite/backend/order/models"
	"github.com/quickbite/backend/order/repository"
	aws_pkg "github.com/quickbite/backend/pkg/aws"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

type CreateOrderItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	UserID       uuid.UUID         `json:"user_id" binding:"required"`
	RestaurantID uuid.UUID         `json:"restaurant_id" binding:"required"`
	Items        []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService runs the order-creation saga: validate user, price items,
// persist a PENDING order, invoke payment, finalize the status. Each step
// runs only if the previous one succeeded; nothing is persisted before the
// pricing step completes for every item.
type OrderService struct {
	repo        repository.OrderRepository
	users       UserClient
	menu        MenuClient
	payments    PaymentClient
	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

func NewOrderService(
	repo repository.OrderRepository,
	users UserClient,
	menu MenuClient,
	payments PaymentClient,
	producer kafka.ProducerAPI,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		repo:        repo,
		users:       users,
		menu:        menu,
		payments:    payments,
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// CreateOrder executes the saga. idempotencyKey, when non-empty, makes the
// call replayable: the same key returns the previously created order (200)
// instead of running the saga again. The int result is the HTTP status for
// the success path (200 replay, 201 fresh).
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, idempotencyKey string) (*models.Order, int, *ServiceError) {
	if idempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			s.logger.Info("idempotent replay, returning existing order",
				zap.String("order_id", existing.ID.String()),
				zap.String("idempotency_key", idempotencyKey))
			return existing, 200, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("idempotency lookup failed", zap.Error(err))
			return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
		}
	}

	// Step 1: the user must exist before anything else happens.
	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, 0, &ServiceError{StatusCode: 404, Message: "User not found"}
		}
		s.logger.Error("user lookup failed", zap.String("user_id", req.UserID.String()), zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Service communication error: user service"}
	}

	// Step 2: price every item before any persistence. A single missing item
	// aborts the whole request, naming the item.
	var totalPrice int64
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		menuItem, err := s.menu.GetMenuItem(ctx, item.MenuItemID)
		if err != nil {
			if errors.Is(err, ErrMenuItemNotFound) {
				return nil, 0, &ServiceError{
					StatusCode: 404,
					Message:    fmt.Sprintf("Menu item %s not found", item.MenuItemID),
				}
			}
			s.logger.Error("menu item lookup failed",
				zap.String("menu_item_id", item.MenuItemID.String()), zap.Error(err))
			return nil, 0, &ServiceError{StatusCode: 500, Message: "Service communication error: restaurant service"}
		}

		totalPrice += menuItem.Price * int64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:  item.MenuItemID,
			Quantity:    item.Quantity,
			PriceAtTime: menuItem.Price,
		})
	}

	// Steps 3-4: persist the PENDING order and its items atomically. This is
	// the durability checkpoint; a crash after it leaves a PENDING order for
	// the reconciliation sweep.
	order := &models.Order{
		UserID:       req.UserID,
		RestaurantID: req.RestaurantID,
		TotalPrice:   totalPrice,
		Status:       models.StatusPending,
		Items:        orderItems,
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		order.IdempotencyKey = &key
	}

	if err := s.repo.CreateWithItems(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && idempotencyKey != "" {
			// Lost the race with a concurrent replay of the same key.
			if existing, lookupErr := s.repo.FindByIdempotencyKey(ctx, idempotencyKey); lookupErr == nil {
				return existing, 200, nil
			}
		}
		s.logger.Error("order persist failed", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.Int("items", len(order.Items)),
		zap.Int64("total_price", order.TotalPrice))

	// Step 5: invoke the payment processor. Network failure and explicit
	// decline both finalize the order as FAILED; there is no compensating
	// action for the catalog reads, only a terminal status.
	_, err := s.payments.Process(ctx, PaymentRequest{
		UserID:  order.UserID,
		OrderID: order.ID,
		Amount:  order.TotalPrice,
	})

	var declined *PaymentDeclinedError
	switch {
	case err == nil:
		if uerr := s.repo.UpdateStatus(ctx, order.ID, models.StatusPaid); uerr != nil {
			s.logger.Error("order status update failed", zap.String("order_id", order.ID.String()), zap.Error(uerr))
			return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to finalize order"}
		}
		order.Status = models.StatusPaid
		s.publishOrderEvent(ctx, "order.paid", order)
		return order, 201, nil

	case errors.As(err, &declined):
		s.finalizeFailed(ctx, order)
		return nil, 0, &ServiceError{StatusCode: 400, Message: declined.Reason}

	default:
		s.finalizeFailed(ctx, order)
		s.logger.Error("payment call failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Service communication error: payment service"}
	}
}

func (s *OrderService) finalizeFailed(ctx context.Context, order *models.Order) {
	if err := s.repo.UpdateStatus(ctx, order.ID, models.StatusFailed); err != nil {
		s.logger.Error("order status update failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	order.Status = models.StatusFailed
	s.publishOrderEvent(ctx, "order.failed", order)
}

// UpdateStatus is the manual path: admin moves an order through the state
// machine. The saga never calls this.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, *ServiceError) {
	if !models.IsValidStatus(status) {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid status value"}
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("order lookup failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	if order.Status == status {
		return order, nil
	}
	if !models.CanTransition(order.Status, status) {
		return nil, &ServiceError{
			StatusCode: 400,
			Message:    fmt.Sprintf("Cannot transition order from %s to %s", order.Status, status),
		}
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		s.logger.Error("order status update failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
	}
	order.Status = status

	s.publishOrderEvent(ctx, "order."+strings.ToLower(status), order)
	return order, nil
}

// GetOrders retrieves paginated orders.
func (s *OrderService) GetOrders(ctx context.Context, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("order list failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

// GetOrderByID retrieves a specific order with its items.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("order lookup failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	return order, nil
}

// publishOrderEvent emits the event to Kafka and mirrors it to SNS. Both are
// best-effort: a broker outage never fails the request that produced it.
func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, order *models.Order) {
	evt := models.OrderEvent{
		Type:      eventType,
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Amount:    order.TotalPrice,
		Timestamp: time.Now().UTC(),
	}

	if s.producer != nil {
		if err := s.producer.SendOrderEvent(evt); err != nil {
			s.logger.Warn("kafka publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}

	if s.snsClient != nil && s.snsTopicArn != "" {
		data, err := json.Marshal(evt)
		if err == nil {
			if err := s.snsClient.Publish(ctx, s.snsTopicArn, data); err != nil {
				s.logger.Warn("sns publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
			}
		}
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
