package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// Типы событий timeline заказа.
const (
	TimelineOrderCreated       = "order.created"
	TimelineOrderCancelled     = "order.cancelled"
	TimelineOrderStatusChanged = "order.status_changed"
)

// Service оформляет заказы из корзины и управляет их жизненным циклом.
// Все мутации проходят через Store.WithinTx: заказ, складской резерв,
// очистка корзины, outbox и timeline фиксируются одной единицей работы.
type Service struct {
	store   domain.Store
	logger  *log.Entry
	metrics *metrics.CheckoutMetrics
}

// NewService создаёт сервис заказов.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics.NewCheckoutMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// CreateOrder превращает корзину пользователя в заказ со статусом pending.
// Цены замораживаются на момент оформления, резерв по каждой позиции
// списывается атомарно, корзина очищается. Любая ошибка откатывает всё:
// частично оформленных заказов и частичных резервов не бывает.
func (s *Service) CreateOrder(ctx context.Context, userID string) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordCheckoutStarted()
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCheckoutFinished()
			s.metrics.RecordCheckoutDuration(time.Since(start))
		}
	}()

	var order domain.Order
	var reservedUnits int

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().GetByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrCartNotFound) {
				return domain.ErrEmptyCart
			}
			return err
		}

		cartItems, err := tx.Carts().Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return domain.ErrEmptyCart
		}

		var total int64
		orderItems := make([]domain.OrderItem, 0, len(cartItems))
		for _, item := range cartItems {
			product, err := tx.Products().Get(ctx, item.ProductID)
			if err != nil {
				return err
			}

			// Атомарная проверка и списание остатка. При нехватке ошибка
			// называет товар, и вся транзакция откатывается.
			if err := tx.Inventory().Reserve(ctx, product.ID, item.Qty); err != nil {
				return err
			}
			reservedUnits += int(item.Qty)

			orderItems = append(orderItems, domain.OrderItem{
				ProductID:  product.ID,
				Qty:        item.Qty,
				PriceMinor: product.PriceMinor,
			})
			total += int64(item.Qty) * product.PriceMinor
		}

		created, err := tx.Orders().Create(ctx, domain.Order{
			UserID:     userID,
			Status:     domain.OrderStatusPending,
			TotalMinor: total,
			Items:      orderItems,
		})
		if err != nil {
			return err
		}

		if err := tx.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		if err := s.recordEvent(ctx, tx, created, kafka.EventTypeOrderCreated, TimelineOrderCreated, ""); err != nil {
			return err
		}

		order = created
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("checkout failed")
		if s.metrics != nil {
			s.metrics.RecordCheckoutFailed(failureReason(err))
		}
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
		s.metrics.RecordStockReserved(reservedUnits)
	}
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"user_id":     userID,
		"total_minor": order.TotalMinor,
		"items":       len(order.Items),
	}).Info("order created")

	return order, nil
}

// CancelOrder отменяет заказ и возвращает резерв на склад. Отменить можно
// только не-терминальный заказ; отмена уже отменённого или исполненного
// заказа отклоняется, поэтому повторный restock невозможен.
func (s *Service) CancelOrder(ctx context.Context, orderID, requesterID string, requesterRole domain.Role) (domain.Order, error) {
	var order domain.Order
	var releasedUnits int

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		// Блокировка строки заказа сериализует конкурентные отмены:
		// вторая увидит статус cancelled и будет отклонена.
		current, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current.UserID != requesterID && requesterRole != domain.RoleAdmin {
			return domain.ErrForbidden
		}
		if !current.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			return &domain.InvalidTransitionError{From: current.Status, To: domain.OrderStatusCancelled}
		}

		for _, item := range current.Items {
			if err := tx.Inventory().Release(ctx, item.ProductID, item.Qty); err != nil {
				return err
			}
			releasedUnits += int(item.Qty)
		}

		if err := tx.Orders().UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
			return err
		}
		current.Status = domain.OrderStatusCancelled

		if err := s.recordEvent(ctx, tx, current, kafka.EventTypeOrderCancelled, TimelineOrderCancelled, "cancelled by user"); err != nil {
			return err
		}

		order = current
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":     orderID,
			"requester_id": requesterID,
		}).Warn("order cancellation rejected")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
		s.metrics.RecordStockReleased(releasedUnits)
	}
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"user_id":  order.UserID,
	}).Info("order cancelled")

	return order, nil
}

// recordEvent добавляет событие в timeline и outbox внутри текущей транзакции.
func (s *Service) recordEvent(ctx context.Context, tx domain.Tx, order domain.Order, eventType kafka.EventType, timelineType, reason string) error {
	if err := tx.Timeline().Append(ctx, domain.TimelineEvent{
		OrderID: order.ID,
		Type:    timelineType,
		Reason:  reason,
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), order.TotalMinor, reason)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	if _, err := tx.Outbox().Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
	return nil
}

// failureReason переводит ошибку checkout в label метрики.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
