package checkout

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

// UpdateOrderStatus — административный перевод статуса. Статусная машина
// пользовательских операций здесь не ограничивает, но складские последствия
// соблюдаются: перевод в cancelled возвращает резерв, перевод из cancelled
// списывает его заново и может быть отклонён из-за нехватки остатка.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus, reason string) (domain.Order, error) {
	if !next.Valid() {
		return domain.Order{}, domain.ErrInvalidOrderStatus
	}

	var order domain.Order
	var releasedUnits, reservedUnits int

	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		current, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current.Status == next {
			order = current
			return nil
		}

		// Остаток списан во всех статусах, кроме cancelled. Инвентарный
		// эффект нужен только при пересечении этой границы.
		wasCancelled := current.Status == domain.OrderStatusCancelled
		willBeCancelled := next == domain.OrderStatusCancelled

		switch {
		case !wasCancelled && willBeCancelled:
			for _, item := range current.Items {
				if err := tx.Inventory().Release(ctx, item.ProductID, item.Qty); err != nil {
					return err
				}
				releasedUnits += int(item.Qty)
			}
		case wasCancelled && !willBeCancelled:
			for _, item := range current.Items {
				if err := tx.Inventory().Reserve(ctx, item.ProductID, item.Qty); err != nil {
					return fmt.Errorf("restore reservation: %w", err)
				}
				reservedUnits += int(item.Qty)
			}
		}

		if err := tx.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			return err
		}
		prev := current.Status
		current.Status = next

		eventType := kafka.EventTypeOrderStatusChanged
		timelineType := TimelineOrderStatusChanged
		if willBeCancelled {
			eventType = kafka.EventTypeOrderCancelled
			timelineType = TimelineOrderCancelled
		}
		if reason == "" {
			reason = fmt.Sprintf("status changed from %s to %s", prev, next)
		}
		if err := s.recordEvent(ctx, tx, current, eventType, timelineType, reason); err != nil {
			return err
		}

		order = current
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"status":   string(next),
		}).Warn("order status update rejected")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		if next == domain.OrderStatusCancelled && releasedUnits > 0 {
			s.metrics.RecordOrderCancelled()
			s.metrics.RecordStockReleased(releasedUnits)
		}
		if next == domain.OrderStatusCompleted {
			s.metrics.RecordOrderCompleted()
		}
		if reservedUnits > 0 {
			s.metrics.RecordStockReserved(reservedUnits)
		}
	}
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   string(next),
	}).Info("order status updated")

	return order, nil
}
