package checkout

import (
	"context"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// GetOrder возвращает заказ. Пользователь видит только свои заказы,
// администратор — любые.
func (s *Service) GetOrder(ctx context.Context, orderID, requesterID string, requesterRole domain.Role) (domain.Order, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return domain.Order{}, domain.ErrForbidden
	}
	return order, nil
}

// ListUserOrders возвращает заказы пользователя, свежие первыми.
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID)
}

// ListAllOrders возвращает все заказы (административная выборка).
func (s *Service) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.store.Orders().ListAll(ctx)
}

// GetOrderTimeline возвращает события жизненного цикла заказа с теми же
// правилами доступа, что и GetOrder.
func (s *Service) GetOrderTimeline(ctx context.Context, orderID, requesterID string, requesterRole domain.Role) ([]domain.TimelineEvent, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return s.store.Timeline().List(ctx, orderID)
}
