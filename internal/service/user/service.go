package user

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Service — операции над учётными записями. Выборки и удаление —
// административные; смена профиля и пароля доступна владельцу.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис пользователей.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "users")
	}
	return &Service{store: store, logger: logger}
}

// List возвращает всех пользователей.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().List(ctx)
}

// Get возвращает пользователя по ID.
func (s *Service) Get(ctx context.Context, id string) (domain.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// UpdateProfile меняет имя и email пользователя. Пустые значения
// оставляют прежние.
func (s *Service) UpdateProfile(ctx context.Context, userID, email, name string) (domain.User, error) {
	var updated domain.User
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if email = strings.TrimSpace(email); email != "" {
			user.Email = email
		}
		if name = strings.TrimSpace(name); name != "" {
			user.Name = name
		}

		updated, err = tx.Users().Update(ctx, user)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.WithField("user_id", userID).Info("user profile updated")
	return updated, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx domain.Tx) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := auth.CheckPassword(user.PasswordHash, currentPassword); err != nil {
			return err
		}

		user.PasswordHash = hash
		_, err = tx.Users().Update(ctx, user)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("user password changed")
	return nil
}

// Delete удаляет учётную запись вместе с корзиной.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}
