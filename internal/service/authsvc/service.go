package authsvc

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ErrEmailInvalid — адрес не похож на email.
var ErrEmailInvalid = errors.New("email is invalid")

// Session — результат успешной регистрации или входа.
type Session struct {
	User  domain.User
	Token string
}

// Service регистрирует пользователей и выдаёт access-токены.
type Service struct {
	store  domain.Store
	tokens *auth.TokenManager
	logger *log.Entry
}

// NewService создаёт сервис аутентификации.
func NewService(store domain.Store, tokens *auth.TokenManager, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "auth")
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Register создаёт пользователя с ролью user, его пустую корзину и сразу
// выдаёт токен. Email нормализуется, пароль хэшируется bcrypt.
func (s *Service) Register(ctx context.Context, email, name, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, ErrEmailInvalid
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	var user domain.User
	err = s.store.WithinTx(ctx, func(tx domain.Tx) error {
		created, err := tx.Users().Create(ctx, domain.User{
			Email:        email,
			Name:         strings.TrimSpace(name),
			PasswordHash: hash,
			Role:         domain.RoleUser,
		})
		if err != nil {
			return err
		}
		// Корзина создаётся вместе с аккаунтом, чтобы первый запрос к ней
		// не делал скрытую запись.
		if _, err := tx.Carts().Create(ctx, created.ID); err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user registered")
	return Session{User: user, Token: token}, nil
}

// Login проверяет пару email/пароль и выдаёт токен. Несуществующий email
// и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}

	s.logger.WithField("user_id", user.ID).Debug("user logged in")
	return Session{User: user, Token: token}, nil
}

// Profile возвращает учётную запись по ID из токена.
func (s *Service) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}
