package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type userRepository struct {
	s    *Store
	inTx bool
}

func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return domain.ErrEmailAlreadyUsed
			}
		}

		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = user.CreatedAt

		d.users[user.ID] = user
		d.seq(user.ID)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := r.s.withRead(r.inTx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		user = u
		return nil
	})
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.s.withRead(r.inTx, func(d *data) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				user = u
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
	return user, err
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.s.withRead(r.inTx, func(d *data) error {
		users = make([]domain.User, 0, len(d.users))
		for _, u := range d.users {
			users = append(users, u)
		}
		sort.Slice(users, func(i, j int) bool {
			return d.seqs[users[i].ID] > d.seqs[users[j].ID]
		})
		return nil
	})
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		current, ok := d.users[user.ID]
		if !ok {
			return domain.ErrUserNotFound
		}
		for id, existing := range d.users {
			if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
				return domain.ErrEmailAlreadyUsed
			}
		}

		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = time.Now().UTC()
		d.users[user.ID] = user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Delete удаляет пользователя вместе с корзиной — как каскад в Postgres.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		if _, ok := d.users[id]; !ok {
			return domain.ErrUserNotFound
		}
		delete(d.users, id)

		if cartID, ok := d.cartByUser[id]; ok {
			for itemID, item := range d.cartItems {
				if item.CartID == cartID {
					delete(d.cartItems, itemID)
				}
			}
			delete(d.carts, cartID)
			delete(d.cartByUser, id)
		}
		return nil
	})
}

var _ domain.UserRepository = (*userRepository)(nil)
