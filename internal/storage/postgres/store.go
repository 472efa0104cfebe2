package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// DBTX покрывает общие методы *sql.DB и *sql.Tx: каждый репозиторий работает
// поверх него и потому одинаково живёт и автономно, и внутри WithinTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store оборачивает SQL-подключение к PostgreSQL и реализует domain.Store.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithinTx выполняет fn в одной транзакции read committed. Блокировки строк
// берут сами запросы (FOR UPDATE, conditional UPDATE), поэтому два
// конкурентных checkout по одному товару сериализуются на уровне БД.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", wrapRetryable(err))
	}

	if err := fn(&txBundle{q: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return wrapRetryable(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", wrapRetryable(err))
	}
	return nil
}

func (s *Store) Users() domain.UserRepository        { return &userRepository{q: s.db} }
func (s *Store) Products() domain.ProductRepository  { return &productRepository{q: s.db} }
func (s *Store) Carts() domain.CartRepository        { return &cartRepository{q: s.db} }
func (s *Store) Orders() domain.OrderRepository      { return &orderRepository{q: s.db} }
func (s *Store) Outbox() domain.OutboxRepository     { return &outboxRepository{q: s.db} }
func (s *Store) Timeline() domain.TimelineRepository { return &timelineRepository{q: s.db} }
func (s *Store) Inventory() domain.InventoryLedger   { return &inventoryLedger{q: s.db} }
func (s *Store) Idempotency() domain.IdempotencyRepository {
	return &idempotencyRepository{q: s.db}
}

// txBundle отдаёт репозитории поверх открытой транзакции.
type txBundle struct {
	q *sql.Tx
}

func (t *txBundle) Users() domain.UserRepository        { return &userRepository{q: t.q} }
func (t *txBundle) Products() domain.ProductRepository  { return &productRepository{q: t.q} }
func (t *txBundle) Carts() domain.CartRepository        { return &cartRepository{q: t.q} }
func (t *txBundle) Orders() domain.OrderRepository      { return &orderRepository{q: t.q} }
func (t *txBundle) Outbox() domain.OutboxRepository     { return &outboxRepository{q: t.q} }
func (t *txBundle) Timeline() domain.TimelineRepository { return &timelineRepository{q: t.q} }
func (t *txBundle) Inventory() domain.InventoryLedger   { return &inventoryLedger{q: t.q} }

// wrapRetryable помечает инфраструктурные обрывы транзакции как транзиентные:
// caller вправе повторить операцию с нуля.
func wrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03", "57014":
			// serialization failure, deadlock, lock not available, cancelled
			return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, pgErr.Code)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*txBundle)(nil)
