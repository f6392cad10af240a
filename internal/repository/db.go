package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/zetahub/kryptonite/assets"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Deposit() DepositRepository
	Withdrawal() WithdrawalRepository
	AuthPin() AuthPinRepository
	Notification() NotificationRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TxRunner is the slice of Database that handlers need for multi-write
// operations. Kept separate so tests can supply a trivial implementation.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db               *sqlx.DB
	userRepo         UserRepository
	depositRepo      DepositRepository
	withdrawalRepo   WithdrawalRepository
	authPinRepo      AuthPinRepository
	notificationRepo NotificationRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	// Run migrations if enabled
	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// RunInTx executes fn inside a single transaction: either every write in fn
// commits or none of them do.
func (d *DatabaseImpl) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx.Tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Deposit() DepositRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.depositRepo == nil {
		d.depositRepo = NewDepositRepository(d.db)
	}
	return d.depositRepo
}

func (d *DatabaseImpl) Withdrawal() WithdrawalRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.withdrawalRepo == nil {
		d.withdrawalRepo = NewWithdrawalRepository(d.db)
	}
	return d.withdrawalRepo
}

func (d *DatabaseImpl) AuthPin() AuthPinRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.authPinRepo == nil {
		d.authPinRepo = NewAuthPinRepository(d.db)
	}
	return d.authPinRepo
}

func (d *DatabaseImpl) Notification() NotificationRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.notificationRepo == nil {
		d.notificationRepo = NewNotificationRepository(d.db)
	}
	return d.notificationRepo
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, e.g. a colliding auth pin code or withdrawal-to-pin link.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
