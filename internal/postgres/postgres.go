package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	sentryService "github.com/branchschool/installments/internal/sentry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// IClient is the transaction boundary services depend on.
// Repositories pick the transaction up from the context.
type IClient interface {
	// WithTx runs fn inside a transaction, nesting through savepoints
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

var _ IClient = (*DB)(nil)

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// Module provides the database and its IClient view to the fx graph
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			func(db *DB, sentry *sentryService.Service, logger *logger.Logger) IClient {
				return NewSentryClient(db, sentry, logger)
			},
		),
		fx.Invoke(registerLifecycle),
	)
}

// NewDB opens the connection pool described by config
func NewDB(config *config.Configuration, logger *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", config.Postgres.GetDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	logger.Infow("connected to postgres",
		"host", config.Postgres.Host,
		"dbname", config.Postgres.DBName,
		"max_open_conns", config.Postgres.MaxOpenConns,
	)

	return &DB{DB: db, logger: logger}, nil
}

func registerLifecycle(lc fx.Lifecycle, config *config.Configuration, db *DB) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !config.Postgres.AutoMigrate {
				return nil
			}
			return db.Migrate(ctx)
		},
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}
