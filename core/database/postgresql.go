package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"calshare/core/config"
	"calshare/core/constants"
	"calshare/core/errors"
	"calshare/core/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Executor is the query surface shared by the connection pool and an open
// transaction. Repository methods that must participate in a caller's
// transaction accept an Executor instead of reaching for the pool.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	Rebind(query string) string
}

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx Executor) error) error
}

type IDatabase interface {
	TxRunner
	ExecContext(ctx context.Context, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error)
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	SQLx() *sqlx.DB
}

type Database struct {
	db   *sql.DB
	sqlx *sqlx.DB
}

var (
	instance *Database
)

func GetDB() IDatabase {
	return instance
}

func InitDB(cfg config.DatabaseConfig) (Database, error) {
	logger.Info("Initializing database...")

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	sqlxDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return Database{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB := sqlxDB.DB
	sqlDB.SetMaxOpenConns(constants.DatabaseMaxOpenConns)
	sqlDB.SetMaxIdleConns(constants.DatabaseMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(constants.DatabaseConnMaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		return Database{}, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Migrations != "" {
		if err = migrateUp(cfg.Migrations, dsnURL(cfg)); err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			return Database{}, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	db := Database{
		db:   sqlDB,
		sqlx: sqlxDB,
	}
	instance = &db

	logger.Info("Database initialized successfully",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DBName,
		"user", cfg.User,
	)

	return db, nil
}

func dsnURL(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
}

func migrateUp(source, dbURL string) error {
	m, err := migrate.New(source, dbURL)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	version, dirty, _ := m.Version()
	logger.Info("Migrations applied", "version", version, "dirty", dirty)
	return nil
}

func (d *Database) ExecContext(ctx context.Context, query string, args ...any) error {
	_, err := d.sqlx.ExecContext(ctx, query, args...)
	return err
}

func (d *Database) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.GetContext(ctx, dest, query, args...)
}

func (d *Database) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.SelectContext(ctx, dest, query, args...)
}

func (d *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

func (d *Database) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return d.sqlx.QueryRowxContext(ctx, query, args...)
}

func (d *Database) NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error) {
	return d.sqlx.NamedQueryContext(ctx, query, arg)
}

func (d *Database) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return d.sqlx.NamedExecContext(ctx, query, arg)
}

func (d *Database) SQLx() *sqlx.DB {
	return d.sqlx
}

// Pool exposes the connection pool as an Executor for read paths that do not
// need transactional isolation.
func (d *Database) Pool() Executor {
	return d.sqlx
}

// WithTransaction runs fn inside a transaction. Any error or panic rolls the
// whole transaction back; partial writes are never committed.
func (d *Database) WithTransaction(ctx context.Context, fn func(tx Executor) error) (err error) {
	tx, txErr := d.sqlx.BeginTxx(ctx, nil)
	if txErr != nil {
		logger.Error("Database:WithTransaction:Begin:Error:", txErr)
		return errors.NewAppError(errors.ErrTransactionFailed, "failed to begin transaction", txErr)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = errors.NewAppError(errors.ErrTransactionFailed, fmt.Sprintf("panic in transaction: %v", p), nil)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logger.Error("Database:WithTransaction:Rollback:Error:", rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			logger.Error("Database:WithTransaction:Commit:Error:", cErr)
			err = errors.NewAppError(errors.ErrTransactionFailed, "failed to commit transaction", cErr)
		}
	}()

	err = fn(tx)
	return err
}
