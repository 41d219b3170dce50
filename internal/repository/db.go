package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/socio/socio-go/internal/repository/migrations"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// DB is a connection pool together with the dialect its queries must be written in.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// NewDB opens a connection pool for the given driver and DSN and verifies it with a ping.
func NewDB(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect := Dialect(driver)

	var driverName string
	switch dialect {
	case SQLite:
		driverName = "sqlite"
	case MySQL:
		driverName = "mysql"
	case Postgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		// SQLite allows one writer; an in-memory database exists only on its own connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Migrate applies all pending schema migrations for the pool's dialect.
func Migrate(ctx context.Context, db *DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{})

	gooseDialect := string(db.Dialect)
	if db.Dialect == SQLite {
		gooseDialect = "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, string(db.Dialect)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insert runs an INSERT and returns the generated id.
// PostgreSQL has no LastInsertId, so it uses RETURNING instead.
func (db *DB) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if db.Dialect == Postgres {
		var id int64
		err := db.QueryRowContext(ctx, db.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// isUniqueViolation reports whether err is a unique-constraint failure on any supported backend.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toTimestamp(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromTimestamp(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}
