package repos

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// OpenDB opens the store and brings its schema up to date.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverMySQL:
		return openMySQL(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func openSQLite(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: keeps :memory: databases whole and serializes writers
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite migration driver: %w", err)
	}
	// m.Close would close db as well, so the instance is left to the collector.
	if err := migrateUp(driver, "migrations/sqlite", DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openMySQL(dsn string) (*sqlx.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	// Migrations get their own connection: the schema files carry several statements each.
	mcfg := cfg.Clone()
	mcfg.MultiStatements = true
	migrateDB, err := sql.Open("mysql", mcfg.FormatDSN())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open migration database: %w", err)
	}
	driver, err := migratemysql.WithInstance(migrateDB, &migratemysql.Config{})
	if err != nil {
		migrateDB.Close()
		db.Close()
		return nil, fmt.Errorf("create mysql migration driver: %w", err)
	}
	err = migrateUp(driver, "migrations/mysql", DriverMySQL)
	_ = driver.Close()
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrateUp(driver database.Driver, dir, name string) error {
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// InTx runs fn inside one transaction; fn's error rolls everything back.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping backs the health check.
func Ping(ctx context.Context, db *sqlx.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return domain.Wrap(domain.KindUpstreamUnavailable, err, "database unavailable")
	}
	return nil
}

// SeedDemo inserts a small demo catalog when the store has no categories yet.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return nil
	}

	log.L().Info("seed.demo", "what", "categories/products")

	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		now := timestampNow()
		cats := []struct {
			name, desc string
			typ        domain.CategoryType
		}{
			{"Beverages", "Soft drinks, juice and water", domain.CategoryProduct},
			{"Snacks", "Packaged snacks", domain.CategoryProduct},
			{"Household", "Cleaning and home supplies", domain.CategoryProduct},
			{"Rent", "Shop rent", domain.CategoryExpense},
			{"Utilities", "Power, water and internet", domain.CategoryExpense},
		}
		ids := make(map[string]int64, len(cats))
		for _, c := range cats {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO categories(name, description, category_type, created_at, updated_at)
				VALUES(?, ?, ?, ?, ?)
			`, c.name, c.desc, c.typ, now, now)
			if err != nil {
				return fmt.Errorf("seed category %s: %w", c.name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids[c.name] = id
		}

		products := []struct {
			name, cat, unit string
			cost, price     int64
			stock, min      int
		}{
			{"Bottled Water 500ml", "Beverages", "bottle", 25, 50, 120, 24},
			{"Orange Juice 1L", "Beverages", "carton", 180, 299, 30, 10},
			{"Potato Chips", "Snacks", "bag", 60, 120, 8, 10},
			{"Chocolate Bar", "Snacks", "piece", 45, 95, 60, 20},
			{"Dish Soap", "Household", "bottle", 150, 275, 15, 5},
		}
		for _, p := range products {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO products(
					name, category_id, unit_of_measure, cost_price_cents, selling_price_cents,
					current_stock, minimum_stock_level, is_active, created_at, updated_at
				) VALUES(?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
			`, p.name, ids[p.cat], p.unit, p.cost, p.price, p.stock, p.min, now, now); err != nil {
				return fmt.Errorf("seed product %s: %w", p.name, err)
			}
		}
		return nil
	})
}

// timestampLayout is how created_at/updated_at are written; both drivers accept it.
const timestampLayout = "2006-01-02 15:04:05"

var nowFunc = time.Now

func timestampNow() string { return nowFunc().UTC().Format(timestampLayout) }

// timestamp scans DATETIME/TEXT timestamp columns from either driver.
type timestamp struct{ time.Time }

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("timestamp: cannot scan %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized value %q", s)
}

// isDuplicate reports unique-constraint violations from either driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKey reports foreign-key violations from either driver.
func isForeignKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
