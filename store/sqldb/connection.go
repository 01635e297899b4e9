/*
Package sqldb provides a gorm-backed implementation of the storage interfaces.

PURPOSE:
  Persists users, saves, owned purchases, the economy ledger and tunable
  variables in any database gorm supports. SQLite is the development
  default; MySQL is the production target.

INTERFACES IMPLEMENTED:
  generic.SaveStore:     Saves and their atomic ledger flush
  generic.UserStore:     Accounts and save slots
  generic.VariableStore: Persisted tunables
  generic.Ledger:        Transaction history

KEY TABLES:
  users:           Accounts and bulk-buy setting
  saves:           Balances and counters as JSON, timestamps
  owned_purchases: (save_id, purchase_id) -> amount
  transactions:    Append-only ledger, deltas as decimal text
  variables:       name -> value

CONCURRENCY:
  gorm's pool handles concurrent callers. The save cap is enforced with a
  row lock on the user inside a transaction (no-op on SQLite, which
  serializes writers anyway).

USAGE:
  db, err := sqldb.Connect(cfg)
  store := sqldb.New(db)
  created, err := store.EnsureSchema(ctx)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqldb

import (
	"fmt"
	"log"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/warp/circle-engine/config"
)

// Connect opens the database configured by DB_TYPE.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DBType {
	case "mysql", "mariadb":
		mc := gomysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		dsn := mc.FormatDSN()
		dialector = mysql.Open(dsn)

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
		)
		dialector = postgres.Open(dsn)

	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_journal_mode=WAL")

	case "sqlserver", "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		dialector = sqlserver.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	db, err := Open(dialector, cfg.LogSQL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	limit := max(cfg.DBConnectionLimit, 1)
	if cfg.DBType == "sqlite" {
		// One writer at a time; extra connections only produce SQLITE_BUSY.
		limit = 1
	}
	sqlDB.SetMaxOpenConns(limit)
	sqlDB.SetMaxIdleConns(max(limit/2, 1))

	log.Printf("[Store] Connected to %s database: %s", cfg.DBType, cfg.DatabaseName())
	return db, nil
}

// Open opens a dialector with the store's gorm settings.
func Open(dialector gorm.Dialector, logSQL bool) (*gorm.DB, error) {
	level := logger.Silent
	if logSQL {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
