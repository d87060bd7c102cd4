// database/connection.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gewnthar/gaslines/config"
	_ "github.com/go-sql-driver/mysql" // MySQL workspace driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // GeoPackage workspace driver
)

// ErrNotInitialized is returned by store functions called before InitDB.
var ErrNotInitialized = errors.New("database connection is not initialized")

var (
	DB        *sql.DB
	workspace Dialect
)

func logger() *zap.Logger { return zap.L().Named("database") }

// InitDB opens the workspace described by cfg and prepares its metadata
// tables (GeoPackage core tables and the report import log).
func InitDB(ctx context.Context, cfg config.WorkspaceConfig) error {
	var (
		dsn     string
		dialect Dialect
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return fmt.Errorf("failed to create workspace directory: %w", err)
		}
		dsn = cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		dialect = geoPackage{}
	case config.DriverMySQL:
		// DSN: username:password@protocol(address)/dbname?param=value
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
			cfg.MySQL.User,
			cfg.MySQL.Password,
			cfg.MySQL.Host,
			cfg.MySQL.Port,
			cfg.MySQL.DBName,
		)
		dialect = mysqlSpatial{}
	default:
		return fmt.Errorf("unsupported workspace driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// single writer; concurrent connections only produce SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.Init(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize %s workspace: %w", dialect.Name(), err)
	}
	if _, err := db.ExecContext(ctx, dialect.ImportLogDDL()); err != nil {
		db.Close()
		return fmt.Errorf("failed to create report import log: %w", err)
	}

	DB, workspace = db, dialect
	logger().Info("Connected to workspace", zap.String("driver", cfg.Driver), zap.String("dialect", dialect.Name()))
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		DB.Close()
		DB, workspace = nil, nil
		logger().Info("Database connection closed")
	}
}

// Ping reports whether the workspace is reachable.
func Ping(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}
	return DB.PingContext(ctx)
}
