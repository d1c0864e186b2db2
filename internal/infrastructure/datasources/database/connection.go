package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-directory.backend/internal/config"
	"user-directory.backend/internal/infrastructure/models"
)

const pingTimeout = 5 * time.Second

var (
	sqlOpen = sql.Open
	dbPing  = func(db *sql.DB) error {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return db.PingContext(ctx)
	}
)

// sqlDriverName maps a configured driver onto the database/sql driver that serves it.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres:
		return "postgres", nil
	case config.DriverMySQL:
		return "mysql", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

func dialector(driver string, conn *sql.DB) gorm.Dialector {
	switch driver {
	case config.DriverMySQL:
		return mysql.New(mysql.Config{Conn: conn})
	case config.DriverSQLite:
		return sqlite.New(sqlite.Config{Conn: conn})
	default:
		return postgres.New(postgres.Config{Conn: conn, PreferSimpleProtocol: true})
	}
}

// NewConnection opens and pings the configured database
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sqlOpen(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serializes writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	if err := dbPing(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(dialector(cfg.Driver, sqlDB), &gorm.Config{
		PrepareStmt:          false,
		DisableAutomaticPing: true,
		Logger:     gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	return db, nil
}

// Migrate creates the users table and its unique indexes when missing.
// With rebuild set the table is dropped first and all rows are lost.
func Migrate(db *gorm.DB, rebuild bool) error {
	if rebuild {
		if err := db.Migrator().DropTable(&models.User{}); err != nil {
			return fmt.Errorf("failed to drop users table: %w", err)
		}
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}
