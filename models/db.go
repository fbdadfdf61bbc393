package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"StoryForge-server/config"
	"StoryForge-server/logger"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

// Database owns the connection pool for the lifetime of the process. Open it
// once at startup and Close it at shutdown.
type Database struct {
	Gorm *gorm.DB
	sql  *sql.DB
	log  *logger.Logger
}

func Open(cfg *config.Config, log *logger.Logger) (*Database, error) {
	if cfg == nil {
		return nil, errors.New("models: nil config")
	}
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Hour)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		gdb, err = gorm.Open(mysql.New(mysql.Config{Conn: db}), gormCfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("gorm init: %w", err)
		}
	case "postgres":
		gdb, err = gorm.Open(postgres.Open(cfg.Database.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	case "sqlite":
		gdb, err = gorm.Open(sqlite.Open(cfg.Database.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	default:
		return nil, fmt.Errorf("models: unsupported driver %q", cfg.Database.Driver)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm pool: %w", err)
	}
	switch cfg.Database.Driver {
	case "sqlite":
		// one writer; also keeps ":memory:" databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	case "postgres":
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	log.Info("database connected", "driver", cfg.Database.Driver)
	return &Database{Gorm: gdb, sql: sqlDB, log: log}, nil
}

// Migrate creates or updates every table the server uses.
func (d *Database) Migrate() error {
	return d.Gorm.AutoMigrate(
		&Project{}, &World{}, &Character{}, &Object{}, &Scene{}, &Shot{},
		&Compilation{}, &Job{}, &Secret{},
	)
}

func (d *Database) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	d.log.Info("database closing")
	return d.sql.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
