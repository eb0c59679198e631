// Package database 提供 MySQL 连接与 client_storage 表的迁移。
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/config"
)

// DB 封装数据库连接
type DB struct {
	*sql.DB
	logger *zap.Logger
	dsn    string
}

// DSN 根据配置生成 go-sql-driver 连接串
func DSN(cfg config.DatabaseConfig) string {
	c := gomysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.Local
	c.Params = map[string]string{"charset": "utf8mb4"}
	// golang-migrate 的脚本可能包含多条语句
	c.MultiStatements = true
	return c.FormatDSN()
}

// New 创建数据库连接
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := DSN(cfg.Database)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// 客户端存储的并发很低
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	return &DB{DB: sqlDB, logger: logger, dsn: dsn}, nil
}

// migrator 创建基于独立连接的 migrate 实例，调用方负责 close
func (db *DB) migrator(migrationsDir string) (*migrate.Migrate, func(), error) {
	// 迁移使用独立连接，避免错误时影响主连接
	conn, err := sql.Open("mysql", db.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database for migration: %w", err)
	}

	driver, err := migratemysql.WithInstance(conn, &migratemysql.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create mysql driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "mysql", driver)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}

	closeFn := func() {
		_, _ = m.Close()
		_ = conn.Close()
	}
	return m, closeFn, nil
}

// currentVersion 读取当前版本，脏状态时报错
func currentVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("database is in dirty state at version %d, please check and fix manually", version)
	}
	return version, nil
}

// RunMigrations 执行所有待执行的迁移
func (db *DB) RunMigrations(migrationsDir string) error {
	m, closeFn, err := db.migrator(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	from, err := currentVersion(m)
	if err != nil {
		return err
	}
	db.logger.Info("current migration version", zap.Uint("version", from))

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("get new version: %w", err)
	}
	db.logger.Info("migrations completed successfully",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to),
	)
	return nil
}

// MigrateDown 回滚指定步数
func (db *DB) MigrateDown(migrationsDir string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, closeFn, err := db.migrator(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	from, err := currentVersion(m)
	if err != nil {
		return err
	}
	db.logger.Info("starting migration rollback",
		zap.Uint("current_version", from),
		zap.Int("steps", steps),
	)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get new version: %w", err)
	}
	db.logger.Info("migration rollback completed",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to),
	)
	return nil
}

// Version 返回当前迁移版本与脏标记
func (db *DB) Version(migrationsDir string) (uint, bool, error) {
	m, closeFn, err := db.migrator(migrationsDir)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// ForceMigrationVersion 强制设置迁移版本，只用于修复脏状态
func (db *DB) ForceMigrationVersion(migrationsDir string, version uint) error {
	m, closeFn, err := db.migrator(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	db.logger.Info("forcing migration version", zap.Uint("version", version))
	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}
	return nil
}
