package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStorage 基于MySQL的存储，表结构由 migrations/ 下的迁移脚本创建
type SQLStorage struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLStorage 创建SQL存储
func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db, timeout: 5 * time.Second}
}

// Get 读取键值
func (s *SQLStorage) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT storage_value FROM client_storage WHERE storage_key = ?", key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("query storage key %s: %w", key, err)
	}
	return value, nil
}

// Set 写入键值（存在则覆盖）
func (s *SQLStorage) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_storage (storage_key, storage_value, updated_at)
		 VALUES (?, ?, NOW())
		 ON DUPLICATE KEY UPDATE storage_value = VALUES(storage_value), updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert storage key %s: %w", key, err)
	}
	return nil
}

// Remove 删除键
func (s *SQLStorage) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM client_storage WHERE storage_key = ?", key); err != nil {
		return fmt.Errorf("delete storage key %s: %w", key, err)
	}
	return nil
}
