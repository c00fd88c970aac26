// Package database 提供 PostgreSQL 连接与建表
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/nextmyth84-stack/road-auto/internal/config"
	"github.com/nextmyth84-stack/road-auto/pkg/logger"
)

const (
	pingTimeout        = 5 * time.Second
	slowQueryThreshold = 100 * time.Millisecond
)

// DB 数据库连接封装，执行SQL时记录慢查询
type DB struct {
	*sql.DB
}

// Open 打开连接并测试连通性
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("数据库连接成功")

	return &DB{DB: conn}, nil
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	logger.Info().Msg("关闭数据库连接")
	return db.DB.Close()
}

// Health 健康检查
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// schema 轮换记忆与分配记录表
const schema = `
CREATE TABLE IF NOT EXISTS rotation_memory (
	unit     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	PRIMARY KEY (unit, position)
);

CREATE TABLE IF NOT EXISTS assignment_runs (
	run_id            UUID        PRIMARY KEY,
	unit              TEXT        NOT NULL,
	period            SMALLINT    NOT NULL,
	demand            JSONB       NOT NULL,
	unmet             JSONB       NOT NULL,
	placed            INTEGER     NOT NULL,
	fairness_achieved BOOLEAN     NOT NULL,
	spread            INTEGER     NOT NULL,
	rotation_resets   INTEGER     NOT NULL,
	duration_ms       BIGINT      NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_assignment_runs_unit ON assignment_runs (unit, created_at DESC);
`

// Migrate 创建所需的表
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("创建数据表失败: %w", err)
	}
	logger.Info().Msg("数据表已就绪")
	return nil
}

// Transaction 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// ExecContext 执行SQL语句
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer logSlow(query, time.Now())
	return db.DB.ExecContext(ctx, query, args...)
}

// QueryContext 执行查询
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer logSlow(query, time.Now())
	return db.DB.QueryContext(ctx, query, args...)
}

// QueryRowContext 执行单行查询
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer logSlow(query, time.Now())
	return db.DB.QueryRowContext(ctx, query, args...)
}

func logSlow(query string, start time.Time) {
	if d := time.Since(start); d > slowQueryThreshold {
		logger.Warn().
			Str("query", truncateQuery(query)).
			Dur("duration", d).
			Msg("慢SQL查询")
	}
}

// truncateQuery 截断长查询
func truncateQuery(query string) string {
	if len(query) > 200 {
		return query[:200] + "..."
	}
	return query
}
