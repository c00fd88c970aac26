package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// RotationRepository 基于 PostgreSQL 的轮换记忆存储
//
// 每个单位的记忆按写入顺序保存在 rotation_memory 表中。
type RotationRepository struct {
	db TxDB
}

// NewRotationRepository 创建轮换记忆仓储
func NewRotationRepository(db TxDB) *RotationRepository {
	return &RotationRepository{db: db}
}

// Load 读取某单位的轮换记忆
func (r *RotationRepository) Load(ctx context.Context, unit string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM rotation_memory WHERE unit = $1 ORDER BY position`, unit)
	if err != nil {
		return nil, fmt.Errorf("读取轮换记忆失败: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("扫描轮换记忆失败: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Save 整体替换某单位的轮换记忆
func (r *RotationRepository) Save(ctx context.Context, unit string, names []string) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rotation_memory WHERE unit = $1`, unit); err != nil {
			return fmt.Errorf("清除轮换记忆失败: %w", err)
		}
		if len(names) == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rotation_memory (unit, position, name)
			SELECT $1, t.ord, t.name
			FROM unnest($2::text[]) WITH ORDINALITY AS t(name, ord)
		`, unit, pq.Array(names))
		if err != nil {
			return fmt.Errorf("写入轮换记忆失败: %w", err)
		}
		return nil
	})
}

// Reset 清空某单位的轮换记忆
func (r *RotationRepository) Reset(ctx context.Context, unit string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rotation_memory WHERE unit = $1`, unit); err != nil {
		return fmt.Errorf("重置轮换记忆失败: %w", err)
	}
	return nil
}
