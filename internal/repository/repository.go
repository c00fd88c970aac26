// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
)

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxDB 支持事务的数据库接口
type TxDB interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ListFilter 列表查询过滤器
type ListFilter struct {
	Unit   string `json:"unit,omitempty"`
	Period int    `json:"period,omitempty"` // 0 表示全部教时
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 20}
}

// WithUnit 设置单位
func (f ListFilter) WithUnit(unit string) ListFilter {
	f.Unit = unit
	return f
}

// WithPeriod 设置教时
func (f ListFilter) WithPeriod(period int) ListFilter {
	f.Period = period
	return f
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// normalized 限制分页范围
func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
