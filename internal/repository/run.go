package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// Run 一次教时分配的记录
type Run struct {
	RunID            uuid.UUID    `json:"run_id"`
	Unit             string       `json:"unit"`
	Period           model.Period `json:"period"`
	Demand           model.Counts `json:"demand"`
	Unmet            model.Counts `json:"unmet"`
	Placed           int          `json:"placed"`
	FairnessAchieved bool         `json:"fairness_achieved"`
	Spread           int          `json:"spread"`
	RotationResets   int          `json:"rotation_resets"`
	DurationMS       int64        `json:"duration_ms"`
	CreatedAt        time.Time    `json:"created_at"`
}

// NewRun 从引擎结果生成记录
func NewRun(unit string, res *scheduler.Result) (*Run, error) {
	id, err := uuid.Parse(res.RunID)
	if err != nil {
		return nil, fmt.Errorf("运行ID无效: %w", err)
	}
	return &Run{
		RunID:            id,
		Unit:             unit,
		Period:           res.Period,
		Demand:           res.Demand,
		Unmet:            res.Unmet,
		Placed:           res.Placed().Total(),
		FairnessAchieved: res.Fairness.Achieved,
		Spread:           res.Fairness.Spread,
		RotationResets:   res.RotationResets,
		DurationMS:       res.Duration.Milliseconds(),
	}, nil
}

// RunRepository 分配记录仓储
type RunRepository struct {
	db DB
}

// NewRunRepository 创建分配记录仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create 写入一条记录
func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	demandJSON, err := json.Marshal(run.Demand)
	if err != nil {
		return fmt.Errorf("序列化需求失败: %w", err)
	}
	unmetJSON, err := json.Marshal(run.Unmet)
	if err != nil {
		return fmt.Errorf("序列化未满足需求失败: %w", err)
	}

	query := `
		INSERT INTO assignment_runs (
			run_id, unit, period, demand, unmet, placed,
			fairness_achieved, spread, rotation_resets, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.RunID, run.Unit, int(run.Period), demandJSON, unmetJSON, run.Placed,
		run.FairnessAchieved, run.Spread, run.RotationResets, run.DurationMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("写入分配记录失败: %w", err)
	}
	return nil
}

// List 按时间倒序列出记录，返回记录与总数
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*Run, int, error) {
	filter = filter.normalized()
	where, args := buildRunWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assignment_runs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计分配记录失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT run_id, unit, period, demand, unmet, placed,
			fairness_achieved, spread, rotation_resets, duration_ms, created_at
		FROM assignment_runs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询分配记录失败: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var period int
		var demandJSON, unmetJSON []byte
		if err := rows.Scan(
			&run.RunID, &run.Unit, &period, &demandJSON, &unmetJSON, &run.Placed,
			&run.FairnessAchieved, &run.Spread, &run.RotationResets, &run.DurationMS, &run.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描分配记录失败: %w", err)
		}
		run.Period = model.Period(period)
		if err := json.Unmarshal(demandJSON, &run.Demand); err != nil {
			return nil, 0, fmt.Errorf("解析需求失败: %w", err)
		}
		if err := json.Unmarshal(unmetJSON, &run.Unmet); err != nil {
			return nil, 0, fmt.Errorf("解析未满足需求失败: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

// buildRunWhere 生成过滤条件
func buildRunWhere(filter ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Unit != "" {
		args = append(args, filter.Unit)
		conditions = append(conditions, fmt.Sprintf("unit = $%d", len(args)))
	}
	if filter.Period != 0 {
		args = append(args, filter.Period)
		conditions = append(conditions, fmt.Sprintf("period = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
