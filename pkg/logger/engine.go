package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// EngineLogger 分配引擎专用日志器
type EngineLogger struct {
	base *zerolog.Logger
}

// NewEngineLogger 创建分配引擎日志器
func NewEngineLogger() *EngineLogger {
	l := Get().With().Str("component", "engine").Logger()
	return &EngineLogger{base: &l}
}

// NewEngineLoggerWith 使用指定日志器创建（测试或按单位区分时使用）
func NewEngineLoggerWith(l zerolog.Logger) *EngineLogger {
	l = l.With().Str("component", "engine").Logger()
	return &EngineLogger{base: &l}
}

// StartPeriod 记录教时分配开始
func (l *EngineLogger) StartPeriod(runID string, period int, persons, demand, capacity int) {
	l.base.Info().
		Str("run_id", runID).
		Int("period", period).
		Int("persons", persons).
		Int("demand", demand).
		Int("capacity", capacity).
		Msg("开始教时分配")
}

// UnmetDemand 记录未满足需求
func (l *EngineLogger) UnmetDemand(runID, itemType string, units int, reason string) {
	l.base.Warn().
		Str("run_id", runID).
		Str("item_type", itemType).
		Int("units", units).
		Str("reason", reason).
		Msg("需求未能全部分配")
}

// FairnessNotAchieved 记录公平性未收敛
func (l *EngineLogger) FairnessNotAchieved(runID string, spread, iterations int, reason string) {
	l.base.Warn().
		Str("run_id", runID).
		Int("spread", spread).
		Int("iterations", iterations).
		Str("reason", reason).
		Msg("公平性校正未完全达成")
}

// RotationReset 记录轮换记忆清空
func (l *EngineLogger) RotationReset(runID string, rosterSize int) {
	l.base.Info().
		Str("run_id", runID).
		Int("roster", rosterSize).
		Msg("轮换记忆已覆盖全员，自动清空")
}

// TieBreak 记录随机决胜
func (l *EngineLogger) TieBreak(runID, winner string, candidates int, waived bool) {
	l.base.Debug().
		Str("run_id", runID).
		Str("winner", winner).
		Int("candidates", candidates).
		Bool("waived", waived).
		Msg("随机决胜")
}

// PeriodComplete 记录教时分配完成
func (l *EngineLogger) PeriodComplete(runID string, period int, duration time.Duration, placed, unmet int) {
	l.base.Info().
		Str("run_id", runID).
		Int("period", period).
		Dur("duration", duration).
		Int("placed", placed).
		Int("unmet", unmet).
		Msg("教时分配完成")
}

// InvariantViolation 记录结果不变量被破坏
func (l *EngineLogger) InvariantViolation(runID, kind, message string) {
	l.base.Error().
		Str("run_id", runID).
		Str("violation", kind).
		Msg(message)
}
