// Package scheduler 实现单教时监考分配引擎
//
// 每个教时的流程：权重 → 配额 → 类型叠加分配（随机决胜参考轮换记忆）→ 公平性校正 → 状态顺延。
package scheduler

import (
	"fmt"

	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// 默认权重
const (
	DefaultDutyBump  = 1.0
	DefaultCarryBump = 0.5
)

// Weights 负载加权参数
type Weights struct {
	DutyBump  float64 `json:"duty_bump" yaml:"duty_bump"`   // 场地检查、讲师等职责的加权上限
	CarryBump float64 `json:"carry_bump" yaml:"carry_bump"` // 上一教时未分配的加权
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{DutyBump: DefaultDutyBump, CarryBump: DefaultCarryBump}
}

// Validate 要求 0 < CarryBump ≤ DutyBump
func (w Weights) Validate() error {
	if w.DutyBump <= 0 {
		return apperrors.New(apperrors.CodeInvalidWeights,
			fmt.Sprintf("职责加权必须为正数: %g", w.DutyBump))
	}
	if w.CarryBump <= 0 || w.CarryBump > w.DutyBump {
		return apperrors.New(apperrors.CodeInvalidWeights,
			fmt.Sprintf("顺延加权必须在 (0, %g] 范围内: %g", w.DutyBump, w.CarryBump))
	}
	return nil
}

// educationWeighted 讲师职责只在下一教时为 2、4、5 时计入
var educationWeighted = map[model.Period]bool{2: true, 4: true, 5: true}

// DutyBumpFor 计算某人在该教时的职责加权（已截断到 w.DutyBump）
func (w Weights) DutyBumpFor(p *model.Person, period model.Period) float64 {
	bump := 0.0
	if p.CourseDuty && period.IsFirstOfHalfDay() {
		bump += w.DutyBump
	}
	if p.CourseExtension && period.IsSecondOfHalfDay() {
		bump += w.DutyBump
	}
	if next := period.Next(); next != model.NoPeriod && p.EducatorFor == next && educationWeighted[next] {
		bump += w.DutyBump
	}
	return min(bump, w.DutyBump)
}

// ApplyWeights 原地叠加加权，返回每人是否获得职责加权
func ApplyWeights(roster []*model.Person, period model.Period, w Weights) []bool {
	duty := make([]bool, len(roster))
	for i, p := range roster {
		bump := w.DutyBumpFor(p, period)
		duty[i] = bump > 0
		if p.CarryPenalty {
			bump += w.CarryBump
		}
		p.Load += bump
	}
	return duty
}
