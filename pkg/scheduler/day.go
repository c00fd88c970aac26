package scheduler

import (
	"fmt"
	"time"

	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/rotation"
	"github.com/nextmyth84-stack/road-auto/pkg/validator"
)

// PeriodDemand 某教时的需求
type PeriodDemand struct {
	Period model.Period `json:"period"`
	Demand model.Counts `json:"demand"`
	// CourseDuty 下午的场地检查人员，只能在跨入下午的教时上指定
	CourseDuty []string `json:"course_duty,omitempty"`
}

// DayResult 连续多个教时的分配结果
type DayResult struct {
	Periods  []*Result               `json:"periods"`
	Totals   map[string]model.Counts `json:"totals"` // 每人各类型累计
	Final    []*model.Person         `json:"final_roster"`
	Duration time.Duration           `json:"duration_ns"`
}

// AssignDay 依次分配连续的教时，教时之间做状态顺延
//
// 教时必须严格连续（如 1,2 或 3,4,5）。同一次调用共享一个决胜器。
// 场地检查职责按半天计：跨入下午时上午的职责清除，改用该教时的 CourseDuty。
func (e *Engine) AssignDay(roster []*model.Person, plan []PeriodDemand, mem rotation.Memory) (*DayResult, error) {
	if len(plan) == 0 {
		return nil, apperrors.InvalidInput("periods", "至少需要一个教时")
	}
	ids := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		if p != nil {
			ids[p.ID] = struct{}{}
		}
	}
	for i, pd := range plan {
		if err := validator.ValidateInput(roster, pd.Period, pd.Demand); err != nil {
			return nil, err
		}
		if i > 0 && pd.Period != plan[i-1].Period+1 {
			return nil, apperrors.InvalidInput("periods",
				fmt.Sprintf("教时必须连续: %s 之后是 %s", plan[i-1].Period, pd.Period))
		}
		if len(pd.CourseDuty) == 0 {
			continue
		}
		if i == 0 || !startsHalfDay(plan[i-1].Period, pd.Period) {
			return nil, apperrors.InvalidInput("periods.course_duty",
				fmt.Sprintf("%s 不是跨入下午的教时，场地检查人员应在名单中指定", pd.Period))
		}
		for _, id := range pd.CourseDuty {
			if _, ok := ids[id]; !ok {
				return nil, apperrors.InvalidInput("periods.course_duty", "不在名单中: "+id)
			}
		}
	}

	start := time.Now()
	b := e.newBreaker()
	day := &DayResult{Totals: make(map[string]model.Counts, len(roster))}
	for _, p := range roster {
		day.Totals[p.ID] = model.Counts{}
	}

	current := roster
	for i, pd := range plan {
		if i > 0 && startsHalfDay(plan[i-1].Period, pd.Period) {
			current = withCourseDuty(current, pd.CourseDuty)
		}
		res := e.assign(b, current, pd.Period, pd.Demand, mem)
		for _, a := range res.Assignments {
			day.Totals[a.PersonID] = day.Totals[a.PersonID].Add(a.Counts)
		}
		day.Periods = append(day.Periods, res)
		current = res.Next
	}

	day.Final = current
	day.Duration = time.Since(start)
	return day, nil
}

// Unmet 返回全部教时未满足需求之和
func (d *DayResult) Unmet() model.Counts {
	var unmet model.Counts
	for _, r := range d.Periods {
		unmet = unmet.Add(r.Unmet)
	}
	return unmet
}

func startsHalfDay(prev, next model.Period) bool {
	return prev.HalfDay() != next.HalfDay()
}

// withCourseDuty 返回只有 ids 中的人负责场地检查的名单副本
func withCourseDuty(roster []*model.Person, ids []string) []*model.Person {
	duty := make(map[string]bool, len(ids))
	for _, id := range ids {
		duty[id] = true
	}
	next := model.CloneRoster(roster)
	for _, p := range next {
		p.CourseDuty = duty[p.ID]
		p.CourseExtension = false
	}
	return next
}
