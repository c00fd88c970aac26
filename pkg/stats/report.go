package stats

import (
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// DayReport 一组教时的统计汇总
type DayReport struct {
	Fairness *FairnessMetrics `json:"fairness"`
	Coverage *CoverageMetrics `json:"coverage"`
}

// FromResults 把引擎结果转换为统计输入
func FromResults(results []*scheduler.Result) ([]*AssignmentInfo, []*PeriodInfo) {
	var assignments []*AssignmentInfo
	periods := make([]*PeriodInfo, 0, len(results))
	for _, r := range results {
		for _, a := range r.Assignments {
			assignments = append(assignments, &AssignmentInfo{
				PersonID: a.PersonID,
				Period:   r.Period,
				Counts:   a.Counts,
			})
		}
		periods = append(periods, &PeriodInfo{Period: r.Period, Demand: r.Demand, Unmet: r.Unmet})
	}
	return assignments, periods
}

// AnalyzeDay 对连续教时的分配做公平性与覆盖率分析
func AnalyzeDay(day *scheduler.DayResult, roster []*model.Person) *DayReport {
	assignments, periods := FromResults(day.Periods)
	return &DayReport{
		Fairness: NewFairnessAnalyzer().Analyze(assignments, model.RosterIDs(roster)),
		Coverage: NewCoverageAnalyzer().Analyze(periods),
	}
}
