package handler

import (
	"net/http"
	"sort"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/stats"
)

// PeriodRecord 已完成教时的分配记录
type PeriodRecord struct {
	Period int                     `json:"period" validate:"required,min=1,max=5"`
	Demand model.Counts            `json:"demand"`
	Unmet  model.Counts            `json:"unmet"`
	Matrix map[string]model.Counts `json:"matrix" validate:"required"`
}

// StatsRequest 统计请求
type StatsRequest struct {
	Persons  []string       `json:"persons" validate:"required,min=1,dive,required"`
	Periods  []PeriodRecord `json:"periods" validate:"required,min=1,dive"`
	Baseline []PeriodRecord `json:"baseline,omitempty" validate:"omitempty,dive"` // 对比的另一组分配
}

// StatsResponse 统计响应
type StatsResponse struct {
	stats.DayReport
	Comparison map[string]float64 `json:"comparison,omitempty"`
}

// toStats 展开为统计输入，矩阵按人员ID排序以保证输出稳定
func toStats(records []PeriodRecord) ([]*stats.AssignmentInfo, []*stats.PeriodInfo) {
	var assignments []*stats.AssignmentInfo
	periods := make([]*stats.PeriodInfo, 0, len(records))
	for _, rec := range records {
		ids := make([]string, 0, len(rec.Matrix))
		for id := range rec.Matrix {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			assignments = append(assignments, &stats.AssignmentInfo{
				PersonID: id,
				Period:   model.Period(rec.Period),
				Counts:   rec.Matrix[id],
			})
		}
		periods = append(periods, &stats.PeriodInfo{
			Period: model.Period(rec.Period),
			Demand: rec.Demand,
			Unmet:  rec.Unmet,
		})
	}
	return assignments, periods
}

// AnalyzeDay 对已有的分配记录做公平性与覆盖率分析
func (h *Handler) AnalyzeDay(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	fairness := stats.NewFairnessAnalyzer()
	assignments, periods := toStats(req.Periods)
	resp := StatsResponse{DayReport: stats.DayReport{
		Fairness: fairness.Analyze(assignments, req.Persons),
		Coverage: stats.NewCoverageAnalyzer().Analyze(periods),
	}}
	if len(req.Baseline) > 0 {
		baseline, _ := toStats(req.Baseline)
		resp.Comparison = fairness.CompareRuns(baseline, assignments, req.Persons)
	}

	respondJSON(w, http.StatusOK, resp)
}
