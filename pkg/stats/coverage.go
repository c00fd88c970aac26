package stats

import (
	"sort"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// PeriodInfo 单教时的需求与未满足（用于统计分析）
type PeriodInfo struct {
	Period model.Period `json:"period"`
	Demand model.Counts `json:"demand"`
	Unmet  model.Counts `json:"unmet"`
}

// CoverageMetrics 需求覆盖率指标
type CoverageMetrics struct {
	TotalDemand     int     `json:"total_demand"`     // 总需求单位
	Placed          int     `json:"placed"`           // 已分配单位
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	TypeCoverage   map[string]float64 `json:"type_coverage"`   // 按类型覆盖率
	PeriodCoverage []PeriodCoverage   `json:"period_coverage"` // 按教时覆盖

	Understaffed []UnderstaffedItem `json:"understaffed"` // 人手不足的教时与类型
}

// PeriodCoverage 单教时覆盖情况
type PeriodCoverage struct {
	Period       model.Period `json:"period"`
	Demand       int          `json:"demand"`
	Placed       int          `json:"placed"`
	CoverageRate float64      `json:"coverage_rate"`
}

// UnderstaffedItem 人手不足
type UnderstaffedItem struct {
	Period   model.Period   `json:"period"`
	Type     model.ItemType `json:"type"`
	Required int            `json:"required"`
	Assigned int            `json:"assigned"`
	Shortage int            `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析需求覆盖率
func (c *CoverageAnalyzer) Analyze(periods []*PeriodInfo) *CoverageMetrics {
	metrics := &CoverageMetrics{
		TypeCoverage:    make(map[string]float64),
		OverallCoverage: 100,
	}
	if len(periods) == 0 {
		return metrics
	}

	var demand, unmet model.Counts
	for _, p := range periods {
		demand = demand.Add(p.Demand)
		unmet = unmet.Add(p.Unmet)

		pc := PeriodCoverage{
			Period:       p.Period,
			Demand:       p.Demand.Total(),
			Placed:       p.Demand.Total() - p.Unmet.Total(),
			CoverageRate: 100,
		}
		if pc.Demand > 0 {
			pc.CoverageRate = float64(pc.Placed) / float64(pc.Demand) * 100
		}
		metrics.PeriodCoverage = append(metrics.PeriodCoverage, pc)

		for _, t := range model.ItemTypes {
			if p.Unmet[t] > 0 {
				metrics.Understaffed = append(metrics.Understaffed, UnderstaffedItem{
					Period:   p.Period,
					Type:     t,
					Required: p.Demand[t],
					Assigned: p.Demand[t] - p.Unmet[t],
					Shortage: p.Unmet[t],
				})
			}
		}
	}

	metrics.TotalDemand = demand.Total()
	metrics.Placed = metrics.TotalDemand - unmet.Total()
	if metrics.TotalDemand > 0 {
		metrics.OverallCoverage = float64(metrics.Placed) / float64(metrics.TotalDemand) * 100
	}
	for _, t := range model.ItemTypes {
		if demand[t] > 0 {
			metrics.TypeCoverage[t.String()] = float64(demand[t]-unmet[t]) / float64(demand[t]) * 100
		}
	}

	sort.SliceStable(metrics.PeriodCoverage, func(i, j int) bool {
		return metrics.PeriodCoverage[i].Period < metrics.PeriodCoverage[j].Period
	})
	return metrics
}
