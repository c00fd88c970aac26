// Package stats 提供分配结果的统计分析
package stats

import (
	"math"
	"sort"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// AssignmentInfo 单人单教时的分配（用于统计分析）
type AssignmentInfo struct {
	PersonID string       `json:"person_id"`
	Period   model.Period `json:"period"`
	Counts   model.Counts `json:"counts"`
}

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	LoadGini     float64 `json:"load_gini"`     // 项目数基尼系数 (0=完全公平)
	LoadVariance float64 `json:"load_variance"` // 项目数方差
	LoadStdDev   float64 `json:"load_std_dev"`  // 项目数标准差
	AvgItems     float64 `json:"avg_items"`     // 人均项目数
	MaxItems     int     `json:"max_items"`     // 最多
	MinItems     int     `json:"min_items"`     // 最少
	ItemsRange   int     `json:"items_range"`   // 极差

	IdleGini   float64            `json:"idle_gini"`   // 空闲教时分布的基尼系数
	MixedShare float64            `json:"mixed_share"` // 混合类型的人次占比 (%)
	TypeShare  map[string]float64 `json:"type_share"`  // 各类型占比 (%)

	PersonStats []PersonStat `json:"person_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合评分 (0-100)
}

// PersonStat 个人统计
type PersonStat struct {
	PersonID     string       `json:"person_id"`
	Total        int          `json:"total"`
	ByType       model.Counts `json:"by_type"`
	Periods      int          `json:"periods"`       // 参与统计的教时数
	IdlePeriods  int          `json:"idle_periods"`  // 未分配的教时数
	MixedPeriods int          `json:"mixed_periods"` // 混合类型的教时数
	Deviation    float64      `json:"deviation"`     // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析若干教时的分配公平性
//
// persons 为名单，名单中没有分配记录的人按0计入。
func (f *FairnessAnalyzer) Analyze(assignments []*AssignmentInfo, persons []string) *FairnessMetrics {
	if len(persons) == 0 {
		return &FairnessMetrics{
			TypeShare:            make(map[string]float64),
			OverallFairnessScore: 100,
		}
	}

	personStats := f.calculatePersonStats(assignments, persons)

	items := make([]float64, len(personStats))
	idle := make([]float64, len(personStats))
	for i, s := range personStats {
		items[i] = float64(s.Total)
		idle[i] = float64(s.IdlePeriods)
	}

	avg := mean(items)
	variance := varianceOf(items, avg)
	stdDev := math.Sqrt(variance)
	hi, lo := valueRange(items)

	for i := range personStats {
		if avg > 0 {
			personStats[i].Deviation = (float64(personStats[i].Total) - avg) / avg * 100
		}
	}

	loadGini := gini(items)
	idleGini := gini(idle)
	mixedShare := f.calculateMixedShare(assignments)

	return &FairnessMetrics{
		LoadGini:             loadGini,
		LoadVariance:         variance,
		LoadStdDev:           stdDev,
		AvgItems:             avg,
		MaxItems:             int(hi),
		MinItems:             int(lo),
		ItemsRange:           int(hi - lo),
		IdleGini:             idleGini,
		MixedShare:           mixedShare,
		TypeShare:            f.calculateTypeShare(assignments),
		PersonStats:          personStats,
		OverallFairnessScore: f.calculateOverallScore(loadGini, idleGini, mixedShare, stdDev, avg),
	}
}

// calculatePersonStats 按名单顺序统计，并按总数降序排列
func (f *FairnessAnalyzer) calculatePersonStats(assignments []*AssignmentInfo, persons []string) []PersonStat {
	statMap := make(map[string]*PersonStat, len(persons))
	result := make([]*PersonStat, 0, len(persons))
	for _, id := range persons {
		s := &PersonStat{PersonID: id}
		statMap[id] = s
		result = append(result, s)
	}

	for _, a := range assignments {
		s, ok := statMap[a.PersonID]
		if !ok {
			continue
		}
		s.Periods++
		s.Total += a.Counts.Total()
		s.ByType = s.ByType.Add(a.Counts)
		if a.Counts.IsZero() {
			s.IdlePeriods++
		}
		if a.Counts.Mixed() {
			s.MixedPeriods++
		}
	}

	out := make([]PersonStat, len(result))
	for i, s := range result {
		out[i] = *s
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// calculateMixedShare 混合类型的人次占比
func (f *FairnessAnalyzer) calculateMixedShare(assignments []*AssignmentInfo) float64 {
	active, mixed := 0, 0
	for _, a := range assignments {
		if a.Counts.IsZero() {
			continue
		}
		active++
		if a.Counts.Mixed() {
			mixed++
		}
	}
	if active == 0 {
		return 0
	}
	return float64(mixed) / float64(active) * 100
}

// calculateTypeShare 各类型项目占比
func (f *FairnessAnalyzer) calculateTypeShare(assignments []*AssignmentInfo) map[string]float64 {
	var sum model.Counts
	for _, a := range assignments {
		sum = sum.Add(a.Counts)
	}

	share := make(map[string]float64)
	total := sum.Total()
	if total == 0 {
		return share
	}
	for _, t := range model.ItemTypes {
		if sum[t] > 0 {
			share[t.String()] = float64(sum[t]) / float64(total) * 100
		}
	}
	return share
}

// calculateOverallScore 综合公平性评分
func (f *FairnessAnalyzer) calculateOverallScore(loadGini, idleGini, mixedShare, stdDev, avg float64) float64 {
	const (
		loadWeight  = 0.5
		idleWeight  = 0.2
		mixedWeight = 0.2
		cvWeight    = 0.1
	)

	loadScore := (1 - loadGini) * 100
	idleScore := (1 - idleGini) * 100
	mixedScore := 100 - mixedShare

	cvScore := 100.0
	if avg > 0 {
		cvScore = math.Max(0, 100-stdDev/avg*200)
	}

	score := loadWeight*loadScore + idleWeight*idleScore + mixedWeight*mixedScore + cvWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// CompareRuns 比较两组分配的公平性
func (f *FairnessAnalyzer) CompareRuns(run1, run2 []*AssignmentInfo, persons []string) map[string]float64 {
	m1 := f.Analyze(run1, persons)
	m2 := f.Analyze(run2, persons)

	return map[string]float64{
		"load_gini_diff":     m2.LoadGini - m1.LoadGini,
		"idle_gini_diff":     m2.IdleGini - m1.IdleGini,
		"mixed_share_diff":   m2.MixedShare - m1.MixedShare,
		"overall_score_diff": m2.OverallFairnessScore - m1.OverallFairnessScore,
		"run1_overall_score": m1.OverallFairnessScore,
		"run2_overall_score": m2.OverallFairnessScore,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		d := v - avg
		sumSquares += d * d
	}
	return sumSquares / float64(len(values))
}

func valueRange(values []float64) (hi, lo float64) {
	if len(values) == 0 {
		return 0, 0
	}
	hi, lo = values[0], values[0]
	for _, v := range values[1:] {
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	return hi, lo
}

// gini 基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g /= float64(n) * sum
	return math.Max(0, math.Min(1, g))
}
