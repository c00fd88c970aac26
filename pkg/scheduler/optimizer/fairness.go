// Package optimizer 提供分配结果的公平性校正（有界局部搜索）
package optimizer

import (
	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// DefaultMaxIterations 默认最大校正次数
const DefaultMaxIterations = 40

// StopReason 校正停止原因
type StopReason string

const (
	StopConverged    StopReason = "converged"         // 极差 ≤ 1
	StopNoMove       StopReason = "no_move"           // 不存在有资格且未达容量的移动
	StopNoImproving  StopReason = "no_improving_move" // 可行移动都只是交换最大者与最小者
	StopIterationCap StopReason = "iteration_cap"     // 达到迭代上限
)

// Move 一次单位移动
type Move struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Type model.ItemType `json:"type"`
}

// Report 校正结果
type Report struct {
	Achieved   bool       `json:"achieved"`
	Iterations int        `json:"iterations"`
	Spread     int        `json:"spread"`
	StopReason StopReason `json:"stop_reason"`
	Moves      []Move     `json:"moves,omitempty"`
}

// Effective 有效负载 = 分配总数 + (混合类型时 +1)
func Effective(c model.Counts) int {
	e := c.Total()
	if c.Mixed() {
		e++
	}
	return e
}

// Spread 返回有效负载极差
func Spread(counts []model.Counts) int {
	if len(counts) == 0 {
		return 0
	}
	lo, hi := Effective(counts[0]), Effective(counts[0])
	for _, c := range counts[1:] {
		e := Effective(c)
		lo = min(lo, e)
		hi = max(hi, e)
	}
	return hi - lo
}

// FairnessCorrector 公平性校正器
type FairnessCorrector struct {
	maxIterations int
}

// NewFairnessCorrector 创建校正器；maxIterations ≤ 0 时使用默认值
func NewFairnessCorrector(maxIterations int) *FairnessCorrector {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &FairnessCorrector{maxIterations: maxIterations}
}

// MaxIterations 返回迭代上限
func (c *FairnessCorrector) MaxIterations() int {
	return c.maxIterations
}

// Rebalance 原地调整 counts，使有效负载极差尽量不超过1
//
// 每次从有效负载最大者向最小者移动一个单位；接收者必须具备资格且未达容量。
// 这是尽力而为的平滑，达不到目标时在 Report 中说明原因。
func (c *FairnessCorrector) Rebalance(roster []*model.Person, counts []model.Counts, capacity int) Report {
	report := Report{StopReason: StopIterationCap}

	for report.Iterations < c.maxIterations {
		if Spread(counts) <= 1 {
			report.StopReason = StopConverged
			break
		}
		move, ok := findMove(roster, counts, capacity)
		if !ok {
			report.StopReason = StopNoImproving
			if !HasMove(roster, counts, capacity) {
				report.StopReason = StopNoMove
			}
			break
		}
		counts[move.from][move.typ]--
		counts[move.to][move.typ]++
		report.Moves = append(report.Moves, Move{From: roster[move.from].ID, To: roster[move.to].ID, Type: move.typ})
		report.Iterations++
	}

	report.Spread = Spread(counts)
	if report.Spread <= 1 {
		report.StopReason = StopConverged
	}
	report.Achieved = report.StopReason == StopConverged
	return report
}

type candidateMove struct {
	from, to int
	typ      model.ItemType
}

// loadSpread 有效负载分布
type loadSpread struct {
	effs   []int
	lo, hi int
	atHi   int
}

func newLoadSpread(counts []model.Counts) loadSpread {
	ls := loadSpread{effs: make([]int, len(counts))}
	for i, c := range counts {
		ls.effs[i] = Effective(c)
	}
	ls.lo, _ = extreme(ls.effs, -1, -1, func(a, b int) bool { return a < b })
	ls.hi, ls.atHi = extreme(ls.effs, -1, -1, func(a, b int) bool { return a > b })
	return ls
}

// extreme 返回跳过 skip1、skip2 后的极值及其出现次数
func extreme(effs []int, skip1, skip2 int, better func(a, b int) bool) (int, int) {
	val, n := 0, 0
	for i, e := range effs {
		if i == skip1 || i == skip2 {
			continue
		}
		switch {
		case n == 0 || better(e, val):
			val, n = e, 1
		case e == val:
			n++
		}
	}
	return val, n
}

// improves 移动后 (极差, 最大者人数) 是否严格变小
//
// 接收后仍低于原最大值的移动一定改进；否则逐人重算。该量严格下降保证校正不会往复。
func (ls loadSpread) improves(from, to, effFrom, effTo int) bool {
	if effTo < ls.hi {
		return true
	}
	hi, atHi := extreme(ls.effs, from, to, func(a, b int) bool { return a > b })
	lo, atLo := extreme(ls.effs, from, to, func(a, b int) bool { return a < b })
	if atLo == 0 {
		// 只有两人
		hi, atHi, lo = effFrom, 0, effFrom
	}
	for _, e := range []int{effFrom, effTo} {
		switch {
		case e > hi:
			hi, atHi = e, 1
		case e == hi:
			atHi++
		}
		lo = min(lo, e)
	}
	spread := hi - lo
	if old := ls.hi - ls.lo; spread != old {
		return spread < old
	}
	return atHi < ls.atHi
}

// HasMove 是否存在从最大者到最小者、接收者有资格且未达容量的单位移动
//
// 不考虑移动能否改进极差；极差≤1时恒为 false。
func HasMove(roster []*model.Person, counts []model.Counts, capacity int) bool {
	found := false
	forEachTransfer(roster, counts, capacity, newLoadSpread(counts), func(candidateMove) bool {
		found = true
		return false
	})
	return found
}

// forEachTransfer 按名单与类型顺序遍历最大者到最小者的可行移动，fn 返回 false 时停止
func forEachTransfer(roster []*model.Person, counts []model.Counts, capacity int, ls loadSpread, fn func(candidateMove) bool) {
	if len(counts) < 2 || ls.hi-ls.lo <= 1 {
		return
	}
	for from := range counts {
		if ls.effs[from] != ls.hi {
			continue
		}
		for to := range counts {
			if ls.effs[to] != ls.lo || counts[to].Total() >= capacity {
				continue
			}
			for _, t := range model.ItemTypes {
				if counts[from][t] == 0 || !roster[to].Eligible(t) {
					continue
				}
				if !fn(candidateMove{from: from, to: to, typ: t}) {
					return
				}
			}
		}
	}
}

// findMove 寻找能改进分布的移动
//
// 优先选择不会让接收者混合类型的移动，其次接收后仍低于原最大值的移动，类型按固定顺序尝试。
func findMove(roster []*model.Person, counts []model.Counts, capacity int) (candidateMove, bool) {
	ls := newLoadSpread(counts)

	const none = 3
	var best candidateMove
	bestTier := none
	forEachTransfer(roster, counts, capacity, ls, func(m candidateMove) bool {
		given, received := counts[m.from], counts[m.to]
		given[m.typ]--
		received[m.typ]++
		effTo := Effective(received)
		if !ls.improves(m.from, m.to, Effective(given), effTo) {
			return true
		}
		tier := 2
		switch {
		case !received.Mixed():
			tier = 0
		case effTo < ls.hi:
			tier = 1
		}
		if tier < bestTier {
			best, bestTier = m, tier
		}
		return tier > 0
	})
	return best, bestTier != none
}
