package solver

import (
	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// Allocation 类型分配结果
type Allocation struct {
	Counts    []model.Counts `json:"counts"`     // 与名单顺序一致
	Unmet     model.Counts   `json:"unmet"`      // 无法分配的单位
	Relaxed   model.Counts   `json:"relaxed"`    // 放宽配额后才分配出去的单位
	TieBreaks int            `json:"tie_breaks"` // 随机决胜次数
	Failed    int            `json:"failed"`     // 决胜器未给出有效结果的次数
}

// Totals 返回每人分配总数
func (a *Allocation) Totals() []int {
	totals := make([]int, len(a.Counts))
	for i, c := range a.Counts {
		totals[i] = c.Total()
	}
	return totals
}

// Allocator 按类型叠加的分配器
//
// 按固定顺序处理各类型的每个需求单位。候选需具备资格且未达配额和容量；
// 优先选择不会因此混合类型的人，其次负载低者，再次已持有该类型者，仍同分则交给决胜器。
// 第一轮结束后放宽配额（保留容量）再处理剩余单位。
type Allocator struct {
	roster   []*model.Person
	quotas   []int
	capacity int
	tb       TieBreaker

	counts []model.Counts
	totals []int
}

// NewAllocator 创建分配器
func NewAllocator(roster []*model.Person, quotas []int, capacity int, tb TieBreaker) *Allocator {
	if tb == nil {
		tb = FirstCandidate
	}
	return &Allocator{
		roster:   roster,
		quotas:   quotas,
		capacity: capacity,
		tb:       tb,
		counts:   make([]model.Counts, len(roster)),
		totals:   make([]int, len(roster)),
	}
}

// Allocate 执行两轮分配
func (a *Allocator) Allocate(demand model.Counts) *Allocation {
	result := &Allocation{}

	var pending model.Counts
	for _, t := range model.ItemTypes {
		for u := 0; u < demand[t]; u++ {
			if a.placeOne(t, true, result) {
				continue
			}
			if !a.hasCandidate(t, true) {
				pending[t] += demand[t] - u
				break
			}
			pending[t]++
		}
	}

	for _, t := range model.ItemTypes {
		for u := 0; u < pending[t]; u++ {
			if a.placeOne(t, false, result) {
				result.Relaxed[t]++
				continue
			}
			if !a.hasCandidate(t, false) {
				result.Unmet[t] += pending[t] - u
				break
			}
			result.Unmet[t]++
		}
	}

	result.Counts = a.counts
	return result
}

// placeOne 分配一个单位，成功返回 true
func (a *Allocator) placeOne(t model.ItemType, respectQuota bool, result *Allocation) bool {
	group := a.bestGroup(t, respectQuota)
	if len(group) == 0 {
		return false
	}

	idx := group[0]
	if len(group) > 1 {
		ids := make([]string, len(group))
		for i, g := range group {
			ids[i] = a.roster[g].ID
		}
		winner := a.tb(ids)
		result.TieBreaks++
		idx = -1
		for i, id := range ids {
			if id == winner {
				idx = group[i]
				break
			}
		}
		if idx < 0 {
			result.Failed++
			return false
		}
	}

	a.counts[idx][t]++
	a.totals[idx]++
	return true
}

// score 候选排序键：是否混合、负载、是否未持有该类型，均为越小越优
type score struct {
	mix   bool
	load  float64
	fresh bool
}

func (s score) less(o score) bool {
	if s.mix != o.mix {
		return !s.mix
	}
	if !sameLoad(s.load, o.load) {
		return s.load < o.load
	}
	return !s.fresh && o.fresh
}

func (s score) equal(o score) bool {
	return s.mix == o.mix && sameLoad(s.load, o.load) && s.fresh == o.fresh
}

// bestGroup 返回得分最优且同分的候选（按名单顺序）
//
// 第一轮按加权后的负载比较，配额本身已限制总数；放宽配额的第二轮
// 叠加本教时已分配数，使溢出单位分散。
func (a *Allocator) bestGroup(t model.ItemType, respectQuota bool) []int {
	var group []int
	var best score

	for i, p := range a.roster {
		if !a.isCandidate(i, p, t, respectQuota) {
			continue
		}
		sc := score{mix: a.wouldMix(i, t), load: p.Load, fresh: a.counts[i][t] == 0}
		if !respectQuota {
			sc.load += float64(a.totals[i])
		}

		switch {
		case len(group) == 0 || sc.less(best):
			group = append(group[:0], i)
			best = sc
		case sc.equal(best):
			group = append(group, i)
		}
	}
	return group
}

func (a *Allocator) isCandidate(i int, p *model.Person, t model.ItemType, respectQuota bool) bool {
	if !p.Eligible(t) {
		return false
	}
	if a.totals[i] >= a.capacity {
		return false
	}
	if respectQuota && a.totals[i] >= a.quotas[i] {
		return false
	}
	return true
}

// hasCandidate 是否还有人能接收该类型
//
// 分配数只增不减，一旦没有候选，同一轮中该类型后续单位也不会有。
func (a *Allocator) hasCandidate(t model.ItemType, respectQuota bool) bool {
	for i, p := range a.roster {
		if a.isCandidate(i, p, t, respectQuota) {
			return true
		}
	}
	return false
}

// wouldMix 分配后是否会持有两种及以上类型
func (a *Allocator) wouldMix(i int, t model.ItemType) bool {
	c := a.counts[i]
	return c.Distinct() > 0 && c[t] == 0
}

// Allocate 便捷函数
func Allocate(roster []*model.Person, quotas []int, demand model.Counts, capacity int, tb TieBreaker) *Allocation {
	return NewAllocator(roster, quotas, capacity, tb).Allocate(demand)
}
