package solver

import (
	"sort"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// QuotaPlan 配额规划结果
type QuotaPlan struct {
	Quotas    []int `json:"quotas"`     // 与名单顺序一致
	Base      int   `json:"base"`       // 人均基础配额
	Remainder int   `json:"remainder"`  // 余数单位
	Overflow  int   `json:"overflow"`   // 超出 人数×容量 的部分
	TieBreaks int   `json:"tie_breaks"` // 余数分配时发生的随机决胜次数
}

// Spread 返回配额极差
func (p QuotaPlan) Spread() int {
	if len(p.Quotas) == 0 {
		return 0
	}
	lo, hi := p.Quotas[0], p.Quotas[0]
	for _, q := range p.Quotas[1:] {
		lo = min(lo, q)
		hi = max(hi, q)
	}
	return hi - lo
}

// PlanQuotas 计算每人本教时应分配的总项目数
//
// 每人先得 total/n，余数逐个分给负载最低的人；跨越分界的同负载组通过 tb 决胜。
// 所有配额不超过 capacity，超出部分记入 Overflow。
func PlanQuotas(roster []*model.Person, total, capacity int, tb TieBreaker) QuotaPlan {
	n := len(roster)
	plan := QuotaPlan{Quotas: make([]int, n)}
	if n == 0 || total <= 0 {
		plan.Overflow = max(total, 0)
		return plan
	}

	plan.Base = total / n
	plan.Remainder = total % n
	for i := range plan.Quotas {
		plan.Quotas[i] = plan.Base
	}

	// 基础配额已达到容量时余数无处可放，不做决胜
	if plan.Remainder > 0 && plan.Base < capacity {
		plan.TieBreaks = distributeRemainder(roster, plan.Quotas, plan.Remainder, tb)
	}

	assigned := 0
	for i := range plan.Quotas {
		if plan.Quotas[i] > capacity {
			plan.Quotas[i] = capacity
		}
		assigned += plan.Quotas[i]
	}
	plan.Overflow = total - assigned
	return plan
}

// distributeRemainder 按负载升序把余数分给最低负载的人，返回决胜次数
func distributeRemainder(roster []*model.Person, quotas []int, remainder int, tb TieBreaker) int {
	order := make([]int, len(roster))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return roster[order[a]].Load < roster[order[b]].Load
	})

	tieBreaks := 0
	for start := 0; start < len(order) && remainder > 0; {
		end := start + 1
		for end < len(order) && sameLoad(roster[order[end]].Load, roster[order[start]].Load) {
			end++
		}
		group := order[start:end]

		if len(group) <= remainder {
			for _, idx := range group {
				quotas[idx]++
			}
			remainder -= len(group)
		} else {
			// 同负载组人数多于剩余单位：逐个决胜
			pool := append([]int(nil), group...)
			for remainder > 0 && len(pool) > 0 {
				pick := pickIndex(roster, pool, tb)
				if len(pool) > 1 {
					tieBreaks++
				}
				if pick < 0 {
					pick = 0
				}
				quotas[pool[pick]]++
				pool = append(pool[:pick], pool[pick+1:]...)
				remainder--
			}
		}
		start = end
	}
	return tieBreaks
}

// pickIndex 调用决胜器并返回胜者在 pool 中的位置，失败返回 -1
func pickIndex(roster []*model.Person, pool []int, tb TieBreaker) int {
	ids := make([]string, len(pool))
	for i, idx := range pool {
		ids[i] = roster[idx].ID
	}
	if tb == nil {
		tb = FirstCandidate
	}
	winner := tb(ids)
	for i, id := range ids {
		if id == winner {
			return i
		}
	}
	return -1
}
