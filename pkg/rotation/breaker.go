package rotation

import (
	"math/rand"
	"time"
)

// Decision 一次决胜的结果
type Decision struct {
	Winner string
	Forced bool // 只有一个候选，不算优待
	Waived bool // 候选全部近期被优待过，放宽限制
	Reset  bool // 记录后覆盖全员，记忆已清空
}

// Breaker 随机决胜器
//
// Choose 只做决定，不修改记忆；Record 负责写入。BreakTie 按顺序执行两者。
type Breaker struct {
	rng *rand.Rand
}

// NewBreaker 创建决胜器；seed 为0时使用当前时间
func NewBreaker(seed int64) *Breaker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Breaker{rng: rand.New(rand.NewSource(seed))}
}

// Choose 从候选中选出一人
//
// 优先在未被记忆的候选中均匀随机；若全部已在记忆中，则在全部候选中随机。
// candidates 为空时返回空 Decision。
func (b *Breaker) Choose(candidates []string, mem Memory) Decision {
	switch len(candidates) {
	case 0:
		return Decision{}
	case 1:
		return Decision{Winner: candidates[0], Forced: true}
	}

	pool := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if mem == nil || !mem.Contains(id) {
			pool = append(pool, id)
		}
	}

	d := Decision{}
	if len(pool) == 0 {
		pool = candidates
		d.Waived = true
	}
	d.Winner = pool[b.rng.Intn(len(pool))]
	return d
}

// Record 把胜者写入记忆；覆盖全员时清空并返回 true
func Record(mem Memory, winner string, roster []string) bool {
	if mem == nil || winner == "" {
		return false
	}
	mem.Add(winner)
	if mem.Covers(roster) {
		mem.Clear()
		return true
	}
	return false
}

// BreakTie 决定并记录
func (b *Breaker) BreakTie(candidates []string, mem Memory, roster []string) Decision {
	d := b.Choose(candidates, mem)
	if d.Winner == "" || d.Forced {
		return d
	}
	d.Reset = Record(mem, d.Winner, roster)
	return d
}
