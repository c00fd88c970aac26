// Package solver 提供教时配额规划与按类型叠加的分配算法
package solver

import "math"

// TieBreaker 在同分候选中选出一人，候选按名单顺序给出；返回空字符串表示无法决胜
type TieBreaker func(candidates []string) string

// loadEpsilon 浮点负载比较容差
const loadEpsilon = 1e-9

func sameLoad(a, b float64) bool {
	return math.Abs(a-b) < loadEpsilon
}

// FirstCandidate 总是选第一个候选（确定性决胜，测试中使用）
func FirstCandidate(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}
