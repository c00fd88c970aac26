// Package rotation 提供随机决胜的轮换记忆（防止同一批人连续被优待）
package rotation

// Memory 轮换记忆契约
type Memory interface {
	// Contains 是否近期已被优待
	Contains(id string) bool
	// Add 记录一次优待
	Add(id string)
	// Clear 清空记忆
	Clear()
	// Len 返回记忆中的人数
	Len() int
	// Covers 记忆是否已包含名单中的所有人
	Covers(roster []string) bool
	// Names 返回按记录顺序排列的快照
	Names() []string
}

// Set 进程内轮换记忆，保持插入顺序
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet 创建轮换记忆，可带初始内容（重复项忽略）
func NewSet(names ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Contains 实现 Memory
func (s *Set) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add 实现 Memory
func (s *Set) Add(id string) {
	if id == "" || s.Contains(id) {
		return
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

// Clear 实现 Memory
func (s *Set) Clear() {
	s.order = nil
	s.index = make(map[string]struct{})
}

// Len 实现 Memory
func (s *Set) Len() int {
	return len(s.order)
}

// Covers 实现 Memory；空名单视为未覆盖
func (s *Set) Covers(roster []string) bool {
	if len(roster) == 0 {
		return false
	}
	for _, id := range roster {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Names 实现 Memory
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
