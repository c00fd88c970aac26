// Package model 定义道路考试监考分配引擎的核心数据模型
package model

// Person 监考员
//
// 每次分配调用序列中每位监考员对应一个实例，Load 等字段由引擎在教时之间传递。
type Person struct {
	ID              string `json:"id"`
	ManualCertified bool   `json:"manual_certified"` // 具备手动挡资格
	CourseDuty      bool   `json:"course_duty"`      // 本场次负责场地检查
	EducatorFor     Period `json:"educator_for"`     // 担任讲师的教时，0表示无

	Load            float64 `json:"load"`             // 优先级分数，越低越优先
	CarryPenalty    bool    `json:"carry_penalty"`    // 上一教时未分配
	CourseExtension bool    `json:"course_extension"` // 场地检查补偿顺延一教时
}

// Eligible 检查监考员能否承担某类型项目
func (p *Person) Eligible(t ItemType) bool {
	if p.ManualCertified {
		return true
	}
	return t.IsAutomatic()
}

// Clone 复制监考员
func (p *Person) Clone() *Person {
	c := *p
	return &c
}

// CloneRoster 深拷贝名单
func CloneRoster(roster []*Person) []*Person {
	out := make([]*Person, len(roster))
	for i, p := range roster {
		out[i] = p.Clone()
	}
	return out
}

// RosterIDs 返回名单中所有ID（保持顺序）
func RosterIDs(roster []*Person) []string {
	ids := make([]string, len(roster))
	for i, p := range roster {
		ids[i] = p.ID
	}
	return ids
}
