// Package validator 提供分配输入校验与结果不变量检查
package validator

import (
	"fmt"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// ViolationType 违反类型
type ViolationType string

const (
	ViolationEligibility  ViolationType = "eligibility"  // 无资格却被分配
	ViolationCapacity     ViolationType = "capacity"     // 超出教时容量
	ViolationConservation ViolationType = "conservation" // 分配+未满足 ≠ 需求
	ViolationNegative     ViolationType = "negative"     // 出现负数
	ViolationShape        ViolationType = "shape"        // 名单与结果长度不一致
)

// Violation 不变量违反
type Violation struct {
	Type     ViolationType   `json:"type"`
	PersonID string          `json:"person_id,omitempty"`
	ItemType *model.ItemType `json:"item_type,omitempty"`
	Message  string          `json:"message"`
}

// CheckAssignment 检查资格、容量与守恒
func CheckAssignment(roster []*model.Person, counts []model.Counts, demand, unmet model.Counts, capacity int) []Violation {
	if len(roster) != len(counts) {
		return []Violation{{
			Type:    ViolationShape,
			Message: fmt.Sprintf("名单 %d 人，结果 %d 行", len(roster), len(counts)),
		}}
	}

	var violations []Violation
	var placed model.Counts

	for i, p := range roster {
		c := counts[i]
		for _, t := range model.ItemTypes {
			if c[t] < 0 {
				violations = append(violations, newViolation(ViolationNegative, p.ID, t,
					fmt.Sprintf("%s 的 %s 数量为 %d", p.ID, t, c[t])))
			}
			if c[t] > 0 && !p.Eligible(t) {
				violations = append(violations, newViolation(ViolationEligibility, p.ID, t,
					fmt.Sprintf("%s 不具备 %s 资格", p.ID, t)))
			}
		}
		if c.Total() > capacity {
			violations = append(violations, Violation{
				Type:     ViolationCapacity,
				PersonID: p.ID,
				Message:  fmt.Sprintf("%s 分配 %d 项，超出容量 %d", p.ID, c.Total(), capacity),
			})
		}
		placed = placed.Add(c)
	}

	for _, t := range model.ItemTypes {
		if placed[t]+unmet[t] != demand[t] {
			violations = append(violations, newViolation(ViolationConservation, "", t,
				fmt.Sprintf("%s: 分配 %d + 未满足 %d ≠ 需求 %d", t, placed[t], unmet[t], demand[t])))
		}
	}
	return violations
}

func newViolation(vt ViolationType, personID string, t model.ItemType, msg string) Violation {
	typ := t
	return Violation{Type: vt, PersonID: personID, ItemType: &typ, Message: msg}
}
