package validator

import (
	"fmt"

	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// MaxDemandPerType 单个教时每种类型的需求上限
//
// 单教时名单的容量远低于该值，超出部分只会计入未满足。
const MaxDemandPerType = 1000

// ValidateInput 校验单个教时的输入；合法时返回 nil
func ValidateInput(roster []*model.Person, period model.Period, demand model.Counts) error {
	if !period.Valid() {
		return apperrors.InvalidPeriod(int(period))
	}

	ve := &apperrors.ValidationErrors{}
	for _, t := range model.ItemTypes {
		switch {
		case demand[t] < 0:
			ve.Add("demand."+t.String(), fmt.Sprintf("不能为负数: %d", demand[t]))
		case demand[t] > MaxDemandPerType:
			ve.Add("demand."+t.String(), fmt.Sprintf("不能超过 %d: %d", MaxDemandPerType, demand[t]))
		}
	}

	seen := make(map[string]int, len(roster))
	for i, p := range roster {
		field := fmt.Sprintf("roster[%d]", i)
		if p == nil {
			ve.Add(field, "不能为空")
			continue
		}
		if p.ID == "" {
			ve.Add(field+".id", "不能为空")
		} else if j, dup := seen[p.ID]; dup {
			ve.Add(field+".id", fmt.Sprintf("与 roster[%d] 重复: %s", j, p.ID))
		} else {
			seen[p.ID] = i
		}
		if p.EducatorFor != model.NoPeriod && !p.EducatorFor.Valid() {
			ve.Add(field+".educator_for", fmt.Sprintf("教时 %d 超出范围 1-5", int(p.EducatorFor)))
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
