package scheduler

import (
	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

// CarryOver 根据本教时结果生成下一教时的输入名单
//
// 负载重置为本教时分配总数；未分配者打上顺延标记；
// 只有在半天的第一个教时之后，分配数高于最低值的场地检查人员才获得补偿顺延。
func CarryOver(roster []*model.Person, totals []int, period model.Period) []*model.Person {
	next := model.CloneRoster(roster)
	if len(next) == 0 {
		return next
	}

	minTotal := totals[0]
	for _, t := range totals[1:] {
		minTotal = min(minTotal, t)
	}

	for i, p := range next {
		p.Load = float64(totals[i])
		p.CarryPenalty = totals[i] == 0
		p.CourseExtension = period.IsFirstOfHalfDay() && p.CourseDuty && totals[i] > minTotal
	}
	return next
}

// leastAssigned 本教时分配数最低的人（不含获得职责加权者）
func leastAssigned(roster []*model.Person, totals []int, duty []bool) []string {
	if len(roster) == 0 {
		return nil
	}
	minTotal := totals[0]
	for _, t := range totals[1:] {
		minTotal = min(minTotal, t)
	}

	var ids []string
	for i, p := range roster {
		if totals[i] == minTotal && !duty[i] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
