package scheduler

import (
	"reflect"
	"testing"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

func TestCarryOver(t *testing.T) {
	roster := []*model.Person{
		{ID: "c", CourseDuty: true, Load: 1},
		{ID: "x", Load: 0.5, CarryPenalty: true},
		{ID: "y", CourseExtension: true},
	}

	t.Run("半天第一个教时之后", func(t *testing.T) {
		next := CarryOver(roster, []int{2, 1, 0}, 1)

		if next[0].Load != 2 || next[1].Load != 1 || next[2].Load != 0 {
			t.Errorf("负载应重置为分配总数, got %v %v %v", next[0].Load, next[1].Load, next[2].Load)
		}
		if next[0].CarryPenalty || next[1].CarryPenalty || !next[2].CarryPenalty {
			t.Error("只有未分配者应获得顺延标记")
		}
		if !next[0].CourseExtension {
			t.Error("场地检查人员分配高于最低值，应获得补偿顺延")
		}
		if next[2].CourseExtension {
			t.Error("非场地检查人员的补偿顺延应被清除")
		}
	})

	t.Run("其他教时之后清除", func(t *testing.T) {
		next := CarryOver(roster, []int{2, 1, 0}, 2)
		for _, p := range next {
			if p.CourseExtension {
				t.Errorf("%s: 第2教时之后不应有补偿顺延", p.ID)
			}
		}
	})

	t.Run("等于最低值不顺延", func(t *testing.T) {
		next := CarryOver(roster, []int{1, 1, 1}, 3)
		if next[0].CourseExtension {
			t.Error("分配数等于最低值时不应顺延")
		}
	})

	t.Run("不修改输入", func(t *testing.T) {
		CarryOver(roster, []int{3, 3, 3}, 1)
		if roster[0].Load != 1 || !roster[1].CarryPenalty {
			t.Error("输入名单被修改")
		}
	})
}

func TestLeastAssigned(t *testing.T) {
	roster := []*model.Person{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := leastAssigned(roster, []int{0, 0, 2}, []bool{true, false, false})
	if !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("leastAssigned() = %v, want [b]", got)
	}
	if got := leastAssigned(nil, nil, nil); got != nil {
		t.Errorf("空名单应返回 nil, got %v", got)
	}
}
