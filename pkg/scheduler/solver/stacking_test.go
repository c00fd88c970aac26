package solver

import (
	"testing"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

func TestAllocate_ScenarioEqualSplit(t *testing.T) {
	r := roster(0, 0, 0)
	demand := model.Counts{model.Type1M: 3}
	plan := PlanQuotas(r, demand.Total(), 3, FirstCandidate)

	alloc := Allocate(r, plan.Quotas, demand, 3, FirstCandidate)
	for i, c := range alloc.Counts {
		if c[model.Type1M] != 1 || c.Total() != 1 {
			t.Errorf("person %d counts = %v, expected exactly 1 of 1M", i, c)
		}
	}
	if !alloc.Unmet.IsZero() {
		t.Errorf("Unmet = %v", alloc.Unmet)
	}
}

func TestAllocate_RespectsEligibility(t *testing.T) {
	manual := &model.Person{ID: "manual", ManualCertified: true, Load: 5}
	auto := &model.Person{ID: "auto"}
	r := []*model.Person{manual, auto}
	demand := model.Counts{model.Type1M: 1, model.Type2A: 1}

	plan := PlanQuotas(r, demand.Total(), 3, FirstCandidate)
	alloc := Allocate(r, plan.Quotas, demand, 3, FirstCandidate)

	if alloc.Counts[1][model.Type1M] != 0 {
		t.Fatal("自动挡专属监考员不能分配 1M")
	}
	if alloc.Counts[1][model.Type2A] != 1 {
		t.Errorf("自动挡专属监考员应得到 2A, got %v", alloc.Counts[1])
	}
	if alloc.Counts[0][model.Type1M] != 1 {
		t.Errorf("手动资格者应得到 1M, got %v", alloc.Counts[0])
	}
}

func TestAllocate_CapacityAndUnmet(t *testing.T) {
	r := roster(0, 0)
	demand := model.Counts{model.Type1M: 5}
	plan := PlanQuotas(r, demand.Total(), 2, FirstCandidate)

	alloc := Allocate(r, plan.Quotas, demand, 2, FirstCandidate)
	for i, c := range alloc.Counts {
		if c.Total() != 2 {
			t.Errorf("person %d total = %d, expected 2", i, c.Total())
		}
	}
	if alloc.Unmet != (model.Counts{model.Type1M: 1}) {
		t.Errorf("Unmet = %v, expected 1M:1", alloc.Unmet)
	}
}

func TestAllocate_PrefersStackingOverMixing(t *testing.T) {
	// 两人各配额2，需求 1M×2、2A×2：应各自叠加同一类型而不是各拿一种混合
	r := roster(0, 0)
	demand := model.Counts{model.Type1M: 2, model.Type2A: 2}
	alloc := Allocate(r, []int{2, 2}, demand, 3, FirstCandidate)

	for i, c := range alloc.Counts {
		if c.Mixed() {
			t.Errorf("person %d 不应混合类型: %v", i, c)
		}
		if c.Total() != 2 {
			t.Errorf("person %d total = %d", i, c.Total())
		}
	}
}

func TestAllocate_RelaxedPassFillsBlockedQuota(t *testing.T) {
	// 自动挡专属者占了一份配额，但需求全为手动：放宽配额后由手动资格者承担
	manual := &model.Person{ID: "m", ManualCertified: true}
	auto := &model.Person{ID: "a"}
	r := []*model.Person{manual, auto}
	demand := model.Counts{model.Type2M: 2}

	plan := PlanQuotas(r, demand.Total(), 3, FirstCandidate)
	alloc := Allocate(r, plan.Quotas, demand, 3, FirstCandidate)

	if alloc.Counts[0][model.Type2M] != 2 {
		t.Errorf("手动资格者应得到2个 2M, got %v", alloc.Counts[0])
	}
	if alloc.Relaxed[model.Type2M] != 1 {
		t.Errorf("Relaxed = %v, expected 2M:1", alloc.Relaxed)
	}
	if !alloc.Unmet.IsZero() {
		t.Errorf("Unmet = %v", alloc.Unmet)
	}
}

func TestAllocate_ExhaustedTypeSettlesAtOnce(t *testing.T) {
	r := roster(0, 0)
	calls := 0
	tb := func(c []string) string {
		calls++
		return c[0]
	}
	demand := model.Counts{model.Type1M: 100000, model.Type2A: 3}
	plan := PlanQuotas(r, demand.Total(), 2, tb)
	calls = 0

	alloc := Allocate(r, plan.Quotas, demand, 2, tb)
	if alloc.Unmet != (model.Counts{model.Type1M: 99996, model.Type2A: 3}) {
		t.Errorf("Unmet = %v", alloc.Unmet)
	}
	// 名单满员后不再为剩余单位寻找候选
	if calls > 4 {
		t.Errorf("决胜次数 = %d, 满员后不应继续决胜", calls)
	}
}

func TestAllocate_NoEligibleCandidate(t *testing.T) {
	r := []*model.Person{{ID: "a"}, {ID: "b"}}
	alloc := Allocate(r, []int{1, 1}, model.Counts{model.Type1M: 2}, 3, FirstCandidate)
	if alloc.Unmet != (model.Counts{model.Type1M: 2}) {
		t.Errorf("Unmet = %v", alloc.Unmet)
	}
}

func TestAllocate_FailedTieBreakIsUnmet(t *testing.T) {
	r := roster(0, 0)
	broken := func([]string) string { return "nobody" }
	alloc := Allocate(r, []int{1, 1}, model.Counts{model.Type1A: 1}, 3, broken)

	if alloc.Failed == 0 {
		t.Error("决胜失败应计数")
	}
	if alloc.Unmet[model.Type1A] != 1 {
		t.Errorf("决胜失败的单位应计入未满足, got %v", alloc.Unmet)
	}
}

func TestAllocate_TieBreakCandidatesInRosterOrder(t *testing.T) {
	r := roster(0, 0, 0)
	var got []string
	tb := func(c []string) string {
		if got == nil {
			got = append([]string(nil), c...)
		}
		return c[0]
	}
	Allocate(r, []int{1, 1, 1}, model.Counts{model.Type1A: 1}, 3, tb)

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("候选 = %v", got)
	}
}

func TestAllocate_ConservationAndCapacity(t *testing.T) {
	r := []*model.Person{
		{ID: "a", ManualCertified: true},
		{ID: "b"},
		{ID: "c", ManualCertified: true, Load: 1},
		{ID: "d"},
	}
	demands := []model.Counts{
		{3, 2, 1, 0},
		{0, 5, 4, 0},
		{4, 0, 0, 4},
		{2, 2, 2, 2},
	}
	for _, demand := range demands {
		for capacity := 2; capacity <= 3; capacity++ {
			plan := PlanQuotas(r, demand.Total(), capacity, FirstCandidate)
			alloc := Allocate(r, plan.Quotas, demand, capacity, FirstCandidate)

			var placed model.Counts
			for i, c := range alloc.Counts {
				if c.Total() > capacity {
					t.Errorf("demand=%v: person %d 超出容量 %v", demand, i, c)
				}
				for _, typ := range model.ItemTypes {
					if c[typ] > 0 && !r[i].Eligible(typ) {
						t.Errorf("demand=%v: person %s 无资格承担 %s", demand, r[i].ID, typ)
					}
				}
				placed = placed.Add(c)
			}
			if placed.Add(alloc.Unmet) != demand {
				t.Errorf("demand=%v: placed %v + unmet %v 不守恒", demand, placed, alloc.Unmet)
			}
		}
	}
}
