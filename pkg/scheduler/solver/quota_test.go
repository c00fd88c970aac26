package solver

import (
	"testing"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

func roster(loads ...float64) []*model.Person {
	out := make([]*model.Person, len(loads))
	for i, l := range loads {
		out[i] = &model.Person{ID: string(rune('a' + i)), ManualCertified: true, Load: l}
	}
	return out
}

func TestPlanQuotas(t *testing.T) {
	tests := []struct {
		name     string
		loads    []float64
		total    int
		capacity int
		expected []int
		overflow int
	}{
		{"平均分配", []float64{0, 0, 0}, 3, 3, []int{1, 1, 1}, 0},
		{"余数给低负载", []float64{1, 0, 0.5}, 5, 3, []int{1, 2, 2}, 0},
		{"全部为零", []float64{0, 0}, 0, 3, []int{0, 0}, 0},
		{"超出容量", []float64{0, 0}, 5, 2, []int{2, 2}, 1},
		{"容量截断余数", []float64{0, 0, 0}, 7, 2, []int{2, 2, 2}, 1},
		{"需求少于人数", []float64{2, 0, 1, 0}, 2, 3, []int{0, 1, 0, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanQuotas(roster(tt.loads...), tt.total, tt.capacity, FirstCandidate)
			for i, q := range plan.Quotas {
				if q != tt.expected[i] {
					t.Fatalf("Quotas = %v, expected %v", plan.Quotas, tt.expected)
				}
			}
			if plan.Overflow != tt.overflow {
				t.Errorf("Overflow = %d, expected %d", plan.Overflow, tt.overflow)
			}
		})
	}
}

func TestPlanQuotas_EmptyRoster(t *testing.T) {
	plan := PlanQuotas(nil, 4, 3, FirstCandidate)
	if len(plan.Quotas) != 0 {
		t.Errorf("Quotas = %v", plan.Quotas)
	}
	if plan.Overflow != 4 {
		t.Errorf("空名单时全部需求应计入 Overflow, got %d", plan.Overflow)
	}
}

func TestPlanQuotas_TieBreakOnBoundaryGroup(t *testing.T) {
	var seen [][]string
	tb := func(c []string) string {
		seen = append(seen, append([]string(nil), c...))
		return c[len(c)-1]
	}

	// a 负载最低直接获得1个余数；b、c、d 同负载争夺剩下1个
	plan := PlanQuotas(roster(0, 1, 1, 1), 6, 3, tb)

	expected := []int{2, 1, 1, 2}
	for i := range expected {
		if plan.Quotas[i] != expected[i] {
			t.Fatalf("Quotas = %v, expected %v", plan.Quotas, expected)
		}
	}
	if plan.TieBreaks != 1 {
		t.Errorf("TieBreaks = %d, expected 1", plan.TieBreaks)
	}
	if len(seen) != 1 || len(seen[0]) != 3 || seen[0][0] != "b" {
		t.Errorf("决胜候选 = %v", seen)
	}
}

func TestPlanQuotas_SpreadBound(t *testing.T) {
	loads := []float64{0.5, 0, 1, 0, 2, 1.5}
	for capacity := 2; capacity <= 3; capacity++ {
		for total := 0; total <= len(loads)*capacity; total++ {
			plan := PlanQuotas(roster(loads...), total, capacity, FirstCandidate)
			if plan.Spread() > 1 {
				t.Errorf("total=%d capacity=%d: 配额极差 %d > 1 (%v)", total, capacity, plan.Spread(), plan.Quotas)
			}
			sum := 0
			for _, q := range plan.Quotas {
				sum += q
			}
			if sum != total {
				t.Errorf("total=%d capacity=%d: 配额合计 %d", total, capacity, sum)
			}
		}
	}
}
