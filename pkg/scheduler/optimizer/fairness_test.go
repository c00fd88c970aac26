package optimizer

import (
	"testing"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
)

func manualRoster(n int) []*model.Person {
	out := make([]*model.Person, n)
	for i := range out {
		out[i] = &model.Person{ID: string(rune('a' + i)), ManualCertified: true}
	}
	return out
}

func TestEffective(t *testing.T) {
	tests := []struct {
		name     string
		counts   model.Counts
		expected int
	}{
		{"空", model.Counts{}, 0},
		{"单一类型", model.Counts{model.Type1A: 3}, 3},
		{"混合加1", model.Counts{model.Type1M: 1, model.Type2A: 1}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.counts); got != tt.expected {
				t.Errorf("Effective() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestRebalance_AlreadyFair(t *testing.T) {
	counts := []model.Counts{{model.Type1M: 1}, {model.Type1M: 1}, {}}
	report := NewFairnessCorrector(0).Rebalance(manualRoster(3), counts, 3)

	if !report.Achieved || report.Iterations != 0 || report.StopReason != StopConverged {
		t.Errorf("report = %+v", report)
	}
}

func TestRebalance_MovesUnits(t *testing.T) {
	counts := []model.Counts{{model.Type1M: 3}, {}, {}}
	report := NewFairnessCorrector(0).Rebalance(manualRoster(3), counts, 3)

	if !report.Achieved {
		t.Fatalf("应达到公平, report = %+v", report)
	}
	if Spread(counts) > 1 {
		t.Errorf("Spread = %d", Spread(counts))
	}
	total := 0
	for _, c := range counts {
		total += c.Total()
	}
	if total != 3 {
		t.Errorf("移动不应改变总数, got %d", total)
	}
	if len(report.Moves) != report.Iterations {
		t.Errorf("Moves 与 Iterations 不一致: %d vs %d", len(report.Moves), report.Iterations)
	}
}

func TestRebalance_NoEligibleReceiver(t *testing.T) {
	roster := []*model.Person{
		{ID: "m", ManualCertified: true},
		{ID: "a"},
	}
	counts := []model.Counts{{model.Type1M: 3}, {}}
	report := NewFairnessCorrector(0).Rebalance(roster, counts, 3)

	if report.Achieved {
		t.Error("接收者无资格时不能达成公平")
	}
	if report.StopReason != StopNoMove {
		t.Errorf("StopReason = %s, expected %s", report.StopReason, StopNoMove)
	}
	if counts[1].Total() != 0 {
		t.Error("不应把 1M 移给自动挡专属者")
	}
	if HasMove(roster, counts, 3) {
		t.Error("HasMove 应为 false")
	}
}

func TestRebalance_ReceiverAtCapacity(t *testing.T) {
	counts := []model.Counts{{model.Type1M: 1, model.Type2A: 1}, {model.Type1A: 0}}
	// 极差 = 3 - 0；接收者容量为0
	report := NewFairnessCorrector(0).Rebalance(manualRoster(2), counts, 0)
	if report.StopReason != StopNoMove {
		t.Errorf("StopReason = %s", report.StopReason)
	}
}

func TestRebalance_IterationCap(t *testing.T) {
	counts := []model.Counts{{model.Type1M: 3}, {}, {}}
	report := NewFairnessCorrector(1).Rebalance(manualRoster(3), counts, 3)

	if report.Iterations != 1 {
		t.Errorf("Iterations = %d, expected 1", report.Iterations)
	}
	if report.Spread <= 1 && !report.Achieved {
		t.Error("极差≤1时应视为达成")
	}
	if report.Spread > 1 && report.StopReason != StopIterationCap {
		t.Errorf("StopReason = %s", report.StopReason)
	}
}

func TestRebalance_PrefersNonMixingMove(t *testing.T) {
	// 最大者持有 1M 与 2A；最小者已持有 2A，应移动 2A 避免接收者混合
	counts := []model.Counts{{model.Type1M: 1, model.Type2A: 2}, {model.Type2A: 1}}
	NewFairnessCorrector(1).Rebalance(manualRoster(2), counts, 3)

	if counts[1].Mixed() {
		t.Errorf("接收者不应混合类型: %v", counts[1])
	}
	if counts[1][model.Type2A] != 2 {
		t.Errorf("counts[1] = %v", counts[1])
	}
}

func TestRebalance_PropertyNoMoveLeft(t *testing.T) {
	roster := []*model.Person{
		{ID: "a", ManualCertified: true},
		{ID: "b"},
		{ID: "c", ManualCertified: true},
		{ID: "d"},
	}
	cases := [][]model.Counts{
		{{3, 0, 0, 0}, {}, {}, {}},
		{{1, 1, 1, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 1, 0, 0}},
		{{0, 3, 0, 0}, {0, 0, 0, 0}, {2, 0, 0, 1}, {0, 0, 0, 0}},
		{{2, 0, 0, 1}, {0, 0, 0, 0}, {3, 0, 0, 0}, {0, 0, 0, 0}},
	}
	for i, counts := range cases {
		report := NewFairnessCorrector(0).Rebalance(roster, counts, 3)
		switch report.StopReason {
		case StopNoMove:
			if HasMove(roster, counts, 3) {
				t.Errorf("case %d: 报告无可行移动但实际存在", i)
			}
		case StopNoImproving:
			if got := bestSpreadAfterOneMove(roster, counts, 3); got < report.Spread {
				t.Errorf("case %d: 报告无改进移动但极差可降到 %d", i, got)
			}
		}
		for p, c := range counts {
			for _, typ := range model.ItemTypes {
				if c[typ] > 0 && !roster[p].Eligible(typ) {
					t.Errorf("case %d: 分配给 %s 的 %s 违反资格", i, roster[p].ID, typ)
				}
			}
			if c.Total() > 3 {
				t.Errorf("case %d: %s 超出容量", i, roster[p].ID)
			}
		}
	}
}

func TestRebalance_MixingMoveThatNarrowsSpread(t *testing.T) {
	// 只有 1M 可移；b 接收后混合，有效负载 2 与 3，极差缩小到1
	counts := []model.Counts{{model.Type1M: 3}, {model.Type2A: 1}}
	report := NewFairnessCorrector(0).Rebalance(manualRoster(2), counts, 3)

	if !report.Achieved || report.Iterations != 1 {
		t.Fatalf("report = %+v", report)
	}
	if counts[1] != (model.Counts{model.Type1M: 1, model.Type2A: 1}) {
		t.Errorf("counts[1] = %v", counts[1])
	}
}

func TestRebalance_RejectsSwapOfMaxAndMin(t *testing.T) {
	// 把 1M 给 b 或 c 只是让接收者成为新的最大者，极差仍为2
	counts := []model.Counts{{model.Type1M: 3}, {model.Type2A: 1}, {model.Type2A: 1}}
	roster := manualRoster(3)
	report := NewFairnessCorrector(0).Rebalance(roster, counts, 3)

	if report.StopReason != StopNoImproving {
		t.Errorf("StopReason = %s, expected %s", report.StopReason, StopNoImproving)
	}
	if report.Iterations != 0 {
		t.Errorf("不应发生移动, Iterations = %d", report.Iterations)
	}
	if !HasMove(roster, counts, 3) {
		t.Error("有资格且未达容量的移动仍然存在")
	}
	if got := bestSpreadAfterOneMove(roster, counts, 3); got < report.Spread {
		t.Errorf("存在能缩小极差的移动: %d < %d", got, report.Spread)
	}
}

// bestSpreadAfterOneMove 穷举所有从最大者到最小者的单位移动，返回移动后能达到的最小极差
func bestSpreadAfterOneMove(roster []*model.Person, counts []model.Counts, capacity int) int {
	best := Spread(counts)
	lo, hi := Effective(counts[0]), Effective(counts[0])
	for _, c := range counts {
		lo, hi = min(lo, Effective(c)), max(hi, Effective(c))
	}
	for from := range counts {
		for to := range counts {
			if from == to || Effective(counts[from]) != hi || Effective(counts[to]) != lo || counts[to].Total() >= capacity {
				continue
			}
			for _, typ := range model.ItemTypes {
				if counts[from][typ] == 0 || !roster[to].Eligible(typ) {
					continue
				}
				trial := append([]model.Counts(nil), counts...)
				trial[from][typ]--
				trial[to][typ]++
				best = min(best, Spread(trial))
			}
		}
	}
	return best
}
