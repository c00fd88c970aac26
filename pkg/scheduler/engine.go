package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextmyth84-stack/road-auto/pkg/logger"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/rotation"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler/optimizer"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler/solver"
	"github.com/nextmyth84-stack/road-auto/pkg/validator"
)

// Engine 教时分配引擎
//
// Engine 本身不持有可变状态，可被多个调用方共享；同一轮换记忆的调用需由调用方串行化。
type Engine struct {
	weights       Weights
	maxIterations int
	seed          int64
	capacity      map[model.Period]int
	log           *logger.EngineLogger
}

// Option 引擎选项
type Option func(*Engine)

// WithWeights 设置负载加权
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithMaxIterations 设置公平性校正迭代上限
func WithMaxIterations(n int) Option {
	return func(e *Engine) { e.maxIterations = n }
}

// WithSeed 固定随机种子；为0时每次调用使用当前时间
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithCapacity 覆盖某教时的每人容量
func WithCapacity(period model.Period, capacity int) Option {
	return func(e *Engine) { e.capacity[period] = capacity }
}

// WithLogger 设置日志器
func WithLogger(l *logger.EngineLogger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine 创建引擎
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:       DefaultWeights(),
		maxIterations: optimizer.DefaultMaxIterations,
		capacity:      make(map[model.Period]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	for p, c := range e.capacity {
		if !p.Valid() || c <= 0 {
			return nil, fmt.Errorf("教时 %d 的容量无效: %d", int(p), c)
		}
	}
	if e.log == nil {
		e.log = logger.NewEngineLogger()
	}
	return e, nil
}

// Weights 返回当前加权参数
func (e *Engine) Weights() Weights {
	return e.weights
}

// Capacity 返回教时的每人容量
func (e *Engine) Capacity(period model.Period) int {
	if c, ok := e.capacity[period]; ok {
		return c
	}
	return period.Capacity()
}

func (e *Engine) newBreaker() *rotation.Breaker {
	return rotation.NewBreaker(e.seed)
}

// AssignPeriod 分配单个教时
//
// 输入名单不会被修改，下一教时的名单在 Result.Next 中返回。mem 为 nil 时不做轮换记录。
// 需求无法满足、公平性未达成等情况通过 Result.Diagnostics 报告，只有输入非法时返回错误。
func (e *Engine) AssignPeriod(roster []*model.Person, period model.Period, demand model.Counts, mem rotation.Memory) (*Result, error) {
	if err := validator.ValidateInput(roster, period, demand); err != nil {
		return nil, err
	}
	return e.assign(e.newBreaker(), roster, period, demand, mem), nil
}

func (e *Engine) assign(b *rotation.Breaker, roster []*model.Person, period model.Period, demand model.Counts, mem rotation.Memory) *Result {
	start := time.Now()
	capacity := e.Capacity(period)
	res := &Result{
		RunID:    uuid.NewString(),
		Period:   period,
		Capacity: capacity,
		Demand:   demand,
	}

	work := model.CloneRoster(roster)
	duty := ApplyWeights(work, period, e.weights)
	ids := model.RosterIDs(work)
	e.log.StartPeriod(res.RunID, int(period), len(work), demand.Total(), capacity)

	tb := func(candidates []string) string {
		d := b.BreakTie(candidates, mem, ids)
		if d.Reset {
			res.RotationResets++
			e.log.RotationReset(res.RunID, len(ids))
		}
		e.log.TieBreak(res.RunID, d.Winner, len(candidates), d.Waived)
		return d.Winner
	}

	// 1. 配额
	plan := solver.PlanQuotas(work, demand.Total(), capacity, tb)
	res.QuotaOverflow = plan.Overflow

	// 2. 类型叠加分配
	alloc := solver.Allocate(work, plan.Quotas, demand, capacity, tb)
	res.TieBreaks = plan.TieBreaks + alloc.TieBreaks
	res.Unmet = alloc.Unmet

	// 3. 公平性校正
	res.Fairness = optimizer.NewFairnessCorrector(e.maxIterations).Rebalance(work, alloc.Counts, capacity)

	totals := make([]int, len(work))
	res.Assignments = make([]PersonAssignment, len(work))
	for i, p := range work {
		c := alloc.Counts[i]
		totals[i] = c.Total()
		res.Assignments[i] = PersonAssignment{
			PersonID:     p.ID,
			Counts:       c,
			Total:        totals[i],
			Quota:        plan.Quotas[i],
			PriorityLoad: p.Load,
			Mixed:        c.Mixed(),
		}
	}

	e.diagnose(res, work, alloc)
	for _, v := range validator.CheckAssignment(work, alloc.Counts, demand, res.Unmet, capacity) {
		res.addDiagnostic(DiagInvariantViolation, v.Message, v.ItemType)
		e.log.InvariantViolation(res.RunID, string(v.Type), v.Message)
	}

	res.LeastAssigned = leastAssigned(work, totals, duty)
	res.Next = CarryOver(work, totals, period)
	res.Duration = time.Since(start)
	e.log.PeriodComplete(res.RunID, int(period), res.Duration, res.Placed().Total(), res.Unmet.Total())
	return res
}

// diagnose 生成未满足需求、决胜失败、公平性未达成等诊断
func (e *Engine) diagnose(res *Result, work []*model.Person, alloc *solver.Allocation) {
	if len(work) == 0 && !res.Demand.IsZero() {
		res.addDiagnostic(DiagEmptyRoster, "名单为空，全部需求未满足", nil)
	}

	for _, t := range model.ItemTypes {
		units := res.Unmet[t]
		if units == 0 || len(work) == 0 {
			continue
		}
		typ := t
		code, reason := DiagInfeasibleDemand, "资格或容量不足"
		if !anyEligible(work, t) {
			code, reason = DiagNoCandidate, "无人具备资格"
		}
		res.addDiagnostic(code, fmt.Sprintf("%s 有 %d 个单位未能分配: %s", t, units, reason), &typ)
		e.log.UnmetDemand(res.RunID, t.String(), units, reason)
	}

	if alloc.Failed > 0 {
		res.addDiagnostic(DiagTieBreakFailed, fmt.Sprintf("%d 次决胜未返回有效候选", alloc.Failed), nil)
	}

	if !res.Fairness.Achieved {
		res.addDiagnostic(DiagFairnessNotReached,
			fmt.Sprintf("校正 %d 次后有效负载极差仍为 %d (%s)", res.Fairness.Iterations, res.Fairness.Spread, res.Fairness.StopReason), nil)
		e.log.FairnessNotAchieved(res.RunID, res.Fairness.Spread, res.Fairness.Iterations, string(res.Fairness.StopReason))
	}
}

func anyEligible(roster []*model.Person, t model.ItemType) bool {
	for _, p := range roster {
		if p.Eligible(t) {
			return true
		}
	}
	return false
}
