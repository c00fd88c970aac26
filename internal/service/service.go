// Package service 串联分配引擎、轮换记忆存储、运行日志与事件发布
package service

import (
	"context"
	"strings"
	"sync"

	"github.com/nextmyth84-stack/road-auto/internal/metrics"
	"github.com/nextmyth84-stack/road-auto/internal/notify"
	"github.com/nextmyth84-stack/road-auto/internal/repository"
	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
	"github.com/nextmyth84-stack/road-auto/pkg/logger"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/rotation"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
	"github.com/nextmyth84-stack/road-auto/pkg/stats"
)

// RunRecorder 运行日志写入
type RunRecorder interface {
	Create(ctx context.Context, run *repository.Run) error
}

// AllocationService 分配服务
//
// 同一组织单位的分配串行执行，不同单位互不影响。
type AllocationService struct {
	engine    *scheduler.Engine
	store     rotation.Store
	runs      RunRecorder
	publisher notify.Publisher
	metrics   *metrics.Metrics

	mu    sync.Mutex
	units map[string]*unitLock
}

// Option 服务选项
type Option func(*AllocationService)

// WithRunRecorder 写入运行日志
func WithRunRecorder(r RunRecorder) Option {
	return func(s *AllocationService) { s.runs = r }
}

// WithPublisher 发布完成事件
func WithPublisher(p notify.Publisher) Option {
	return func(s *AllocationService) { s.publisher = p }
}

// WithMetrics 记录监控指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AllocationService) { s.metrics = m }
}

// NewAllocationService 创建分配服务
func NewAllocationService(engine *scheduler.Engine, store rotation.Store, opts ...Option) *AllocationService {
	s := &AllocationService{
		engine:    engine,
		store:     store,
		publisher: notify.Nop{},
		units:     make(map[string]*unitLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DayOutcome 多教时分配结果与统计
type DayOutcome struct {
	Day    *scheduler.DayResult `json:"day"`
	Report *stats.DayReport     `json:"report"`
}

// unitLock 单位锁，refs 为持有与等待者数量
type unitLock struct {
	mu   sync.Mutex
	refs int
}

// lock 获取某单位的锁，返回解锁函数
//
// 最后一个持有者释放时删除该单位的锁，map 只保存正在使用的单位。
func (s *AllocationService) lock(unit string) func() {
	s.mu.Lock()
	l, ok := s.units[unit]
	if !ok {
		l = &unitLock{}
		s.units[unit] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.units, unit)
		}
		s.mu.Unlock()
	}
}

func checkUnit(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return apperrors.InvalidInput("unit", "组织单位不能为空")
	}
	return nil
}

// loadMemory 读取单位的轮换记忆
func (s *AllocationService) loadMemory(ctx context.Context, unit string) (*rotation.Set, error) {
	names, err := s.store.Load(ctx, unit)
	if err != nil {
		return nil, apperrors.StoreError("读取", err)
	}
	return rotation.NewSet(names...), nil
}

func (s *AllocationService) saveMemory(ctx context.Context, unit string, mem *rotation.Set) error {
	if err := s.store.Save(ctx, unit, mem.Names()); err != nil {
		return apperrors.StoreError("写入", err)
	}
	return nil
}

// AssignPeriod 分配单个教时并保存轮换记忆
func (s *AllocationService) AssignPeriod(ctx context.Context, unit string, roster []*model.Person, period model.Period, demand model.Counts) (*scheduler.Result, error) {
	if err := checkUnit(unit); err != nil {
		s.metrics.RecordFailure(metrics.KindPeriod)
		return nil, err
	}
	defer s.lock(unit)()
	defer s.metrics.RunStarted()()

	mem, err := s.loadMemory(ctx, unit)
	if err != nil {
		s.metrics.RecordFailure(metrics.KindPeriod)
		return nil, err
	}

	res, err := s.engine.AssignPeriod(roster, period, demand, mem)
	if err != nil {
		s.metrics.RecordFailure(metrics.KindPeriod)
		return nil, err
	}

	if err := s.saveMemory(ctx, unit, mem); err != nil {
		s.metrics.RecordFailure(metrics.KindPeriod)
		return nil, err
	}

	s.metrics.RecordPeriod(metrics.KindPeriod, res)
	s.finish(ctx, unit, res)
	return res, nil
}

// AssignDay 分配连续多个教时并保存轮换记忆
func (s *AllocationService) AssignDay(ctx context.Context, unit string, roster []*model.Person, plan []scheduler.PeriodDemand) (*DayOutcome, error) {
	if err := checkUnit(unit); err != nil {
		s.metrics.RecordFailure(metrics.KindDay)
		return nil, err
	}
	defer s.lock(unit)()
	defer s.metrics.RunStarted()()

	mem, err := s.loadMemory(ctx, unit)
	if err != nil {
		s.metrics.RecordFailure(metrics.KindDay)
		return nil, err
	}

	day, err := s.engine.AssignDay(roster, plan, mem)
	if err != nil {
		s.metrics.RecordFailure(metrics.KindDay)
		return nil, err
	}

	if err := s.saveMemory(ctx, unit, mem); err != nil {
		s.metrics.RecordFailure(metrics.KindDay)
		return nil, err
	}

	report := stats.AnalyzeDay(day, roster)
	s.metrics.SetDayQuality(unit, report.Fairness.LoadGini, report.Coverage.OverallCoverage)
	for _, res := range day.Periods {
		s.metrics.RecordPeriod(metrics.KindDay, res)
		s.finish(ctx, unit, res)
	}
	return &DayOutcome{Day: day, Report: report}, nil
}

// finish 写入运行日志并发布事件，失败只记录日志
func (s *AllocationService) finish(ctx context.Context, unit string, res *scheduler.Result) {
	log := logger.WithContext(ctx)

	if s.runs != nil {
		run, err := repository.NewRun(unit, res)
		if err == nil {
			err = s.runs.Create(ctx, run)
		}
		if err != nil {
			log.Warn().Err(err).Str("run_id", res.RunID).Msg("写入运行日志失败")
		}
	}

	if err := s.publisher.Publish(ctx, notify.NewEvent(unit, res)); err != nil {
		log.Warn().Err(err).Str("run_id", res.RunID).Msg("发布分配完成事件失败")
	}
}

// Rotation 返回单位当前的轮换记忆
func (s *AllocationService) Rotation(ctx context.Context, unit string) ([]string, error) {
	if err := checkUnit(unit); err != nil {
		return nil, err
	}
	defer s.lock(unit)()

	mem, err := s.loadMemory(ctx, unit)
	if err != nil {
		return nil, err
	}
	return mem.Names(), nil
}

// ResetRotation 清空单位的轮换记忆
func (s *AllocationService) ResetRotation(ctx context.Context, unit string) error {
	if err := checkUnit(unit); err != nil {
		return err
	}
	defer s.lock(unit)()

	if err := s.store.Reset(ctx, unit); err != nil {
		return apperrors.StoreError("清空", err)
	}
	logger.WithContext(ctx).Info().Str("unit", unit).Msg("轮换记忆已清空")
	return nil
}
