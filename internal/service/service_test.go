package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextmyth84-stack/road-auto/internal/metrics"
	"github.com/nextmyth84-stack/road-auto/internal/notify"
	"github.com/nextmyth84-stack/road-auto/internal/repository"
	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
	"github.com/nextmyth84-stack/road-auto/pkg/logger"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/rotation"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

type fakeRecorder struct {
	mu   sync.Mutex
	runs []*repository.Run
}

func (f *fakeRecorder) Create(_ context.Context, run *repository.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*notify.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev *notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type failingStore struct {
	rotation.Store
	loadErr, saveErr error
}

func (f failingStore) Load(ctx context.Context, unit string) ([]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Store.Load(ctx, unit)
}

func (f failingStore) Save(ctx context.Context, unit string, names []string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, unit, names)
}

func newTestService(t *testing.T, store rotation.Store, opts ...Option) *AllocationService {
	t.Helper()
	e, err := scheduler.NewEngine(scheduler.WithSeed(7), scheduler.WithLogger(logger.NewEngineLoggerWith(zerolog.Nop())))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return NewAllocationService(e, store, opts...)
}

func roster(ids ...string) []*model.Person {
	out := make([]*model.Person, len(ids))
	for i, id := range ids {
		out[i] = &model.Person{ID: id, ManualCertified: true}
	}
	return out
}

func TestAssignPeriod_PersistsRotation(t *testing.T) {
	store := rotation.NewMemoryStore()
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	s := newTestService(t, store, WithRunRecorder(rec), WithPublisher(pub), WithMetrics(metrics.New("")))

	ctx := context.Background()
	res, err := s.AssignPeriod(ctx, "north", roster("a", "b", "c"), 3, model.Counts{model.Type2A: 1})
	if err != nil {
		t.Fatalf("AssignPeriod() error = %v", err)
	}
	if res.Placed().Total() != 1 {
		t.Errorf("Placed = %v", res.Placed())
	}

	names, _ := store.Load(ctx, "north")
	if len(names) == 0 {
		t.Error("三人并列时应记录决胜结果")
	}
	other, _ := store.Load(ctx, "south")
	if len(other) != 0 {
		t.Errorf("其他单位不应受影响: %v", other)
	}

	if len(rec.runs) != 1 || rec.runs[0].Unit != "north" {
		t.Errorf("runs = %+v", rec.runs)
	}
	if len(pub.events) != 1 || pub.events[0].RunID != res.RunID {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestAssignPeriod_Errors(t *testing.T) {
	storeErr := errors.New("connection refused")
	tests := []struct {
		name   string
		store  rotation.Store
		unit   string
		period model.Period
		code   apperrors.Code
	}{
		{"空单位", rotation.NewMemoryStore(), " ", 1, apperrors.CodeInvalidInput},
		{"教时越界", rotation.NewMemoryStore(), "u", 6, apperrors.CodeInvalidPeriod},
		{"读取失败", failingStore{Store: rotation.NewMemoryStore(), loadErr: storeErr}, "u", 1, apperrors.CodeStoreError},
		{"写入失败", failingStore{Store: rotation.NewMemoryStore(), saveErr: storeErr}, "u", 1, apperrors.CodeStoreError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			s := newTestService(t, tt.store, WithPublisher(pub))
			_, err := s.AssignPeriod(context.Background(), tt.unit, roster("a", "b"), tt.period, model.Counts{model.Type1M: 1})
			if !apperrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
			if len(pub.events) != 0 {
				t.Error("失败的运行不应发布事件")
			}
		})
	}
}

func TestAssignPeriod_PublishFailureIgnored(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s := newTestService(t, rotation.NewMemoryStore(), WithPublisher(pub))
	if _, err := s.AssignPeriod(context.Background(), "u", roster("a"), 2, model.Counts{model.Type1A: 1}); err != nil {
		t.Errorf("发布失败不应影响分配: %v", err)
	}
}

func TestAssignDay(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestService(t, rotation.NewMemoryStore(), WithRunRecorder(rec))

	plan := []scheduler.PeriodDemand{
		{Period: 1, Demand: model.Counts{model.Type1M: 2, model.Type2A: 2}},
		{Period: 2, Demand: model.Counts{model.Type2A: 3}},
	}
	out, err := s.AssignDay(context.Background(), "u", roster("a", "b", "c"), plan)
	if err != nil {
		t.Fatalf("AssignDay() error = %v", err)
	}
	if len(out.Day.Periods) != 2 || len(rec.runs) != 2 {
		t.Fatalf("periods = %d, runs = %d", len(out.Day.Periods), len(rec.runs))
	}
	if out.Report == nil || out.Report.Coverage.OverallCoverage != 100 {
		t.Errorf("Coverage = %+v", out.Report.Coverage)
	}
}

func TestRotationAndReset(t *testing.T) {
	store := rotation.NewMemoryStore()
	ctx := context.Background()
	_ = store.Save(ctx, "u", []string{"a", "b"})
	s := newTestService(t, store)

	names, err := s.Rotation(ctx, "u")
	if err != nil || len(names) != 2 {
		t.Fatalf("Rotation() = %v, %v", names, err)
	}
	if err := s.ResetRotation(ctx, "u"); err != nil {
		t.Fatalf("ResetRotation() error = %v", err)
	}
	names, _ = s.Rotation(ctx, "u")
	if len(names) != 0 {
		t.Errorf("清空后仍有 %v", names)
	}
	if _, err := s.Rotation(ctx, ""); !apperrors.Is(err, apperrors.CodeInvalidInput) {
		t.Errorf("空单位应报错, got %v", err)
	}
}

func TestAssignPeriod_ConcurrentSameUnit(t *testing.T) {
	s := newTestService(t, rotation.NewMemoryStore())
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AssignPeriod(context.Background(), "u", roster("a", "b", "c", "d"), 3, model.Counts{model.Type2A: 2})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestLock_ReleasesIdleUnits(t *testing.T) {
	s := newTestService(t, rotation.NewMemoryStore())
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		unit := fmt.Sprintf("unit-%d", i)
		if _, err := s.AssignPeriod(ctx, unit, roster("a", "b"), 2, model.Counts{model.Type1A: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(s.units); n != 0 {
		t.Errorf("空闲单位的锁应释放, 仍有 %d 个", n)
	}

	unlock := s.lock("north")
	done := make(chan struct{})
	go func() {
		s.lock("north")()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("同一单位不应被同时持有")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-done
	if n := len(s.units); n != 0 {
		t.Errorf("全部释放后应为空, 仍有 %d 个", n)
	}
}
