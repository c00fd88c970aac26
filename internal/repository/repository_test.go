package repository

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler/optimizer"
)

func TestListFilter(t *testing.T) {
	f := DefaultListFilter().WithUnit("north").WithPeriod(3).WithLimit(500).WithOffset(-1).normalized()
	want := ListFilter{Unit: "north", Period: 3, Limit: 20, Offset: 0}
	if f != want {
		t.Errorf("filter = %+v, want %+v", f, want)
	}
}

func TestBuildRunWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    ListFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{"无条件", ListFilter{}, "", nil},
		{"单位", ListFilter{Unit: "north"}, "WHERE unit = $1", []interface{}{"north"}},
		{"单位与教时", ListFilter{Unit: "north", Period: 2}, "WHERE unit = $1 AND period = $2", []interface{}{"north", 2}},
		{"仅教时", ListFilter{Period: 5}, "WHERE period = $1", []interface{}{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildRunWhere(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestNewRun(t *testing.T) {
	id := uuid.New()
	res := &scheduler.Result{
		RunID:  id.String(),
		Period: 2,
		Demand: model.Counts{model.Type1M: 3},
		Unmet:  model.Counts{model.Type1M: 1},
		Assignments: []scheduler.PersonAssignment{
			{PersonID: "a", Counts: model.Counts{model.Type1M: 2}},
		},
		Fairness:       optimizer.Report{Achieved: true, Spread: 1},
		RotationResets: 1,
		Duration:       1500 * time.Microsecond,
	}

	run, err := NewRun("north", res)
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	if run.RunID != id || run.Unit != "north" || run.Placed != 2 || run.DurationMS != 1 {
		t.Errorf("run = %+v", run)
	}

	res.RunID = "not-a-uuid"
	if _, err := NewRun("north", res); err == nil {
		t.Error("无效的运行ID应返回错误")
	}
}
