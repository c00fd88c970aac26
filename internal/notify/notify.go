// Package notify 发布分配完成事件
package notify

import (
	"context"
	"time"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// EventAssignmentCompleted 教时分配完成
const EventAssignmentCompleted = "assignment.completed"

// Event 分配完成事件
type Event struct {
	Event            string                  `json:"event"`
	RunID            string                  `json:"run_id"`
	Unit             string                  `json:"unit"`
	Period           model.Period            `json:"period"`
	Demand           model.Counts            `json:"demand"`
	Unmet            model.Counts            `json:"unmet"`
	Matrix           map[string]model.Counts `json:"matrix"`
	FairnessAchieved bool                    `json:"fairness_achieved"`
	Diagnostics      []string                `json:"diagnostics,omitempty"`
	OccurredAt       time.Time               `json:"occurred_at"`
}

// NewEvent 从引擎结果生成事件
func NewEvent(unit string, res *scheduler.Result) *Event {
	ev := &Event{
		Event:            EventAssignmentCompleted,
		RunID:            res.RunID,
		Unit:             unit,
		Period:           res.Period,
		Demand:           res.Demand,
		Unmet:            res.Unmet,
		Matrix:           res.Matrix(),
		FairnessAchieved: res.Fairness.Achieved,
		OccurredAt:       time.Now(),
	}
	for _, d := range res.Diagnostics {
		ev.Diagnostics = append(ev.Diagnostics, string(d.Code))
	}
	return ev
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// Nop 不发布任何事件
type Nop struct{}

// Publish 实现 Publisher
func (Nop) Publish(context.Context, *Event) error { return nil }

// Close 实现 Publisher
func (Nop) Close() error { return nil }
