package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

type fakeChannel struct {
	exchange, key string
	msgs          []amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func testResult() *scheduler.Result {
	return &scheduler.Result{
		RunID:  "run-1",
		Period: 3,
		Demand: model.Counts{model.Type2A: 2},
		Assignments: []scheduler.PersonAssignment{
			{PersonID: "a", Counts: model.Counts{model.Type2A: 2}},
		},
		Diagnostics: []scheduler.Diagnostic{{Code: scheduler.DiagFairnessNotReached}},
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("north", testResult())
	if ev.Event != EventAssignmentCompleted || ev.Unit != "north" || ev.Period != 3 {
		t.Errorf("ev = %+v", ev)
	}
	if ev.Matrix["a"][model.Type2A] != 2 {
		t.Errorf("Matrix = %v", ev.Matrix)
	}
	if len(ev.Diagnostics) != 1 || ev.Diagnostics[0] != "FAIRNESS_NOT_ACHIEVED" {
		t.Errorf("Diagnostics = %v", ev.Diagnostics)
	}
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewAMQPPublisher(ch, "road-auto", "assignment.completed", 0)

	if err := p.Publish(context.Background(), NewEvent("north", testResult())); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if ch.exchange != "road-auto" || ch.key != "assignment.completed" || len(ch.msgs) != 1 {
		t.Fatalf("channel = %+v", ch)
	}

	msg := ch.msgs[0]
	if msg.ContentType != "application/json" || msg.MessageId != "run-1" || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("msg = %+v", msg)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("消息体不是合法JSON: %v", err)
	}
	if decoded.Unit != "north" || decoded.Demand[model.Type2A] != 2 {
		t.Errorf("decoded = %+v", decoded)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Errorf("Close() error = %v, closed = %v", err, ch.closed)
	}
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewAMQPPublisher(ch, "x", "y", 0)
	if err := p.Publish(context.Background(), NewEvent("u", testResult())); err == nil {
		t.Error("通道错误应返回错误")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), &Event{}); err != nil {
		t.Error(err)
	}
}
