package scheduler

import (
	"time"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler/optimizer"
)

// DiagnosticCode 诊断代码
type DiagnosticCode string

const (
	DiagInfeasibleDemand   DiagnosticCode = "INFEASIBLE_DEMAND"
	DiagEmptyRoster        DiagnosticCode = "EMPTY_ROSTER"
	DiagNoCandidate        DiagnosticCode = "NO_CANDIDATE"
	DiagFairnessNotReached DiagnosticCode = "FAIRNESS_NOT_ACHIEVED"
	DiagTieBreakFailed     DiagnosticCode = "TIE_BREAK_FAILED"
	DiagInvariantViolation DiagnosticCode = "INVARIANT_VIOLATION"
)

// Diagnostic 非致命的诊断信息
type Diagnostic struct {
	Code    DiagnosticCode  `json:"code"`
	Message string          `json:"message"`
	Type    *model.ItemType `json:"type,omitempty"`
}

// PersonAssignment 单人分配结果
type PersonAssignment struct {
	PersonID     string       `json:"person_id"`
	Counts       model.Counts `json:"counts"`
	Total        int          `json:"total"`
	Quota        int          `json:"quota"`
	PriorityLoad float64      `json:"priority_load"` // 加权后的负载
	Mixed        bool         `json:"mixed"`
}

// Result 单教时分配结果
type Result struct {
	RunID          string             `json:"run_id"`
	Period         model.Period       `json:"period"`
	Capacity       int                `json:"capacity"`
	Demand         model.Counts       `json:"demand"`
	Assignments    []PersonAssignment `json:"assignments"`
	Unmet          model.Counts       `json:"unmet"`
	Fairness       optimizer.Report   `json:"fairness"`
	LeastAssigned  []string           `json:"least_assigned,omitempty"`
	TieBreaks      int                `json:"tie_breaks"`
	RotationResets int                `json:"rotation_resets"`
	QuotaOverflow  int                `json:"quota_overflow"`
	Diagnostics    []Diagnostic       `json:"diagnostics,omitempty"`
	Duration       time.Duration      `json:"duration_ns"`

	// Next 下一教时的输入名单
	Next []*model.Person `json:"next_roster"`
}

// Matrix 返回人员→类型计数
func (r *Result) Matrix() map[string]model.Counts {
	m := make(map[string]model.Counts, len(r.Assignments))
	for _, a := range r.Assignments {
		m[a.PersonID] = a.Counts
	}
	return m
}

// Placed 已分配的单位
func (r *Result) Placed() model.Counts {
	var placed model.Counts
	for _, a := range r.Assignments {
		placed = placed.Add(a.Counts)
	}
	return placed
}

// HasUnmet 是否存在未满足需求
func (r *Result) HasUnmet() bool {
	return !r.Unmet.IsZero()
}

// HasDiagnostic 是否包含某类诊断
func (r *Result) HasDiagnostic(code DiagnosticCode) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) addDiagnostic(code DiagnosticCode, msg string, t *model.ItemType) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Code: code, Message: msg, Type: t})
}
