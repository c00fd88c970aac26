package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nextmyth84-stack/road-auto/internal/service"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// PersonInput 监考员输入
type PersonInput struct {
	ID              string  `json:"id" validate:"required,max=64"`
	ManualCertified bool    `json:"manual_certified"`
	CourseDuty      bool    `json:"course_duty"`
	EducatorFor     int     `json:"educator_for" validate:"min=0,max=5"`
	Load            float64 `json:"load" validate:"min=0"`
	CarryPenalty    bool    `json:"carry_penalty"`
	CourseExtension bool    `json:"course_extension"`
}

func (p PersonInput) toModel() *model.Person {
	return &model.Person{
		ID:              p.ID,
		ManualCertified: p.ManualCertified,
		CourseDuty:      p.CourseDuty,
		EducatorFor:     model.Period(p.EducatorFor),
		Load:            p.Load,
		CarryPenalty:    p.CarryPenalty,
		CourseExtension: p.CourseExtension,
	}
}

func toRoster(in []PersonInput) []*model.Person {
	out := make([]*model.Person, len(in))
	for i, p := range in {
		out[i] = p.toModel()
	}
	return out
}

// AssignPeriodRequest 单教时分配请求
type AssignPeriodRequest struct {
	Period int           `json:"period" validate:"required,min=1,max=5"`
	Roster []PersonInput `json:"roster" validate:"max=200,dive"`
	Demand model.Counts  `json:"demand"`
}

// PeriodDemandInput 某教时的需求
type PeriodDemandInput struct {
	Period     int          `json:"period" validate:"required,min=1,max=5"`
	Demand     model.Counts `json:"demand"`
	CourseDuty []string     `json:"course_duty" validate:"max=200,dive,required"`
}

// AssignDayRequest 多教时分配请求
type AssignDayRequest struct {
	Roster  []PersonInput       `json:"roster" validate:"max=200,dive"`
	Periods []PeriodDemandInput `json:"periods" validate:"required,min=1,max=5,dive"`
}

// PeriodResponse 单教时分配响应
type PeriodResponse struct {
	*scheduler.Result
	Matrix  map[string]model.Counts `json:"matrix"`
	Elapsed string                  `json:"elapsed"`
}

// DayResponse 多教时分配响应
type DayResponse struct {
	*service.DayOutcome
	Unmet   model.Counts `json:"unmet"`
	Elapsed string       `json:"elapsed"`
}

// AssignPeriod 分配单个教时
func (h *Handler) AssignPeriod(w http.ResponseWriter, r *http.Request) {
	var req AssignPeriodRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.svc.AssignPeriod(r.Context(), chi.URLParam(r, "unit"), toRoster(req.Roster), model.Period(req.Period), req.Demand)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PeriodResponse{
		Result:  res,
		Matrix:  res.Matrix(),
		Elapsed: res.Duration.String(),
	})
}

// AssignDay 依次分配连续教时
func (h *Handler) AssignDay(w http.ResponseWriter, r *http.Request) {
	var req AssignDayRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	plan := make([]scheduler.PeriodDemand, len(req.Periods))
	for i, p := range req.Periods {
		plan[i] = scheduler.PeriodDemand{Period: model.Period(p.Period), Demand: p.Demand, CourseDuty: p.CourseDuty}
	}

	out, err := h.svc.AssignDay(r.Context(), chi.URLParam(r, "unit"), toRoster(req.Roster), plan)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, DayResponse{
		DayOutcome: out,
		Unmet:      out.Day.Unmet(),
		Elapsed:    out.Day.Duration.String(),
	})
}
