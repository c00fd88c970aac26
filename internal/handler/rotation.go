package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nextmyth84-stack/road-auto/internal/repository"
	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
)

// RotationResponse 轮换记忆
type RotationResponse struct {
	Unit  string   `json:"unit"`
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// GetRotation 查看单位的轮换记忆
func (h *Handler) GetRotation(w http.ResponseWriter, r *http.Request) {
	unit := chi.URLParam(r, "unit")
	names, err := h.svc.Rotation(r.Context(), unit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, RotationResponse{Unit: unit, Names: names, Count: len(names)})
}

// ResetRotation 清空单位的轮换记忆
func (h *Handler) ResetRotation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetRotation(r.Context(), chi.URLParam(r, "unit")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunsResponse 运行日志分页
type RunsResponse struct {
	Runs   []*repository.Run `json:"runs"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// ListRuns 查询单位的运行日志，未启用数据库时返回 404
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, r, apperrors.New(apperrors.CodeNotFound, "未启用运行日志"))
		return
	}

	filter := repository.DefaultListFilter().WithUnit(chi.URLParam(r, "unit"))
	q := r.URL.Query()
	var err error
	if filter.Period, err = intParam(q.Get("period"), filter.Period); err != nil {
		respondError(w, r, apperrors.InvalidInput("period", "必须是整数"))
		return
	}
	if filter.Limit, err = intParam(q.Get("limit"), filter.Limit); err != nil {
		respondError(w, r, apperrors.InvalidInput("limit", "必须是整数"))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), filter.Offset); err != nil {
		respondError(w, r, apperrors.InvalidInput("offset", "必须是整数"))
		return
	}

	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询运行日志失败"))
		return
	}
	respondJSON(w, http.StatusOK, RunsResponse{Runs: runs, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// intParam 解析查询参数，为空时返回默认值
func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
