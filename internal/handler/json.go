package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/nextmyth84-stack/road-auto/pkg/errors"
	"github.com/nextmyth84-stack/road-auto/pkg/logger"
)

// 请求体上限
const maxBodyBytes = 1 << 20

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应，非 AppError 按内部错误处理
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.As(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("请求处理失败")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}

// decode 解析并校验请求体
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败").WithDetails(err.Error())
	}
	if err := h.validate.Struct(v); err != nil {
		return h.translateValidation(err)
	}
	return nil
}

// translateValidation 把校验错误翻译为中文并转换为 AppError
func (h *Handler) translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "请求校验失败")
	}
	ve := &apperrors.ValidationErrors{}
	for _, fe := range verrs {
		ve.Add(fe.Namespace(), fe.Translate(h.translator))
	}
	appErr := ve.ToAppError()
	appErr.Message = verrs[0].Translate(h.translator)
	return appErr
}

// unitContext 把路径中的单位写入日志上下文
func (h *Handler) unitContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), logger.UnitKey, chi.URLParam(r, "unit"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
