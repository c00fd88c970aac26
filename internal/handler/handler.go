// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/nextmyth84-stack/road-auto/internal/metrics"
	"github.com/nextmyth84-stack/road-auto/internal/middleware"
	"github.com/nextmyth84-stack/road-auto/internal/repository"
	"github.com/nextmyth84-stack/road-auto/internal/service"
	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// Allocator 分配服务
type Allocator interface {
	AssignPeriod(ctx context.Context, unit string, roster []*model.Person, period model.Period, demand model.Counts) (*scheduler.Result, error)
	AssignDay(ctx context.Context, unit string, roster []*model.Person, plan []scheduler.PeriodDemand) (*service.DayOutcome, error)
	Rotation(ctx context.Context, unit string) ([]string, error)
	ResetRotation(ctx context.Context, unit string) error
}

// RunLister 运行日志查询
type RunLister interface {
	List(ctx context.Context, filter repository.ListFilter) ([]*repository.Run, int, error)
}

// HealthCheck 依赖健康检查
type HealthCheck func(ctx context.Context) error

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Handler HTTP处理器
type Handler struct {
	svc        Allocator
	runs       RunLister
	metrics    *metrics.Metrics
	metricsAt  string
	limiter    *middleware.RateLimiter
	timeout    time.Duration
	build      BuildInfo
	checks     map[string]HealthCheck
	validate   *validator.Validate
	translator ut.Translator
}

// Option 处理器选项
type Option func(*Handler)

// WithRunLister 启用运行日志查询
func WithRunLister(r RunLister) Option {
	return func(h *Handler) { h.runs = r }
}

// WithMetrics 启用请求指标，并在 path 上暴露（为空时为 /metrics）
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(h *Handler) {
		h.metrics = m
		if path != "" {
			h.metricsAt = path
		}
	}
}

// WithRateLimit 按每秒请求数限流，≤0 时不限流
func WithRateLimit(rps float64) Option {
	return func(h *Handler) {
		if rps > 0 {
			h.limiter = middleware.NewRateLimiter(rps)
		}
	}
}

// WithTimeout 单个请求的超时
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithBuildInfo 设置 /version 返回的构建信息
func WithBuildInfo(b BuildInfo) Option {
	return func(h *Handler) { h.build = b }
}

// WithHealthCheck 在 /health 中加入依赖检查
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) { h.checks[name] = check }
}

// NewHandler 创建处理器
func NewHandler(svc Allocator, opts ...Option) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息使用 json 字段名
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	h := &Handler{
		svc:        svc,
		metricsAt:  "/metrics",
		build:      BuildInfo{Version: "dev"},
		checks:     make(map[string]HealthCheck),
		validate:   validate,
		translator: trans,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes 返回路由
//
// 中间件顺序：requestID -> recovery -> rateLimit -> cors -> logging -> handler
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.RateLimit(h.limiter))
	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging(h.metrics))

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)
	if h.metrics != nil {
		r.Method(http.MethodGet, h.metricsAt, h.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if h.timeout > 0 {
			r.Use(chimw.Timeout(h.timeout))
		}
		r.Post("/stats/day", h.AnalyzeDay)

		r.Route("/units/{unit}", func(r chi.Router) {
			r.Use(h.unitContext)
			r.Post("/periods/assign", h.AssignPeriod)
			r.Post("/days/assign", h.AssignDay)
			r.Get("/rotation", h.GetRotation)
			r.Delete("/rotation", h.ResetRotation)
			r.Get("/runs", h.ListRuns)
		})
	})
	return r
}

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]interface{}{"status": "ok", "service": "road-auto"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	respondJSON(w, status, body)
}

// Version 版本信息
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.build)
}
