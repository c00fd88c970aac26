// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nextmyth84-stack/road-auto/pkg/model"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// 运行类型
const (
	KindPeriod = "period"
	KindDay    = "day"
)

// OtherUnit 未在白名单中的单位统一使用的标签
const OtherUnit = "other"

// Metrics 分配服务的指标集合
//
// 所有方法对 nil 接收者安全，未启用监控时可直接传 nil。
type Metrics struct {
	reg *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	unmetUnits     *prometheus.CounterVec
	fairnessMisses prometheus.Counter
	rotationResets prometheus.Counter
	tieBreaks      prometheus.Counter
	activeRuns     prometheus.Gauge
	fairnessGini   *prometheus.GaugeVec
	coverageRate   *prometheus.GaugeVec

	units map[string]struct{} // 单独打标签的单位
}

// New 创建并注册指标；namespace 为空时使用 "road_auto"
//
// units 为单独打标签的单位，其余单位合并为 OtherUnit，标签数量不随请求增长。
func New(namespace string, units ...string) *Metrics {
	if namespace == "" {
		namespace = "road_auto"
	}
	m := &Metrics{reg: prometheus.NewRegistry(), units: make(map[string]struct{}, len(units))}
	for _, u := range units {
		m.units[u] = struct{}{}
	}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求延迟",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "path"})
	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignment_runs_total",
		Help:      "分配运行次数",
	}, []string{"kind", "status"})
	m.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assignment_run_duration_seconds",
		Help:      "分配运行耗时",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 0.1ms .. ~1.6s
	}, []string{"kind"})
	m.unmetUnits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unmet_units_total",
		Help:      "未能分配的需求单位",
	}, []string{"type"})
	m.fairnessMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fairness_not_achieved_total",
		Help:      "公平性校正未收敛的教时数",
	})
	m.rotationResets = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rotation_resets_total",
		Help:      "轮换记忆覆盖全员后清空的次数",
	})
	m.tieBreaks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tie_breaks_total",
		Help:      "随机决胜次数",
	})
	m.activeRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_runs",
		Help:      "正在进行的分配数",
	})
	m.fairnessGini = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fairness_gini",
		Help:      "最近一次多教时分配的项目数基尼系数",
	}, []string{"unit"})
	m.coverageRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "coverage_rate",
		Help:      "最近一次多教时分配的需求覆盖率 (%)",
	}, []string{"unit"})

	m.reg.MustRegister(
		m.httpRequests, m.httpDuration, m.runs, m.runDuration, m.unmetUnits,
		m.fairnessMisses, m.rotationResets, m.tieBreaks, m.activeRuns,
		m.fairnessGini, m.coverageRate,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// RecordRequest 记录请求指标
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RunStarted 标记分配开始，返回结束时调用的函数
func (m *Metrics) RunStarted() func() {
	if m == nil {
		return func() {}
	}
	m.activeRuns.Inc()
	return m.activeRuns.Dec
}

// RecordPeriod 记录单教时结果
func (m *Metrics) RecordPeriod(kind string, res *scheduler.Result) {
	if m == nil || res == nil {
		return
	}
	status := "ok"
	if res.HasUnmet() {
		status = "unmet"
	}
	m.runs.WithLabelValues(kind, status).Inc()
	m.runDuration.WithLabelValues(kind).Observe(res.Duration.Seconds())

	for _, t := range model.ItemTypes {
		if res.Unmet[t] > 0 {
			m.unmetUnits.WithLabelValues(t.String()).Add(float64(res.Unmet[t]))
		}
	}
	if !res.Fairness.Achieved {
		m.fairnessMisses.Inc()
	}
	m.rotationResets.Add(float64(res.RotationResets))
	m.tieBreaks.Add(float64(res.TieBreaks))
}

// RecordFailure 记录输入非法或存储失败的运行
func (m *Metrics) RecordFailure(kind string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, "error").Inc()
}

// SetDayQuality 设置某单位最近一次多教时分配的公平性与覆盖率
func (m *Metrics) SetDayQuality(unit string, gini, coverage float64) {
	if m == nil {
		return
	}
	label := m.unitLabel(unit)
	m.fairnessGini.WithLabelValues(label).Set(gini)
	m.coverageRate.WithLabelValues(label).Set(coverage)
}

func (m *Metrics) unitLabel(unit string) string {
	if _, ok := m.units[unit]; ok {
		return unit
	}
	return OtherUnit
}
