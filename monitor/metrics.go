package monitor

import (
	"math"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// 生图调用结果分类
const (
	OutcomeSuccess        = "success"
	OutcomeRejected       = "rejected"       // 敏感词、缺少 token、不允许图片
	OutcomeDownloadError  = "download_error" // 输入图片或头像下载失败
	OutcomeUpstreamError  = "upstream_error" // NovelAI 返回错误或解包失败
	OutcomeTranslateError = "translate_error"
)

var Outcomes = []string{OutcomeSuccess, OutcomeRejected, OutcomeDownloadError, OutcomeUpstreamError, OutcomeTranslateError}

const Namespace = "novelai_bot"

// 成功延迟分位数统计的时间窗口
const latencyMaxAge = 10 * time.Minute

// Collector 生图指标，每个 Collector 使用独立的 registry
type Collector struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	successLatency     prometheus.Summary
	inFlight           prometheus.Gauge
	maxInFlight        prometheus.Gauge

	mu      sync.Mutex
	current int64
	max     int64
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	c := &Collector{registry: registry}
	c.generationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of nai-img invocations by outcome",
		},
		[]string{"outcome"},
	)
	c.generationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "nai-img invocation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)
	c.successLatency = factory.NewSummary(prometheus.SummaryOpts{
		Namespace:  namespace,
		Name:       "generation_success_latency_seconds",
		Help:       "Latency quantiles of successful generations",
		Objectives: map[float64]float64{0.5: 0.05, 0.95: 0.01},
		MaxAge:     latencyMaxAge,
	})
	c.inFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "generations_in_flight",
		Help:      "Number of nai-img invocations currently running",
	})
	c.maxInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "generations_in_flight_max",
		Help:      "Highest number of concurrent nai-img invocations since start",
	})

	for _, outcome := range Outcomes {
		c.generationsTotal.WithLabelValues(outcome)
		c.generationDuration.WithLabelValues(outcome)
	}
	return c
}

// RecordGeneration 记录一次生图调用
func (c *Collector) RecordGeneration(latency time.Duration, outcome string) {
	c.generationsTotal.WithLabelValues(outcome).Inc()
	c.generationDuration.WithLabelValues(outcome).Observe(latency.Seconds())
	if outcome == OutcomeSuccess {
		c.successLatency.Observe(latency.Seconds())
	}
}

func (c *Collector) IncrementConcurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	c.inFlight.Set(float64(c.current))
	if c.current > c.max {
		c.max = c.current
		c.maxInFlight.Set(float64(c.max))
	}
}

func (c *Collector) DecrementConcurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current--
	c.inFlight.Set(float64(c.current))
}

// Handler Prometheus 文本格式导出，压缩交给外层 gzip 中间件
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{DisableCompression: true})
}

// Snapshot 从 collector 读出的当前指标
type Snapshot struct {
	RequestCount      int64            `json:"request_count"`
	Concurrent        int64            `json:"concurrent"`
	MaxConcurrent     int64            `json:"max_concurrent"`
	Outcomes          map[string]int64 `json:"outcomes"`
	SuccessLatencyAvg float64          `json:"success_latency_avg_ms"`
	SuccessLatencyP50 float64          `json:"success_latency_p50_ms"`
	SuccessLatencyP95 float64          `json:"success_latency_p95_ms"`
	FailureLatencyAvg float64          `json:"failure_latency_avg_ms"`
	Goroutines        int              `json:"goroutines"`
	MemoryAllocMB     uint64           `json:"memory_alloc_mb"`
	MemorySysMB       uint64           `json:"memory_sys_mb"`
}

func writeMetric(metric prometheus.Metric) *dto.Metric {
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		return &dto.Metric{}
	}
	return m
}

func toMs(seconds float64) float64 {
	if math.IsNaN(seconds) {
		return 0
	}
	return seconds * 1000
}

func (c *Collector) GetSnapshot() Snapshot {
	snapshot := Snapshot{Outcomes: make(map[string]int64, len(Outcomes))}
	var failureCount uint64
	var failureSum float64
	for _, outcome := range Outcomes {
		count := int64(writeMetric(c.generationsTotal.WithLabelValues(outcome)).GetCounter().GetValue())
		snapshot.Outcomes[outcome] = count
		snapshot.RequestCount += count
		if outcome == OutcomeSuccess {
			continue
		}
		histogram := writeMetric(c.generationDuration.WithLabelValues(outcome).(prometheus.Metric)).GetHistogram()
		failureCount += histogram.GetSampleCount()
		failureSum += histogram.GetSampleSum()
	}
	if failureCount > 0 {
		snapshot.FailureLatencyAvg = toMs(failureSum / float64(failureCount))
	}

	summary := writeMetric(c.successLatency).GetSummary()
	if summary.GetSampleCount() > 0 {
		snapshot.SuccessLatencyAvg = toMs(summary.GetSampleSum() / float64(summary.GetSampleCount()))
	}
	for _, q := range summary.GetQuantile() {
		switch q.GetQuantile() {
		case 0.5:
			snapshot.SuccessLatencyP50 = toMs(q.GetValue())
		case 0.95:
			snapshot.SuccessLatencyP95 = toMs(q.GetValue())
		}
	}

	c.mu.Lock()
	snapshot.Concurrent = c.current
	snapshot.MaxConcurrent = c.max
	c.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	snapshot.Goroutines = runtime.NumGoroutine()
	snapshot.MemoryAllocMB = m.Alloc / 1024 / 1024
	snapshot.MemorySysMB = m.Sys / 1024 / 1024
	return snapshot
}

var defaultCollector = NewCollector(Namespace)

func RecordGeneration(latency time.Duration, outcome string) {
	defaultCollector.RecordGeneration(latency, outcome)
}

func IncrementConcurrent() {
	defaultCollector.IncrementConcurrent()
}

func DecrementConcurrent() {
	defaultCollector.DecrementConcurrent()
}

func GetSnapshot() Snapshot {
	return defaultCollector.GetSnapshot()
}

func Handler() http.Handler {
	return defaultCollector.Handler()
}
