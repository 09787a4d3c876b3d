package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/platform/envutil"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

// Exam lifecycle events counted by IncExamEvent.
const (
	ExamEventStarted   = "started"
	ExamEventResumed   = "resumed"
	ExamEventAbandoned = "abandoned"
	ExamEventCompleted = "completed"
	ExamEventViolated  = "violated"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter
	apiReqGood  *Counter

	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec
	aggregateTotal     *Counter
	aggregateFailed    *Counter

	examEvents      *CounterVec
	answersRecorded *CounterVec
	results         *CounterVec
	startLock       *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	sloCompliance       *GaugeVec
	sloBudget           *GaugeVec
	sloBurn             *GaugeVec
	sloLatencyThreshold float64
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics(envutil.Float("SLO_API_LATENCY_THRESHOLD_SECONDS", 0.5))
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics(latencyThreshold float64) *Metrics {
	if latencyThreshold <= 0 {
		latencyThreshold = 0.5
	}
	return &Metrics{
		apiRequests: NewCounterVec("asm_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"asm_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("asm_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("asm_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("asm_api_requests_error_total", "API requests answered with 5xx."),
		apiReqGood:  NewCounter("asm_api_requests_fast_total", "API requests under the latency threshold."),

		aggregateLatency: NewHistogramVec(
			"asm_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation/status.",
			[]string{"op", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		),
		aggregateConflicts: NewCounterVec("asm_aggregate_conflicts_total", "Aggregate writes that hit a concurrency conflict.", []string{"op"}),
		aggregateRetries:   NewCounterVec("asm_aggregate_retries_total", "Aggregate writes that failed with a retryable error.", []string{"op"}),
		aggregateTotal:     NewCounter("asm_aggregate_operations_total_all", "Aggregate writes (all)."),
		aggregateFailed:    NewCounter("asm_aggregate_storage_failures_total", "Aggregate writes that failed in storage."),

		examEvents:      NewCounterVec("asm_exam_events_total", "Exam session lifecycle events by process/event.", []string{"process", "event"}),
		answersRecorded: NewCounterVec("asm_exam_answers_recorded_total", "Answers recorded by process/correctness.", []string{"process", "correct"}),
		results:         NewCounterVec("asm_assessment_results_total", "Assessment results by process/mode/status.", []string{"process", "mode", "status"}),
		startLock:       NewCounterVec("asm_exam_start_lock_total", "Distributed start lock outcomes.", []string{"outcome"}),

		dbStats:   NewGaugeVec("asm_db_pool_stats", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("asm_redis_up", "Redis reachable (1) or not (0)."),
		redisPing: NewGauge("asm_redis_ping_seconds", "Redis ping latency in seconds."),

		sloCompliance:       NewGaugeVec("asm_slo_compliance", "SLI over the evaluation window.", []string{"slo", "window"}),
		sloBudget:           NewGaugeVec("asm_slo_error_budget_remaining", "Remaining error budget ratio.", []string{"slo", "window"}),
		sloBurn:             NewGaugeVec("asm_slo_burn_rate", "Error budget burn rate.", []string{"slo", "window"}),
		sloLatencyThreshold: latencyThreshold,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError, m.apiReqGood,
		m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries, m.aggregateTotal, m.aggregateFailed,
		m.examEvents, m.answersRecorded, m.results, m.startLock,
		m.dbStats, m.redisUp, m.redisPing,
		m.sloCompliance, m.sloBudget, m.sloBurn,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
	if m.sloLatencyThreshold > 0 && dur.Seconds() <= m.sloLatencyThreshold {
		m.apiReqGood.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
	m.aggregateTotal.Inc()
	if status == "storage_failure" || status == "internal" {
		m.aggregateFailed.Inc()
	}
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

func (m *Metrics) IncExamEvent(process, event string) {
	if m == nil {
		return
	}
	m.examEvents.Inc(strings.TrimSpace(process), event)
}

func (m *Metrics) IncAnswerRecorded(process string, correct bool) {
	if m == nil {
		return
	}
	label := "false"
	if correct {
		label = "true"
	}
	m.answersRecorded.Inc(strings.TrimSpace(process), label)
}

func (m *Metrics) IncResult(process, mode, status string) {
	if m == nil {
		return
	}
	m.results.Inc(strings.TrimSpace(process), mode, status)
}

// IncStartLock counts lock outcomes: acquired, contended, error, disabled.
func (m *Metrics) IncStartLock(outcome string) {
	if m == nil {
		return
	}
	m.startLock.Inc(outcome)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings the shared client; the caller owns its lifecycle.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
