package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/yungbote/assessment-backend/internal/platform/envutil"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type rollingSum struct {
	values []float64
	idx    int
	total  float64
}

func newRollingSum(size int) *rollingSum {
	if size < 1 {
		size = 1
	}
	return &rollingSum{values: make([]float64, size)}
}

func (r *rollingSum) add(v float64) {
	r.total += v - r.values[r.idx]
	r.values[r.idx] = v
	r.idx++
	if r.idx >= len(r.values) {
		r.idx = 0
	}
}

// sloSeries tracks one good/bad ratio over the rolling window.
type sloSeries struct {
	name   string
	target float64
	total  func() float64
	bad    func() float64

	winTotal  *rollingSum
	winBad    *rollingSum
	prevTotal float64
	prevBad   float64
}

type SLOEvaluator struct {
	metrics *Metrics
	log     *logger.Logger

	interval    time.Duration
	windowLabel string
	series      []*sloSeries

	alertWebhook     string
	alertOwner       string
	alertRunbook     string
	alertMinInterval time.Duration
	alertBurnWarn    float64
	alertBurnCrit    float64
	httpClient       *http.Client

	alertMu    sync.Mutex
	lastAlerts map[string]time.Time
}

func (m *Metrics) StartSLOEvaluator(ctx context.Context, log *logger.Logger) {
	if m == nil || !envutil.Bool("SLO_ENABLED", false) {
		return
	}
	eval := newSLOEvaluator(m, log)
	go eval.run(ctx)
	if log != nil {
		log.Info("SLO evaluator started", "window", eval.windowLabel, "interval", eval.interval.String())
	}
}

func newSLOEvaluator(m *Metrics, log *logger.Logger) *SLOEvaluator {
	interval := envutil.Duration("SLO_EVAL_INTERVAL_SECONDS", 60*time.Second)
	if interval <= 0 {
		interval = 60 * time.Second
	}
	windowHours := envutil.Float("SLO_WINDOW_HOURS", 720)
	if windowHours < 1 {
		windowHours = 24
	}
	window := time.Duration(windowHours * float64(time.Hour))
	size := int(window / interval)

	e := &SLOEvaluator{
		metrics:          m,
		log:              log,
		interval:         interval,
		windowLabel:      formatWindowLabel(window),
		alertWebhook:     envutil.String("SLO_ALERT_WEBHOOK_URL", ""),
		alertOwner:       envutil.String("SLO_ALERT_OWNER", ""),
		alertRunbook:     envutil.String("SLO_ALERT_RUNBOOK_URL", ""),
		alertMinInterval: envutil.Duration("SLO_ALERT_MIN_INTERVAL_SECONDS", 15*time.Minute),
		alertBurnWarn:    envutil.Float("SLO_ALERT_BURN_RATE_WARN", 2),
		alertBurnCrit:    envutil.Float("SLO_ALERT_BURN_RATE_CRIT", 10),
		httpClient:       &http.Client{Timeout: 5 * time.Second},
		lastAlerts:       map[string]time.Time{},
	}
	e.series = []*sloSeries{
		{
			name:   "api_availability",
			target: clamp01(envutil.Float("SLO_API_AVAIL_TARGET", 0.995)),
			total:  m.apiReqTotal.Value,
			bad:    m.apiReqError.Value,
		},
		{
			name:   "api_latency",
			target: clamp01(envutil.Float("SLO_API_LATENCY_TARGET", 0.95)),
			total:  m.apiReqTotal.Value,
			bad:    func() float64 { return m.apiReqTotal.Value() - m.apiReqGood.Value() },
		},
		{
			name:   "exam_write_success",
			target: clamp01(envutil.Float("SLO_EXAM_WRITE_TARGET", 0.999)),
			total:  m.aggregateTotal.Value,
			bad:    m.aggregateFailed.Value,
		},
	}
	for _, s := range e.series {
		s.winTotal = newRollingSum(size)
		s.winBad = newRollingSum(size)
	}
	return e
}

func (e *SLOEvaluator) run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evaluate()
		}
	}
}

func (e *SLOEvaluator) evaluate() {
	if e.metrics == nil {
		return
	}
	for _, s := range e.series {
		total, bad := s.total(), s.bad()
		s.winTotal.add(delta(total, s.prevTotal))
		s.winBad.add(delta(bad, s.prevBad))
		s.prevTotal, s.prevBad = total, bad
		e.evalSLO(s.name, s.winTotal.total, s.winBad.total, s.target)
	}
}

func (e *SLOEvaluator) evalSLO(name string, total float64, bad float64, target float64) {
	if total <= 0 {
		e.metrics.sloCompliance.Set(1, name, e.windowLabel)
		e.metrics.sloBudget.Set(1, name, e.windowLabel)
		e.metrics.sloBurn.Set(0, name, e.windowLabel)
		return
	}
	sli := clamp01(1 - bad/total)
	burn := 0.0
	if target < 1 {
		burn = (1 - sli) / (1 - target)
	}
	budget := clamp01(1 - burn)
	e.metrics.sloCompliance.Set(sli, name, e.windowLabel)
	e.metrics.sloBudget.Set(budget, name, e.windowLabel)
	e.metrics.sloBurn.Set(burn, name, e.windowLabel)

	if e.alertWebhook == "" || e.alertOwner == "" {
		return
	}
	severity := ""
	if burn >= e.alertBurnCrit {
		severity = "critical"
	} else if burn >= e.alertBurnWarn {
		severity = "warning"
	}
	if severity == "" {
		return
	}
	key := name + ":" + severity
	e.alertMu.Lock()
	last := e.lastAlerts[key]
	if !last.IsZero() && time.Since(last) < e.alertMinInterval {
		e.alertMu.Unlock()
		return
	}
	e.lastAlerts[key] = time.Now()
	e.alertMu.Unlock()
	e.sendAlert(name, severity, sli, target, burn, budget)
}

func (e *SLOEvaluator) sendAlert(name, severity string, sli, target, burn, budget float64) {
	payload := map[string]any{
		"title":                  "SLO burn rate alert",
		"severity":               severity,
		"owner":                  e.alertOwner,
		"slo":                    name,
		"window":                 e.windowLabel,
		"sli":                    sli,
		"target":                 target,
		"burn_rate":              burn,
		"error_budget_remaining": budget,
		"runbook":                e.alertRunbook,
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, e.alertWebhook, bytes.NewReader(body))
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert request build failed", "error", err, "slo", name)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.httpClient.Do(req)
	if err != nil {
		if e.log != nil {
			e.log.Warn("slo alert post failed", "error", err, "slo", name)
		}
		return
	}
	_ = resp.Body.Close()
	if e.log != nil {
		e.log.Info("slo alert sent", "slo", name, "severity", severity, "status", resp.StatusCode)
	}
}

func delta(current, prev float64) float64 {
	if current < prev {
		return current
	}
	return current - prev
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatWindowLabel(window time.Duration) string {
	hours := window.Hours()
	if hours >= 24 && int(hours)%24 == 0 && hours == float64(int(hours)) {
		return strconv.Itoa(int(hours/24)) + "d"
	}
	if hours >= 1 {
		return strconv.Itoa(int(hours)) + "h"
	}
	return strconv.Itoa(int(window.Minutes())) + "m"
}
