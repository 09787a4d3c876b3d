package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := newMetrics(0.5)
	m.ObserveAPI("POST", "/api/exam/sessions", "200", 100*time.Millisecond)
	m.ObserveAPI("POST", "/api/exam/sessions", "503", 2*time.Second)
	m.IncExamEvent("onboarding", ExamEventStarted)
	m.IncAnswerRecorded("onboarding", true)
	m.ObserveAggregateOperation("Exam.Session.Start", "storage_failure", time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`asm_api_requests_total{method="POST",route="/api/exam/sessions",status="200"} 1`,
		`asm_exam_events_total{process="onboarding",event="started"} 1`,
		`asm_exam_answers_recorded_total{process="onboarding",correct="true"} 1`,
		`asm_aggregate_operation_duration_seconds_bucket{op="Exam.Session.Start",status="storage_failure",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q\n%s", want, out)
		}
	}
	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("api errors: want=1 got=%v", got)
	}
	if got := m.apiReqGood.Value(); got != 1 {
		t.Fatalf("fast requests: want=1 got=%v", got)
	}
	if got := m.aggregateFailed.Value(); got != 1 {
		t.Fatalf("aggregate failures: want=1 got=%v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncExamEvent("p", ExamEventCompleted)
	m.IncAnswerRecorded("p", false)
	m.IncStartLock("acquired")
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestSLOEvaluatorBurnRate(t *testing.T) {
	m := newMetrics(0.5)
	e := newSLOEvaluator(m, nil)
	for i := 0; i < 99; i++ {
		m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	}
	m.ObserveAPI("GET", "/x", "500", time.Millisecond)
	e.evaluate()

	got := m.sloCompliance.values[labelString([]string{"slo", "window"}, []string{"api_availability", e.windowLabel})]
	if got < 0.989 || got > 0.991 {
		t.Fatalf("api availability sli: want=0.99 got=%v", got)
	}
	burn := m.sloBurn.values[labelString([]string{"slo", "window"}, []string{"api_availability", e.windowLabel})]
	if burn < 1.9 || burn > 2.1 {
		t.Fatalf("burn rate: want=2 got=%v", burn)
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" a=1, bad ,b = 2,=x")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("parseHeaders: got=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}

func TestFormatWindowLabel(t *testing.T) {
	cases := map[time.Duration]string{
		720 * time.Hour:  "30d",
		36 * time.Hour:   "36h",
		30 * time.Minute: "30m",
	}
	for in, want := range cases {
		if got := formatWindowLabel(in); got != want {
			t.Fatalf("formatWindowLabel(%s): want=%s got=%s", in, want, got)
		}
	}
}
