package core

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type logEntry struct {
	level  string
	msg    string
	fields []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) log(level, msg string, fields ...any) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, fields ...any) { l.log("debug", msg, fields...) }
func (l *captureLogger) Info(msg string, fields ...any)  { l.log("info", msg, fields...) }
func (l *captureLogger) Warn(msg string, fields ...any)  { l.log("warn", msg, fields...) }
func (l *captureLogger) Error(msg string, fields ...any) { l.log("error", msg, fields...) }

func (l *captureLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

func (r *captureAuditRecorder) all() []AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

type metricsObservation struct {
	operation string
	success   bool
	duration  time.Duration
}

type captureMetricsRecorder struct {
	mu           sync.Mutex
	observations []metricsObservation
}

func (r *captureMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	r.mu.Lock()
	r.observations = append(r.observations, metricsObservation{operation, success, duration})
	r.mu.Unlock()
}

func TestServiceAuditsSuccessfulOperations(t *testing.T) {
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	audit := &captureAuditRecorder{}
	svc := NewInMemoryService(nil,
		WithClock(ClockFunc(func() time.Time { return fixed })),
		WithAuditRecorder(audit),
	)

	branch, _, err := svc.CreateBranch(context.Background(), Branch{Name: "central", Capacity: 20})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}

	entries := audit.all()
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Operation != "create_branch" || entry.Entity != EntityBranch || entry.Action != ActionCreate {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.Status != AuditStatusSuccess {
		t.Fatalf("status = %s, want %s", entry.Status, AuditStatusSuccess)
	}
	if entry.EntityID != branch.ID {
		t.Fatalf("entity id = %q, want %q", entry.EntityID, branch.ID)
	}
	if !entry.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", entry.Timestamp, fixed)
	}
}

func TestServiceAuditsFailedOperations(t *testing.T) {
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	logger := &captureLogger{}
	svc := NewInMemoryService(nil,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithLogger(logger),
	)

	if _, err := svc.DeleteBranch(context.Background(), "missing"); err == nil {
		t.Fatal("expected delete of unknown branch to fail")
	}

	entries := audit.all()
	if len(entries) != 1 || entries[0].Status != AuditStatusError {
		t.Fatalf("expected one error audit entry, got %+v", entries)
	}
	if entries[0].Error == "" {
		t.Fatal("error audit entry carries no message")
	}
	if len(metrics.observations) != 1 || metrics.observations[0].success {
		t.Fatalf("expected one failed observation, got %+v", metrics.observations)
	}
	if len(logger.byLevel("error")) == 0 {
		t.Fatal("failed operation was not logged at error level")
	}
}

func TestServiceLogsRuleWarnings(t *testing.T) {
	logger := &captureLogger{}
	svc := NewInMemoryService(nil, WithLogger(logger))
	ctx := context.Background()
	branch := seedBranch(t, svc, "tiny", 1)
	group := seedGroup(t, svc, "stars", branch.ID)
	seedStudent(t, svc, "first", group.ID)

	if _, _, err := svc.CreateStudent(ctx, Student{Name: "second", Age: 4, GroupID: group.ID}); err != nil {
		t.Fatalf("overcapacity create: %v", err)
	}

	warned := false
	for _, entry := range logger.byLevel("warn") {
		if entry.msg == "rule warning" {
			warned = true
		}
	}
	if !warned {
		t.Fatal("capacity warning was not logged")
	}
}

func TestNoopDefaultsCommitQuietly(t *testing.T) {
	svc := NewInMemoryService(nil)
	if _, _, err := svc.CreateBranch(context.Background(), Branch{Name: "central", Capacity: 10}); err != nil {
		t.Fatalf("create with default observers: %v", err)
	}
}

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "create_branch", true, 20*time.Millisecond)
	rec.Observe(ctx, "create_branch", true, 30*time.Millisecond)
	rec.Observe(ctx, "create_branch", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // unnamed operations are dropped

	snap := rec.Snapshot()
	if got := snap.Results["create_branch"]["success"]; got != 2 {
		t.Fatalf("success count = %d, want 2", got)
	}
	if got := snap.Results["create_branch"]["error"]; got != 1 {
		t.Fatalf("error count = %d, want 1", got)
	}
	if got := snap.DurationsMS["create_branch"]; got != 55 {
		t.Fatalf("duration total = %v ms, want 55", got)
	}
	if !strings.HasPrefix(rec.Name(), "kindercore_service_metrics_") {
		t.Fatalf("generated expvar name = %q", rec.Name())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("construct recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "create_branch", true, 15*time.Millisecond)
	rec.Observe(ctx, "create_branch", false, 5*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := map[string]bool{}
	for _, fam := range families {
		seen[fam.GetName()] = true
	}
	if !seen["kindercore_service_operations_total"] {
		t.Fatalf("operations counter missing, got %v", seen)
	}
	if !seen["kindercore_service_operation_duration_seconds"] {
		t.Fatalf("latency histogram missing, got %v", seen)
	}

	// Double registration against the same registry must fail loudly.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	ctx := context.Background()

	_, span := tracer.Start(ctx, "create_branch")
	span.End(nil)
	_, span = tracer.Start(ctx, "delete_branch")
	span.End(context.DeadlineExceeded)

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Operation != "create_branch" || entries[0].Status != "success" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Fatalf("encoded lines = %d, want 2", lines)
	}
}

func TestServiceTracesOperations(t *testing.T) {
	tracer := NewJSONTracer(nil)
	svc := NewInMemoryService(nil, WithTracer(tracer))

	if _, _, err := svc.CreateBranch(context.Background(), Branch{Name: "central", Capacity: 10}); err != nil {
		t.Fatalf("create branch: %v", err)
	}
	if _, err := svc.DeleteBranch(context.Background(), "missing"); err == nil {
		t.Fatal("expected failure")
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("spans = %d, want 2", len(entries))
	}
	if entries[0].Operation != "create_branch" || entries[0].Status != "success" {
		t.Fatalf("unexpected span: %+v", entries[0])
	}
	if entries[1].Operation != "delete_branch" || entries[1].Status != "error" {
		t.Fatalf("unexpected span: %+v", entries[1])
	}
}
