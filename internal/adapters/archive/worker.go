// Package archive runs asynchronous state-archive jobs: each job serializes
// the current store snapshot to JSON and writes it to a blob store, with an
// audit entry per lifecycle transition.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kindercore/internal/blob/core"
	"kindercore/internal/infra/persistence/memory"
)

// Status describes the lifecycle stage of an archive job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// SnapshotSource supplies the state to archive. All persistent store
// implementations satisfy it.
type SnapshotSource interface {
	ExportState() memory.Snapshot
}

// Record tracks an archive request and the resulting artifact.
type Record struct {
	ID          string     `json:"id"`
	Key         string     `json:"key,omitempty"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	RequestedBy string     `json:"requested_by"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker.
type Input struct {
	RequestedBy string
	Reason      string
}

// AuditLogger records archive audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for archive jobs.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	JobID      string    `json:"job_id"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Worker executes archive jobs asynchronously off a bounded queue.
type Worker struct {
	source SnapshotSource
	store  core.Store
	audit  AuditLogger

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an archive worker over the given snapshot source and
// blob store.
func NewWorker(source SnapshotSource, store core.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan string, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing archive requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules an archive job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.source == nil {
		return Record{}, fmt.Errorf("snapshot source not configured")
	}
	if w.store == nil {
		return Record{}, fmt.Errorf("blob store not configured")
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record
	w.mu.Unlock()

	w.recordAudit(ctx, id, StatusQueued, "")

	select {
	case w.queue <- id:
	default:
		w.fail(id, "archive queue full")
		return Record{}, fmt.Errorf("archive queue full")
	}

	return queued, nil
}

// Get returns a snapshot of the archive record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

func (w *Worker) process(id string) {
	w.updateStatus(id, StatusRunning, "")

	snapshot := w.source.ExportState()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		w.fail(id, fmt.Sprintf("encode snapshot: %v", err))
		return
	}

	key := fmt.Sprintf("archives/%s/%s.json", time.Now().UTC().Format("2006/01/02"), id)
	info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), core.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"branches": fmt.Sprintf("%d", len(snapshot.Branches)),
			"students": fmt.Sprintf("%d", len(snapshot.Students)),
		},
	})
	if err != nil {
		w.fail(id, fmt.Sprintf("store archive: %v", err))
		return
	}

	w.complete(id, key, info.Size)
}

func (w *Worker) updateStatus(id string, status Status, note string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = note
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, status, note)
}

func (w *Worker) complete(id, key string, size int64) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Key = key
		record.SizeBytes = size
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, StatusSucceeded, "")
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, StatusFailed, reason)
}

func (w *Worker) recordAudit(ctx context.Context, id string, status Status, note string) {
	if w.audit == nil {
		return
	}
	var actor, reason string
	w.mu.RLock()
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		reason = record.Reason
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     "state_archive",
		Actor:      actor,
		JobID:      id,
		Status:     status,
		Reason:     reason,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	})
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
