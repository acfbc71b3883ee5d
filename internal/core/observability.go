package core

import (
	"context"
	"time"

	"kindercore/pkg/domain"
)

// Logger receives structured key/value log events emitted by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the service's notion of now. Tests override it to pin
// timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time { return f() }

// AuditStatus classifies an audit entry outcome.
type AuditStatus string

const (
	// AuditStatusSuccess marks a committed operation.
	AuditStatusSuccess AuditStatus = "success"
	// AuditStatusError marks a rejected or failed operation.
	AuditStatusError AuditStatus = "error"
)

// AuditEntry captures a single service operation for the audit trail.
type AuditEntry struct {
	Operation string
	Entity    domain.EntityType
	Action    domain.Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries for completed operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// MetricsRecorder aggregates operation timing and outcome counters.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan represents an in-flight operation span.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(error) {}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type auditDescriptor struct {
	entity domain.EntityType
	action domain.Action
}

// auditOperations maps operation names to the entity and action recorded in
// audit entries. Operations absent from the table are not audited.
var auditOperations = map[string]auditDescriptor{
	"create_branch":             {domain.EntityBranch, domain.ActionCreate},
	"update_branch":             {domain.EntityBranch, domain.ActionUpdate},
	"delete_branch":             {domain.EntityBranch, domain.ActionDelete},
	"create_group":              {domain.EntityGroup, domain.ActionCreate},
	"update_group":              {domain.EntityGroup, domain.ActionUpdate},
	"delete_group":              {domain.EntityGroup, domain.ActionDelete},
	"create_teacher":            {domain.EntityTeacher, domain.ActionCreate},
	"update_teacher":            {domain.EntityTeacher, domain.ActionUpdate},
	"delete_teacher":            {domain.EntityTeacher, domain.ActionDelete},
	"create_student":            {domain.EntityStudent, domain.ActionCreate},
	"update_student":            {domain.EntityStudent, domain.ActionUpdate},
	"delete_student":            {domain.EntityStudent, domain.ActionDelete},
	"create_parent":             {domain.EntityParent, domain.ActionCreate},
	"update_parent":             {domain.EntityParent, domain.ActionUpdate},
	"delete_parent":             {domain.EntityParent, domain.ActionDelete},
	"create_user":               {domain.EntityUser, domain.ActionCreate},
	"update_user":               {domain.EntityUser, domain.ActionUpdate},
	"delete_user":               {domain.EntityUser, domain.ActionDelete},
	"create_financial_record":   {domain.EntityFinancialRecord, domain.ActionCreate},
	"update_financial_record":   {domain.EntityFinancialRecord, domain.ActionUpdate},
	"delete_financial_record":   {domain.EntityFinancialRecord, domain.ActionDelete},
	"create_meal":               {domain.EntityMeal, domain.ActionCreate},
	"update_meal":               {domain.EntityMeal, domain.ActionUpdate},
	"delete_meal":               {domain.EntityMeal, domain.ActionDelete},
	"create_homework":           {domain.EntityHomework, domain.ActionCreate},
	"update_homework":           {domain.EntityHomework, domain.ActionUpdate},
	"delete_homework":           {domain.EntityHomework, domain.ActionDelete},
	"create_vaccination":        {domain.EntityVaccination, domain.ActionCreate},
	"update_vaccination":        {domain.EntityVaccination, domain.ActionUpdate},
	"delete_vaccination":        {domain.EntityVaccination, domain.ActionDelete},
	"create_sleep_record":       {domain.EntitySleepRecord, domain.ActionCreate},
	"update_sleep_record":       {domain.EntitySleepRecord, domain.ActionUpdate},
	"delete_sleep_record":       {domain.EntitySleepRecord, domain.ActionDelete},
	"create_warehouse_item":     {domain.EntityWarehouseItem, domain.ActionCreate},
	"update_warehouse_item":     {domain.EntityWarehouseItem, domain.ActionUpdate},
	"delete_warehouse_item":     {domain.EntityWarehouseItem, domain.ActionDelete},
	"create_complaint":          {domain.EntityComplaint, domain.ActionCreate},
	"update_complaint":          {domain.EntityComplaint, domain.ActionUpdate},
	"delete_complaint":          {domain.EntityComplaint, domain.ActionDelete},
	"create_activity":           {domain.EntityActivity, domain.ActionCreate},
	"update_activity":           {domain.EntityActivity, domain.ActionUpdate},
	"delete_activity":           {domain.EntityActivity, domain.ActionDelete},

	"enroll_student":              {domain.EntityStudent, domain.ActionCreate},
	"move_student_to_group":       {domain.EntityStudent, domain.ActionUpdate},
	"attach_student_to_parent":    {domain.EntityStudent, domain.ActionUpdate},
	"detach_student_from_parent":  {domain.EntityStudent, domain.ActionUpdate},
	"assign_teacher_to_group":     {domain.EntityGroup, domain.ActionUpdate},
	"unassign_teacher_from_group": {domain.EntityGroup, domain.ActionUpdate},
}
