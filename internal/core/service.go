package core

import (
	"context"
	"strings"
	"time"

	"kindercore/internal/infra/persistence/memory"
	"kindercore/pkg/domain"
)

// Service exposes higher-level transactional operations for the core schema.
// Every mutation runs inside a store transaction so rule evaluation sees the
// complete post-state before anything commits.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

type serviceOptions struct {
	logger  Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  noopLogger{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
}

// ServiceOption customizes service construction.
type ServiceOption func(*serviceOptions)

// WithLogger installs a structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the service clock.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithAuditRecorder installs an audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		logger:  options.logger,
		clock:   options.clock,
		audit:   options.audit,
		metrics: options.metrics,
		tracer:  options.tracer,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine gets the default policy set.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// run executes fn inside a store transaction with tracing, metrics, audit,
// and logging around it. entityID, when non-nil, is evaluated after a
// successful commit to tag the audit entry.
func (s *Service) run(ctx context.Context, operation string, fn func(domain.Transaction) error, entityID func() string) (domain.Result, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, operation)

	res, err := s.store.RunInTransaction(ctx, fn)
	duration := s.clock.Now().Sub(start)

	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)

	for _, violation := range res.Violations {
		if violation.Severity == domain.SeverityWarn {
			s.logger.Warn("rule warning",
				"operation", operation,
				"rule", violation.Rule,
				"entity", violation.Entity,
				"entity_id", violation.EntityID,
				"message", violation.Message,
			)
		}
	}

	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
		s.recordAuditError(ctx, operation, err, duration)
		return res, err
	}

	id := ""
	if entityID != nil {
		id = entityID()
	}
	s.logger.Debug("operation committed", "operation", operation, "entity_id", id, "duration", duration)
	s.recordAuditSuccess(ctx, operation, id, duration)
	return res, nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	desc, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    desc.entity,
		Action:    desc.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, operation string, err error, duration time.Duration) {
	desc, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    desc.entity,
		Action:    desc.action,
		Status:    AuditStatusError,
		Error:     err.Error(),
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

// EnrollmentInput bundles the records created by a single enrollment.
type EnrollmentInput struct {
	Student  Student
	Parent   Parent
	Password string
}

// Enrollment holds the records committed by EnrollStudent.
type Enrollment struct {
	Student Student
	Parent  Parent
	User    User
}

// EnrollStudent creates the parent profile, its login account, and the
// student in one transaction. The parent/student link is written on both
// sides. Nothing is created when any step fails.
func (s *Service) EnrollStudent(ctx context.Context, input EnrollmentInput) (Enrollment, Result, error) {
	var out Enrollment
	res, err := s.run(ctx, "enroll_student", func(tx domain.Transaction) error {
		if len(input.Password) < 6 {
			return domain.ValidationError{Field: "password", Reason: "must be at least 6 characters"}
		}
		email := strings.ToLower(strings.TrimSpace(input.Parent.Email))
		if email == "" {
			return domain.ValidationError{Field: "email", Reason: "is required"}
		}
		view := tx.Snapshot()
		for _, user := range view.ListUsers() {
			if strings.EqualFold(user.Email, email) {
				return domain.ConflictError{Entity: domain.EntityUser, Field: "email", Value: email}
			}
		}
		for _, parent := range view.ListParents() {
			if strings.EqualFold(parent.Email, email) {
				return domain.ConflictError{Entity: domain.EntityParent, Field: "email", Value: email}
			}
		}
		for _, teacher := range view.ListTeachers() {
			if strings.EqualFold(teacher.Email, email) {
				return domain.ConflictError{Entity: domain.EntityTeacher, Field: "email", Value: email}
			}
		}

		parent, err := tx.CreateParent(input.Parent)
		if err != nil {
			return err
		}
		user, err := tx.CreateUser(User{
			Name:     parent.Name,
			Email:    parent.Email,
			Password: input.Password,
			Role:     domain.RoleParent,
			Status:   "active",
		})
		if err != nil {
			return err
		}

		student := input.Student
		student.ParentID = &parent.ID
		student, err = tx.CreateStudent(student)
		if err != nil {
			return err
		}
		parent, err = tx.UpdateParent(parent.ID, func(p *Parent) error {
			p.ChildrenIDs = append(p.ChildrenIDs, student.ID)
			return nil
		})
		if err != nil {
			return err
		}

		out = Enrollment{Student: student, Parent: parent, User: user}
		return nil
	}, func() string { return out.Student.ID })
	return out, res, err
}

// AttachStudentToParent links a student to a parent on both sides. A student
// already linked to another parent is detached from it first.
func (s *Service) AttachStudentToParent(ctx context.Context, studentID, parentID string) (Student, Result, error) {
	var updated Student
	res, err := s.run(ctx, "attach_student_to_parent", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		student, ok := view.FindStudent(studentID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityStudent, ID: studentID}
		}
		if _, ok := view.FindParent(parentID); !ok {
			return domain.NotFoundError{Entity: domain.EntityParent, ID: parentID}
		}
		if student.ParentID != nil && *student.ParentID != parentID {
			if _, err := tx.UpdateParent(*student.ParentID, func(p *Parent) error {
				p.ChildrenIDs = removeID(p.ChildrenIDs, studentID)
				return nil
			}); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateStudent(studentID, func(st *Student) error {
			st.ParentID = &parentID
			return nil
		})
		if err != nil {
			return err
		}
		_, err = tx.UpdateParent(parentID, func(p *Parent) error {
			if !containsID(p.ChildrenIDs, studentID) {
				p.ChildrenIDs = append(p.ChildrenIDs, studentID)
			}
			return nil
		})
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DetachStudentFromParent removes the parent link from both sides.
func (s *Service) DetachStudentFromParent(ctx context.Context, studentID string) (Student, Result, error) {
	var updated Student
	res, err := s.run(ctx, "detach_student_from_parent", func(tx domain.Transaction) error {
		student, ok := tx.Snapshot().FindStudent(studentID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityStudent, ID: studentID}
		}
		if student.ParentID != nil {
			if _, err := tx.UpdateParent(*student.ParentID, func(p *Parent) error {
				p.ChildrenIDs = removeID(p.ChildrenIDs, studentID)
				return nil
			}); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateStudent(studentID, func(st *Student) error {
			st.ParentID = nil
			return nil
		})
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// AssignTeacherToGroup writes the assignment on both the group and teacher
// records. Reassigning a group detaches its previous teacher.
func (s *Service) AssignTeacherToGroup(ctx context.Context, teacherID, groupID string) (Group, Result, error) {
	var updated Group
	res, err := s.run(ctx, "assign_teacher_to_group", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		group, ok := view.FindGroup(groupID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityGroup, ID: groupID}
		}
		if _, ok := view.FindTeacher(teacherID); !ok {
			return domain.NotFoundError{Entity: domain.EntityTeacher, ID: teacherID}
		}
		if group.TeacherID != nil && *group.TeacherID != teacherID {
			if _, err := tx.UpdateTeacher(*group.TeacherID, func(t *Teacher) error {
				t.GroupIDs = removeID(t.GroupIDs, groupID)
				return nil
			}); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateGroup(groupID, func(g *Group) error {
			g.TeacherID = &teacherID
			return nil
		})
		if err != nil {
			return err
		}
		_, err = tx.UpdateTeacher(teacherID, func(t *Teacher) error {
			if !containsID(t.GroupIDs, groupID) {
				t.GroupIDs = append(t.GroupIDs, groupID)
			}
			return nil
		})
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// UnassignTeacherFromGroup clears the assignment on both sides.
func (s *Service) UnassignTeacherFromGroup(ctx context.Context, teacherID, groupID string) (Group, Result, error) {
	var updated Group
	res, err := s.run(ctx, "unassign_teacher_from_group", func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().FindTeacher(teacherID); !ok {
			return domain.NotFoundError{Entity: domain.EntityTeacher, ID: teacherID}
		}
		var err error
		updated, err = tx.UpdateGroup(groupID, func(g *Group) error {
			if g.TeacherID != nil && *g.TeacherID == teacherID {
				g.TeacherID = nil
			}
			return nil
		})
		if err != nil {
			return err
		}
		_, err = tx.UpdateTeacher(teacherID, func(t *Teacher) error {
			t.GroupIDs = removeID(t.GroupIDs, groupID)
			return nil
		})
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// MoveStudentToGroup reassigns a student; the branch mirror follows the new
// group inside the same transaction.
func (s *Service) MoveStudentToGroup(ctx context.Context, studentID, groupID string) (Student, Result, error) {
	var updated Student
	res, err := s.run(ctx, "move_student_to_group", func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().FindGroup(groupID); !ok {
			return domain.NotFoundError{Entity: domain.EntityGroup, ID: groupID}
		}
		var err error
		updated, err = tx.UpdateStudent(studentID, func(st *Student) error {
			st.GroupID = groupID
			return nil
		})
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
