// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by kindercore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityBranch identifies a kindergarten branch record.
	EntityBranch EntityType = "branch"
	// EntityGroup identifies a group (classroom) record.
	EntityGroup EntityType = "group"
	// EntityTeacher identifies a teacher record.
	EntityTeacher EntityType = "teacher"
	// EntityStudent identifies a student record.
	EntityStudent EntityType = "student"
	// EntityParent identifies a parent record.
	EntityParent EntityType = "parent"
	// EntityUser identifies a user account record.
	EntityUser EntityType = "user"
	// EntityFinancialRecord identifies a revenue or expense record.
	EntityFinancialRecord EntityType = "financial_record"
	// EntityMeal identifies a meal plan record.
	EntityMeal EntityType = "meal"
	// EntityHomework identifies a homework assignment record.
	EntityHomework EntityType = "homework"
	// EntityVaccination identifies a vaccination record.
	EntityVaccination EntityType = "vaccination"
	// EntitySleepRecord identifies a sleep tracking record.
	EntitySleepRecord EntityType = "sleep_record"
	// EntityWarehouseItem identifies a warehouse stock record.
	EntityWarehouseItem EntityType = "warehouse_item"
	// EntityComplaint identifies a complaint record.
	EntityComplaint EntityType = "complaint"
	// EntityActivity identifies a group activity record.
	EntityActivity EntityType = "activity"
)

// Role enumerates the caller roles recognised by the scope resolver.
type Role string

// Canonical roles carried on User records.
const (
	// RoleDirector manages one branch, or all branches when unassigned.
	RoleDirector Role = "director"
	// RoleAdmin administers one branch, or all branches when unassigned.
	RoleAdmin Role = "admin"
	// RoleTeacher is scoped to the groups assigned to the teacher.
	RoleTeacher Role = "teacher"
	// RoleParent is scoped to the parent's own children.
	RoleParent Role = "parent"
	// RoleSuperadmin sees platform-level totals only.
	RoleSuperadmin Role = "superadmin"
)

// RecordType distinguishes financial record directions.
type RecordType string

// Financial record directions.
const (
	RecordRevenue RecordType = "revenue"
	RecordExpense RecordType = "expense"
)

// Status values shared by teachers, students, and users.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records. Seq is a store-assigned
// monotonic counter preserving insertion order across snapshots.
type Base struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Branch represents a physical kindergarten location.
type Branch struct {
	Base
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Capacity  int     `json:"capacity"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Group represents a classroom within a branch. TeacherID is the legacy
// single-pointer assignment; Teacher.GroupIDs is the explicit many-to-many
// side. Reads union both, writes keep both in step.
type Group struct {
	Base
	Name      string  `json:"name"`
	AgeRange  string  `json:"age_range"`
	BranchID  string  `json:"branch_id"`
	TeacherID *string `json:"teacher_id"`
}

// Teacher represents a staff member able to log in via email.
type Teacher struct {
	Base
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Specialization string   `json:"specialization"`
	BranchID       string   `json:"branch_id"`
	GroupIDs       []string `json:"group_ids"`
	Status         string   `json:"status"`
}

// Student represents an enrolled child. BranchID mirrors the branch of the
// student's group and is maintained by the store write path.
type Student struct {
	Base
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	GroupID        string    `json:"group_id"`
	BranchID       string    `json:"branch_id"`
	ParentID       *string   `json:"parent_id"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	Status         string    `json:"status"`
}

// Parent represents a guardian able to log in via email. ChildrenIDs stays
// symmetric with Student.ParentID.
type Parent struct {
	Base
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	ChildrenIDs []string `json:"children_ids"`
}

// User is the authentication/authorization record shadowing Teacher/Parent
// identity for login. BranchID is set for branch-locked directors, admins and
// teachers, absent for parents and the superadmin.
type User struct {
	Base
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     Role    `json:"role"`
	Status   string  `json:"status"`
	BranchID *string `json:"branch_id"`
}

// FinancialRecord captures a single revenue or expense entry for a branch.
type FinancialRecord struct {
	Base
	Type        RecordType `json:"type"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	Date        time.Time  `json:"date"`
	Description string     `json:"description"`
	BranchID    string     `json:"branch_id"`
}

// Meal describes a planned meal for a branch, optionally narrowed to a group.
type Meal struct {
	Base
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Date     time.Time `json:"date"`
	BranchID string    `json:"branch_id"`
	GroupID  *string   `json:"group_id"`
	Menu     string    `json:"menu"`
	Notes    string    `json:"notes"`
}

// Homework is an assignment issued to a group.
type Homework struct {
	Base
	Title       string    `json:"title"`
	Description string    `json:"description"`
	GroupID     string    `json:"group_id"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
}

// Vaccination records an immunization entry for a student.
type Vaccination struct {
	Base
	StudentID string    `json:"student_id"`
	Vaccine   string    `json:"vaccine"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
}

// SleepRecord tracks one nap session for a student.
type SleepRecord struct {
	Base
	StudentID string    `json:"student_id"`
	GroupID   string    `json:"group_id"`
	Date      time.Time `json:"date"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Quality   string    `json:"quality"`
}

// WarehouseItem tracks stock held by a branch.
type WarehouseItem struct {
	Base
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	BranchID    string  `json:"branch_id"`
	MinQuantity float64 `json:"min_quantity"`
}

// Complaint is a parent-submitted issue, optionally tied to a student.
type Complaint struct {
	Base
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ParentID  string    `json:"parent_id"`
	StudentID *string   `json:"student_id"`
	BranchID  string    `json:"branch_id"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

// Activity is a scheduled group activity.
type Activity struct {
	Base
	Title       string    `json:"title"`
	Description string    `json:"description"`
	GroupID     string    `json:"group_id"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the change log.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
