// Package scope resolves the data visible to a caller based on its role and
// resolved domain identity. Scopes are computed against a read-only store
// view; accessors filter collections and refuse categorically excluded ones.
package scope

import (
	"strings"

	"kindercore/pkg/domain"
)

// Kind tags the resolved scope variant.
type Kind string

const (
	// KindEmpty is the fail-closed scope for unresolved identities.
	KindEmpty Kind = "empty"
	// KindGlobal sees every branch, optionally narrowed by a branch filter.
	KindGlobal Kind = "global"
	// KindBranch is locked to a single branch.
	KindBranch Kind = "branch"
	// KindTeacher is limited to the teacher's assigned groups.
	KindTeacher Kind = "teacher"
	// KindParent is limited to the parent's own children.
	KindParent Kind = "parent"
	// KindPlatform sees directory data for platform-level totals.
	KindPlatform Kind = "platform"
)

// Identity carries the session attributes used for resolution. BranchID is
// the branch lock for directors and admins; teachers and parents are located
// by email instead.
type Identity struct {
	Email    string
	Role     domain.Role
	BranchID *string
}

// IdentityFromUser derives the resolver input from a login account.
func IdentityFromUser(user domain.User) Identity {
	return Identity{Email: user.Email, Role: user.Role, BranchID: user.BranchID}
}

// Scope is the resolved visibility for one caller.
type Scope struct {
	kind     Kind
	role     domain.Role
	view     domain.TransactionView
	branchID string
	filter   string
	teacher  domain.Teacher
	parent   domain.Parent
}

// Kind reports the resolved variant.
func (s Scope) Kind() Kind { return s.kind }

// Role reports the caller role the scope was resolved for.
func (s Scope) Role() domain.Role { return s.role }

// Teacher returns the resolved teacher identity for teacher scopes.
func (s Scope) Teacher() (domain.Teacher, bool) {
	return s.teacher, s.kind == KindTeacher
}

// Parent returns the resolved parent identity for parent scopes.
func (s Scope) Parent() (domain.Parent, bool) {
	return s.parent, s.kind == KindParent
}

// BranchID returns the branch lock for branch scopes.
func (s Scope) BranchID() (string, bool) {
	return s.branchID, s.kind == KindBranch
}

// Resolve computes the scope for the given identity against the view. An
// identity whose teacher or parent profile cannot be located resolves to the
// empty scope: nothing is visible, nothing is denied loudly.
func Resolve(view domain.TransactionView, identity Identity) Scope {
	s := Scope{kind: KindEmpty, role: identity.Role, view: view}
	switch identity.Role {
	case domain.RoleDirector, domain.RoleAdmin:
		if identity.BranchID != nil && *identity.BranchID != "" {
			s.kind = KindBranch
			s.branchID = *identity.BranchID
			return s
		}
		s.kind = KindGlobal
		return s
	case domain.RoleTeacher:
		teacher, ok := findTeacherByEmail(view, identity.Email)
		if !ok {
			return s
		}
		s.kind = KindTeacher
		s.teacher = teacher
		return s
	case domain.RoleParent:
		parent, ok := findParentByEmail(view, identity.Email)
		if !ok {
			return s
		}
		s.kind = KindParent
		s.parent = parent
		return s
	case domain.RoleSuperadmin:
		s.kind = KindPlatform
		return s
	default:
		return s
	}
}

// WithBranchFilter requests narrowing to one branch. Global scopes honor it;
// a branch lock ignores any filter other than its own branch; every other
// scope is unchanged.
func (s Scope) WithBranchFilter(branchID string) Scope {
	switch s.kind {
	case KindGlobal:
		s.filter = branchID
	case KindBranch:
		// The lock can never be widened or moved.
	}
	return s
}

func findTeacherByEmail(view domain.TransactionView, email string) (domain.Teacher, bool) {
	for _, teacher := range view.ListTeachers() {
		if strings.EqualFold(teacher.Email, email) {
			return teacher, true
		}
	}
	return domain.Teacher{}, false
}

func findParentByEmail(view domain.TransactionView, email string) (domain.Parent, bool) {
	for _, parent := range view.ListParents() {
		if strings.EqualFold(parent.Email, email) {
			return parent, true
		}
	}
	return domain.Parent{}, false
}

// effectiveBranch returns the branch constraint for branch and filtered
// global scopes, empty when unconstrained.
func (s Scope) effectiveBranch() string {
	switch s.kind {
	case KindBranch:
		return s.branchID
	case KindGlobal:
		return s.filter
	}
	return ""
}

func (s Scope) denied(collection domain.EntityType) error {
	return domain.AccessDeniedError{Role: s.role, Collection: collection}
}

// groupSet returns the ids of groups visible to teacher and parent scopes.
// For teachers it unions the explicit assignment list with the legacy group
// pointer; for parents it collects the children's groups.
func (s Scope) groupSet() map[string]struct{} {
	set := make(map[string]struct{})
	switch s.kind {
	case KindTeacher:
		for _, id := range s.teacher.GroupIDs {
			set[id] = struct{}{}
		}
		for _, group := range s.view.ListGroups() {
			if group.TeacherID != nil && *group.TeacherID == s.teacher.ID {
				set[group.ID] = struct{}{}
			}
		}
	case KindParent:
		for _, student := range s.childStudents() {
			set[student.GroupID] = struct{}{}
		}
	}
	return set
}

func (s Scope) childStudents() []domain.Student {
	children := make(map[string]struct{}, len(s.parent.ChildrenIDs))
	for _, id := range s.parent.ChildrenIDs {
		children[id] = struct{}{}
	}
	var out []domain.Student
	for _, student := range s.view.ListStudents() {
		if _, ok := children[student.ID]; ok {
			out = append(out, student)
		}
	}
	return out
}

func (s Scope) childBranchSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, student := range s.childStudents() {
		set[student.BranchID] = struct{}{}
	}
	return set
}
