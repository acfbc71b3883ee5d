package core

import (
	"context"
	"fmt"

	"kindercore/pkg/domain"
)

// NewBranchOwnershipRule returns the rule vetoing deletion of a branch that
// still owns groups or students. The caller must reassign or delete the
// dependents first; nothing is cascaded.
func NewBranchOwnershipRule() domain.Rule {
	return branchOwnershipRule{}
}

type branchOwnershipRule struct{}

func (branchOwnershipRule) Name() string { return "branch_ownership" }

func (branchOwnershipRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityBranch || change.Action != domain.ActionDelete {
			continue
		}
		branch, ok := change.Before.(domain.Branch)
		if !ok {
			continue
		}
		groups := 0
		for _, group := range view.ListGroups() {
			if group.BranchID == branch.ID {
				groups++
			}
		}
		students := 0
		for _, student := range view.ListStudents() {
			if student.BranchID == branch.ID {
				students++
			}
		}
		if groups > 0 || students > 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "branch_ownership",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("branch %s (%s) still owns %d groups and %d students", branch.Name, branch.ID, groups, students),
				Entity:   domain.EntityBranch,
				EntityID: branch.ID,
			})
		}
	}
	return res, nil
}
