package core

import (
	"context"
	"fmt"

	"kindercore/pkg/domain"
)

// NewBranchCapacityRule returns the rule warning when a branch holds more
// students than its declared capacity. Overage is reported, not rejected,
// so an enrollment that tips a branch past its limit still commits.
func NewBranchCapacityRule() domain.Rule {
	return branchCapacityRule{}
}

type branchCapacityRule struct{}

func (branchCapacityRule) Name() string { return "branch_capacity" }

func (branchCapacityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	occupancy := make(map[string]int)
	for _, student := range view.ListStudents() {
		occupancy[student.BranchID]++
	}

	for _, branch := range view.ListBranches() {
		count := occupancy[branch.ID]
		if branch.Capacity > 0 && count > branch.Capacity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "branch_capacity",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("branch %s (%s) holds %d students over capacity %d", branch.Name, branch.ID, count, branch.Capacity),
				Entity:   domain.EntityBranch,
				EntityID: branch.ID,
			})
		}
	}

	return res, nil
}
