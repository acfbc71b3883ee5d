package core

import (
	"context"
	"fmt"

	"kindercore/pkg/domain"
)

// NewGroupDependentsRule returns the rule vetoing deletion of a group that
// students still reference. Orphaning students silently is never allowed;
// callers move or delete the students first.
func NewGroupDependentsRule() domain.Rule {
	return groupDependentsRule{}
}

type groupDependentsRule struct{}

func (groupDependentsRule) Name() string { return "group_dependents" }

func (groupDependentsRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityGroup || change.Action != domain.ActionDelete {
			continue
		}
		group, ok := change.Before.(domain.Group)
		if !ok {
			continue
		}
		students := 0
		for _, student := range view.ListStudents() {
			if student.GroupID == group.ID {
				students++
			}
		}
		if students > 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "group_dependents",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("group %s (%s) still has %d students assigned", group.Name, group.ID, students),
				Entity:   domain.EntityGroup,
				EntityID: group.ID,
			})
		}
	}
	return res, nil
}
