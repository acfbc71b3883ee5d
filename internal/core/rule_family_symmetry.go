package core

import (
	"context"
	"fmt"

	"kindercore/pkg/domain"
)

// NewFamilySymmetryRule returns the rule enforcing the dual-linked
// parent/student relation: every ID in Parent.ChildrenIDs names a student
// whose ParentID points back, and every Student.ParentID names a parent
// that lists the student.
func NewFamilySymmetryRule() domain.Rule {
	return familySymmetryRule{}
}

type familySymmetryRule struct{}

func (familySymmetryRule) Name() string { return "family_symmetry" }

func familyViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "family_symmetry",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}

func (familySymmetryRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	students := make(map[string]domain.Student)
	for _, student := range view.ListStudents() {
		students[student.ID] = student
	}
	parents := make(map[string]domain.Parent)
	for _, parent := range view.ListParents() {
		parents[parent.ID] = parent
	}

	for _, parent := range view.ListParents() {
		for _, childID := range parent.ChildrenIDs {
			child, ok := students[childID]
			if !ok {
				res.Violations = append(res.Violations, familyViolation(domain.EntityParent, parent.ID,
					fmt.Sprintf("parent %s lists missing child %s", parent.ID, childID)))
				continue
			}
			if child.ParentID == nil || *child.ParentID != parent.ID {
				res.Violations = append(res.Violations, familyViolation(domain.EntityParent, parent.ID,
					fmt.Sprintf("parent %s lists child %s that does not point back", parent.ID, childID)))
			}
		}
	}

	for _, student := range view.ListStudents() {
		if student.ParentID == nil {
			continue
		}
		parent, ok := parents[*student.ParentID]
		if !ok {
			res.Violations = append(res.Violations, familyViolation(domain.EntityStudent, student.ID,
				fmt.Sprintf("student %s references missing parent %s", student.ID, *student.ParentID)))
			continue
		}
		if !containsID(parent.ChildrenIDs, student.ID) {
			res.Violations = append(res.Violations, familyViolation(domain.EntityStudent, student.ID,
				fmt.Sprintf("student %s is not listed by parent %s", student.ID, parent.ID)))
		}
	}

	return res, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
