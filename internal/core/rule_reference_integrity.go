package core

import (
	"context"
	"fmt"

	"kindercore/pkg/domain"
)

// NewReferenceIntegrityRule returns the rule checking the ownership chain:
// every group belongs to an existing branch, every student to an existing
// group, the student branch mirror matches the group's branch, and leaf
// records point at existing owners.
func NewReferenceIntegrityRule() domain.Rule {
	return referenceIntegrityRule{}
}

type referenceIntegrityRule struct{}

func (referenceIntegrityRule) Name() string { return "reference_integrity" }

func referenceViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "reference_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}

func (referenceIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	branches := make(map[string]domain.Branch)
	for _, branch := range view.ListBranches() {
		branches[branch.ID] = branch
	}
	groups := make(map[string]domain.Group)
	for _, group := range view.ListGroups() {
		groups[group.ID] = group
	}
	teachers := make(map[string]domain.Teacher)
	for _, teacher := range view.ListTeachers() {
		teachers[teacher.ID] = teacher
	}
	students := make(map[string]domain.Student)
	for _, student := range view.ListStudents() {
		students[student.ID] = student
	}

	for _, group := range view.ListGroups() {
		if _, ok := branches[group.BranchID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityGroup, group.ID,
				fmt.Sprintf("group %s references missing branch %s", group.ID, group.BranchID)))
		}
		if group.TeacherID != nil {
			if _, ok := teachers[*group.TeacherID]; !ok {
				res.Violations = append(res.Violations, referenceViolation(domain.EntityGroup, group.ID,
					fmt.Sprintf("group %s references missing teacher %s", group.ID, *group.TeacherID)))
			}
		}
	}

	for _, teacher := range view.ListTeachers() {
		for _, groupID := range teacher.GroupIDs {
			if _, ok := groups[groupID]; !ok {
				res.Violations = append(res.Violations, referenceViolation(domain.EntityTeacher, teacher.ID,
					fmt.Sprintf("teacher %s is assigned to missing group %s", teacher.ID, groupID)))
			}
		}
	}

	for _, student := range view.ListStudents() {
		group, ok := groups[student.GroupID]
		if !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityStudent, student.ID,
				fmt.Sprintf("student %s references missing group %s", student.ID, student.GroupID)))
			continue
		}
		if student.BranchID != group.BranchID {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityStudent, student.ID,
				fmt.Sprintf("student %s branch %s drifted from group branch %s", student.ID, student.BranchID, group.BranchID)))
		}
	}

	for _, hw := range view.ListHomework() {
		if _, ok := groups[hw.GroupID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityHomework, hw.ID,
				fmt.Sprintf("homework %s references missing group %s", hw.ID, hw.GroupID)))
		}
	}
	for _, activity := range view.ListActivities() {
		if _, ok := groups[activity.GroupID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityActivity, activity.ID,
				fmt.Sprintf("activity %s references missing group %s", activity.ID, activity.GroupID)))
		}
	}
	for _, vac := range view.ListVaccinations() {
		if _, ok := students[vac.StudentID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityVaccination, vac.ID,
				fmt.Sprintf("vaccination %s references missing student %s", vac.ID, vac.StudentID)))
		}
	}
	for _, rec := range view.ListSleepRecords() {
		if _, ok := students[rec.StudentID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntitySleepRecord, rec.ID,
				fmt.Sprintf("sleep record %s references missing student %s", rec.ID, rec.StudentID)))
		}
	}
	for _, meal := range view.ListMeals() {
		if _, ok := branches[meal.BranchID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityMeal, meal.ID,
				fmt.Sprintf("meal %s references missing branch %s", meal.ID, meal.BranchID)))
		}
		if meal.GroupID != nil {
			if _, ok := groups[*meal.GroupID]; !ok {
				res.Violations = append(res.Violations, referenceViolation(domain.EntityMeal, meal.ID,
					fmt.Sprintf("meal %s references missing group %s", meal.ID, *meal.GroupID)))
			}
		}
	}
	for _, rec := range view.ListFinancialRecords() {
		if _, ok := branches[rec.BranchID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityFinancialRecord, rec.ID,
				fmt.Sprintf("financial record %s references missing branch %s", rec.ID, rec.BranchID)))
		}
	}
	for _, item := range view.ListWarehouseItems() {
		if _, ok := branches[item.BranchID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityWarehouseItem, item.ID,
				fmt.Sprintf("warehouse item %s references missing branch %s", item.ID, item.BranchID)))
		}
	}
	parents := make(map[string]domain.Parent)
	for _, parent := range view.ListParents() {
		parents[parent.ID] = parent
	}
	for _, complaint := range view.ListComplaints() {
		if _, ok := parents[complaint.ParentID]; !ok {
			res.Violations = append(res.Violations, referenceViolation(domain.EntityComplaint, complaint.ID,
				fmt.Sprintf("complaint %s references missing parent %s", complaint.ID, complaint.ParentID)))
		}
	}

	return res, nil
}
