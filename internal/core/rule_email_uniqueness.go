package core

import (
	"context"
	"fmt"
	"strings"

	"kindercore/pkg/domain"
)

// NewEmailUniquenessRule returns the rule enforcing case-insensitive email
// uniqueness across teachers, parents, and users. A user account may share
// the email of exactly one teacher or parent when its role matches that
// profile; any other collision blocks the transaction.
func NewEmailUniquenessRule() domain.Rule {
	return emailUniquenessRule{}
}

type emailUniquenessRule struct{}

func (emailUniquenessRule) Name() string { return "email_uniqueness" }

func emailViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "email_uniqueness",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}

func (emailUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	teacherByEmail := make(map[string]domain.Teacher)
	for _, teacher := range view.ListTeachers() {
		key := strings.ToLower(teacher.Email)
		if prior, dup := teacherByEmail[key]; dup {
			res.Violations = append(res.Violations, emailViolation(domain.EntityTeacher, teacher.ID,
				fmt.Sprintf("teachers %s and %s share email %s", prior.ID, teacher.ID, key)))
			continue
		}
		teacherByEmail[key] = teacher
	}

	parentByEmail := make(map[string]domain.Parent)
	for _, parent := range view.ListParents() {
		key := strings.ToLower(parent.Email)
		if prior, dup := parentByEmail[key]; dup {
			res.Violations = append(res.Violations, emailViolation(domain.EntityParent, parent.ID,
				fmt.Sprintf("parents %s and %s share email %s", prior.ID, parent.ID, key)))
			continue
		}
		if _, taken := teacherByEmail[key]; taken {
			res.Violations = append(res.Violations, emailViolation(domain.EntityParent, parent.ID,
				fmt.Sprintf("parent %s reuses teacher email %s", parent.ID, key)))
			continue
		}
		parentByEmail[key] = parent
	}

	userByEmail := make(map[string]domain.User)
	for _, user := range view.ListUsers() {
		key := strings.ToLower(user.Email)
		if prior, dup := userByEmail[key]; dup {
			res.Violations = append(res.Violations, emailViolation(domain.EntityUser, user.ID,
				fmt.Sprintf("users %s and %s share email %s", prior.ID, user.ID, key)))
			continue
		}
		userByEmail[key] = user
		if _, isTeacher := teacherByEmail[key]; isTeacher && user.Role != domain.RoleTeacher {
			res.Violations = append(res.Violations, emailViolation(domain.EntityUser, user.ID,
				fmt.Sprintf("user %s with role %s reuses teacher email %s", user.ID, user.Role, key)))
		}
		if _, isParent := parentByEmail[key]; isParent && user.Role != domain.RoleParent {
			res.Violations = append(res.Violations, emailViolation(domain.EntityUser, user.ID,
				fmt.Sprintf("user %s with role %s reuses parent email %s", user.ID, user.Role, key)))
		}
	}

	return res, nil
}
