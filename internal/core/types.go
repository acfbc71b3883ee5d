package core

import "kindercore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Role               = domain.Role
	RecordType         = domain.RecordType
	Severity           = domain.Severity
	Base               = domain.Base
	Branch             = domain.Branch
	Group              = domain.Group
	Teacher            = domain.Teacher
	Student            = domain.Student
	Parent             = domain.Parent
	User               = domain.User
	FinancialRecord    = domain.FinancialRecord
	Meal               = domain.Meal
	Homework           = domain.Homework
	Vaccination        = domain.Vaccination
	SleepRecord        = domain.SleepRecord
	WarehouseItem      = domain.WarehouseItem
	Complaint          = domain.Complaint
	Activity           = domain.Activity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	ErrNotFound        = domain.NotFoundError
	ErrConflict        = domain.ConflictError
	ErrValidation      = domain.ValidationError
)

const (
	EntityBranch          = domain.EntityBranch
	EntityGroup           = domain.EntityGroup
	EntityTeacher         = domain.EntityTeacher
	EntityStudent         = domain.EntityStudent
	EntityParent          = domain.EntityParent
	EntityUser            = domain.EntityUser
	EntityFinancialRecord = domain.EntityFinancialRecord
	EntityMeal            = domain.EntityMeal
	EntityHomework        = domain.EntityHomework
	EntityVaccination     = domain.EntityVaccination
	EntitySleepRecord     = domain.EntitySleepRecord
	EntityWarehouseItem   = domain.EntityWarehouseItem
	EntityComplaint       = domain.EntityComplaint
	EntityActivity        = domain.EntityActivity
)

const (
	RoleDirector   = domain.RoleDirector
	RoleAdmin      = domain.RoleAdmin
	RoleTeacher    = domain.RoleTeacher
	RoleParent     = domain.RoleParent
	RoleSuperadmin = domain.RoleSuperadmin
)

const (
	RecordRevenue = domain.RecordRevenue
	RecordExpense = domain.RecordExpense
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
