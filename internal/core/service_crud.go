package core

import (
	"context"
	"strings"

	"kindercore/pkg/domain"
)

// CreateBranch persists a new branch.
func (s *Service) CreateBranch(ctx context.Context, branch Branch) (Branch, Result, error) {
	var created Branch
	res, err := s.run(ctx, "create_branch", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateBranch(branch)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateBranch mutates a branch using the provided mutator.
func (s *Service) UpdateBranch(ctx context.Context, id string, mutator func(*Branch) error) (Branch, Result, error) {
	var updated Branch
	res, err := s.run(ctx, "update_branch", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateBranch(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteBranch removes a branch. Branches that still own groups or students
// are vetoed by the rules engine.
func (s *Service) DeleteBranch(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_branch", func(tx domain.Transaction) error {
		return tx.DeleteBranch(id)
	}, func() string { return id })
}

// CreateGroup persists a new group.
func (s *Service) CreateGroup(ctx context.Context, group Group) (Group, Result, error) {
	var created Group
	res, err := s.run(ctx, "create_group", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateGroup(group)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateGroup mutates a group using the provided mutator.
func (s *Service) UpdateGroup(ctx context.Context, id string, mutator func(*Group) error) (Group, Result, error) {
	var updated Group
	res, err := s.run(ctx, "update_group", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateGroup(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteGroup removes a group. Groups with students assigned are vetoed by
// the rules engine; the owning teacher's assignment list is trimmed here.
func (s *Service) DeleteGroup(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_group", func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().FindGroup(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityGroup, ID: id}
		}
		for _, teacher := range tx.Snapshot().ListTeachers() {
			if containsID(teacher.GroupIDs, id) {
				if _, err := tx.UpdateTeacher(teacher.ID, func(t *Teacher) error {
					t.GroupIDs = removeID(t.GroupIDs, id)
					return nil
				}); err != nil {
					return err
				}
			}
		}
		return tx.DeleteGroup(id)
	}, func() string { return id })
}

// CreateTeacher persists a new teacher profile.
func (s *Service) CreateTeacher(ctx context.Context, teacher Teacher) (Teacher, Result, error) {
	var created Teacher
	res, err := s.run(ctx, "create_teacher", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTeacher(teacher)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateTeacher mutates a teacher using the provided mutator.
func (s *Service) UpdateTeacher(ctx context.Context, id string, mutator func(*Teacher) error) (Teacher, Result, error) {
	var updated Teacher
	res, err := s.run(ctx, "update_teacher", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateTeacher(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteTeacher removes a teacher profile. Groups pointing at it are
// unassigned and its login account is removed in the same transaction.
func (s *Service) DeleteTeacher(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_teacher", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		teacher, ok := view.FindTeacher(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityTeacher, ID: id}
		}
		for _, group := range view.ListGroups() {
			if group.TeacherID != nil && *group.TeacherID == id {
				if _, err := tx.UpdateGroup(group.ID, func(g *Group) error {
					g.TeacherID = nil
					return nil
				}); err != nil {
					return err
				}
			}
		}
		for _, user := range view.ListUsers() {
			if user.Role == domain.RoleTeacher && strings.EqualFold(user.Email, teacher.Email) {
				if err := tx.DeleteUser(user.ID); err != nil {
					return err
				}
			}
		}
		return tx.DeleteTeacher(id)
	}, func() string { return id })
}

// CreateStudent persists a new student.
func (s *Service) CreateStudent(ctx context.Context, student Student) (Student, Result, error) {
	var created Student
	res, err := s.run(ctx, "create_student", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStudent(student)
		if err != nil {
			return err
		}
		if created.ParentID != nil {
			_, err = tx.UpdateParent(*created.ParentID, func(p *Parent) error {
				if !containsID(p.ChildrenIDs, created.ID) {
					p.ChildrenIDs = append(p.ChildrenIDs, created.ID)
				}
				return nil
			})
		}
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateStudent mutates a student using the provided mutator.
func (s *Service) UpdateStudent(ctx context.Context, id string, mutator func(*Student) error) (Student, Result, error) {
	var updated Student
	res, err := s.run(ctx, "update_student", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateStudent(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteStudent removes a student and clears the entry in its parent's
// children list within the same transaction.
func (s *Service) DeleteStudent(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_student", func(tx domain.Transaction) error {
		student, ok := tx.Snapshot().FindStudent(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
		}
		if student.ParentID != nil {
			if _, err := tx.UpdateParent(*student.ParentID, func(p *Parent) error {
				p.ChildrenIDs = removeID(p.ChildrenIDs, id)
				return nil
			}); err != nil {
				return err
			}
		}
		return tx.DeleteStudent(id)
	}, func() string { return id })
}

// CreateParent persists a new parent profile.
func (s *Service) CreateParent(ctx context.Context, parent Parent) (Parent, Result, error) {
	var created Parent
	res, err := s.run(ctx, "create_parent", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateParent(parent)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateParent mutates a parent using the provided mutator.
func (s *Service) UpdateParent(ctx context.Context, id string, mutator func(*Parent) error) (Parent, Result, error) {
	var updated Parent
	res, err := s.run(ctx, "update_parent", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateParent(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteParent removes a parent profile. Its students survive with the link
// cleared, and the parent's login account is removed in the same transaction.
func (s *Service) DeleteParent(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_parent", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		parent, ok := view.FindParent(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityParent, ID: id}
		}
		for _, student := range view.ListStudents() {
			if student.ParentID != nil && *student.ParentID == id {
				if _, err := tx.UpdateStudent(student.ID, func(st *Student) error {
					st.ParentID = nil
					return nil
				}); err != nil {
					return err
				}
			}
		}
		for _, user := range view.ListUsers() {
			if user.Role == domain.RoleParent && strings.EqualFold(user.Email, parent.Email) {
				if err := tx.DeleteUser(user.ID); err != nil {
					return err
				}
			}
		}
		return tx.DeleteParent(id)
	}, func() string { return id })
}

// CreateUser persists a new login account.
func (s *Service) CreateUser(ctx context.Context, user User) (User, Result, error) {
	var created User
	res, err := s.run(ctx, "create_user", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateUser(user)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateUser mutates a login account using the provided mutator.
func (s *Service) UpdateUser(ctx context.Context, id string, mutator func(*User) error) (User, Result, error) {
	var updated User
	res, err := s.run(ctx, "update_user", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateUser(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteUser removes a login account.
func (s *Service) DeleteUser(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_user", func(tx domain.Transaction) error {
		return tx.DeleteUser(id)
	}, func() string { return id })
}

// CreateFinancialRecord persists a revenue or expense entry.
func (s *Service) CreateFinancialRecord(ctx context.Context, record FinancialRecord) (FinancialRecord, Result, error) {
	var created FinancialRecord
	res, err := s.run(ctx, "create_financial_record", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateFinancialRecord(record)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateFinancialRecord mutates a financial record.
func (s *Service) UpdateFinancialRecord(ctx context.Context, id string, mutator func(*FinancialRecord) error) (FinancialRecord, Result, error) {
	var updated FinancialRecord
	res, err := s.run(ctx, "update_financial_record", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateFinancialRecord(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteFinancialRecord removes a financial record.
func (s *Service) DeleteFinancialRecord(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_financial_record", func(tx domain.Transaction) error {
		return tx.DeleteFinancialRecord(id)
	}, func() string { return id })
}

// CreateMeal persists a meal entry.
func (s *Service) CreateMeal(ctx context.Context, meal Meal) (Meal, Result, error) {
	var created Meal
	res, err := s.run(ctx, "create_meal", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateMeal(meal)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateMeal mutates a meal entry.
func (s *Service) UpdateMeal(ctx context.Context, id string, mutator func(*Meal) error) (Meal, Result, error) {
	var updated Meal
	res, err := s.run(ctx, "update_meal", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMeal(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteMeal removes a meal entry.
func (s *Service) DeleteMeal(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_meal", func(tx domain.Transaction) error {
		return tx.DeleteMeal(id)
	}, func() string { return id })
}

// CreateHomework persists a homework assignment.
func (s *Service) CreateHomework(ctx context.Context, homework Homework) (Homework, Result, error) {
	var created Homework
	res, err := s.run(ctx, "create_homework", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateHomework(homework)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateHomework mutates a homework assignment.
func (s *Service) UpdateHomework(ctx context.Context, id string, mutator func(*Homework) error) (Homework, Result, error) {
	var updated Homework
	res, err := s.run(ctx, "update_homework", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateHomework(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteHomework removes a homework assignment.
func (s *Service) DeleteHomework(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_homework", func(tx domain.Transaction) error {
		return tx.DeleteHomework(id)
	}, func() string { return id })
}

// CreateVaccination persists a vaccination record.
func (s *Service) CreateVaccination(ctx context.Context, vaccination Vaccination) (Vaccination, Result, error) {
	var created Vaccination
	res, err := s.run(ctx, "create_vaccination", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateVaccination(vaccination)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateVaccination mutates a vaccination record.
func (s *Service) UpdateVaccination(ctx context.Context, id string, mutator func(*Vaccination) error) (Vaccination, Result, error) {
	var updated Vaccination
	res, err := s.run(ctx, "update_vaccination", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateVaccination(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteVaccination removes a vaccination record.
func (s *Service) DeleteVaccination(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_vaccination", func(tx domain.Transaction) error {
		return tx.DeleteVaccination(id)
	}, func() string { return id })
}

// CreateSleepRecord persists a sleep record.
func (s *Service) CreateSleepRecord(ctx context.Context, record SleepRecord) (SleepRecord, Result, error) {
	var created SleepRecord
	res, err := s.run(ctx, "create_sleep_record", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateSleepRecord(record)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateSleepRecord mutates a sleep record.
func (s *Service) UpdateSleepRecord(ctx context.Context, id string, mutator func(*SleepRecord) error) (SleepRecord, Result, error) {
	var updated SleepRecord
	res, err := s.run(ctx, "update_sleep_record", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSleepRecord(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteSleepRecord removes a sleep record.
func (s *Service) DeleteSleepRecord(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_sleep_record", func(tx domain.Transaction) error {
		return tx.DeleteSleepRecord(id)
	}, func() string { return id })
}

// CreateWarehouseItem persists an inventory item.
func (s *Service) CreateWarehouseItem(ctx context.Context, item WarehouseItem) (WarehouseItem, Result, error) {
	var created WarehouseItem
	res, err := s.run(ctx, "create_warehouse_item", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateWarehouseItem(item)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateWarehouseItem mutates an inventory item.
func (s *Service) UpdateWarehouseItem(ctx context.Context, id string, mutator func(*WarehouseItem) error) (WarehouseItem, Result, error) {
	var updated WarehouseItem
	res, err := s.run(ctx, "update_warehouse_item", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateWarehouseItem(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteWarehouseItem removes an inventory item.
func (s *Service) DeleteWarehouseItem(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_warehouse_item", func(tx domain.Transaction) error {
		return tx.DeleteWarehouseItem(id)
	}, func() string { return id })
}

// CreateComplaint persists a complaint.
func (s *Service) CreateComplaint(ctx context.Context, complaint Complaint) (Complaint, Result, error) {
	var created Complaint
	res, err := s.run(ctx, "create_complaint", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateComplaint(complaint)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateComplaint mutates a complaint.
func (s *Service) UpdateComplaint(ctx context.Context, id string, mutator func(*Complaint) error) (Complaint, Result, error) {
	var updated Complaint
	res, err := s.run(ctx, "update_complaint", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateComplaint(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteComplaint removes a complaint.
func (s *Service) DeleteComplaint(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_complaint", func(tx domain.Transaction) error {
		return tx.DeleteComplaint(id)
	}, func() string { return id })
}

// CreateActivity persists an activity.
func (s *Service) CreateActivity(ctx context.Context, activity Activity) (Activity, Result, error) {
	var created Activity
	res, err := s.run(ctx, "create_activity", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateActivity(activity)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateActivity mutates an activity.
func (s *Service) UpdateActivity(ctx context.Context, id string, mutator func(*Activity) error) (Activity, Result, error) {
	var updated Activity
	res, err := s.run(ctx, "update_activity", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateActivity(id, mutator)
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteActivity removes an activity.
func (s *Service) DeleteActivity(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_activity", func(tx domain.Transaction) error {
		return tx.DeleteActivity(id)
	}, func() string { return id })
}
