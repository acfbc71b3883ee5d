package scope

import "kindercore/pkg/domain"

// Branches returns the branches visible to the caller.
func (s Scope) Branches() ([]domain.Branch, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher:
		return nil, s.denied(domain.EntityBranch)
	case KindParent:
		branches := s.childBranchSet()
		var out []domain.Branch
		for _, branch := range s.view.ListBranches() {
			if _, ok := branches[branch.ID]; ok {
				out = append(out, branch)
			}
		}
		return out, nil
	}
	constraint := s.effectiveBranch()
	var out []domain.Branch
	for _, branch := range s.view.ListBranches() {
		if constraint == "" || branch.ID == constraint {
			out = append(out, branch)
		}
	}
	return out, nil
}

// Groups returns the groups visible to the caller.
func (s Scope) Groups() ([]domain.Group, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher, KindParent:
		allowed := s.groupSet()
		var out []domain.Group
		for _, group := range s.view.ListGroups() {
			if _, ok := allowed[group.ID]; ok {
				out = append(out, group)
			}
		}
		return out, nil
	}
	constraint := s.effectiveBranch()
	var out []domain.Group
	for _, group := range s.view.ListGroups() {
		if constraint == "" || group.BranchID == constraint {
			out = append(out, group)
		}
	}
	return out, nil
}

// Teachers returns the teachers visible to the caller.
func (s Scope) Teachers() ([]domain.Teacher, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher:
		return []domain.Teacher{s.teacher}, nil
	case KindParent:
		allowed := s.groupSet()
		var out []domain.Teacher
		for _, teacher := range s.view.ListTeachers() {
			if teacherTouchesGroups(s.view, teacher, allowed) {
				out = append(out, teacher)
			}
		}
		return out, nil
	}
	constraint := s.effectiveBranch()
	var out []domain.Teacher
	for _, teacher := range s.view.ListTeachers() {
		if constraint == "" || teacher.BranchID == constraint {
			out = append(out, teacher)
		}
	}
	return out, nil
}

func teacherTouchesGroups(view domain.TransactionView, teacher domain.Teacher, allowed map[string]struct{}) bool {
	for _, id := range teacher.GroupIDs {
		if _, ok := allowed[id]; ok {
			return true
		}
	}
	for _, group := range view.ListGroups() {
		if group.TeacherID != nil && *group.TeacherID == teacher.ID {
			if _, ok := allowed[group.ID]; ok {
				return true
			}
		}
	}
	return false
}

// Students returns the students visible to the caller.
func (s Scope) Students() ([]domain.Student, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher:
		allowed := s.groupSet()
		var out []domain.Student
		for _, student := range s.view.ListStudents() {
			if _, ok := allowed[student.GroupID]; ok {
				out = append(out, student)
			}
		}
		return out, nil
	case KindParent:
		return s.childStudents(), nil
	}
	constraint := s.effectiveBranch()
	var out []domain.Student
	for _, student := range s.view.ListStudents() {
		if constraint == "" || student.BranchID == constraint {
			out = append(out, student)
		}
	}
	return out, nil
}

// Parents returns the parents visible to the caller.
func (s Scope) Parents() ([]domain.Parent, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindParent:
		return []domain.Parent{s.parent}, nil
	case KindTeacher:
		students, err := s.Students()
		if err != nil {
			return nil, err
		}
		linked := make(map[string]struct{})
		for _, student := range students {
			if student.ParentID != nil {
				linked[*student.ParentID] = struct{}{}
			}
		}
		var out []domain.Parent
		for _, parent := range s.view.ListParents() {
			if _, ok := linked[parent.ID]; ok {
				out = append(out, parent)
			}
		}
		return out, nil
	}
	constraint := s.effectiveBranch()
	if constraint == "" {
		return s.view.ListParents(), nil
	}
	inBranch := make(map[string]struct{})
	for _, student := range s.view.ListStudents() {
		if student.BranchID == constraint && student.ParentID != nil {
			inBranch[*student.ParentID] = struct{}{}
		}
	}
	var out []domain.Parent
	for _, parent := range s.view.ListParents() {
		if _, ok := inBranch[parent.ID]; ok {
			out = append(out, parent)
		}
	}
	return out, nil
}

// Users returns the login accounts visible to the caller.
func (s Scope) Users() ([]domain.User, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher, KindParent:
		return nil, s.denied(domain.EntityUser)
	}
	constraint := s.effectiveBranch()
	var out []domain.User
	for _, user := range s.view.ListUsers() {
		if constraint == "" || (user.BranchID != nil && *user.BranchID == constraint) {
			out = append(out, user)
		}
	}
	return out, nil
}

// FinancialRecords returns the financial records visible to the caller.
func (s Scope) FinancialRecords() ([]domain.FinancialRecord, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher, KindParent:
		return nil, s.denied(domain.EntityFinancialRecord)
	}
	constraint := s.effectiveBranch()
	var out []domain.FinancialRecord
	for _, record := range s.view.ListFinancialRecords() {
		if constraint == "" || record.BranchID == constraint {
			out = append(out, record)
		}
	}
	return out, nil
}

// Meals returns the meals visible to the caller.
func (s Scope) Meals() ([]domain.Meal, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindPlatform:
		return nil, s.denied(domain.EntityMeal)
	case KindTeacher:
		allowed := s.groupSet()
		var out []domain.Meal
		for _, meal := range s.view.ListMeals() {
			if meal.GroupID != nil {
				if _, ok := allowed[*meal.GroupID]; ok {
					out = append(out, meal)
				}
				continue
			}
			if meal.BranchID == s.teacher.BranchID {
				out = append(out, meal)
			}
		}
		return out, nil
	case KindParent:
		allowed := s.groupSet()
		branches := s.childBranchSet()
		var out []domain.Meal
		for _, meal := range s.view.ListMeals() {
			if meal.GroupID != nil {
				if _, ok := allowed[*meal.GroupID]; ok {
					out = append(out, meal)
				}
				continue
			}
			if _, ok := branches[meal.BranchID]; ok {
				out = append(out, meal)
			}
		}
		return out, nil
	}
	constraint := s.effectiveBranch()
	var out []domain.Meal
	for _, meal := range s.view.ListMeals() {
		if constraint == "" || meal.BranchID == constraint {
			out = append(out, meal)
		}
	}
	return out, nil
}

// Homework returns the homework assignments visible to the caller.
func (s Scope) Homework() ([]domain.Homework, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindPlatform:
		return nil, s.denied(domain.EntityHomework)
	case KindTeacher, KindParent:
		allowed := s.groupSet()
		var out []domain.Homework
		for _, hw := range s.view.ListHomework() {
			if _, ok := allowed[hw.GroupID]; ok {
				out = append(out, hw)
			}
		}
		return out, nil
	}
	allowed := s.branchGroupSet()
	var out []domain.Homework
	for _, hw := range s.view.ListHomework() {
		if allowed == nil {
			out = append(out, hw)
			continue
		}
		if _, ok := allowed[hw.GroupID]; ok {
			out = append(out, hw)
		}
	}
	return out, nil
}

// Vaccinations returns the vaccination records visible to the caller.
// Teachers are categorically refused: health records stay between the branch
// administration and the family.
func (s Scope) Vaccinations() ([]domain.Vaccination, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher, KindPlatform:
		return nil, s.denied(domain.EntityVaccination)
	case KindParent:
		children := make(map[string]struct{}, len(s.parent.ChildrenIDs))
		for _, id := range s.parent.ChildrenIDs {
			children[id] = struct{}{}
		}
		var out []domain.Vaccination
		for _, vac := range s.view.ListVaccinations() {
			if _, ok := children[vac.StudentID]; ok {
				out = append(out, vac)
			}
		}
		return out, nil
	}
	allowed := s.branchStudentSet()
	var out []domain.Vaccination
	for _, vac := range s.view.ListVaccinations() {
		if allowed == nil {
			out = append(out, vac)
			continue
		}
		if _, ok := allowed[vac.StudentID]; ok {
			out = append(out, vac)
		}
	}
	return out, nil
}

// SleepRecords returns the sleep records visible to the caller.
func (s Scope) SleepRecords() ([]domain.SleepRecord, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindPlatform:
		return nil, s.denied(domain.EntitySleepRecord)
	case KindTeacher:
		allowed := s.groupSet()
		var out []domain.SleepRecord
		for _, rec := range s.view.ListSleepRecords() {
			if _, ok := allowed[rec.GroupID]; ok {
				out = append(out, rec)
			}
		}
		return out, nil
	case KindParent:
		children := make(map[string]struct{}, len(s.parent.ChildrenIDs))
		for _, id := range s.parent.ChildrenIDs {
			children[id] = struct{}{}
		}
		var out []domain.SleepRecord
		for _, rec := range s.view.ListSleepRecords() {
			if _, ok := children[rec.StudentID]; ok {
				out = append(out, rec)
			}
		}
		return out, nil
	}
	allowed := s.branchStudentSet()
	var out []domain.SleepRecord
	for _, rec := range s.view.ListSleepRecords() {
		if allowed == nil {
			out = append(out, rec)
			continue
		}
		if _, ok := allowed[rec.StudentID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// WarehouseItems returns the inventory visible to the caller.
func (s Scope) WarehouseItems() ([]domain.WarehouseItem, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher, KindParent, KindPlatform:
		return nil, s.denied(domain.EntityWarehouseItem)
	}
	constraint := s.effectiveBranch()
	var out []domain.WarehouseItem
	for _, item := range s.view.ListWarehouseItems() {
		if constraint == "" || item.BranchID == constraint {
			out = append(out, item)
		}
	}
	return out, nil
}

// Complaints returns the complaints visible to the caller.
func (s Scope) Complaints() ([]domain.Complaint, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindTeacher, KindPlatform:
		return nil, s.denied(domain.EntityComplaint)
	case KindParent:
		var out []domain.Complaint
		for _, complaint := range s.view.ListComplaints() {
			if complaint.ParentID == s.parent.ID {
				out = append(out, complaint)
			}
		}
		return out, nil
	}
	constraint := s.effectiveBranch()
	var out []domain.Complaint
	for _, complaint := range s.view.ListComplaints() {
		if constraint == "" || complaint.BranchID == constraint {
			out = append(out, complaint)
		}
	}
	return out, nil
}

// Activities returns the activities visible to the caller.
func (s Scope) Activities() ([]domain.Activity, error) {
	switch s.kind {
	case KindEmpty:
		return nil, nil
	case KindPlatform:
		return nil, s.denied(domain.EntityActivity)
	case KindTeacher, KindParent:
		allowed := s.groupSet()
		var out []domain.Activity
		for _, activity := range s.view.ListActivities() {
			if _, ok := allowed[activity.GroupID]; ok {
				out = append(out, activity)
			}
		}
		return out, nil
	}
	allowed := s.branchGroupSet()
	var out []domain.Activity
	for _, activity := range s.view.ListActivities() {
		if allowed == nil {
			out = append(out, activity)
			continue
		}
		if _, ok := allowed[activity.GroupID]; ok {
			out = append(out, activity)
		}
	}
	return out, nil
}

// branchGroupSet returns the visible group ids for branch-constrained scopes,
// nil when unconstrained.
func (s Scope) branchGroupSet() map[string]struct{} {
	constraint := s.effectiveBranch()
	if constraint == "" {
		return nil
	}
	set := make(map[string]struct{})
	for _, group := range s.view.ListGroups() {
		if group.BranchID == constraint {
			set[group.ID] = struct{}{}
		}
	}
	return set
}

// branchStudentSet returns the visible student ids for branch-constrained
// scopes, nil when unconstrained.
func (s Scope) branchStudentSet() map[string]struct{} {
	constraint := s.effectiveBranch()
	if constraint == "" {
		return nil
	}
	set := make(map[string]struct{})
	for _, student := range s.view.ListStudents() {
		if student.BranchID == constraint {
			set[student.ID] = struct{}{}
		}
	}
	return set
}
