package memory

import "sort"

// listSorted clones map values and orders them by insertion sequence so list
// reads are stable across snapshots and restarts.
func listSorted[T any](m map[string]T, clone func(T) T, seq func(T) uint64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, clone(v))
	}
	sort.Slice(out, func(i, j int) bool { return seq(out[i]) < seq(out[j]) })
	return out
}

// ListBranches returns all branches within the transaction snapshot.
func (v transactionView) ListBranches() []Branch {
	return listSorted(v.state.branches, cloneBranch, func(b Branch) uint64 { return b.Seq })
}

// ListGroups returns all groups.
func (v transactionView) ListGroups() []Group {
	return listSorted(v.state.groups, cloneGroup, func(g Group) uint64 { return g.Seq })
}

// ListTeachers returns all teachers.
func (v transactionView) ListTeachers() []Teacher {
	return listSorted(v.state.teachers, cloneTeacher, func(t Teacher) uint64 { return t.Seq })
}

// ListStudents returns all students.
func (v transactionView) ListStudents() []Student {
	return listSorted(v.state.students, cloneStudent, func(s Student) uint64 { return s.Seq })
}

// ListParents returns all parents.
func (v transactionView) ListParents() []Parent {
	return listSorted(v.state.parents, cloneParent, func(p Parent) uint64 { return p.Seq })
}

// ListUsers returns all user accounts.
func (v transactionView) ListUsers() []User {
	return listSorted(v.state.users, cloneUser, func(u User) uint64 { return u.Seq })
}

// ListFinancialRecords returns all financial records.
func (v transactionView) ListFinancialRecords() []FinancialRecord {
	return listSorted(v.state.finance, cloneFinancialRecord, func(f FinancialRecord) uint64 { return f.Seq })
}

// ListMeals returns all meals.
func (v transactionView) ListMeals() []Meal {
	return listSorted(v.state.meals, cloneMeal, func(m Meal) uint64 { return m.Seq })
}

// ListHomework returns all homework assignments.
func (v transactionView) ListHomework() []Homework {
	return listSorted(v.state.homework, cloneHomework, func(h Homework) uint64 { return h.Seq })
}

// ListVaccinations returns all vaccination records.
func (v transactionView) ListVaccinations() []Vaccination {
	return listSorted(v.state.vaccinations, cloneVaccination, func(vac Vaccination) uint64 { return vac.Seq })
}

// ListSleepRecords returns all sleep records.
func (v transactionView) ListSleepRecords() []SleepRecord {
	return listSorted(v.state.sleepRecords, cloneSleepRecord, func(r SleepRecord) uint64 { return r.Seq })
}

// ListWarehouseItems returns all warehouse stock entries.
func (v transactionView) ListWarehouseItems() []WarehouseItem {
	return listSorted(v.state.warehouse, cloneWarehouseItem, func(w WarehouseItem) uint64 { return w.Seq })
}

// ListComplaints returns all complaints.
func (v transactionView) ListComplaints() []Complaint {
	return listSorted(v.state.complaints, cloneComplaint, func(c Complaint) uint64 { return c.Seq })
}

// ListActivities returns all activities.
func (v transactionView) ListActivities() []Activity {
	return listSorted(v.state.activities, cloneActivity, func(a Activity) uint64 { return a.Seq })
}

// FindBranch retrieves a branch by ID from the snapshot.
func (v transactionView) FindBranch(id string) (Branch, bool) {
	b, ok := v.state.branches[id]
	if !ok {
		return Branch{}, false
	}
	return cloneBranch(b), true
}

// FindGroup retrieves a group by ID from the snapshot.
func (v transactionView) FindGroup(id string) (Group, bool) {
	g, ok := v.state.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(g), true
}

// FindTeacher retrieves a teacher by ID from the snapshot.
func (v transactionView) FindTeacher(id string) (Teacher, bool) {
	t, ok := v.state.teachers[id]
	if !ok {
		return Teacher{}, false
	}
	return cloneTeacher(t), true
}

// FindStudent retrieves a student by ID from the snapshot.
func (v transactionView) FindStudent(id string) (Student, bool) {
	s, ok := v.state.students[id]
	if !ok {
		return Student{}, false
	}
	return cloneStudent(s), true
}

// FindParent retrieves a parent by ID from the snapshot.
func (v transactionView) FindParent(id string) (Parent, bool) {
	p, ok := v.state.parents[id]
	if !ok {
		return Parent{}, false
	}
	return cloneParent(p), true
}

// FindUser retrieves a user account by ID from the snapshot.
func (v transactionView) FindUser(id string) (User, bool) {
	u, ok := v.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// GetBranch retrieves a branch by ID.
func (s *Store) GetBranch(id string) (Branch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.branches[id]
	if !ok {
		return Branch{}, false
	}
	return cloneBranch(b), true
}

// ListBranches returns all branches in insertion order.
func (s *Store) ListBranches() []Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.branches, cloneBranch, func(b Branch) uint64 { return b.Seq })
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(id string) (Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.state.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(g), true
}

// ListGroups returns all groups in insertion order.
func (s *Store) ListGroups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.groups, cloneGroup, func(g Group) uint64 { return g.Seq })
}

// GetTeacher retrieves a teacher by ID.
func (s *Store) GetTeacher(id string) (Teacher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.teachers[id]
	if !ok {
		return Teacher{}, false
	}
	return cloneTeacher(t), true
}

// ListTeachers returns all teachers in insertion order.
func (s *Store) ListTeachers() []Teacher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.teachers, cloneTeacher, func(t Teacher) uint64 { return t.Seq })
}

// GetStudent retrieves a student by ID.
func (s *Store) GetStudent(id string) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.students[id]
	if !ok {
		return Student{}, false
	}
	return cloneStudent(st), true
}

// ListStudents returns all students in insertion order.
func (s *Store) ListStudents() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.students, cloneStudent, func(st Student) uint64 { return st.Seq })
}

// GetParent retrieves a parent by ID.
func (s *Store) GetParent(id string) (Parent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.parents[id]
	if !ok {
		return Parent{}, false
	}
	return cloneParent(p), true
}

// ListParents returns all parents in insertion order.
func (s *Store) ListParents() []Parent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.parents, cloneParent, func(p Parent) uint64 { return p.Seq })
}

// GetUser retrieves a user account by ID.
func (s *Store) GetUser(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

// ListUsers returns all user accounts in insertion order.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.users, cloneUser, func(u User) uint64 { return u.Seq })
}

// ListFinancialRecords returns all financial records in insertion order.
func (s *Store) ListFinancialRecords() []FinancialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.finance, cloneFinancialRecord, func(f FinancialRecord) uint64 { return f.Seq })
}

// ListMeals returns all meals in insertion order.
func (s *Store) ListMeals() []Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.meals, cloneMeal, func(m Meal) uint64 { return m.Seq })
}

// ListHomework returns all homework assignments in insertion order.
func (s *Store) ListHomework() []Homework {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.homework, cloneHomework, func(h Homework) uint64 { return h.Seq })
}

// ListVaccinations returns all vaccination records in insertion order.
func (s *Store) ListVaccinations() []Vaccination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.vaccinations, cloneVaccination, func(v Vaccination) uint64 { return v.Seq })
}

// ListSleepRecords returns all sleep records in insertion order.
func (s *Store) ListSleepRecords() []SleepRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.sleepRecords, cloneSleepRecord, func(r SleepRecord) uint64 { return r.Seq })
}

// ListWarehouseItems returns all warehouse entries in insertion order.
func (s *Store) ListWarehouseItems() []WarehouseItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.warehouse, cloneWarehouseItem, func(w WarehouseItem) uint64 { return w.Seq })
}

// ListComplaints returns all complaints in insertion order.
func (s *Store) ListComplaints() []Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.complaints, cloneComplaint, func(c Complaint) uint64 { return c.Seq })
}

// ListActivities returns all activities in insertion order.
func (s *Store) ListActivities() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSorted(s.state.activities, cloneActivity, func(a Activity) uint64 { return a.Seq })
}
