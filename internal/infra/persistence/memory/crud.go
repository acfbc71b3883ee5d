package memory

import (
	"kindercore/pkg/domain"
)

// maxStudentAge is the oldest age a kindergarten admits.
const maxStudentAge = 8

// CreateBranch stores a new branch within the transaction.
func (tx *transaction) CreateBranch(b Branch) (Branch, error) {
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if _, exists := tx.state.branches[b.ID]; exists {
		return Branch{}, domain.ConflictError{Entity: domain.EntityBranch, Field: "id", Value: b.ID}
	}
	if b.Capacity <= 0 {
		return Branch{}, domain.ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	b.Seq = tx.nextSequence()
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.branches[b.ID] = cloneBranch(b)
	tx.recordChange(Change{Entity: domain.EntityBranch, Action: domain.ActionCreate, After: cloneBranch(b)})
	return cloneBranch(b), nil
}

// UpdateBranch mutates a branch using the provided mutator function.
func (tx *transaction) UpdateBranch(id string, mutator func(*Branch) error) (Branch, error) {
	current, ok := tx.state.branches[id]
	if !ok {
		return Branch{}, domain.NotFoundError{Entity: domain.EntityBranch, ID: id}
	}
	before := cloneBranch(current)
	if err := mutator(&current); err != nil {
		return Branch{}, err
	}
	if current.Capacity <= 0 {
		return Branch{}, domain.ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.branches[id] = cloneBranch(current)
	tx.recordChange(Change{Entity: domain.EntityBranch, Action: domain.ActionUpdate, Before: before, After: cloneBranch(current)})
	return cloneBranch(current), nil
}

// DeleteBranch removes a branch from the transaction state.
func (tx *transaction) DeleteBranch(id string) error {
	current, ok := tx.state.branches[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityBranch, ID: id}
	}
	delete(tx.state.branches, id)
	tx.recordChange(Change{Entity: domain.EntityBranch, Action: domain.ActionDelete, Before: cloneBranch(current)})
	return nil
}

// CreateGroup stores a new group.
func (tx *transaction) CreateGroup(g Group) (Group, error) {
	if g.ID == "" {
		g.ID = tx.store.newID()
	}
	if _, exists := tx.state.groups[g.ID]; exists {
		return Group{}, domain.ConflictError{Entity: domain.EntityGroup, Field: "id", Value: g.ID}
	}
	g.Seq = tx.nextSequence()
	g.CreatedAt = tx.now
	g.UpdatedAt = tx.now
	tx.state.groups[g.ID] = cloneGroup(g)
	tx.recordChange(Change{Entity: domain.EntityGroup, Action: domain.ActionCreate, After: cloneGroup(g)})
	return cloneGroup(g), nil
}

// UpdateGroup mutates an existing group.
func (tx *transaction) UpdateGroup(id string, mutator func(*Group) error) (Group, error) {
	current, ok := tx.state.groups[id]
	if !ok {
		return Group{}, domain.NotFoundError{Entity: domain.EntityGroup, ID: id}
	}
	before := cloneGroup(current)
	if err := mutator(&current); err != nil {
		return Group{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.groups[id] = cloneGroup(current)
	// The student branch mirror follows the group, never drifts independently.
	if current.BranchID != before.BranchID {
		for sid, student := range tx.state.students {
			if student.GroupID == id && student.BranchID != current.BranchID {
				student.BranchID = current.BranchID
				student.UpdatedAt = tx.now
				tx.state.students[sid] = student
			}
		}
	}
	tx.recordChange(Change{Entity: domain.EntityGroup, Action: domain.ActionUpdate, Before: before, After: cloneGroup(current)})
	return cloneGroup(current), nil
}

// DeleteGroup removes a group from the transaction state.
func (tx *transaction) DeleteGroup(id string) error {
	current, ok := tx.state.groups[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityGroup, ID: id}
	}
	delete(tx.state.groups, id)
	tx.recordChange(Change{Entity: domain.EntityGroup, Action: domain.ActionDelete, Before: cloneGroup(current)})
	return nil
}

// CreateTeacher stores a new teacher.
func (tx *transaction) CreateTeacher(t Teacher) (Teacher, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.teachers[t.ID]; exists {
		return Teacher{}, domain.ConflictError{Entity: domain.EntityTeacher, Field: "id", Value: t.ID}
	}
	if t.Email == "" {
		return Teacher{}, domain.ValidationError{Field: "email", Reason: "required"}
	}
	t.Seq = tx.nextSequence()
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.teachers[t.ID] = cloneTeacher(t)
	tx.recordChange(Change{Entity: domain.EntityTeacher, Action: domain.ActionCreate, After: cloneTeacher(t)})
	return cloneTeacher(t), nil
}

// UpdateTeacher mutates an existing teacher.
func (tx *transaction) UpdateTeacher(id string, mutator func(*Teacher) error) (Teacher, error) {
	current, ok := tx.state.teachers[id]
	if !ok {
		return Teacher{}, domain.NotFoundError{Entity: domain.EntityTeacher, ID: id}
	}
	before := cloneTeacher(current)
	if err := mutator(&current); err != nil {
		return Teacher{}, err
	}
	if current.Email == "" {
		return Teacher{}, domain.ValidationError{Field: "email", Reason: "required"}
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.teachers[id] = cloneTeacher(current)
	tx.recordChange(Change{Entity: domain.EntityTeacher, Action: domain.ActionUpdate, Before: before, After: cloneTeacher(current)})
	return cloneTeacher(current), nil
}

// DeleteTeacher removes a teacher from the transaction state.
func (tx *transaction) DeleteTeacher(id string) error {
	current, ok := tx.state.teachers[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityTeacher, ID: id}
	}
	delete(tx.state.teachers, id)
	tx.recordChange(Change{Entity: domain.EntityTeacher, Action: domain.ActionDelete, Before: cloneTeacher(current)})
	return nil
}

// CreateStudent stores a new student. The branch mirror is derived from the
// student's group when the group is present in the transaction state.
func (tx *transaction) CreateStudent(st Student) (Student, error) {
	if st.ID == "" {
		st.ID = tx.store.newID()
	}
	if _, exists := tx.state.students[st.ID]; exists {
		return Student{}, domain.ConflictError{Entity: domain.EntityStudent, Field: "id", Value: st.ID}
	}
	if st.Age < 0 || st.Age > maxStudentAge {
		return Student{}, domain.ValidationError{Field: "age", Reason: "must be between 0 and 8"}
	}
	if group, ok := tx.state.groups[st.GroupID]; ok {
		st.BranchID = group.BranchID
	}
	st.Seq = tx.nextSequence()
	st.CreatedAt = tx.now
	st.UpdatedAt = tx.now
	tx.state.students[st.ID] = cloneStudent(st)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionCreate, After: cloneStudent(st)})
	return cloneStudent(st), nil
}

// UpdateStudent mutates an existing student, re-deriving the branch mirror.
func (tx *transaction) UpdateStudent(id string, mutator func(*Student) error) (Student, error) {
	current, ok := tx.state.students[id]
	if !ok {
		return Student{}, domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	before := cloneStudent(current)
	if err := mutator(&current); err != nil {
		return Student{}, err
	}
	if current.Age < 0 || current.Age > maxStudentAge {
		return Student{}, domain.ValidationError{Field: "age", Reason: "must be between 0 and 8"}
	}
	if group, ok := tx.state.groups[current.GroupID]; ok {
		current.BranchID = group.BranchID
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.students[id] = cloneStudent(current)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionUpdate, Before: before, After: cloneStudent(current)})
	return cloneStudent(current), nil
}

// DeleteStudent removes a student from the transaction state.
func (tx *transaction) DeleteStudent(id string) error {
	current, ok := tx.state.students[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityStudent, ID: id}
	}
	delete(tx.state.students, id)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionDelete, Before: cloneStudent(current)})
	return nil
}

// CreateParent stores a new parent.
func (tx *transaction) CreateParent(p Parent) (Parent, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.parents[p.ID]; exists {
		return Parent{}, domain.ConflictError{Entity: domain.EntityParent, Field: "id", Value: p.ID}
	}
	if p.Email == "" {
		return Parent{}, domain.ValidationError{Field: "email", Reason: "required"}
	}
	p.Seq = tx.nextSequence()
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.parents[p.ID] = cloneParent(p)
	tx.recordChange(Change{Entity: domain.EntityParent, Action: domain.ActionCreate, After: cloneParent(p)})
	return cloneParent(p), nil
}

// UpdateParent mutates an existing parent.
func (tx *transaction) UpdateParent(id string, mutator func(*Parent) error) (Parent, error) {
	current, ok := tx.state.parents[id]
	if !ok {
		return Parent{}, domain.NotFoundError{Entity: domain.EntityParent, ID: id}
	}
	before := cloneParent(current)
	if err := mutator(&current); err != nil {
		return Parent{}, err
	}
	if current.Email == "" {
		return Parent{}, domain.ValidationError{Field: "email", Reason: "required"}
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.parents[id] = cloneParent(current)
	tx.recordChange(Change{Entity: domain.EntityParent, Action: domain.ActionUpdate, Before: before, After: cloneParent(current)})
	return cloneParent(current), nil
}

// DeleteParent removes a parent from the transaction state.
func (tx *transaction) DeleteParent(id string) error {
	current, ok := tx.state.parents[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityParent, ID: id}
	}
	delete(tx.state.parents, id)
	tx.recordChange(Change{Entity: domain.EntityParent, Action: domain.ActionDelete, Before: cloneParent(current)})
	return nil
}

// CreateUser stores a new user account.
func (tx *transaction) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = tx.store.newID()
	}
	if _, exists := tx.state.users[u.ID]; exists {
		return User{}, domain.ConflictError{Entity: domain.EntityUser, Field: "id", Value: u.ID}
	}
	if u.Email == "" {
		return User{}, domain.ValidationError{Field: "email", Reason: "required"}
	}
	if u.Role == "" {
		return User{}, domain.ValidationError{Field: "role", Reason: "required"}
	}
	u.Seq = tx.nextSequence()
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = cloneUser(u)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionCreate, After: cloneUser(u)})
	return cloneUser(u), nil
}

// UpdateUser mutates an existing user account.
func (tx *transaction) UpdateUser(id string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return User{}, domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	before := cloneUser(current)
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	if current.Email == "" {
		return User{}, domain.ValidationError{Field: "email", Reason: "required"}
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.users[id] = cloneUser(current)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, Before: before, After: cloneUser(current)})
	return cloneUser(current), nil
}

// DeleteUser removes a user account from the transaction state.
func (tx *transaction) DeleteUser(id string) error {
	current, ok := tx.state.users[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	delete(tx.state.users, id)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionDelete, Before: cloneUser(current)})
	return nil
}

// CreateFinancialRecord stores a new revenue or expense entry.
func (tx *transaction) CreateFinancialRecord(f FinancialRecord) (FinancialRecord, error) {
	if f.ID == "" {
		f.ID = tx.store.newID()
	}
	if _, exists := tx.state.finance[f.ID]; exists {
		return FinancialRecord{}, domain.ConflictError{Entity: domain.EntityFinancialRecord, Field: "id", Value: f.ID}
	}
	if f.Amount <= 0 {
		return FinancialRecord{}, domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if f.Type != domain.RecordRevenue && f.Type != domain.RecordExpense {
		return FinancialRecord{}, domain.ValidationError{Field: "type", Reason: "must be revenue or expense"}
	}
	f.Seq = tx.nextSequence()
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.finance[f.ID] = cloneFinancialRecord(f)
	tx.recordChange(Change{Entity: domain.EntityFinancialRecord, Action: domain.ActionCreate, After: cloneFinancialRecord(f)})
	return cloneFinancialRecord(f), nil
}

// UpdateFinancialRecord mutates an existing financial record.
func (tx *transaction) UpdateFinancialRecord(id string, mutator func(*FinancialRecord) error) (FinancialRecord, error) {
	current, ok := tx.state.finance[id]
	if !ok {
		return FinancialRecord{}, domain.NotFoundError{Entity: domain.EntityFinancialRecord, ID: id}
	}
	before := cloneFinancialRecord(current)
	if err := mutator(&current); err != nil {
		return FinancialRecord{}, err
	}
	if current.Amount <= 0 {
		return FinancialRecord{}, domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.finance[id] = cloneFinancialRecord(current)
	tx.recordChange(Change{Entity: domain.EntityFinancialRecord, Action: domain.ActionUpdate, Before: before, After: cloneFinancialRecord(current)})
	return cloneFinancialRecord(current), nil
}

// DeleteFinancialRecord removes a financial record.
func (tx *transaction) DeleteFinancialRecord(id string) error {
	current, ok := tx.state.finance[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityFinancialRecord, ID: id}
	}
	delete(tx.state.finance, id)
	tx.recordChange(Change{Entity: domain.EntityFinancialRecord, Action: domain.ActionDelete, Before: cloneFinancialRecord(current)})
	return nil
}

// CreateMeal stores a new meal plan entry.
func (tx *transaction) CreateMeal(m Meal) (Meal, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.meals[m.ID]; exists {
		return Meal{}, domain.ConflictError{Entity: domain.EntityMeal, Field: "id", Value: m.ID}
	}
	m.Seq = tx.nextSequence()
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.meals[m.ID] = cloneMeal(m)
	tx.recordChange(Change{Entity: domain.EntityMeal, Action: domain.ActionCreate, After: cloneMeal(m)})
	return cloneMeal(m), nil
}

// UpdateMeal mutates an existing meal entry.
func (tx *transaction) UpdateMeal(id string, mutator func(*Meal) error) (Meal, error) {
	current, ok := tx.state.meals[id]
	if !ok {
		return Meal{}, domain.NotFoundError{Entity: domain.EntityMeal, ID: id}
	}
	before := cloneMeal(current)
	if err := mutator(&current); err != nil {
		return Meal{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.meals[id] = cloneMeal(current)
	tx.recordChange(Change{Entity: domain.EntityMeal, Action: domain.ActionUpdate, Before: before, After: cloneMeal(current)})
	return cloneMeal(current), nil
}

// DeleteMeal removes a meal entry.
func (tx *transaction) DeleteMeal(id string) error {
	current, ok := tx.state.meals[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityMeal, ID: id}
	}
	delete(tx.state.meals, id)
	tx.recordChange(Change{Entity: domain.EntityMeal, Action: domain.ActionDelete, Before: cloneMeal(current)})
	return nil
}

// CreateHomework stores a new homework assignment.
func (tx *transaction) CreateHomework(h Homework) (Homework, error) {
	if h.ID == "" {
		h.ID = tx.store.newID()
	}
	if _, exists := tx.state.homework[h.ID]; exists {
		return Homework{}, domain.ConflictError{Entity: domain.EntityHomework, Field: "id", Value: h.ID}
	}
	h.Seq = tx.nextSequence()
	h.CreatedAt = tx.now
	h.UpdatedAt = tx.now
	tx.state.homework[h.ID] = cloneHomework(h)
	tx.recordChange(Change{Entity: domain.EntityHomework, Action: domain.ActionCreate, After: cloneHomework(h)})
	return cloneHomework(h), nil
}

// UpdateHomework mutates an existing homework assignment.
func (tx *transaction) UpdateHomework(id string, mutator func(*Homework) error) (Homework, error) {
	current, ok := tx.state.homework[id]
	if !ok {
		return Homework{}, domain.NotFoundError{Entity: domain.EntityHomework, ID: id}
	}
	before := cloneHomework(current)
	if err := mutator(&current); err != nil {
		return Homework{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.homework[id] = cloneHomework(current)
	tx.recordChange(Change{Entity: domain.EntityHomework, Action: domain.ActionUpdate, Before: before, After: cloneHomework(current)})
	return cloneHomework(current), nil
}

// DeleteHomework removes a homework assignment.
func (tx *transaction) DeleteHomework(id string) error {
	current, ok := tx.state.homework[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityHomework, ID: id}
	}
	delete(tx.state.homework, id)
	tx.recordChange(Change{Entity: domain.EntityHomework, Action: domain.ActionDelete, Before: cloneHomework(current)})
	return nil
}

// CreateVaccination stores a new vaccination record.
func (tx *transaction) CreateVaccination(v Vaccination) (Vaccination, error) {
	if v.ID == "" {
		v.ID = tx.store.newID()
	}
	if _, exists := tx.state.vaccinations[v.ID]; exists {
		return Vaccination{}, domain.ConflictError{Entity: domain.EntityVaccination, Field: "id", Value: v.ID}
	}
	v.Seq = tx.nextSequence()
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	tx.state.vaccinations[v.ID] = cloneVaccination(v)
	tx.recordChange(Change{Entity: domain.EntityVaccination, Action: domain.ActionCreate, After: cloneVaccination(v)})
	return cloneVaccination(v), nil
}

// UpdateVaccination mutates an existing vaccination record.
func (tx *transaction) UpdateVaccination(id string, mutator func(*Vaccination) error) (Vaccination, error) {
	current, ok := tx.state.vaccinations[id]
	if !ok {
		return Vaccination{}, domain.NotFoundError{Entity: domain.EntityVaccination, ID: id}
	}
	before := cloneVaccination(current)
	if err := mutator(&current); err != nil {
		return Vaccination{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.vaccinations[id] = cloneVaccination(current)
	tx.recordChange(Change{Entity: domain.EntityVaccination, Action: domain.ActionUpdate, Before: before, After: cloneVaccination(current)})
	return cloneVaccination(current), nil
}

// DeleteVaccination removes a vaccination record.
func (tx *transaction) DeleteVaccination(id string) error {
	current, ok := tx.state.vaccinations[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityVaccination, ID: id}
	}
	delete(tx.state.vaccinations, id)
	tx.recordChange(Change{Entity: domain.EntityVaccination, Action: domain.ActionDelete, Before: cloneVaccination(current)})
	return nil
}

// CreateSleepRecord stores a new sleep tracking record.
func (tx *transaction) CreateSleepRecord(r SleepRecord) (SleepRecord, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.sleepRecords[r.ID]; exists {
		return SleepRecord{}, domain.ConflictError{Entity: domain.EntitySleepRecord, Field: "id", Value: r.ID}
	}
	r.Seq = tx.nextSequence()
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.sleepRecords[r.ID] = cloneSleepRecord(r)
	tx.recordChange(Change{Entity: domain.EntitySleepRecord, Action: domain.ActionCreate, After: cloneSleepRecord(r)})
	return cloneSleepRecord(r), nil
}

// UpdateSleepRecord mutates an existing sleep record.
func (tx *transaction) UpdateSleepRecord(id string, mutator func(*SleepRecord) error) (SleepRecord, error) {
	current, ok := tx.state.sleepRecords[id]
	if !ok {
		return SleepRecord{}, domain.NotFoundError{Entity: domain.EntitySleepRecord, ID: id}
	}
	before := cloneSleepRecord(current)
	if err := mutator(&current); err != nil {
		return SleepRecord{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.sleepRecords[id] = cloneSleepRecord(current)
	tx.recordChange(Change{Entity: domain.EntitySleepRecord, Action: domain.ActionUpdate, Before: before, After: cloneSleepRecord(current)})
	return cloneSleepRecord(current), nil
}

// DeleteSleepRecord removes a sleep record.
func (tx *transaction) DeleteSleepRecord(id string) error {
	current, ok := tx.state.sleepRecords[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySleepRecord, ID: id}
	}
	delete(tx.state.sleepRecords, id)
	tx.recordChange(Change{Entity: domain.EntitySleepRecord, Action: domain.ActionDelete, Before: cloneSleepRecord(current)})
	return nil
}

// CreateWarehouseItem stores a new warehouse stock entry.
func (tx *transaction) CreateWarehouseItem(w WarehouseItem) (WarehouseItem, error) {
	if w.ID == "" {
		w.ID = tx.store.newID()
	}
	if _, exists := tx.state.warehouse[w.ID]; exists {
		return WarehouseItem{}, domain.ConflictError{Entity: domain.EntityWarehouseItem, Field: "id", Value: w.ID}
	}
	if w.Quantity < 0 {
		return WarehouseItem{}, domain.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	w.Seq = tx.nextSequence()
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	tx.state.warehouse[w.ID] = cloneWarehouseItem(w)
	tx.recordChange(Change{Entity: domain.EntityWarehouseItem, Action: domain.ActionCreate, After: cloneWarehouseItem(w)})
	return cloneWarehouseItem(w), nil
}

// UpdateWarehouseItem mutates an existing warehouse entry.
func (tx *transaction) UpdateWarehouseItem(id string, mutator func(*WarehouseItem) error) (WarehouseItem, error) {
	current, ok := tx.state.warehouse[id]
	if !ok {
		return WarehouseItem{}, domain.NotFoundError{Entity: domain.EntityWarehouseItem, ID: id}
	}
	before := cloneWarehouseItem(current)
	if err := mutator(&current); err != nil {
		return WarehouseItem{}, err
	}
	if current.Quantity < 0 {
		return WarehouseItem{}, domain.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.warehouse[id] = cloneWarehouseItem(current)
	tx.recordChange(Change{Entity: domain.EntityWarehouseItem, Action: domain.ActionUpdate, Before: before, After: cloneWarehouseItem(current)})
	return cloneWarehouseItem(current), nil
}

// DeleteWarehouseItem removes a warehouse entry.
func (tx *transaction) DeleteWarehouseItem(id string) error {
	current, ok := tx.state.warehouse[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityWarehouseItem, ID: id}
	}
	delete(tx.state.warehouse, id)
	tx.recordChange(Change{Entity: domain.EntityWarehouseItem, Action: domain.ActionDelete, Before: cloneWarehouseItem(current)})
	return nil
}

// CreateComplaint stores a new complaint.
func (tx *transaction) CreateComplaint(c Complaint) (Complaint, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.complaints[c.ID]; exists {
		return Complaint{}, domain.ConflictError{Entity: domain.EntityComplaint, Field: "id", Value: c.ID}
	}
	c.Seq = tx.nextSequence()
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.complaints[c.ID] = cloneComplaint(c)
	tx.recordChange(Change{Entity: domain.EntityComplaint, Action: domain.ActionCreate, After: cloneComplaint(c)})
	return cloneComplaint(c), nil
}

// UpdateComplaint mutates an existing complaint.
func (tx *transaction) UpdateComplaint(id string, mutator func(*Complaint) error) (Complaint, error) {
	current, ok := tx.state.complaints[id]
	if !ok {
		return Complaint{}, domain.NotFoundError{Entity: domain.EntityComplaint, ID: id}
	}
	before := cloneComplaint(current)
	if err := mutator(&current); err != nil {
		return Complaint{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.complaints[id] = cloneComplaint(current)
	tx.recordChange(Change{Entity: domain.EntityComplaint, Action: domain.ActionUpdate, Before: before, After: cloneComplaint(current)})
	return cloneComplaint(current), nil
}

// DeleteComplaint removes a complaint.
func (tx *transaction) DeleteComplaint(id string) error {
	current, ok := tx.state.complaints[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityComplaint, ID: id}
	}
	delete(tx.state.complaints, id)
	tx.recordChange(Change{Entity: domain.EntityComplaint, Action: domain.ActionDelete, Before: cloneComplaint(current)})
	return nil
}

// CreateActivity stores a new group activity.
func (tx *transaction) CreateActivity(a Activity) (Activity, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.activities[a.ID]; exists {
		return Activity{}, domain.ConflictError{Entity: domain.EntityActivity, Field: "id", Value: a.ID}
	}
	a.Seq = tx.nextSequence()
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.activities[a.ID] = cloneActivity(a)
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionCreate, After: cloneActivity(a)})
	return cloneActivity(a), nil
}

// UpdateActivity mutates an existing activity.
func (tx *transaction) UpdateActivity(id string, mutator func(*Activity) error) (Activity, error) {
	current, ok := tx.state.activities[id]
	if !ok {
		return Activity{}, domain.NotFoundError{Entity: domain.EntityActivity, ID: id}
	}
	before := cloneActivity(current)
	if err := mutator(&current); err != nil {
		return Activity{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.activities[id] = cloneActivity(current)
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionUpdate, Before: before, After: cloneActivity(current)})
	return cloneActivity(current), nil
}

// DeleteActivity removes an activity.
func (tx *transaction) DeleteActivity(id string) error {
	current, ok := tx.state.activities[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityActivity, ID: id}
	}
	delete(tx.state.activities, id)
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionDelete, Before: cloneActivity(current)})
	return nil
}
