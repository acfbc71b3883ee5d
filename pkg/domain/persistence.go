package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateBranch(Branch) (Branch, error)
	UpdateBranch(id string, mutator func(*Branch) error) (Branch, error)
	DeleteBranch(id string) error
	CreateGroup(Group) (Group, error)
	UpdateGroup(id string, mutator func(*Group) error) (Group, error)
	DeleteGroup(id string) error
	CreateTeacher(Teacher) (Teacher, error)
	UpdateTeacher(id string, mutator func(*Teacher) error) (Teacher, error)
	DeleteTeacher(id string) error
	CreateStudent(Student) (Student, error)
	UpdateStudent(id string, mutator func(*Student) error) (Student, error)
	DeleteStudent(id string) error
	CreateParent(Parent) (Parent, error)
	UpdateParent(id string, mutator func(*Parent) error) (Parent, error)
	DeleteParent(id string) error
	CreateUser(User) (User, error)
	UpdateUser(id string, mutator func(*User) error) (User, error)
	DeleteUser(id string) error
	CreateFinancialRecord(FinancialRecord) (FinancialRecord, error)
	UpdateFinancialRecord(id string, mutator func(*FinancialRecord) error) (FinancialRecord, error)
	DeleteFinancialRecord(id string) error
	CreateMeal(Meal) (Meal, error)
	UpdateMeal(id string, mutator func(*Meal) error) (Meal, error)
	DeleteMeal(id string) error
	CreateHomework(Homework) (Homework, error)
	UpdateHomework(id string, mutator func(*Homework) error) (Homework, error)
	DeleteHomework(id string) error
	CreateVaccination(Vaccination) (Vaccination, error)
	UpdateVaccination(id string, mutator func(*Vaccination) error) (Vaccination, error)
	DeleteVaccination(id string) error
	CreateSleepRecord(SleepRecord) (SleepRecord, error)
	UpdateSleepRecord(id string, mutator func(*SleepRecord) error) (SleepRecord, error)
	DeleteSleepRecord(id string) error
	CreateWarehouseItem(WarehouseItem) (WarehouseItem, error)
	UpdateWarehouseItem(id string, mutator func(*WarehouseItem) error) (WarehouseItem, error)
	DeleteWarehouseItem(id string) error
	CreateComplaint(Complaint) (Complaint, error)
	UpdateComplaint(id string, mutator func(*Complaint) error) (Complaint, error)
	DeleteComplaint(id string) error
	CreateActivity(Activity) (Activity, error)
	UpdateActivity(id string, mutator func(*Activity) error) (Activity, error)
	DeleteActivity(id string) error
}

// TransactionView provides read-only access to snapshot data for rules and
// scope resolution.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetBranch(id string) (Branch, bool)
	ListBranches() []Branch
	GetGroup(id string) (Group, bool)
	ListGroups() []Group
	GetTeacher(id string) (Teacher, bool)
	ListTeachers() []Teacher
	GetStudent(id string) (Student, bool)
	ListStudents() []Student
	GetParent(id string) (Parent, bool)
	ListParents() []Parent
	GetUser(id string) (User, bool)
	ListUsers() []User
	ListFinancialRecords() []FinancialRecord
	ListMeals() []Meal
	ListHomework() []Homework
	ListVaccinations() []Vaccination
	ListSleepRecords() []SleepRecord
	ListWarehouseItems() []WarehouseItem
	ListComplaints() []Complaint
	ListActivities() []Activity
}
