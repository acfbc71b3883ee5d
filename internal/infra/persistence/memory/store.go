// Package memory provides the in-memory implementation of the core
// persistence store used for tests and as the transactional engine behind the
// durable backends.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"kindercore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Branch aliases domain.Branch for in-memory persistence operations.
	Branch = domain.Branch
	// Group aliases domain.Group.
	Group = domain.Group
	// Teacher aliases domain.Teacher.
	Teacher = domain.Teacher
	// Student aliases domain.Student.
	Student = domain.Student
	// Parent aliases domain.Parent.
	Parent = domain.Parent
	// User aliases domain.User.
	User = domain.User
	// FinancialRecord aliases domain.FinancialRecord.
	FinancialRecord = domain.FinancialRecord
	// Meal aliases domain.Meal.
	Meal = domain.Meal
	// Homework aliases domain.Homework.
	Homework = domain.Homework
	// Vaccination aliases domain.Vaccination.
	Vaccination = domain.Vaccination
	// SleepRecord aliases domain.SleepRecord.
	SleepRecord = domain.SleepRecord
	// WarehouseItem aliases domain.WarehouseItem.
	WarehouseItem = domain.WarehouseItem
	// Complaint aliases domain.Complaint.
	Complaint = domain.Complaint
	// Activity aliases domain.Activity.
	Activity = domain.Activity
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	branches     map[string]Branch
	groups       map[string]Group
	teachers     map[string]Teacher
	students     map[string]Student
	parents      map[string]Parent
	users        map[string]User
	finance      map[string]FinancialRecord
	meals        map[string]Meal
	homework     map[string]Homework
	vaccinations map[string]Vaccination
	sleepRecords map[string]SleepRecord
	warehouse    map[string]WarehouseItem
	complaints   map[string]Complaint
	activities   map[string]Activity
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Branches     map[string]Branch          `json:"branches"`
	Groups       map[string]Group           `json:"groups"`
	Teachers     map[string]Teacher         `json:"teachers"`
	Students     map[string]Student         `json:"students"`
	Parents      map[string]Parent          `json:"parents"`
	Users        map[string]User            `json:"users"`
	Finance      map[string]FinancialRecord `json:"finance"`
	Meals        map[string]Meal            `json:"meals"`
	Homework     map[string]Homework        `json:"homework"`
	Vaccinations map[string]Vaccination     `json:"vaccinations"`
	SleepRecords map[string]SleepRecord     `json:"sleep_records"`
	Warehouse    map[string]WarehouseItem   `json:"warehouse"`
	Complaints   map[string]Complaint       `json:"complaints"`
	Activities   map[string]Activity        `json:"activities"`
}

func newMemoryState() memoryState {
	return memoryState{
		branches:     make(map[string]Branch),
		groups:       make(map[string]Group),
		teachers:     make(map[string]Teacher),
		students:     make(map[string]Student),
		parents:      make(map[string]Parent),
		users:        make(map[string]User),
		finance:      make(map[string]FinancialRecord),
		meals:        make(map[string]Meal),
		homework:     make(map[string]Homework),
		vaccinations: make(map[string]Vaccination),
		sleepRecords: make(map[string]SleepRecord),
		warehouse:    make(map[string]WarehouseItem),
		complaints:   make(map[string]Complaint),
		activities:   make(map[string]Activity),
	}
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBranch(b Branch) Branch { return b }

func cloneGroup(g Group) Group {
	cp := g
	cp.TeacherID = clonePtr(g.TeacherID)
	return cp
}

func cloneTeacher(t Teacher) Teacher {
	cp := t
	cp.GroupIDs = append([]string(nil), t.GroupIDs...)
	return cp
}

func cloneStudent(s Student) Student {
	cp := s
	cp.ParentID = clonePtr(s.ParentID)
	return cp
}

func cloneParent(p Parent) Parent {
	cp := p
	cp.ChildrenIDs = append([]string(nil), p.ChildrenIDs...)
	return cp
}

func cloneUser(u User) User {
	cp := u
	cp.BranchID = clonePtr(u.BranchID)
	return cp
}

func cloneFinancialRecord(f FinancialRecord) FinancialRecord { return f }

func cloneMeal(m Meal) Meal {
	cp := m
	cp.GroupID = clonePtr(m.GroupID)
	return cp
}

func cloneHomework(h Homework) Homework                { return h }
func cloneVaccination(v Vaccination) Vaccination       { return v }
func cloneSleepRecord(s SleepRecord) SleepRecord       { return s }
func cloneWarehouseItem(w WarehouseItem) WarehouseItem { return w }

func cloneComplaint(c Complaint) Complaint {
	cp := c
	cp.StudentID = clonePtr(c.StudentID)
	return cp
}

func cloneActivity(a Activity) Activity { return a }

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.branches {
		cloned.branches[k] = cloneBranch(v)
	}
	for k, v := range s.groups {
		cloned.groups[k] = cloneGroup(v)
	}
	for k, v := range s.teachers {
		cloned.teachers[k] = cloneTeacher(v)
	}
	for k, v := range s.students {
		cloned.students[k] = cloneStudent(v)
	}
	for k, v := range s.parents {
		cloned.parents[k] = cloneParent(v)
	}
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	for k, v := range s.finance {
		cloned.finance[k] = cloneFinancialRecord(v)
	}
	for k, v := range s.meals {
		cloned.meals[k] = cloneMeal(v)
	}
	for k, v := range s.homework {
		cloned.homework[k] = cloneHomework(v)
	}
	for k, v := range s.vaccinations {
		cloned.vaccinations[k] = cloneVaccination(v)
	}
	for k, v := range s.sleepRecords {
		cloned.sleepRecords[k] = cloneSleepRecord(v)
	}
	for k, v := range s.warehouse {
		cloned.warehouse[k] = cloneWarehouseItem(v)
	}
	for k, v := range s.complaints {
		cloned.complaints[k] = cloneComplaint(v)
	}
	for k, v := range s.activities {
		cloned.activities[k] = cloneActivity(v)
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Branches:     make(map[string]Branch, len(state.branches)),
		Groups:       make(map[string]Group, len(state.groups)),
		Teachers:     make(map[string]Teacher, len(state.teachers)),
		Students:     make(map[string]Student, len(state.students)),
		Parents:      make(map[string]Parent, len(state.parents)),
		Users:        make(map[string]User, len(state.users)),
		Finance:      make(map[string]FinancialRecord, len(state.finance)),
		Meals:        make(map[string]Meal, len(state.meals)),
		Homework:     make(map[string]Homework, len(state.homework)),
		Vaccinations: make(map[string]Vaccination, len(state.vaccinations)),
		SleepRecords: make(map[string]SleepRecord, len(state.sleepRecords)),
		Warehouse:    make(map[string]WarehouseItem, len(state.warehouse)),
		Complaints:   make(map[string]Complaint, len(state.complaints)),
		Activities:   make(map[string]Activity, len(state.activities)),
	}
	for k, v := range state.branches {
		s.Branches[k] = cloneBranch(v)
	}
	for k, v := range state.groups {
		s.Groups[k] = cloneGroup(v)
	}
	for k, v := range state.teachers {
		s.Teachers[k] = cloneTeacher(v)
	}
	for k, v := range state.students {
		s.Students[k] = cloneStudent(v)
	}
	for k, v := range state.parents {
		s.Parents[k] = cloneParent(v)
	}
	for k, v := range state.users {
		s.Users[k] = cloneUser(v)
	}
	for k, v := range state.finance {
		s.Finance[k] = cloneFinancialRecord(v)
	}
	for k, v := range state.meals {
		s.Meals[k] = cloneMeal(v)
	}
	for k, v := range state.homework {
		s.Homework[k] = cloneHomework(v)
	}
	for k, v := range state.vaccinations {
		s.Vaccinations[k] = cloneVaccination(v)
	}
	for k, v := range state.sleepRecords {
		s.SleepRecords[k] = cloneSleepRecord(v)
	}
	for k, v := range state.warehouse {
		s.Warehouse[k] = cloneWarehouseItem(v)
	}
	for k, v := range state.complaints {
		s.Complaints[k] = cloneComplaint(v)
	}
	for k, v := range state.activities {
		s.Activities[k] = cloneActivity(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Branches {
		state.branches[k] = cloneBranch(v)
	}
	for k, v := range s.Groups {
		state.groups[k] = cloneGroup(v)
	}
	for k, v := range s.Teachers {
		state.teachers[k] = cloneTeacher(v)
	}
	for k, v := range s.Students {
		state.students[k] = cloneStudent(v)
	}
	for k, v := range s.Parents {
		state.parents[k] = cloneParent(v)
	}
	for k, v := range s.Users {
		state.users[k] = cloneUser(v)
	}
	for k, v := range s.Finance {
		state.finance[k] = cloneFinancialRecord(v)
	}
	for k, v := range s.Meals {
		state.meals[k] = cloneMeal(v)
	}
	for k, v := range s.Homework {
		state.homework[k] = cloneHomework(v)
	}
	for k, v := range s.Vaccinations {
		state.vaccinations[k] = cloneVaccination(v)
	}
	for k, v := range s.SleepRecords {
		state.sleepRecords[k] = cloneSleepRecord(v)
	}
	for k, v := range s.Warehouse {
		state.warehouse[k] = cloneWarehouseItem(v)
	}
	for k, v := range s.Complaints {
		state.complaints[k] = cloneComplaint(v)
	}
	for k, v := range s.Activities {
		state.activities[k] = cloneActivity(v)
	}
	return state
}

// migrateSnapshot repairs snapshots written by earlier layouts: nil maps are
// initialised, orphaned references are dropped or cleared, the student branch
// mirror is re-derived, and parent/child links are restored to symmetry.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Branches == nil {
		snapshot.Branches = map[string]Branch{}
	}
	if snapshot.Groups == nil {
		snapshot.Groups = map[string]Group{}
	}
	if snapshot.Teachers == nil {
		snapshot.Teachers = map[string]Teacher{}
	}
	if snapshot.Students == nil {
		snapshot.Students = map[string]Student{}
	}
	if snapshot.Parents == nil {
		snapshot.Parents = map[string]Parent{}
	}
	if snapshot.Users == nil {
		snapshot.Users = map[string]User{}
	}
	if snapshot.Finance == nil {
		snapshot.Finance = map[string]FinancialRecord{}
	}
	if snapshot.Meals == nil {
		snapshot.Meals = map[string]Meal{}
	}
	if snapshot.Homework == nil {
		snapshot.Homework = map[string]Homework{}
	}
	if snapshot.Vaccinations == nil {
		snapshot.Vaccinations = map[string]Vaccination{}
	}
	if snapshot.SleepRecords == nil {
		snapshot.SleepRecords = map[string]SleepRecord{}
	}
	if snapshot.Warehouse == nil {
		snapshot.Warehouse = map[string]WarehouseItem{}
	}
	if snapshot.Complaints == nil {
		snapshot.Complaints = map[string]Complaint{}
	}
	if snapshot.Activities == nil {
		snapshot.Activities = map[string]Activity{}
	}

	branchExists := func(id string) bool {
		_, ok := snapshot.Branches[id]
		return ok
	}
	groupExists := func(id string) bool {
		_, ok := snapshot.Groups[id]
		return ok
	}
	teacherExists := func(id string) bool {
		_, ok := snapshot.Teachers[id]
		return ok
	}
	studentExists := func(id string) bool {
		_, ok := snapshot.Students[id]
		return ok
	}
	parentExists := func(id string) bool {
		_, ok := snapshot.Parents[id]
		return ok
	}

	for id, group := range snapshot.Groups {
		if group.BranchID == "" || !branchExists(group.BranchID) {
			delete(snapshot.Groups, id)
			continue
		}
		if group.TeacherID != nil && !teacherExists(*group.TeacherID) {
			group.TeacherID = nil
		}
		snapshot.Groups[id] = group
	}

	for id, teacher := range snapshot.Teachers {
		if filtered, changed := filterIDs(teacher.GroupIDs, groupExists); changed {
			teacher.GroupIDs = filtered
			snapshot.Teachers[id] = teacher
		}
	}

	for id, student := range snapshot.Students {
		group, ok := snapshot.Groups[student.GroupID]
		if !ok {
			delete(snapshot.Students, id)
			continue
		}
		if student.BranchID != group.BranchID {
			student.BranchID = group.BranchID
		}
		if student.ParentID != nil && !parentExists(*student.ParentID) {
			student.ParentID = nil
		}
		snapshot.Students[id] = student
	}

	// Restore parent/child symmetry from the student side of the link.
	for id, parent := range snapshot.Parents {
		filtered := parent.ChildrenIDs[:0:0]
		for _, childID := range parent.ChildrenIDs {
			student, ok := snapshot.Students[childID]
			if !ok || student.ParentID == nil || *student.ParentID != id {
				continue
			}
			filtered = append(filtered, childID)
		}
		for sid, student := range snapshot.Students {
			if student.ParentID != nil && *student.ParentID == id && !containsString(filtered, sid) {
				filtered = append(filtered, sid)
			}
		}
		sort.Strings(filtered)
		parent.ChildrenIDs = filtered
		snapshot.Parents[id] = parent
	}

	for id, meal := range snapshot.Meals {
		if meal.BranchID == "" || !branchExists(meal.BranchID) {
			delete(snapshot.Meals, id)
			continue
		}
		if meal.GroupID != nil && !groupExists(*meal.GroupID) {
			meal.GroupID = nil
		}
		snapshot.Meals[id] = meal
	}

	for id, hw := range snapshot.Homework {
		if hw.GroupID == "" || !groupExists(hw.GroupID) {
			delete(snapshot.Homework, id)
		}
	}

	for id, vac := range snapshot.Vaccinations {
		if vac.StudentID == "" || !studentExists(vac.StudentID) {
			delete(snapshot.Vaccinations, id)
		}
	}

	for id, rec := range snapshot.SleepRecords {
		if rec.StudentID == "" || !studentExists(rec.StudentID) {
			delete(snapshot.SleepRecords, id)
			continue
		}
		if rec.GroupID != "" && !groupExists(rec.GroupID) {
			rec.GroupID = snapshot.Students[rec.StudentID].GroupID
			snapshot.SleepRecords[id] = rec
		}
	}

	for id, item := range snapshot.Warehouse {
		if item.BranchID == "" || !branchExists(item.BranchID) {
			delete(snapshot.Warehouse, id)
		}
	}

	for id, complaint := range snapshot.Complaints {
		if complaint.ParentID == "" || !parentExists(complaint.ParentID) {
			delete(snapshot.Complaints, id)
			continue
		}
		if complaint.StudentID != nil && !studentExists(*complaint.StudentID) {
			complaint.StudentID = nil
			snapshot.Complaints[id] = complaint
		}
	}

	for id, activity := range snapshot.Activities {
		if activity.GroupID == "" || !groupExists(activity.GroupID) {
			delete(snapshot.Activities, id)
		}
	}

	for id, rec := range snapshot.Finance {
		if rec.BranchID == "" || !branchExists(rec.BranchID) {
			delete(snapshot.Finance, id)
		}
	}

	return snapshot
}

func filterIDs(values []string, exists func(string) bool) ([]string, bool) {
	changed := false
	out := values[:0:0]
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			changed = true
			continue
		}
		seen[v] = struct{}{}
		if !exists(v) {
			changed = true
			continue
		}
		out = append(out, v)
	}
	if !changed && len(out) == len(values) {
		return values, false
	}
	return out, true
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu      sync.RWMutex
	state   memoryState
	engine  *RulesEngine
	nowFn   func() time.Time
	nextSeq uint64
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:   newMemoryState(),
		engine:  engine,
		nowFn:   func() time.Time { return time.Now().UTC() },
		nextSeq: 1,
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
	s.nextSeq = maxSeq(s.state) + 1
}

func maxSeq(state memoryState) uint64 {
	var max uint64
	bump := func(seq uint64) {
		if seq > max {
			max = seq
		}
	}
	for _, v := range state.branches {
		bump(v.Seq)
	}
	for _, v := range state.groups {
		bump(v.Seq)
	}
	for _, v := range state.teachers {
		bump(v.Seq)
	}
	for _, v := range state.students {
		bump(v.Seq)
	}
	for _, v := range state.parents {
		bump(v.Seq)
	}
	for _, v := range state.users {
		bump(v.Seq)
	}
	for _, v := range state.finance {
		bump(v.Seq)
	}
	for _, v := range state.meals {
		bump(v.Seq)
	}
	for _, v := range state.homework {
		bump(v.Seq)
	}
	for _, v := range state.vaccinations {
		bump(v.Seq)
	}
	for _, v := range state.sleepRecords {
		bump(v.Seq)
	}
	for _, v := range state.warehouse {
		bump(v.Seq)
	}
	for _, v := range state.complaints {
		bump(v.Seq)
	}
	for _, v := range state.activities {
		bump(v.Seq)
	}
	return max
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider, primarily for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
	seq     uint64
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
		seq:   s.nextSeq,
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	s.nextSeq = tx.seq
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) nextSequence() uint64 {
	seq := tx.seq
	tx.seq++
	return seq
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}
