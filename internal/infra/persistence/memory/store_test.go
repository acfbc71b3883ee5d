package memory

import (
	"context"
	"errors"
	"testing"

	"kindercore/pkg/domain"
)

type blockEverythingRule struct{}

func (blockEverythingRule) Name() string { return "block_everything" }

func (blockEverythingRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "block_everything",
			Severity: domain.SeverityBlock,
			Message:  "no changes allowed",
		})
	}
	return res, nil
}

func seedState(t *testing.T, store *Store) {
	t.Helper()
	parentID := "parent-1"
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateBranch(Branch{Base: domain.Base{ID: "branch-1"}, Name: "north", Capacity: 20}); err != nil {
			return err
		}
		if _, err := tx.CreateGroup(Group{Base: domain.Base{ID: "group-1"}, Name: "stars", BranchID: "branch-1"}); err != nil {
			return err
		}
		if _, err := tx.CreateParent(Parent{Base: domain.Base{ID: parentID}, Name: "ana", Email: "ana@example.com", ChildrenIDs: []string{"student-1"}}); err != nil {
			return err
		}
		if _, err := tx.CreateStudent(Student{Base: domain.Base{ID: "student-1"}, Name: "mila", Age: 4, GroupID: "group-1", ParentID: &parentID}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	source := NewStore(nil)
	seedState(t, source)

	target := NewStore(nil)
	target.ImportState(source.ExportState())

	if got := len(target.ListBranches()); got != 1 {
		t.Fatalf("branches = %d, want 1", got)
	}
	student, ok := target.GetStudent("student-1")
	if !ok {
		t.Fatal("student missing after import")
	}
	if student.BranchID != "branch-1" {
		t.Fatalf("branch mirror = %q, want branch-1", student.BranchID)
	}
	if student.ParentID == nil || *student.ParentID != "parent-1" {
		t.Fatalf("parent link = %v, want parent-1", student.ParentID)
	}
	parent, _ := target.GetParent("parent-1")
	if len(parent.ChildrenIDs) != 1 || parent.ChildrenIDs[0] != "student-1" {
		t.Fatalf("children = %v, want [student-1]", parent.ChildrenIDs)
	}
}

func TestImportStateIsIsolatedFromSource(t *testing.T) {
	source := NewStore(nil)
	seedState(t, source)
	snapshot := source.ExportState()

	target := NewStore(nil)
	target.ImportState(snapshot)

	// Mutating the source afterwards must not leak into the target.
	_, err := source.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateBranch("branch-1", func(b *Branch) error {
			b.Name = "renamed"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("mutate source: %v", err)
	}
	branch, _ := target.GetBranch("branch-1")
	if branch.Name != "north" {
		t.Fatalf("target branch name = %q, want north", branch.Name)
	}
}

func TestImportRepairsCorruptSnapshot(t *testing.T) {
	source := NewStore(nil)
	seedState(t, source)
	snapshot := source.ExportState()

	// Orphan student: group gone entirely.
	snapshot.Students["student-orphan"] = Student{Base: domain.Base{ID: "student-orphan"}, Name: "ghost", GroupID: "no-such-group"}
	// Drifted branch mirror.
	drifted := snapshot.Students["student-1"]
	drifted.BranchID = "wrong-branch"
	snapshot.Students["student-1"] = drifted
	// Parent listing a missing child.
	parent := snapshot.Parents["parent-1"]
	parent.ChildrenIDs = append(parent.ChildrenIDs, "never-existed")
	snapshot.Parents["parent-1"] = parent
	// Group pointing at a missing teacher.
	missingTeacher := "no-such-teacher"
	group := snapshot.Groups["group-1"]
	group.TeacherID = &missingTeacher
	snapshot.Groups["group-1"] = group

	store := NewStore(nil)
	store.ImportState(snapshot)

	if _, ok := store.GetStudent("student-orphan"); ok {
		t.Fatal("orphan student survived import")
	}
	student, _ := store.GetStudent("student-1")
	if student.BranchID != "branch-1" {
		t.Fatalf("branch mirror = %q, want branch-1", student.BranchID)
	}
	repaired, _ := store.GetParent("parent-1")
	if len(repaired.ChildrenIDs) != 1 || repaired.ChildrenIDs[0] != "student-1" {
		t.Fatalf("children = %v, want [student-1]", repaired.ChildrenIDs)
	}
	fixedGroup, _ := store.GetGroup("group-1")
	if fixedGroup.TeacherID != nil {
		t.Fatalf("dangling teacher pointer survived: %v", *fixedGroup.TeacherID)
	}
}

func TestImportEmptySnapshotInitializesBuckets(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{})

	if got := len(store.ListBranches()); got != 0 {
		t.Fatalf("branches = %d, want 0", got)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateBranch(Branch{Name: "fresh", Capacity: 5})
		return err
	})
	if err != nil {
		t.Fatalf("create after empty import: %v", err)
	}
}

func TestBlockedTransactionLeavesStateUnchanged(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverythingRule{})
	store := NewStore(engine)

	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateBranch(Branch{Name: "north", Capacity: 20})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("result = %+v, want blocking violation", res)
	}
	if got := len(store.ListBranches()); got != 0 {
		t.Fatalf("blocked transaction committed %d branches", got)
	}
}

func TestSequenceContinuesAfterImport(t *testing.T) {
	source := NewStore(nil)
	seedState(t, source)

	target := NewStore(nil)
	target.ImportState(source.ExportState())

	var created Branch
	_, err := target.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateBranch(Branch{Name: "south", Capacity: 10})
		return err
	})
	if err != nil {
		t.Fatalf("create after import: %v", err)
	}
	existing, _ := target.GetParent("parent-1")
	if created.Seq <= existing.Seq {
		t.Fatalf("new seq %d does not continue after imported seq %d", created.Seq, existing.Seq)
	}
}

func TestFailedMutatorRollsBack(t *testing.T) {
	store := NewStore(nil)
	seedState(t, store)

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.UpdateBranch("branch-1", func(b *Branch) error {
			b.Name = "half-written"
			return nil
		}); err != nil {
			return err
		}
		_, err := tx.UpdateGroup("missing-group", func(g *Group) error { return nil })
		return err
	})
	var nfe domain.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	branch, _ := store.GetBranch("branch-1")
	if branch.Name != "north" {
		t.Fatalf("partial write leaked: branch name = %q", branch.Name)
	}
}

func TestStudentAgeBounds(t *testing.T) {
	store := NewStore(nil)
	seedState(t, store)

	for _, age := range []int{-1, 9} {
		_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
			_, err := tx.CreateStudent(Student{Name: "out-of-range", Age: age, GroupID: "group-1"})
			return err
		})
		var ve domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != "age" {
			t.Fatalf("age %d: expected age validation error, got %v", age, err)
		}
	}

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateStudent("student-1", func(st *Student) error {
			st.Age = 12
			return nil
		})
		return err
	})
	var ve domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "age" {
		t.Fatalf("expected age validation error on update, got %v", err)
	}
	student, _ := store.GetStudent("student-1")
	if student.Age != 4 {
		t.Fatalf("rejected update leaked: age = %d", student.Age)
	}
}
