package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"kindercore/pkg/domain"
)

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "kindercore.db")
	ctx := context.Background()

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	parentID := "parent-1"
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateBranch(domain.Branch{Base: domain.Base{ID: "branch-1"}, Name: "north", Capacity: 20}); err != nil {
			return err
		}
		if _, err := tx.CreateGroup(domain.Group{Base: domain.Base{ID: "group-1"}, Name: "stars", BranchID: "branch-1"}); err != nil {
			return err
		}
		if _, err := tx.CreateParent(domain.Parent{Base: domain.Base{ID: parentID}, Name: "ana", Email: "ana@example.com", ChildrenIDs: []string{"student-1"}}); err != nil {
			return err
		}
		_, err := tx.CreateStudent(domain.Student{Base: domain.Base{ID: "student-1"}, Name: "mila", Age: 4, GroupID: "group-1", ParentID: &parentID})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	branch, ok := reopened.GetBranch("branch-1")
	if !ok || branch.Name != "north" {
		t.Fatalf("branch after reopen = %+v, %v", branch, ok)
	}
	student, ok := reopened.GetStudent("student-1")
	if !ok {
		t.Fatal("student missing after reopen")
	}
	if student.BranchID != "branch-1" {
		t.Fatalf("branch mirror = %q, want branch-1", student.BranchID)
	}
	if student.ParentID == nil || *student.ParentID != parentID {
		t.Fatalf("parent link = %v, want %s", student.ParentID, parentID)
	}
	parent, _ := reopened.GetParent(parentID)
	if len(parent.ChildrenIDs) != 1 || parent.ChildrenIDs[0] != "student-1" {
		t.Fatalf("children = %v, want [student-1]", parent.ChildrenIDs)
	}
}

func TestSnapshotUpsertsOnEveryCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kindercore.db")
	ctx := context.Background()

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateBranch(domain.Branch{Base: domain.Base{ID: "branch-1"}, Name: "first", Capacity: 20})
		return err
	})
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateBranch("branch-1", func(b *domain.Branch) error {
			b.Name = "second"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	// Each bucket row is upserted in place, never duplicated.
	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state WHERE bucket = 'branches'`).Scan(&rows); err != nil {
		t.Fatalf("count bucket rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("branches bucket rows = %d, want 1", rows)
	}
}

func TestFailedTransactionDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kindercore.db")
	ctx := context.Background()

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateBranch(domain.Branch{Base: domain.Base{ID: "branch-1"}, Name: "north", Capacity: 20}); err != nil {
			return err
		}
		_, err := tx.UpdateGroup("missing", func(g *domain.Group) error { return nil })
		return err
	})
	if err == nil {
		t.Fatal("expected transaction to fail")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if got := len(reopened.ListBranches()); got != 0 {
		t.Fatalf("failed transaction persisted %d branches", got)
	}
}

func TestDefaultPathApplied(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "named.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() == "" {
		t.Fatal("path not recorded")
	}
}
