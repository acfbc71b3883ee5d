package scope

import (
	"context"
	"errors"
	"testing"

	"kindercore/internal/infra/persistence/memory"
	"kindercore/pkg/domain"
)

// fixtureView seeds two branches with groups, staff, families, and per-branch
// operational records, then hands the read-only view to fn.
func fixtureView(t *testing.T, fn func(domain.TransactionView)) {
	t.Helper()
	store := memory.NewStore(nil)
	ctx := context.Background()

	teacherNorthID := "teacher-north"
	parentAnaID := "parent-ana"

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateBranch(domain.Branch{Base: domain.Base{ID: "branch-north"}, Name: "north", Capacity: 30}); err != nil {
			return err
		}
		if _, err := tx.CreateBranch(domain.Branch{Base: domain.Base{ID: "branch-south"}, Name: "south", Capacity: 30}); err != nil {
			return err
		}
		if _, err := tx.CreateGroup(domain.Group{Base: domain.Base{ID: "group-n1"}, Name: "stars", BranchID: "branch-north", TeacherID: &teacherNorthID}); err != nil {
			return err
		}
		if _, err := tx.CreateGroup(domain.Group{Base: domain.Base{ID: "group-n2"}, Name: "moons", BranchID: "branch-north"}); err != nil {
			return err
		}
		if _, err := tx.CreateGroup(domain.Group{Base: domain.Base{ID: "group-s1"}, Name: "suns", BranchID: "branch-south"}); err != nil {
			return err
		}
		if _, err := tx.CreateTeacher(domain.Teacher{Base: domain.Base{ID: teacherNorthID}, Name: "kate", Email: "kate@example.com", BranchID: "branch-north", GroupIDs: []string{"group-n1"}}); err != nil {
			return err
		}
		if _, err := tx.CreateTeacher(domain.Teacher{Base: domain.Base{ID: "teacher-south"}, Name: "lena", Email: "lena@example.com", BranchID: "branch-south"}); err != nil {
			return err
		}
		if _, err := tx.CreateParent(domain.Parent{Base: domain.Base{ID: parentAnaID}, Name: "ana", Email: "ana@example.com", ChildrenIDs: []string{"student-n1"}}); err != nil {
			return err
		}
		if _, err := tx.CreateParent(domain.Parent{Base: domain.Base{ID: "parent-bo"}, Name: "boris", Email: "boris@example.com", ChildrenIDs: []string{"student-s1"}}); err != nil {
			return err
		}
		boID := "parent-bo"
		if _, err := tx.CreateStudent(domain.Student{Base: domain.Base{ID: "student-n1"}, Name: "mila", Age: 4, GroupID: "group-n1", ParentID: &parentAnaID}); err != nil {
			return err
		}
		if _, err := tx.CreateStudent(domain.Student{Base: domain.Base{ID: "student-n2"}, Name: "tim", Age: 5, GroupID: "group-n2"}); err != nil {
			return err
		}
		if _, err := tx.CreateStudent(domain.Student{Base: domain.Base{ID: "student-s1"}, Name: "olga", Age: 3, GroupID: "group-s1", ParentID: &boID}); err != nil {
			return err
		}
		northID := "branch-north"
		users := []domain.User{
			{Base: domain.Base{ID: "user-director"}, Name: "dora", Email: "dora@example.com", Role: domain.RoleDirector, BranchID: &northID},
			{Base: domain.Base{ID: "user-admin"}, Name: "adam", Email: "adam@example.com", Role: domain.RoleAdmin},
			{Base: domain.Base{ID: "user-kate"}, Name: "kate", Email: "kate@example.com", Role: domain.RoleTeacher, BranchID: &northID},
			{Base: domain.Base{ID: "user-ana"}, Name: "ana", Email: "ana@example.com", Role: domain.RoleParent},
			{Base: domain.Base{ID: "user-root"}, Name: "root", Email: "root@example.com", Role: domain.RoleSuperadmin},
		}
		for _, user := range users {
			if _, err := tx.CreateUser(user); err != nil {
				return err
			}
		}
		if _, err := tx.CreateFinancialRecord(domain.FinancialRecord{Base: domain.Base{ID: "fin-north"}, Type: domain.RecordRevenue, Amount: 1000, BranchID: "branch-north"}); err != nil {
			return err
		}
		if _, err := tx.CreateFinancialRecord(domain.FinancialRecord{Base: domain.Base{ID: "fin-south"}, Type: domain.RecordExpense, Amount: 400, BranchID: "branch-south"}); err != nil {
			return err
		}
		groupN1 := "group-n1"
		groupS1 := "group-s1"
		if _, err := tx.CreateMeal(domain.Meal{Base: domain.Base{ID: "meal-branchwide"}, Name: "lunch", BranchID: "branch-north"}); err != nil {
			return err
		}
		if _, err := tx.CreateMeal(domain.Meal{Base: domain.Base{ID: "meal-n1"}, Name: "snack", BranchID: "branch-north", GroupID: &groupN1}); err != nil {
			return err
		}
		if _, err := tx.CreateMeal(domain.Meal{Base: domain.Base{ID: "meal-s1"}, Name: "snack", BranchID: "branch-south", GroupID: &groupS1}); err != nil {
			return err
		}
		if _, err := tx.CreateHomework(domain.Homework{Base: domain.Base{ID: "hw-n1"}, Title: "letters", GroupID: "group-n1"}); err != nil {
			return err
		}
		if _, err := tx.CreateHomework(domain.Homework{Base: domain.Base{ID: "hw-s1"}, Title: "numbers", GroupID: "group-s1"}); err != nil {
			return err
		}
		if _, err := tx.CreateVaccination(domain.Vaccination{Base: domain.Base{ID: "vac-n1"}, StudentID: "student-n1", Vaccine: "mmr"}); err != nil {
			return err
		}
		if _, err := tx.CreateVaccination(domain.Vaccination{Base: domain.Base{ID: "vac-s1"}, StudentID: "student-s1", Vaccine: "mmr"}); err != nil {
			return err
		}
		if _, err := tx.CreateSleepRecord(domain.SleepRecord{Base: domain.Base{ID: "sleep-n1"}, StudentID: "student-n1", GroupID: "group-n1"}); err != nil {
			return err
		}
		if _, err := tx.CreateSleepRecord(domain.SleepRecord{Base: domain.Base{ID: "sleep-s1"}, StudentID: "student-s1", GroupID: "group-s1"}); err != nil {
			return err
		}
		if _, err := tx.CreateWarehouseItem(domain.WarehouseItem{Base: domain.Base{ID: "item-north"}, Name: "paper", Quantity: 10, BranchID: "branch-north"}); err != nil {
			return err
		}
		if _, err := tx.CreateComplaint(domain.Complaint{Base: domain.Base{ID: "complaint-ana"}, Subject: "food", ParentID: parentAnaID, BranchID: "branch-north"}); err != nil {
			return err
		}
		if _, err := tx.CreateComplaint(domain.Complaint{Base: domain.Base{ID: "complaint-bo"}, Subject: "naps", ParentID: "parent-bo", BranchID: "branch-south"}); err != nil {
			return err
		}
		if _, err := tx.CreateActivity(domain.Activity{Base: domain.Base{ID: "act-n1"}, Title: "painting", GroupID: "group-n1"}); err != nil {
			return err
		}
		if _, err := tx.CreateActivity(domain.Activity{Base: domain.Base{ID: "act-s1"}, Title: "music", GroupID: "group-s1"}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}

	if err := store.View(ctx, func(view domain.TransactionView) error {
		fn(view)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func branchPtr(id string) *string { return &id }

func TestResolveKinds(t *testing.T) {
	cases := []struct {
		name     string
		identity Identity
		want     Kind
	}{
		{"director with branch", Identity{Email: "dora@example.com", Role: domain.RoleDirector, BranchID: branchPtr("branch-north")}, KindBranch},
		{"director without branch", Identity{Email: "dora@example.com", Role: domain.RoleDirector}, KindGlobal},
		{"admin without branch", Identity{Email: "adam@example.com", Role: domain.RoleAdmin}, KindGlobal},
		{"admin with empty branch id", Identity{Email: "adam@example.com", Role: domain.RoleAdmin, BranchID: branchPtr("")}, KindGlobal},
		{"teacher with profile", Identity{Email: "kate@example.com", Role: domain.RoleTeacher}, KindTeacher},
		{"teacher email case-insensitive", Identity{Email: "KATE@EXAMPLE.COM", Role: domain.RoleTeacher}, KindTeacher},
		{"teacher without profile", Identity{Email: "ghost@example.com", Role: domain.RoleTeacher}, KindEmpty},
		{"parent with profile", Identity{Email: "ana@example.com", Role: domain.RoleParent}, KindParent},
		{"parent without profile", Identity{Email: "ghost@example.com", Role: domain.RoleParent}, KindEmpty},
		{"superadmin", Identity{Email: "root@example.com", Role: domain.RoleSuperadmin}, KindPlatform},
		{"unknown role", Identity{Email: "x@example.com", Role: domain.Role("janitor")}, KindEmpty},
	}
	fixtureView(t, func(view domain.TransactionView) {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := Resolve(view, tc.identity).Kind(); got != tc.want {
					t.Fatalf("kind = %s, want %s", got, tc.want)
				}
			})
		}
	})
}

func TestEmptyScopeSeesNothing(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		s := Resolve(view, Identity{Email: "ghost@example.com", Role: domain.RoleTeacher})

		branches, err := s.Branches()
		if err != nil || branches != nil {
			t.Fatalf("branches = %v, %v; want nil, nil", branches, err)
		}
		students, err := s.Students()
		if err != nil || students != nil {
			t.Fatalf("students = %v, %v; want nil, nil", students, err)
		}
		records, err := s.FinancialRecords()
		if err != nil || records != nil {
			t.Fatalf("finance = %v, %v; want nil, nil", records, err)
		}
		items, err := s.WarehouseItems()
		if err != nil || items != nil {
			t.Fatalf("warehouse = %v, %v; want nil, nil", items, err)
		}
	})
}

func TestBranchScopeIsLocked(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		s := Resolve(view, Identity{Email: "dora@example.com", Role: domain.RoleDirector, BranchID: branchPtr("branch-north")})

		branches, err := s.Branches()
		if err != nil || len(branches) != 1 || branches[0].ID != "branch-north" {
			t.Fatalf("branches = %v, %v", branches, err)
		}
		students, err := s.Students()
		if err != nil || len(students) != 2 {
			t.Fatalf("students = %v, %v; want the two north students", students, err)
		}
		records, err := s.FinancialRecords()
		if err != nil || len(records) != 1 || records[0].BranchID != "branch-north" {
			t.Fatalf("finance = %v, %v", records, err)
		}

		// A filter pointing elsewhere never widens or moves the lock.
		widened := s.WithBranchFilter("branch-south")
		students, err = widened.Students()
		if err != nil || len(students) != 2 {
			t.Fatalf("filtered students = %v, %v; lock must hold", students, err)
		}
		complaints, err := widened.Complaints()
		if err != nil || len(complaints) != 1 || complaints[0].ID != "complaint-ana" {
			t.Fatalf("complaints = %v, %v", complaints, err)
		}
	})
}

func TestGlobalScopeHonorsBranchFilter(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		s := Resolve(view, Identity{Email: "adam@example.com", Role: domain.RoleAdmin})

		students, err := s.Students()
		if err != nil || len(students) != 3 {
			t.Fatalf("students = %v, %v; want all 3", students, err)
		}
		vaccinations, err := s.Vaccinations()
		if err != nil || len(vaccinations) != 2 {
			t.Fatalf("vaccinations = %v, %v; want all 2", vaccinations, err)
		}

		narrowed := s.WithBranchFilter("branch-south")
		students, err = narrowed.Students()
		if err != nil || len(students) != 1 || students[0].ID != "student-s1" {
			t.Fatalf("narrowed students = %v, %v", students, err)
		}
		homework, err := narrowed.Homework()
		if err != nil || len(homework) != 1 || homework[0].ID != "hw-s1" {
			t.Fatalf("narrowed homework = %v, %v", homework, err)
		}
		vaccinations, err = narrowed.Vaccinations()
		if err != nil || len(vaccinations) != 1 || vaccinations[0].ID != "vac-s1" {
			t.Fatalf("narrowed vaccinations = %v, %v", vaccinations, err)
		}
	})
}

func TestTeacherScope(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		s := Resolve(view, Identity{Email: "kate@example.com", Role: domain.RoleTeacher})

		groups, err := s.Groups()
		if err != nil || len(groups) != 1 || groups[0].ID != "group-n1" {
			t.Fatalf("groups = %v, %v", groups, err)
		}
		students, err := s.Students()
		if err != nil || len(students) != 1 || students[0].ID != "student-n1" {
			t.Fatalf("students = %v, %v", students, err)
		}
		parents, err := s.Parents()
		if err != nil || len(parents) != 1 || parents[0].ID != "parent-ana" {
			t.Fatalf("parents = %v, %v", parents, err)
		}
		meals, err := s.Meals()
		if err != nil || len(meals) != 2 {
			t.Fatalf("meals = %v, %v; want group meal plus branch-wide meal", meals, err)
		}
		homework, err := s.Homework()
		if err != nil || len(homework) != 1 || homework[0].ID != "hw-n1" {
			t.Fatalf("homework = %v, %v", homework, err)
		}
		sleeps, err := s.SleepRecords()
		if err != nil || len(sleeps) != 1 || sleeps[0].ID != "sleep-n1" {
			t.Fatalf("sleep records = %v, %v", sleeps, err)
		}

		denied := []struct {
			name string
			call func() error
		}{
			{"branches", func() error { _, err := s.Branches(); return err }},
			{"users", func() error { _, err := s.Users(); return err }},
			{"finance", func() error { _, err := s.FinancialRecords(); return err }},
			{"vaccinations", func() error { _, err := s.Vaccinations(); return err }},
			{"warehouse", func() error { _, err := s.WarehouseItems(); return err }},
			{"complaints", func() error { _, err := s.Complaints(); return err }},
		}
		for _, d := range denied {
			var ade domain.AccessDeniedError
			if err := d.call(); !errors.As(err, &ade) {
				t.Fatalf("%s: expected access denied, got %v", d.name, err)
			}
		}
	})
}

func TestTeacherScopeUnionsLegacyPointer(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		// lena has no GroupIDs; visibility can only come from a group pointer,
		// and no group points at her.
		s := Resolve(view, Identity{Email: "lena@example.com", Role: domain.RoleTeacher})
		groups, err := s.Groups()
		if err != nil || len(groups) != 0 {
			t.Fatalf("groups = %v, %v; want none", groups, err)
		}

		// kate appears in both the pointer on group-n1 and her own list; the
		// union must not duplicate the group.
		s = Resolve(view, Identity{Email: "kate@example.com", Role: domain.RoleTeacher})
		groups, err = s.Groups()
		if err != nil || len(groups) != 1 {
			t.Fatalf("groups = %v, %v; want exactly one", groups, err)
		}
	})
}

func TestParentScopeSeesExactlyOwnChildren(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		s := Resolve(view, Identity{Email: "ana@example.com", Role: domain.RoleParent})

		students, err := s.Students()
		if err != nil || len(students) != 1 || students[0].ID != "student-n1" {
			t.Fatalf("students = %v, %v", students, err)
		}
		parents, err := s.Parents()
		if err != nil || len(parents) != 1 || parents[0].ID != "parent-ana" {
			t.Fatalf("parents = %v, %v", parents, err)
		}
		branches, err := s.Branches()
		if err != nil || len(branches) != 1 || branches[0].ID != "branch-north" {
			t.Fatalf("branches = %v, %v", branches, err)
		}
		teachers, err := s.Teachers()
		if err != nil || len(teachers) != 1 || teachers[0].ID != "teacher-north" {
			t.Fatalf("teachers = %v, %v", teachers, err)
		}
		vaccinations, err := s.Vaccinations()
		if err != nil || len(vaccinations) != 1 || vaccinations[0].ID != "vac-n1" {
			t.Fatalf("vaccinations = %v, %v", vaccinations, err)
		}
		complaints, err := s.Complaints()
		if err != nil || len(complaints) != 1 || complaints[0].ID != "complaint-ana" {
			t.Fatalf("complaints = %v, %v", complaints, err)
		}
		meals, err := s.Meals()
		if err != nil || len(meals) != 2 {
			t.Fatalf("meals = %v, %v; want child group meal plus branch-wide meal", meals, err)
		}

		for _, call := range []func() error{
			func() error { _, err := s.Users(); return err },
			func() error { _, err := s.FinancialRecords(); return err },
			func() error { _, err := s.WarehouseItems(); return err },
		} {
			var ade domain.AccessDeniedError
			if err := call(); !errors.As(err, &ade) {
				t.Fatalf("expected access denied, got %v", err)
			}
		}
	})
}

func TestPlatformScope(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		s := Resolve(view, Identity{Email: "root@example.com", Role: domain.RoleSuperadmin})

		branches, err := s.Branches()
		if err != nil || len(branches) != 2 {
			t.Fatalf("branches = %v, %v", branches, err)
		}
		users, err := s.Users()
		if err != nil || len(users) != 5 {
			t.Fatalf("users = %v, %v", users, err)
		}
		students, err := s.Students()
		if err != nil || len(students) != 3 {
			t.Fatalf("students = %v, %v", students, err)
		}
		records, err := s.FinancialRecords()
		if err != nil || len(records) != 2 {
			t.Fatalf("finance = %v, %v", records, err)
		}

		denied := []func() error{
			func() error { _, err := s.Meals(); return err },
			func() error { _, err := s.Homework(); return err },
			func() error { _, err := s.Vaccinations(); return err },
			func() error { _, err := s.SleepRecords(); return err },
			func() error { _, err := s.WarehouseItems(); return err },
			func() error { _, err := s.Complaints(); return err },
			func() error { _, err := s.Activities(); return err },
		}
		for _, call := range denied {
			var ade domain.AccessDeniedError
			if err := call(); !errors.As(err, &ade) {
				t.Fatalf("expected access denied, got %v", err)
			}
			if ade.Role != domain.RoleSuperadmin {
				t.Fatalf("denied role = %s, want %s", ade.Role, domain.RoleSuperadmin)
			}
		}
	})
}

func TestScopeIsSubsetOfGlobal(t *testing.T) {
	fixtureView(t, func(view domain.TransactionView) {
		global := Resolve(view, Identity{Email: "adam@example.com", Role: domain.RoleAdmin})
		all, err := global.Students()
		if err != nil {
			t.Fatalf("global students: %v", err)
		}
		universe := make(map[string]struct{}, len(all))
		for _, student := range all {
			universe[student.ID] = struct{}{}
		}

		identities := []Identity{
			{Email: "dora@example.com", Role: domain.RoleDirector, BranchID: branchPtr("branch-north")},
			{Email: "kate@example.com", Role: domain.RoleTeacher},
			{Email: "ana@example.com", Role: domain.RoleParent},
			{Email: "root@example.com", Role: domain.RoleSuperadmin},
		}
		for _, identity := range identities {
			students, err := Resolve(view, identity).Students()
			if err != nil {
				t.Fatalf("%s students: %v", identity.Role, err)
			}
			for _, student := range students {
				if _, ok := universe[student.ID]; !ok {
					t.Fatalf("%s scope leaked student %s outside the universe", identity.Role, student.ID)
				}
			}
		}
	})
}

func TestIdentityFromUser(t *testing.T) {
	northID := "branch-north"
	user := domain.User{Email: "dora@example.com", Role: domain.RoleDirector, BranchID: &northID}
	identity := IdentityFromUser(user)
	if identity.Email != user.Email || identity.Role != user.Role || identity.BranchID != user.BranchID {
		t.Fatalf("identity = %+v", identity)
	}
}
