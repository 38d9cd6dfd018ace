package services

import (
	"errors"
	"testing"
	"time"

	"recanto_verde_backend/internal/models"
)

func floorTable(id int64, number, capacity int, section string) *models.Table {
	return &models.Table{
		ID:          id,
		TableNumber: number,
		Capacity:    capacity,
		Status:      models.TableStatusAvailable,
		Section:     section,
	}
}

func TestJoinTablesBuildsMainAndMembers(t *testing.T) {
	t1 := floorTable(1, 1, 4, "main")
	t2 := floorTable(2, 2, 2, "main")
	t3 := floorTable(3, 3, 6, "main")
	plan := newFloorPlan(t1, t2, t3)

	if err := joinTables(plan, []int64{1, 2, 3}); err != nil {
		t.Fatalf("joinTables: %v", err)
	}

	main, ok := t1.AsMain()
	if !ok {
		t.Fatalf("table 1 join = %#v, want main", t1.Join)
	}
	if len(main.Members) != 2 || main.Members[0] != 2 || main.Members[1] != 3 {
		t.Errorf("members = %v, want [2 3]", main.Members)
	}
	if t1.Capacity != 12 || main.OriginalCapacity != 4 {
		t.Errorf("capacity = %d (original %d), want 12 (4)", t1.Capacity, main.OriginalCapacity)
	}
	for _, member := range []*models.Table{t2, t3} {
		m, ok := member.AsMember()
		if !ok || m.Parent != 1 {
			t.Errorf("table %d join = %#v, want member of 1", member.TableNumber, member.Join)
		}
	}
	if got := len(plan.changed()); got != 3 {
		t.Errorf("changed tables = %d, want 3", got)
	}
}

func TestJoinThenUnjoinRestoresCapacities(t *testing.T) {
	t1 := floorTable(1, 1, 4, "main")
	t2 := floorTable(2, 2, 2, "main")
	t3 := floorTable(3, 3, 3, "main")
	plan := newFloorPlan(t1, t2, t3)

	if err := joinTables(plan, []int64{1, 2, 3}); err != nil {
		t.Fatalf("joinTables: %v", err)
	}
	if err := unjoinTable(plan, 1); err != nil {
		t.Fatalf("unjoinTable: %v", err)
	}

	want := map[int64]int{1: 4, 2: 2, 3: 3}
	for id, capacity := range want {
		tbl, _ := plan.get(id)
		if !tbl.IsStandalone() {
			t.Errorf("table %d still joined: %#v", id, tbl.Join)
		}
		if tbl.Capacity != capacity {
			t.Errorf("table %d capacity = %d, want %d", id, tbl.Capacity, capacity)
		}
	}
}

func TestUnjoinAppliesCapacityFloor(t *testing.T) {
	main := floorTable(1, 1, 3, "main")
	main.Join = models.JoinMain{Members: []int64{2}, OriginalCapacity: 1}
	member := floorTable(2, 2, 2, "main")
	member.Join = models.JoinMember{Parent: 1}
	plan := newFloorPlan(main, member)

	if err := unjoinTable(plan, 1); err != nil {
		t.Fatalf("unjoinTable: %v", err)
	}
	if main.Capacity != models.MinTableCapacity {
		t.Errorf("capacity = %d, want %d", main.Capacity, models.MinTableCapacity)
	}
}

func TestJoinPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		tables  []*models.Table
		ids     []int64
		wantErr error
	}{
		{
			name:    "single table",
			tables:  []*models.Table{floorTable(1, 1, 4, "main")},
			ids:     []int64{1},
			wantErr: ErrNotEnoughTables,
		},
		{
			name:    "unknown id",
			tables:  []*models.Table{floorTable(1, 1, 4, "main")},
			ids:     []int64{1, 99},
			wantErr: ErrTableNotFound,
		},
		{
			name:    "mixed sections",
			tables:  []*models.Table{floorTable(1, 1, 4, "main"), floorTable(2, 2, 2, "terrace")},
			ids:     []int64{1, 2},
			wantErr: ErrMixedSections,
		},
	}
	for _, tt := range tests {
		plan := newFloorPlan(tt.tables...)
		if err := joinTables(plan, tt.ids); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestJoinRejectsUnavailableListingNumbers(t *testing.T) {
	t1 := floorTable(1, 1, 4, "main")
	t2 := floorTable(2, 7, 2, "main")
	t2.Status = models.TableStatusOccupied
	t3 := floorTable(3, 5, 2, "main")
	t3.Status = models.TableStatusReserved
	plan := newFloorPlan(t1, t2, t3)

	err := joinTables(plan, []int64{1, 2, 3})
	if !errors.Is(err, ErrTablesUnavailable) {
		t.Fatalf("error = %v, want ErrTablesUnavailable", err)
	}
	var unavailable *TablesUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error %T is not *TablesUnavailableError", err)
	}
	if len(unavailable.TableNumbers) != 2 || unavailable.TableNumbers[0] != 5 || unavailable.TableNumbers[1] != 7 {
		t.Errorf("table numbers = %v, want [5 7]", unavailable.TableNumbers)
	}
	if len(plan.changed()) != 0 {
		t.Error("a rejected join must not change any table")
	}
}

func TestJoinOverridesPriorJoin(t *testing.T) {
	t1 := floorTable(1, 1, 6, "main")
	t1.Join = models.JoinMain{Members: []int64{2}, OriginalCapacity: 4}
	t2 := floorTable(2, 2, 2, "main")
	t2.Join = models.JoinMember{Parent: 1}
	t3 := floorTable(3, 3, 2, "main")
	plan := newFloorPlan(t1, t2, t3)

	if err := joinTables(plan, []int64{2, 3}); err != nil {
		t.Fatalf("joinTables: %v", err)
	}
	if !t1.IsStandalone() || t1.Capacity != 4 {
		t.Errorf("prior main = %#v cap %d, want standalone cap 4", t1.Join, t1.Capacity)
	}
	main, ok := t2.AsMain()
	if !ok || len(main.Members) != 1 || main.Members[0] != 3 || t2.Capacity != 4 {
		t.Errorf("new main = %#v cap %d", t2.Join, t2.Capacity)
	}
}

func TestSplitTable(t *testing.T) {
	newJoin := func() (*floorPlan, *models.Table) {
		main := floorTable(1, 1, 8, "main")
		main.Join = models.JoinMain{Members: []int64{2, 3}, OriginalCapacity: 4}
		t2 := floorTable(2, 2, 2, "main")
		t2.Join = models.JoinMember{Parent: 1}
		t3 := floorTable(3, 3, 2, "main")
		t3.Join = models.JoinMember{Parent: 1}
		return newFloorPlan(main, t2, t3), main
	}

	plan, main := newJoin()
	if err := splitTable(plan, 1, []int64{3}); err != nil {
		t.Fatalf("splitTable: %v", err)
	}
	js, ok := main.AsMain()
	if !ok || len(js.Members) != 1 || js.Members[0] != 2 || main.Capacity != 6 {
		t.Errorf("after partial split main = %#v cap %d", main.Join, main.Capacity)
	}
	if t3, _ := plan.get(3); !t3.IsStandalone() {
		t.Error("split table should be standalone")
	}

	plan, main = newJoin()
	if err := splitTable(plan, 1, []int64{2, 3}); err != nil {
		t.Fatalf("splitTable all: %v", err)
	}
	if !main.IsStandalone() || main.Capacity != 4 {
		t.Errorf("after full split main = %#v cap %d, want standalone cap 4", main.Join, main.Capacity)
	}

	plan, _ = newJoin()
	if err := splitTable(plan, 1, []int64{9}); !errors.Is(err, ErrNotJoinMember) {
		t.Errorf("split of a non-member error = %v", err)
	}
	if err := splitTable(plan, 2, []int64{3}); !errors.Is(err, ErrNotJoined) {
		t.Errorf("split on a member error = %v", err)
	}
}

func TestUnjoinPreconditions(t *testing.T) {
	main := floorTable(1, 1, 6, "main")
	main.Join = models.JoinMain{Members: []int64{2}, OriginalCapacity: 4}
	main.Status = models.TableStatusOccupied
	member := floorTable(2, 2, 2, "main")
	member.Join = models.JoinMember{Parent: 1}
	plan := newFloorPlan(main, member)

	if err := unjoinTable(plan, 1); !errors.Is(err, ErrTableNotAvailable) {
		t.Errorf("unjoin occupied error = %v", err)
	}
	if err := unjoinTable(plan, 2); !errors.Is(err, ErrNotJoined) {
		t.Errorf("unjoin member error = %v", err)
	}
}

func TestPropagateStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC)
	order := int64(10)

	main := floorTable(1, 1, 6, "main")
	main.Join = models.JoinMain{Members: []int64{2, 3}, OriginalCapacity: 4}
	t2 := floorTable(2, 2, 2, "main")
	t2.Join = models.JoinMember{Parent: 1}
	t3 := floorTable(3, 3, 2, "main")
	t3.Join = models.JoinMember{Parent: 1}
	plan := newFloorPlan(main, t2, t3)

	// Occupying a member reaches the main and the sibling.
	propagateStatus(plan, t2, models.TableStatusOccupied, now)
	for _, tbl := range []*models.Table{main, t2, t3} {
		if tbl.Status != models.TableStatusOccupied || tbl.OccupiedAt == nil || !tbl.OccupiedAt.Equal(now) {
			t.Errorf("table %d = %s at %v, want occupied at %v", tbl.TableNumber, tbl.Status, tbl.OccupiedAt, now)
		}
	}

	main.CurrentOrder = &order
	propagateStatus(plan, main, models.TableStatusAvailable, now.Add(time.Hour))
	for _, tbl := range []*models.Table{main, t2, t3} {
		if tbl.Status != models.TableStatusAvailable || tbl.OccupiedAt != nil || tbl.CurrentOrder != nil {
			t.Errorf("table %d after free = %s occupied_at %v order %v", tbl.TableNumber, tbl.Status, tbl.OccupiedAt, tbl.CurrentOrder)
		}
	}

	// Reserved is not propagated.
	propagateStatus(plan, main, models.TableStatusReserved, now)
	if main.Status != models.TableStatusReserved || t2.Status != models.TableStatusAvailable {
		t.Errorf("reserved propagated: main %s member %s", main.Status, t2.Status)
	}
}
