package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/pkg/utils"
)

// floorPlan is the set of tables one join operation reads and writes.
// Planner functions mutate it in memory; the caller persists changed().
type floorPlan struct {
	tables map[int64]*models.Table
	dirty  map[int64]bool
}

func newFloorPlan(tables ...*models.Table) *floorPlan {
	p := &floorPlan{tables: make(map[int64]*models.Table), dirty: make(map[int64]bool)}
	for _, t := range tables {
		p.tables[t.ID] = t
	}
	return p
}

func (p *floorPlan) get(id int64) (*models.Table, bool) {
	t, ok := p.tables[id]
	return t, ok
}

func (p *floorPlan) mark(t *models.Table) {
	p.dirty[t.ID] = true
}

// changed returns the modified tables ordered by id.
func (p *floorPlan) changed() []*models.Table {
	out := make([]*models.Table, 0, len(p.dirty))
	for id := range p.dirty {
		out = append(out, p.tables[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// directLinks lists the ids a table points at through its join state.
func directLinks(t *models.Table) []int64 {
	switch js := t.JoinState().(type) {
	case models.JoinMain:
		return js.Members
	case models.JoinMember:
		return []int64{js.Parent}
	}
	return nil
}

// lockFloor locks ids and, transitively, every table joined with them.
func lockFloor(ctx context.Context, exec repositories.SQLExecutor, repo repositories.TableRepository, ids []int64) (*floorPlan, error) {
	plan := newFloorPlan()
	attempted := map[int64]bool{}
	pending := utils.UniqueInt64s(ids)
	for len(pending) > 0 {
		for _, id := range pending {
			attempted[id] = true
		}
		tables, err := repo.LockTables(ctx, exec, pending)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			plan.tables[t.ID] = t
		}

		var next []int64
		for _, t := range plan.tables {
			for _, id := range directLinks(t) {
				if !attempted[id] {
					next = append(next, id)
				}
			}
		}
		pending = utils.UniqueInt64s(next)
	}
	return plan, nil
}

// linkedTableIDs returns every other table in t's join: a main's members,
// or a member's main and siblings.
func linkedTableIDs(plan *floorPlan, t *models.Table) []int64 {
	switch js := t.JoinState().(type) {
	case models.JoinMain:
		return append([]int64{}, js.Members...)
	case models.JoinMember:
		ids := []int64{js.Parent}
		if parent, ok := plan.get(js.Parent); ok {
			if m, ok := parent.AsMain(); ok {
				for _, id := range m.Members {
					if id != t.ID {
						ids = append(ids, id)
					}
				}
			}
		}
		return ids
	}
	return nil
}

// validateJoinCandidates checks the join preconditions on the resolved candidates.
func validateJoinCandidates(candidates []*models.Table) error {
	if len(candidates) < 2 {
		return ErrNotEnoughTables
	}
	var blocked []int
	for _, t := range candidates {
		if t.Status != models.TableStatusAvailable {
			blocked = append(blocked, t.TableNumber)
		}
	}
	if len(blocked) > 0 {
		sort.Ints(blocked)
		return &TablesUnavailableError{TableNumbers: blocked}
	}
	section := candidates[0].Section
	for _, t := range candidates[1:] {
		if t.Section != section {
			return fmt.Errorf("%w: %q and %q", ErrMixedSections, section, t.Section)
		}
	}
	return nil
}

// unwindJoin dissolves the join led by mainID: its members become
// standalone and the main gets back max(originalCapacity, MinTableCapacity).
func unwindJoin(plan *floorPlan, mainID int64) {
	main, ok := plan.get(mainID)
	if !ok {
		return
	}
	js, ok := main.AsMain()
	if !ok {
		return
	}
	for _, id := range js.Members {
		member, ok := plan.get(id)
		if !ok {
			continue
		}
		if m, ok := member.AsMember(); ok && m.Parent == mainID {
			member.Join = models.Standalone{}
			plan.mark(member)
		}
	}
	main.Capacity = restoredCapacity(js.OriginalCapacity)
	main.Join = models.Standalone{}
	plan.mark(main)
}

func restoredCapacity(original int) int {
	if original < models.MinTableCapacity {
		return models.MinTableCapacity
	}
	return original
}

// joinTables makes ids[0] the main of a new join over ids. Any join a
// candidate already belongs to is unwound first.
func joinTables(plan *floorPlan, ids []int64) error {
	candidates := make([]*models.Table, 0, len(ids))
	for _, id := range ids {
		t, ok := plan.get(id)
		if !ok {
			return fmt.Errorf("%w: id %d", ErrTableNotFound, id)
		}
		candidates = append(candidates, t)
	}
	if err := validateJoinCandidates(candidates); err != nil {
		return err
	}

	for _, t := range candidates {
		var priorMain int64
		switch js := t.JoinState().(type) {
		case models.JoinMain:
			priorMain = t.ID
		case models.JoinMember:
			priorMain = js.Parent
		default:
			continue
		}
		if prior, ok := plan.get(priorMain); ok {
			if _, stillMain := prior.AsMain(); stillMain {
				utils.LogWarn("Overriding existing join", map[string]interface{}{
					"prior_main_table": prior.TableNumber,
					"candidate_table":  t.TableNumber,
				})
			}
		}
		unwindJoin(plan, priorMain)
		// A member whose main was not loaded is detached directly.
		if _, ok := t.AsMember(); ok {
			t.Join = models.Standalone{}
			plan.mark(t)
		}
	}

	main := candidates[0]
	total := 0
	for _, t := range candidates {
		total += t.Capacity
	}
	members := make([]int64, 0, len(candidates)-1)
	for _, t := range candidates[1:] {
		t.Join = models.JoinMember{Parent: main.ID}
		plan.mark(t)
		members = append(members, t.ID)
	}
	main.Join = models.JoinMain{Members: members, OriginalCapacity: main.Capacity}
	main.Capacity = total
	plan.mark(main)
	return nil
}

// unjoinTable dissolves the join led by mainID. The join must be available.
func unjoinTable(plan *floorPlan, mainID int64) error {
	main, ok := plan.get(mainID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrTableNotFound, mainID)
	}
	if _, ok := main.AsMain(); !ok {
		return fmt.Errorf("%w: table %d", ErrNotJoined, main.TableNumber)
	}
	if main.Status != models.TableStatusAvailable {
		return fmt.Errorf("%w: table %d is %s", ErrTableNotAvailable, main.TableNumber, main.Status)
	}
	unwindJoin(plan, mainID)
	return nil
}

// splitTable detaches memberIDs from the join led by mainID. The main's
// capacity drops by each detached capacity; a join left without members
// is dissolved exactly like unjoinTable.
func splitTable(plan *floorPlan, mainID int64, memberIDs []int64) error {
	main, ok := plan.get(mainID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrTableNotFound, mainID)
	}
	js, ok := main.AsMain()
	if !ok {
		return fmt.Errorf("%w: table %d", ErrNotJoined, main.TableNumber)
	}
	if main.Status != models.TableStatusAvailable {
		return fmt.Errorf("%w: table %d is %s", ErrTableNotAvailable, main.TableNumber, main.Status)
	}
	detach := utils.UniqueInt64s(memberIDs)
	if len(detach) == 0 {
		return fmt.Errorf("%w: no tables to split off", ErrNotJoinMember)
	}

	inJoin := make(map[int64]bool, len(js.Members))
	for _, id := range js.Members {
		inJoin[id] = true
	}
	for _, id := range detach {
		if !inJoin[id] {
			return fmt.Errorf("%w: id %d", ErrNotJoinMember, id)
		}
	}

	removed := make(map[int64]bool, len(detach))
	capacity := main.Capacity
	for _, id := range detach {
		member, ok := plan.get(id)
		if !ok {
			return fmt.Errorf("%w: id %d", ErrTableNotFound, id)
		}
		member.Join = models.Standalone{}
		plan.mark(member)
		capacity -= member.Capacity
		removed[id] = true
	}

	var remaining []int64
	for _, id := range js.Members {
		if !removed[id] {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		unwindJoin(plan, mainID)
		return nil
	}
	if capacity < js.OriginalCapacity {
		capacity = js.OriginalCapacity
	}
	main.Capacity = capacity
	main.Join = models.JoinMain{Members: remaining, OriginalCapacity: js.OriginalCapacity}
	plan.mark(main)
	return nil
}

// propagateStatus sets root to status. Transitions to occupied or available
// are applied to every linked table too. occupiedAt follows the status and
// currentOrder is cleared only when a table becomes available.
func propagateStatus(plan *floorPlan, root *models.Table, status models.TableStatus, now time.Time) {
	applyStatus(plan, root, status, now)
	if status != models.TableStatusOccupied && status != models.TableStatusAvailable {
		return
	}
	for _, id := range linkedTableIDs(plan, root) {
		if t, ok := plan.get(id); ok {
			applyStatus(plan, t, status, now)
		}
	}
}

func applyStatus(plan *floorPlan, t *models.Table, status models.TableStatus, now time.Time) {
	switch status {
	case models.TableStatusOccupied:
		if t.Status != models.TableStatusOccupied || t.OccupiedAt == nil {
			at := now
			t.OccupiedAt = &at
		}
	case models.TableStatusAvailable:
		t.OccupiedAt = nil
		t.CurrentOrder = nil
	default:
		t.OccupiedAt = nil
	}
	t.Status = status
	plan.mark(t)
}

// transitionTable locks tableID and its join, propagates status and
// persists every changed row inside the caller's transaction. adjust, when
// set, runs on the root table after propagation.
func transitionTable(
	ctx context.Context,
	exec repositories.SQLExecutor,
	repo repositories.TableRepository,
	tableID int64,
	status models.TableStatus,
	now time.Time,
	adjust func(root *models.Table),
) ([]*models.Table, error) {
	plan, err := lockFloor(ctx, exec, repo, []int64{tableID})
	if err != nil {
		return nil, err
	}
	root, ok := plan.get(tableID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrTableNotFound, tableID)
	}
	propagateStatus(plan, root, status, now)
	if adjust != nil {
		adjust(root)
	}
	return persistPlan(ctx, exec, repo, plan)
}

func persistPlan(ctx context.Context, exec repositories.SQLExecutor, repo repositories.TableRepository, plan *floorPlan) ([]*models.Table, error) {
	changed := plan.changed()
	for _, t := range changed {
		if err := repo.UpdateTable(ctx, exec, t); err != nil {
			return nil, fmt.Errorf("saving table %d: %w", t.TableNumber, err)
		}
	}
	return changed, nil
}
