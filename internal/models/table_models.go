package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TableStatus is the service state of a physical table.
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

// IsValidTableStatus checks if the provided status string is a valid TableStatus.
func IsValidTableStatus(status string) bool {
	switch TableStatus(status) {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	default:
		return false
	}
}

// MinTableCapacity is the floor applied when a joined table gets its capacity back.
const MinTableCapacity = 2

// Position is the table's location on the floor plan.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// JoinState says how a table takes part in a join. It is one of
// Standalone, JoinMain or JoinMember; no other implementations exist.
type JoinState interface {
	joinKind() string
}

// Standalone is a table that is not part of any join.
type Standalone struct{}

// JoinMain is the table that represents a join. Members lists the other
// tables of the join in join order.
type JoinMain struct {
	Members          []int64
	OriginalCapacity int
}

// JoinMember is a table absorbed into the join led by Parent.
type JoinMember struct {
	Parent int64
}

func (Standalone) joinKind() string { return JoinKindStandalone }
func (JoinMain) joinKind() string   { return JoinKindMain }
func (JoinMember) joinKind() string { return JoinKindMember }

// Persisted values of tables.join_kind.
const (
	JoinKindStandalone = "standalone"
	JoinKindMain       = "main"
	JoinKindMember     = "member"
)

// Table represents a physical table on the restaurant floor
type Table struct {
	ID              int64       `json:"id"`
	TableNumber     int         `json:"table_number"`
	Capacity        int         `json:"capacity"`
	Status          TableStatus `json:"status"`
	Position        Position    `json:"position"`
	Section         string      `json:"section"`
	Join            JoinState   `json:"-"`
	AssignedWaiters []int64     `json:"assigned_waiters"`
	CurrentOrder    *int64      `json:"current_order"`
	OccupiedAt      *time.Time  `json:"occupied_at"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// JoinState never returns nil; a zero Table is standalone.
func (t *Table) JoinState() JoinState {
	if t.Join == nil {
		return Standalone{}
	}
	return t.Join
}

// AsMain reports whether the table leads a join.
func (t *Table) AsMain() (JoinMain, bool) {
	m, ok := t.JoinState().(JoinMain)
	return m, ok
}

// AsMember reports whether the table is a virtual member of a join.
func (t *Table) AsMember() (JoinMember, bool) {
	m, ok := t.JoinState().(JoinMember)
	return m, ok
}

// IsStandalone reports whether the table is outside every join.
func (t *Table) IsStandalone() bool {
	_, ok := t.JoinState().(Standalone)
	return ok
}

// OriginalCapacity is the capacity the table had before it became a main.
func (t *Table) OriginalCapacity() int {
	if m, ok := t.AsMain(); ok {
		return m.OriginalCapacity
	}
	return t.Capacity
}

// MarshalJSON adds the flat join fields the floor UI reads.
func (t Table) MarshalJSON() ([]byte, error) {
	type tableAlias Table
	out := struct {
		tableAlias
		IsJoined         bool    `json:"is_joined"`
		JoinedWith       []int64 `json:"joined_with"`
		IsVirtual        bool    `json:"is_virtual"`
		ParentTable      *int64  `json:"parent_table"`
		OriginalCapacity int     `json:"original_capacity"`
	}{
		tableAlias:       tableAlias(t),
		JoinedWith:       []int64{},
		OriginalCapacity: t.OriginalCapacity(),
	}
	if out.AssignedWaiters == nil {
		out.AssignedWaiters = []int64{}
	}
	switch js := t.JoinState().(type) {
	case JoinMain:
		out.IsJoined = true
		out.JoinedWith = append(out.JoinedWith, js.Members...)
	case JoinMember:
		parent := js.Parent
		out.IsVirtual = true
		out.ParentTable = &parent
	}
	return json.Marshal(out)
}

// EncodeJoin flattens a JoinState into its storage columns.
func EncodeJoin(js JoinState) (kind string, members []int64, parent *int64, originalCapacity *int) {
	switch v := js.(type) {
	case JoinMain:
		oc := v.OriginalCapacity
		return JoinKindMain, append([]int64{}, v.Members...), nil, &oc
	case JoinMember:
		p := v.Parent
		return JoinKindMember, []int64{}, &p, nil
	default:
		return JoinKindStandalone, []int64{}, nil, nil
	}
}

// DecodeJoin rebuilds a JoinState from its storage columns.
func DecodeJoin(kind string, members []int64, parent *int64, originalCapacity *int) (JoinState, error) {
	switch kind {
	case "", JoinKindStandalone:
		return Standalone{}, nil
	case JoinKindMain:
		if len(members) == 0 {
			return nil, fmt.Errorf("join main without members")
		}
		oc := 0
		if originalCapacity != nil {
			oc = *originalCapacity
		}
		return JoinMain{Members: append([]int64{}, members...), OriginalCapacity: oc}, nil
	case JoinKindMember:
		if parent == nil {
			return nil, fmt.Errorf("join member without parent")
		}
		return JoinMember{Parent: *parent}, nil
	default:
		return nil, fmt.Errorf("unknown join kind %q", kind)
	}
}

// TableFilters defines the available filters for querying tables.
type TableFilters struct {
	Status  *string `form:"status"`
	Section *string `form:"section"`
}
