// Package memstore keeps every repository in process memory. It backs the
// server when DB_DRIVER=memory and the service and handler tests.
package memstore

import (
	"context"
	"sync"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
)

// Store implements all repository interfaces plus repositories.Transactor.
type Store struct {
	txMu sync.Mutex // serializes WithinTx
	mu   sync.RWMutex

	tables    map[int64]*models.Table
	orders    map[int64]*models.Order
	menu      map[int64]*models.MenuItem
	users     map[int64]*models.User
	passwords map[int64]string

	nextTableID, nextOrderID, nextItemID, nextMenuID, nextUserID int64
}

var (
	_ repositories.TableRepository     = (*Store)(nil)
	_ repositories.OrderRepository     = (*Store)(nil)
	_ repositories.MenuRepository      = (*Store)(nil)
	_ repositories.UserRepository      = (*Store)(nil)
	_ repositories.AnalyticsRepository = (*Store)(nil)
	_ repositories.Transactor          = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		tables:    map[int64]*models.Table{},
		orders:    map[int64]*models.Order{},
		menu:      map[int64]*models.MenuItem{},
		users:     map[int64]*models.User{},
		passwords: map[int64]string{},
	}
}

type snapshot struct {
	tables    map[int64]*models.Table
	orders    map[int64]*models.Order
	menu      map[int64]*models.MenuItem
	users     map[int64]*models.User
	passwords map[int64]string
}

// WithinTx runs fn with the store to itself. If fn fails every change it
// made is rolled back. Repository calls inside fn must pass a nil executor.
func (s *Store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		tables:    make(map[int64]*models.Table, len(s.tables)),
		orders:    make(map[int64]*models.Order, len(s.orders)),
		menu:      make(map[int64]*models.MenuItem, len(s.menu)),
		users:     make(map[int64]*models.User, len(s.users)),
		passwords: make(map[int64]string, len(s.passwords)),
	}
	for id, t := range s.tables {
		snap.tables[id] = cloneTable(t)
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for id, m := range s.menu {
		snap.menu[id] = cloneMenuItem(m)
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, p := range s.passwords {
		snap.passwords[id] = p
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = snap.tables
	s.orders = snap.orders
	s.menu = snap.menu
	s.users = snap.users
	s.passwords = snap.passwords
}

func cloneTable(t *models.Table) *models.Table {
	c := *t
	c.AssignedWaiters = append([]int64{}, t.AssignedWaiters...)
	if m, ok := t.AsMain(); ok {
		c.Join = models.JoinMain{Members: append([]int64{}, m.Members...), OriginalCapacity: m.OriginalCapacity}
	}
	if t.CurrentOrder != nil {
		id := *t.CurrentOrder
		c.CurrentOrder = &id
	}
	if t.OccupiedAt != nil {
		at := *t.OccupiedAt
		c.OccupiedAt = &at
	}
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		if item.SpecialInstructions != nil {
			si := *item.SpecialInstructions
			item.SpecialInstructions = &si
		}
		c.Items[i] = item
	}
	if o.PaymentMethod != nil {
		pm := *o.PaymentMethod
		c.PaymentMethod = &pm
	}
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func cloneMenuItem(m *models.MenuItem) *models.MenuItem {
	c := *m
	if m.Description != nil {
		d := *m.Description
		c.Description = &d
	}
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}
