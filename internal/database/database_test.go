package database

import (
	"strings"
	"testing"

	"recanto_verde_backend/internal/config"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DBConfig{Host: "db", Port: "5433", User: "u", Password: "p", Name: "floor", SSLMode: "disable"})
	want := "host=db port=5433 user=u password=p dbname=floor sslmode=disable"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestEmbeddedSchemaDeclaresConstraints(t *testing.T) {
	for _, name := range []string{
		"users_email_key",
		"tables_table_number_key",
		"orders_table_id_fkey",
		"orders_waiter_id_fkey",
		"order_items_menu_item_id_fkey",
		"ON DELETE CASCADE",
	} {
		if !strings.Contains(schema, name) {
			t.Errorf("schema is missing %s", name)
		}
	}
	if strings.Count(schema, "CREATE TABLE IF NOT EXISTS") != 5 {
		t.Errorf("schema should create 5 tables")
	}
	// Retired tables keep their row for order history and release their number.
	if !strings.Contains(schema, "ON tables (table_number) WHERE deleted_at IS NULL") {
		t.Error("table numbers should be unique among live tables only")
	}
}
