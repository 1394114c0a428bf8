package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(postgresFS, "postgres")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations")
	}

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
	for v := range downs {
		if !ups[v] {
			t.Errorf("migration %s has no up file", v)
		}
	}
}

func TestOrdersMigrationEnforcesTenantUniqueness(t *testing.T) {
	data, err := fs.ReadFile(postgresFS, "postgres/000001_orders.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "UNIQUE (tenant_id, external_id)") {
		t.Error("orders table must be unique per tenant and external id")
	}
}
