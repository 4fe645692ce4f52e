package seed

import (
	"path/filepath"
	"testing"

	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
)

func TestRunSeedsCatalogTree(t *testing.T) {
	t.Parallel()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	result, err := Run(t.Context(), store, DefaultConfig())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Organization.Code != "MIN" {
		t.Fatalf("organization code = %s, want MIN", result.Organization.Code)
	}
	if len(result.LifeSituations) != 2 {
		t.Fatalf("life situations = %d, want 2", len(result.LifeSituations))
	}
	if got := result.LifeSituations[0].Identifier; got != "MIN.1" {
		t.Fatalf("first identifier = %s, want MIN.1", got)
	}
	if len(result.Services) == 0 || len(result.Processes) == 0 {
		t.Fatalf("services = %d, processes = %d, want both seeded",
			len(result.Services), len(result.Processes))
	}
	if got := result.Processes[0].Identifier; got != "MIN.1.1.1" {
		t.Fatalf("first process identifier = %s, want MIN.1.1.1", got)
	}
}

func TestRunReusesExistingOrganization(t *testing.T) {
	t.Parallel()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	first, err := Run(t.Context(), store, DefaultConfig())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(t.Context(), store, DefaultConfig())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Organization.ID != second.Organization.ID {
		t.Fatalf("organization ids differ: %d vs %d",
			first.Organization.ID, second.Organization.ID)
	}
	if got := second.LifeSituations[0].Identifier; got != "MIN.3" {
		t.Fatalf("identifier after reseed = %s, want MIN.3", got)
	}
}
