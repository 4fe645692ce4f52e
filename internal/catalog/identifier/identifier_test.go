package identifier

import "testing"

func TestComposeBuildsDottedSegments(t *testing.T) {
	t.Parallel()

	if got := Compose("MIN", 1); got != "MIN.1" {
		t.Fatalf("Compose(MIN, 1) = %q, want %q", got, "MIN.1")
	}
	if got := Compose("MIN.1.2", 3); got != "MIN.1.2.3" {
		t.Fatalf("Compose(MIN.1.2, 3) = %q, want %q", got, "MIN.1.2.3")
	}
}

func TestScopeKeysAreDistinctPerLevel(t *testing.T) {
	t.Parallel()

	keys := map[string]bool{
		OrganizationScope(1):  true,
		LifeSituationScope(1): true,
		ServiceScope(1):       true,
	}
	if len(keys) != 3 {
		t.Fatalf("scope keys collide: %v", keys)
	}
}
