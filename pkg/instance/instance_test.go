package instance

import "testing"

func TestIDPrefersExplicitValue(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("KITSTORE_INSTANCE_ID", "api-blue")
	if got := ID(); got != "api-blue" {
		t.Fatalf("expected explicit instance id, got %q", got)
	}
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv("KITSTORE_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	if got := ID(); got != "worker.2" {
		t.Fatalf("expected dyno name, got %q", got)
	}
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv("KITSTORE_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if ID() == "" {
		t.Fatal("expected a non-empty instance id")
	}
}
