package cachedir

import "testing"

func TestResolvePrefersExplicitOverride(t *testing.T) {
	got, err := Resolve("/tmp/explicit-atlas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/tmp/explicit-atlas" {
		t.Fatalf("expected explicit override, got %s", got)
	}
}

func TestResolveFallsBackToEnv(t *testing.T) {
	t.Setenv("BIJUX_CACHE_DIR", "/tmp/bijux-cache")
	t.Setenv("XDG_CACHE_HOME", "")
	got, err := Resolve("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/tmp/bijux-cache" {
		t.Fatalf("expected BIJUX_CACHE_DIR value, got %s", got)
	}
}

func TestResolveUsesXdgCacheHome(t *testing.T) {
	t.Setenv("BIJUX_CACHE_DIR", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	got, err := Resolve("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/tmp/xdg/atlas" {
		t.Fatalf("expected XDG_CACHE_HOME/atlas, got %s", got)
	}
}
