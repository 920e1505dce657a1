package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageRollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	if !m.Enabled("always", 0) {
		t.Fatal("100% rollout should be enabled even for anonymous visitors")
	}
	if m.Enabled("never", 1) || m.Enabled("junk", 1) {
		t.Fatal("0% and malformed rollouts should be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}
	if m.Enabled("canary", 0) {
		t.Fatal("partial rollout requires a logged-in user")
	}
}

func TestEnabledDefault(t *testing.T) {
	m := NewManager("signup_closed=on")

	if !m.EnabledDefault(UserSearch, 0, true) {
		t.Fatal("unconfigured flag should fall back to the default")
	}
	if !m.EnabledDefault(SignupClosed, 0, false) {
		t.Fatal("configured flag should win over the default")
	}

	var nilManager *Manager
	if !nilManager.EnabledDefault(UserSearch, 0, true) || nilManager.Enabled(SignupClosed, 1) {
		t.Fatal("nil manager should return defaults")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off,=on,w=")

	snap := m.Snapshot(123)
	if len(snap) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d: %#v", len(snap), snap)
	}
	if !snap["x"] || snap["z"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	if _, ok := snap["y"]; !ok {
		t.Fatal("flag names should be case-insensitive")
	}
}
