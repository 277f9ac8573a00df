package namespace

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustNew(t *testing.T, label string, entries map[string]string) *Namespace {
	t.Helper()
	ns, err := New(label, entries)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ns
}

func TestGet(t *testing.T) {
	ns := mustNew(t, "osc.outs", map[string]string{"0": "osc_OUTS_0", "phase": "osc_STATE_phase"})

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"existing key", "phase", "osc_STATE_phase", false},
		{"digit key", "0", "osc_OUTS_0", false},
		{"sigil fallback", "$0", "osc_OUTS_0", false},
		{"unknown key", "unknownKey", "", true},
		{"sigil on unknown key", "$1", "", true},
		{"introspection key", "toJSON", Absent, false},
		{"introspection key String", "String", Absent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ns.Get(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Get(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGetErrorIsTraceable(t *testing.T) {
	ns := mustNew(t, "n1.rcvs", map[string]string{})

	_, err := ns.Get("0")
	var nsErr *NamespaceError
	if !errors.As(err, &nsErr) {
		t.Fatalf("Expected NamespaceError, got %v", err)
	}
	if nsErr.Label != "n1.rcvs" || nsErr.Key != "0" {
		t.Errorf("Expected label n1.rcvs and key 0, got %q and %q", nsErr.Label, nsErr.Key)
	}
	if !strings.Contains(err.Error(), "n1.rcvs") {
		t.Errorf("Expected error message to contain label, got %q", err.Error())
	}
}

func TestSigilPrefersExactKey(t *testing.T) {
	ns := mustNew(t, "x", map[string]string{"0": "zero"})
	a, _ := ns.Get("$0")
	b, _ := ns.Get("0")
	if a != b {
		t.Errorf("Expected $0 and 0 to resolve identically, got %q and %q", a, b)
	}
}

func TestNewRejectsInvalidKeys(t *testing.T) {
	for _, key := range []string{"", "a-b", "$0", "a b"} {
		_, err := New("bad", map[string]string{key: "v"})
		if err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}

func TestNewRejectsEmptyValues(t *testing.T) {
	_, err := New("node \"num\" snds", map[string]string{"0": ""})
	var nsErr *NamespaceError
	if !errors.As(err, &nsErr) {
		t.Fatalf("Expected NamespaceError, got %v", err)
	}
	if nsErr.Key != "0" || nsErr.Reason != "empty value" {
		t.Errorf("Expected empty value error for key 0, got %+v", nsErr)
	}
}

func TestImmutableAfterConstruction(t *testing.T) {
	backing := map[string]string{"a": "1"}
	ns := mustNew(t, "x", backing)
	backing["b"] = "2"

	if ns.Has("b") {
		t.Error("Namespace must not observe changes to the backing map")
	}

	entries := ns.Entries()
	entries["c"] = "3"
	if ns.Has("c") {
		t.Error("Entries() must return a copy")
	}
}

func TestMarshalJSON(t *testing.T) {
	ns := mustNew(t, "x", map[string]string{"0": "a_OUTS_0", "1": "a_OUTS_1"})

	data, err := json.Marshal(ns)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if len(got) != 2 || got["0"] != "a_OUTS_0" || got["1"] != "a_OUTS_1" {
		t.Errorf("Expected exactly the backing entries, got %v", got)
	}
}

func TestGroup(t *testing.T) {
	core := mustNew(t, "globals.core", map[string]string{"FRAME": "FRAME"})
	g, err := NewGroup("globals", map[string]*Namespace{"core": core})
	if err != nil {
		t.Fatalf("NewGroup() error = %v", err)
	}

	v, err := g.Get("core", "FRAME")
	if err != nil || v != "FRAME" {
		t.Errorf("Expected FRAME, got %q (err %v)", v, err)
	}

	if _, err := g.Child("msg"); err == nil {
		t.Error("Expected error for unknown child")
	}
	if _, err := g.Get("core", "BLOCK"); err == nil {
		t.Error("Expected error for unknown key in child")
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"osc", "osc"},
		{"n-0-1", "n_0_1"},
		{"0", "n0"},
		{"", "n"},
		{"a.b", "a_b"},
	}

	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := NodeVariable("node2", KindRcvs, "0"); got != "node2_RCVS_0" {
		t.Errorf("Expected node2_RCVS_0, got %s", got)
	}
}

func TestRegistryDetectsCollisions(t *testing.T) {
	r := NewRegistry()
	if err := r.Claim("a_b", "node a-b"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if err := r.Claim("a_b", "node a-b"); err != nil {
		t.Errorf("Re-claiming for the same owner should succeed, got %v", err)
	}

	err := r.Claim("a_b", "node a.b")
	var collision *CollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("Expected CollisionError, got %v", err)
	}
	if collision.First != "node a-b" || collision.Second != "node a.b" {
		t.Errorf("Unexpected collision owners: %+v", collision)
	}
}
