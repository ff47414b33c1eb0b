package values

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMergeDeep(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1, "y": 2}}
	override := map[string]any{"a": map[string]any{"y": 9, "z": 3}}

	got := Merge(base, override)

	want := map[string]any{"a": map[string]any{"x": 1, "y": 9, "z": 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMergeTypeReplacement(t *testing.T) {
	got := Merge(map[string]any{"a": 1}, map[string]any{"a": map[string]any{"b": 2}})
	want := map[string]any{"a": map[string]any{"b": 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// And the reverse: a tree replaced by a scalar.
	got = Merge(map[string]any{"a": map[string]any{"b": 2}}, map[string]any{"a": 1})
	if !reflect.DeepEqual(got, map[string]any{"a": 1}) {
		t.Fatalf("expected scalar replacement, got %v", got)
	}
}

func TestMergePreservesOverride(t *testing.T) {
	override := map[string]any{"ingress": map[string]any{"enabled": true}}
	base := map[string]any{"ingress": map[string]any{"enabled": false, "class": "nginx"}}

	Merge(base, override)

	inner := override["ingress"].(map[string]any)
	if len(inner) != 1 || inner["enabled"] != true {
		t.Fatalf("override mutated: %v", override)
	}
}

func TestMergeNilBase(t *testing.T) {
	got := Merge(nil, map[string]any{"a": 1})
	if got["a"] != 1 {
		t.Fatalf("expected merge into empty tree, got %v", got)
	}
}

func TestHostSuffix(t *testing.T) {
	if s := HostSuffix(map[string]any{}); s != DefaultHostSuffix {
		t.Fatalf("expected default suffix, got %q", s)
	}
	global := map[string]any{"ingress": map[string]any{"hostSuffix": ".shops.example.com"}}
	if s := HostSuffix(global); s != ".shops.example.com" {
		t.Fatalf("expected configured suffix, got %q", s)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader(t.TempDir(), nil)
	tree := l.Load("local")
	if len(tree) != 0 {
		t.Fatalf("expected empty tree for missing file, got %v", tree)
	}
}

func TestLoaderReadsAndCopies(t *testing.T) {
	dir := t.TempDir()
	content := "ingress:\n  hostSuffix: .test.local\nreplicas: 2\n"
	if err := os.WriteFile(filepath.Join(dir, "values-dev.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(dir, nil)
	tree := l.Load("dev")
	if HostSuffix(tree) != ".test.local" {
		t.Fatalf("unexpected tree: %v", tree)
	}

	// Mutating the returned tree must not leak into the cached copy.
	tree["ingress"].(map[string]any)["hostSuffix"] = ".mutated"
	again := l.Load("dev")
	if HostSuffix(again) != ".test.local" {
		t.Fatalf("cached tree was mutated: %v", again)
	}
}
