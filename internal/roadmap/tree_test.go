package roadmap

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestBuildTree_Rust(t *testing.T) {
	env, err := ParseEnvelope("```json\n"+rustDoc+"\n```", "rust")
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	tree, err := BuildTree(env)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("want exactly one root, got %d", len(tree))
	}
	root := tree[0]
	if root.Name != "Rust" {
		t.Fatalf("root name = %q; want Capitalize(original)", root.Name)
	}
	if len(root.Children) != 4 || root.ModuleCount() != 4 {
		t.Fatalf("chapters=%d modules=%d", len(root.Children), root.ModuleCount())
	}
	if root.Children[0].Children[0].ModuleDescription != "Move semantics" {
		t.Fatalf("module description lost")
	}
}

func TestBuildTree_RootUsesOriginalQueryNotModelEcho(t *testing.T) {
	raw := `{"query":"Rust (programming language)","chapters":{"A":[{"moduleName":"x"}]}}`
	env, _ := ParseEnvelope(raw, "rust")
	tree, err := BuildTree(env)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if tree[0].Name != "Rust" {
		t.Fatalf("root = %q", tree[0].Name)
	}
}

func TestBuildTree_DropsNamelessModulesAndOmitsMissingFields(t *testing.T) {
	raw := `{"chapters":{"A":[{"moduleName":"keep"},{"moduleDescription":"orphan"},{"moduleName":"  "}]}}`
	env, _ := ParseEnvelope(raw, "go")
	tree, err := BuildTree(env)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if got := tree[0].ModuleCount(); got != 1 {
		t.Fatalf("modules = %d; want 1", got)
	}
	b, _ := json.Marshal(tree)
	if strings.Contains(string(b), "undefined") || strings.Contains(string(b), `"link":""`) {
		t.Fatalf("missing fields must be omitted: %s", b)
	}
}

func TestBuildTree_NoModulesIsInvalidFormat(t *testing.T) {
	for _, raw := range []string{
		`{"chapters":{}}`,
		`{"chapters":{"A":[]}}`,
		`{"chapters":{"A":"text","B":[{"link":"x"}]}}`,
	} {
		env, err := ParseEnvelope(raw, "go")
		if err != nil {
			t.Fatalf("ParseEnvelope(%s): %v", raw, err)
		}
		if _, err := BuildTree(env); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%s: err = %v; want ErrInvalidFormat", raw, err)
		}
	}
}
