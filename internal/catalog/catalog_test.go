package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

func TestDefault_OrderedAndIconed(t *testing.T) {
	c := Default()
	all := c.All()
	if len(all) != 5 {
		t.Fatalf("want 5 default categories, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatalf("not ordered by name: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
	for _, cat := range all {
		if cat.IconName == "" {
			t.Fatalf("category %q has no icon", cat.ID)
		}
	}
	// All returns a copy
	all[0].Name = "mutated"
	if c.All()[0].Name == "mutated" {
		t.Fatalf("All must return a copy")
	}
}

func TestLookup_ByIDAndName(t *testing.T) {
	c, err := New([]domain.Category{{ID: "green", Name: "Environment"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, ref := range []string{"green", " GREEN ", "environment", "Environment"} {
		if _, ok := c.Lookup(ref); !ok {
			t.Fatalf("Lookup(%q) not found", ref)
		}
	}
	if _, ok := c.Lookup("sports"); ok {
		t.Fatalf("unexpected match for unknown ref")
	}
	cat, _ := c.Lookup("green")
	if cat.IconName != DefaultIcon {
		t.Fatalf("icon default = %q", cat.IconName)
	}
}

func TestResolve_DedupesAndRejectsUnknown(t *testing.T) {
	c := Default()
	ids, err := c.Resolve([]string{"education", "Education", "health"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(ids) != 2 || ids[0] != "education" || ids[1] != "health" {
		t.Fatalf("ids = %v", ids)
	}
	if _, err := c.Resolve([]string{"health", "astrology"}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("want ErrUnknownCategory, got %v", err)
	}
	ids, err = c.Resolve(nil)
	if err != nil || len(ids) != 0 {
		t.Fatalf("empty resolve: %v %v", ids, err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
	if _, err := New([]domain.Category{{ID: " "}}); err == nil {
		t.Fatalf("expected error for empty id")
	}
	if _, err := New([]domain.Category{{ID: "a", Name: "X"}, {ID: "A", Name: "Y"}}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if _, err := New([]domain.Category{{ID: "a", Name: "X"}, {ID: "b", Name: "x"}}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	doc := `
categories:
  - id: Transport
    name: Transport
    description: Buses and bikes
    icon: Bus
  - name: Culture
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tr, ok := c.Lookup("transport")
	if !ok || tr.IconName != "Bus" || tr.Description != "Buses and bikes" {
		t.Fatalf("transport = %+v ok=%v", tr, ok)
	}
	cu, ok := c.Lookup("culture")
	if !ok || cu.ID != "culture" {
		t.Fatalf("culture = %+v ok=%v", cu, ok)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Parse([]byte("categories: [")); err == nil {
		t.Fatalf("expected decode error")
	}
	def, err := Load("")
	if err != nil || len(def.All()) != 5 {
		t.Fatalf("Load(\"\") should return defaults: %v", err)
	}
}
