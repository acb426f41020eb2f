// Package catalog holds the read-only category catalog: the fixed set of
// categories ideas may be tagged with, together with their display
// metadata. The catalog is loaded once at startup from a YAML file (or the
// built-in defaults) and mirrored into the categories table so that tags
// can reference it with a foreign key.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// DefaultIcon is used for categories that do not name an icon.
const DefaultIcon = "Tag"

// ErrUnknownCategory is returned by Resolve for references that match no
// catalog entry.
var ErrUnknownCategory = errors.New("unknown category")

// entry is the YAML shape of one category.
type entry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

type file struct {
	Categories []entry `yaml:"categories"`
}

// Catalog is an immutable, ordered set of categories. It is safe for
// concurrent use.
type Catalog struct {
	items  []domain.Category
	byID   map[domain.CategoryID]int
	byName map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New([]domain.Category{
		{ID: "community", Name: "community", Description: "Neighbourhood life, events and volunteering", IconName: "Users"},
		{ID: "education", Name: "education", Description: "Schools, learning and skills", IconName: "BookOpen"},
		{ID: "environment", Name: "environment", Description: "Green spaces, climate and recycling", IconName: "Leaf"},
		{ID: "health", Name: "health", Description: "Wellbeing, sport and care", IconName: "Heart"},
		{ID: "innovation", Name: "innovation", Description: "Technology and new ways of doing things", IconName: "Lightbulb"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML file of the form:
//
//	categories:
//	  - id: education
//	    name: Education
//	    description: Schools and learning
//	    icon: BookOpen
//
// An empty path returns Default().
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML catalog document.
func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	cats := make([]domain.Category, 0, len(f.Categories))
	for _, e := range f.Categories {
		id := e.ID
		if strings.TrimSpace(id) == "" {
			id = e.Name
		}
		cats = append(cats, domain.Category{
			ID:          domain.NormalizeCategoryID(id),
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
			IconName:    strings.TrimSpace(e.Icon),
		})
	}
	return New(cats)
}

// New validates cats and builds a catalog ordered by name. Ids are
// normalized; duplicates by id or by case-insensitive name are rejected.
func New(cats []domain.Category) (*Catalog, error) {
	if len(cats) == 0 {
		return nil, errors.New("catalog must contain at least one category")
	}
	c := &Catalog{
		items:  make([]domain.Category, 0, len(cats)),
		byID:   make(map[domain.CategoryID]int, len(cats)),
		byName: make(map[string]int, len(cats)),
	}
	for _, cat := range cats {
		cat.ID = domain.NormalizeCategoryID(string(cat.ID))
		if cat.ID == "" {
			return nil, errors.New("category id must not be empty")
		}
		if cat.Name == "" {
			cat.Name = string(cat.ID)
		}
		if cat.IconName == "" {
			cat.IconName = DefaultIcon
		}
		c.items = append(c.items, cat)
	}
	sort.SliceStable(c.items, func(i, j int) bool {
		return strings.ToLower(c.items[i].Name) < strings.ToLower(c.items[j].Name)
	})
	for i, cat := range c.items {
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", cat.ID)
		}
		name := strings.ToLower(cat.Name)
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate category name %q", cat.Name)
		}
		c.byID[cat.ID] = i
		c.byName[name] = i
	}
	return c, nil
}

// All returns a copy of every category, ordered by name.
func (c *Catalog) All() []domain.Category {
	out := make([]domain.Category, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup finds a category by id or by case-insensitive name.
func (c *Catalog) Lookup(ref string) (domain.Category, bool) {
	if i, ok := c.byID[domain.NormalizeCategoryID(ref)]; ok {
		return c.items[i], true
	}
	if i, ok := c.byName[strings.ToLower(strings.TrimSpace(ref))]; ok {
		return c.items[i], true
	}
	return domain.Category{}, false
}

// Resolve maps references to category ids, dropping duplicates and keeping
// first-seen order. The first unknown reference fails the whole call.
func (c *Catalog) Resolve(refs []string) ([]domain.CategoryID, error) {
	out := make([]domain.CategoryID, 0, len(refs))
	seen := make(map[domain.CategoryID]struct{}, len(refs))
	for _, ref := range refs {
		cat, ok := c.Lookup(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, ref)
		}
		if _, dup := seen[cat.ID]; dup {
			continue
		}
		seen[cat.ID] = struct{}{}
		out = append(out, cat.ID)
	}
	return out, nil
}
