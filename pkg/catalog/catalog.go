// Package catalog loads the reference catalog used to seed master records and
// to cross-check labels and codes during grouping.
package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
)

// Entry is one canonical concept in the reference catalog
type Entry struct {
	Name         string   `yaml:"name"`
	Code         string   `yaml:"code"`
	StandardCode string   `yaml:"standard_code"`
	Aliases      []string `yaml:"aliases"`
}

// File is the on-disk catalog format
type File struct {
	Version  int             `yaml:"version"`
	Taxonomy models.Taxonomy `yaml:"taxonomy"`
	Entries  []Entry         `yaml:"entries"`
}

// Catalog is an immutable, resolved reference catalog for one taxonomy.
// It is loaded once at startup; changes require a reload, not a live migration.
type Catalog struct {
	taxonomy models.Taxonomy
	version  int
	entries  []Entry
	byName   map[string]*Entry
	byCode   map[string]*Entry
}

// Load reads and indexes a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	if !file.Taxonomy.Valid() {
		return nil, fmt.Errorf("catalog file %s has unknown taxonomy %q", path, file.Taxonomy)
	}

	return New(file.Taxonomy, file.Version, file.Entries), nil
}

// New builds a catalog from parsed entries
func New(taxonomy models.Taxonomy, version int, entries []Entry) *Catalog {
	c := &Catalog{
		taxonomy: taxonomy,
		version:  version,
		entries:  entries,
		byName:   make(map[string]*Entry),
		byCode:   make(map[string]*Entry),
	}

	for i := range c.entries {
		entry := &c.entries[i]
		c.indexName(entry.Name, entry)
		for _, alias := range entry.Aliases {
			c.indexName(alias, entry)
		}
		if code := normalizers.NormalizeCode(entry.Code); code != "" {
			c.byCode[code] = entry
		}
		if code := normalizers.NormalizeCode(entry.StandardCode); code != "" {
			c.byCode[code] = entry
		}
	}

	return c
}

func (c *Catalog) indexName(name string, entry *Entry) {
	key := normalizers.NormalizeLabel(name)
	if key == "" {
		return
	}
	// First entry wins on alias collisions
	if _, exists := c.byName[key]; !exists {
		c.byName[key] = entry
	}
}

// Taxonomy returns the taxonomy this catalog describes
func (c *Catalog) Taxonomy() models.Taxonomy {
	return c.taxonomy
}

// Version returns the catalog file version
func (c *Catalog) Version() int {
	return c.version
}

// Entries returns all catalog entries in file order
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Resolve finds the catalog entry for a label and optional code. Name and
// alias matches are exact after normalization; code matches are exact on
// either code field. Returns nil when nothing matches.
func (c *Catalog) Resolve(label, code string) *Entry {
	if key := normalizers.NormalizeLabel(label); key != "" {
		if entry, ok := c.byName[key]; ok {
			return entry
		}
	}
	if key := normalizers.NormalizeCode(code); key != "" {
		if entry, ok := c.byCode[key]; ok {
			return entry
		}
	}
	return nil
}
