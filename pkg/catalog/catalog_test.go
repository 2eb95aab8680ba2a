package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func testEntries() []Entry {
	return []Entry{
		{Name: "Egyptian", Code: "EG", StandardCode: "EGY", Aliases: []string{"Egypt"}},
		{Name: "Saudi", Code: "SA", StandardCode: "SAU", Aliases: []string{"Saudi Arabian", "KSA"}},
		{Name: "Emirati", Code: "AE", StandardCode: "ARE", Aliases: []string{"UAE", "United Arab Emirates"}},
	}
}

func TestResolve(t *testing.T) {
	cat := New(models.TaxonomyNationality, 1, testEntries())

	tests := []struct {
		name     string
		label    string
		code     string
		expected string // expected entry name, "" for no match
	}{
		{name: "canonical name", label: "Egyptian", expected: "Egyptian"},
		{name: "name ignores case and spacing", label: "  egyptian ", expected: "Egyptian"},
		{name: "alias", label: "Egypt", expected: "Egyptian"},
		{name: "alias with punctuation", label: "U.A.E.", expected: "Emirati"},
		{name: "code match", label: "unknown label", code: "eg", expected: "Egyptian"},
		{name: "standard code match", label: "unknown label", code: "SAU", expected: "Saudi"},
		{name: "name match wins over code", label: "Saudi", code: "EG", expected: "Saudi"},
		{name: "no match", label: "Martian", code: "XX", expected: ""},
		{name: "empty inputs", label: "", code: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := cat.Resolve(tt.label, tt.code)
			if tt.expected == "" {
				assert.Nil(t, entry)
				return
			}
			require.NotNil(t, entry)
			assert.Equal(t, tt.expected, entry.Name)
		})
	}
}

func TestResolveFirstEntryWinsOnAliasCollision(t *testing.T) {
	cat := New(models.TaxonomyNationality, 1, []Entry{
		{Name: "First", Code: "F1", Aliases: []string{"Shared"}},
		{Name: "Second", Code: "S1", Aliases: []string{"Shared"}},
	})

	entry := cat.Resolve("Shared", "")
	require.NotNil(t, entry)
	assert.Equal(t, "First", entry.Name)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nationalities.yaml")
	content := `version: 3
taxonomy: nationality
entries:
  - name: Egyptian
    code: EG
    standard_code: EGY
    aliases:
      - Egypt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.TaxonomyNationality, cat.Taxonomy())
	assert.Equal(t, 3, cat.Version())
	assert.Len(t, cat.Entries(), 1)

	entry := cat.Resolve("Egypt", "")
	require.NotNil(t, entry)
	assert.Equal(t, "EG", entry.Code)
}

func TestLoadRejectsUnknownTaxonomy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\ntaxonomy: planets\nentries: []\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
