// Package codebook holds the survey code-map registry: per-column and
// per-prefix translations from raw numeric response codes to labels,
// header aliases, sentinel substitutions, and friendly column renames.
// The registry ships embedded as YAML and compiles into an immutable
// value that callers pass explicitly to the recoder.
package codebook

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed codebook.yaml
var embedded []byte

// Lookup translates canonical code strings to labels. A miss returns the
// original value unchanged so unknown codes are never destroyed.
type Lookup struct {
	Name   string
	labels map[string]string
}

// NewLookup builds a lookup from integer codes. Exposed for tests.
func NewLookup(name string, codes map[int]string) Lookup {
	labels := make(map[string]string, len(codes))
	for code, label := range codes {
		labels[strconv.Itoa(code)] = label
	}
	return Lookup{Name: name, labels: labels}
}

// Apply maps a raw cell value to its label. The second return reports
// whether a mapping entry matched; on a miss the input is returned as-is.
func (l Lookup) Apply(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if label, ok := l.labels[key]; ok {
		return label, true
	}
	return raw, false
}

// Len reports the number of mapping entries.
func (l Lookup) Len() int { return len(l.labels) }

// ColumnRule binds a lookup to one exactly-named column.
type ColumnRule struct {
	Column string
	Lookup Lookup
}

// PrefixRule binds a lookup to every column sharing a name prefix.
type PrefixRule struct {
	Prefix string
	Lookup Lookup
}

// Registry is the compiled, immutable codebook. Rule slices preserve the
// declaration order of the source document so application order is fixed.
type Registry struct {
	Aliases  map[string]string
	Columns  []ColumnRule
	Prefixes []PrefixRule
	Specials []ColumnRule
	Renames  map[string]string
}

// document mirrors the YAML layout before compilation.
type document struct {
	Dictionaries map[string]dictionary `yaml:"dictionaries"`
	Columns      []ruleSpec            `yaml:"columns"`
	Prefixes     []ruleSpec            `yaml:"prefixes"`
	Specials     []specialSpec         `yaml:"specials"`
	Aliases      map[string]string     `yaml:"aliases"`
	Renames      map[string]string     `yaml:"renames"`
}

type dictionary struct {
	Extends []string       `yaml:"extends"`
	Codes   map[int]string `yaml:"codes"`
}

type ruleSpec struct {
	Column     string `yaml:"column"`
	Prefix     string `yaml:"prefix"`
	Dictionary string `yaml:"dictionary"`
}

type specialSpec struct {
	Column string         `yaml:"column"`
	Codes  map[int]string `yaml:"codes"`
}

// Default parses the embedded codebook.
func Default() (*Registry, error) {
	return parse(embedded)
}

// LoadFile parses a codebook from an external YAML path. An empty path
// falls back to the embedded document.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "codebook: read %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "codebook: parse yaml")
	}

	resolved := make(map[string]map[int]string, len(doc.Dictionaries))
	for name := range doc.Dictionaries {
		codes, err := resolveDictionary(doc.Dictionaries, name, nil)
		if err != nil {
			return nil, err
		}
		resolved[name] = codes
	}

	reg := &Registry{
		Aliases: doc.Aliases,
		Renames: doc.Renames,
	}

	for _, spec := range doc.Columns {
		if spec.Column == "" {
			return nil, eris.New("codebook: column rule missing column name")
		}
		codes, ok := resolved[spec.Dictionary]
		if !ok {
			return nil, eris.Errorf("codebook: column %s references unknown dictionary %q", spec.Column, spec.Dictionary)
		}
		reg.Columns = append(reg.Columns, ColumnRule{
			Column: spec.Column,
			Lookup: NewLookup(spec.Dictionary, codes),
		})
	}

	for _, spec := range doc.Prefixes {
		if spec.Prefix == "" {
			return nil, eris.New("codebook: prefix rule missing prefix")
		}
		codes, ok := resolved[spec.Dictionary]
		if !ok {
			return nil, eris.Errorf("codebook: prefix %s references unknown dictionary %q", spec.Prefix, spec.Dictionary)
		}
		reg.Prefixes = append(reg.Prefixes, PrefixRule{
			Prefix: spec.Prefix,
			Lookup: NewLookup(spec.Dictionary, codes),
		})
	}

	for _, spec := range doc.Specials {
		if spec.Column == "" {
			return nil, eris.New("codebook: special rule missing column name")
		}
		reg.Specials = append(reg.Specials, ColumnRule{
			Column: spec.Column,
			Lookup: NewLookup(spec.Column, spec.Codes),
		})
	}

	return reg, nil
}

// resolveDictionary merges extended dictionaries into a flat code table.
// Own codes win over extended ones.
func resolveDictionary(dicts map[string]dictionary, name string, seen []string) (map[int]string, error) {
	for _, s := range seen {
		if s == name {
			return nil, eris.Errorf("codebook: dictionary cycle through %q", name)
		}
	}
	dict, ok := dicts[name]
	if !ok {
		return nil, eris.Errorf("codebook: unknown dictionary %q", name)
	}

	merged := make(map[int]string)
	for _, base := range dict.Extends {
		baseCodes, err := resolveDictionary(dicts, base, append(seen, name))
		if err != nil {
			return nil, err
		}
		for code, label := range baseCodes {
			merged[code] = label
		}
	}
	for code, label := range dict.Codes {
		merged[code] = label
	}
	return merged, nil
}
