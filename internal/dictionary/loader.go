// Package dictionary loads variable dictionaries from TOML or YAML files.
//
// A dictionary file groups variables into sections and subsections:
//
//	[gas_exchange.leaf]
//	source_table = "GasEx"
//	section_title = "Gas exchange"
//
//	[[gas_exchange.leaf.variables]]
//	internal_name = "A"
//	display_label = "A"
//	units = "µmol m-2 s-1"
//	description = "Net CO2 assimilation rate"
//	data_type = "float"   # optional; inferred from units when omitted
//
// The YAML form uses the same keys. A built-in LI-6800 dictionary is
// embedded and returned by Default.
package dictionary

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/licor/internal/core"
)

//go:embed licor.toml
var defaultTOML []byte

// Format is a dictionary file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported dictionary extension %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// file is the decoded document: section name -> subsection name -> subsection.
type file map[string]map[string]subsection

type subsection struct {
	SourceTable  string     `toml:"source_table" yaml:"source_table"`
	SectionTitle string     `toml:"section_title" yaml:"section_title"`
	Description  string     `toml:"description" yaml:"description"`
	Variables    []variable `toml:"variables" yaml:"variables"`
}

type variable struct {
	InternalName string `toml:"internal_name" yaml:"internal_name"`
	DisplayLabel string `toml:"display_label" yaml:"display_label"`
	Units        string `toml:"units" yaml:"units"`
	Description  string `toml:"description" yaml:"description"`
	DataType     string `toml:"data_type" yaml:"data_type"`
}

// Entry is a variable definition together with where it was declared.
type Entry struct {
	core.VariableDef
	Section      string // Top-level table, e.g. "gas_exchange"
	Subsection   string // Child table, e.g. "leaf"
	SourceTable  string // Column category the console writes, e.g. "GasEx"
	SectionTitle string
}

// Parse decodes dictionary content and returns its entries.
// Sections and subsections are visited in name order so that duplicate
// internal names resolve the same way on every run.
func Parse(data []byte, format Format) ([]Entry, error) {
	var doc file
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, core.DictionaryError(err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, core.DictionaryError(err)
		}
	default:
		return nil, core.DictionaryError(fmt.Errorf("unsupported format %q", format))
	}

	var entries []Entry
	for _, sectionName := range sortedKeys(doc) {
		section := doc[sectionName]
		for _, subName := range sortedKeys(section) {
			sub := section[subName]
			for i, v := range sub.Variables {
				def, err := v.definition()
				if err != nil {
					return nil, core.DictionaryError(fmt.Errorf("%s.%s variable %d: %w", sectionName, subName, i+1, err))
				}
				entries = append(entries, Entry{
					VariableDef:  def,
					Section:      sectionName,
					Subsection:   subName,
					SourceTable:  sub.SourceTable,
					SectionTitle: sub.SectionTitle,
				})
			}
		}
	}
	return entries, nil
}

func (v variable) definition() (core.VariableDef, error) {
	if strings.TrimSpace(v.InternalName) == "" {
		return core.VariableDef{}, fmt.Errorf("internal_name is required")
	}

	dt := core.InferDataType(v.Units)
	if v.DataType != "" {
		parsed, ok := core.ParseDataType(v.DataType)
		if !ok {
			return core.VariableDef{}, fmt.Errorf("%s: unknown data_type %q", v.InternalName, v.DataType)
		}
		dt = parsed
	}

	label := v.DisplayLabel
	if label == "" {
		label = v.InternalName
	}

	return core.VariableDef{
		InternalName: v.InternalName,
		DisplayLabel: label,
		Units:        v.Units,
		Description:  v.Description,
		DataType:     dt,
	}, nil
}

// Build creates a core.Dictionary from entries. The first entry for an
// internal name wins; later duplicates are logged and dropped.
func Build(entries []Entry) *core.Dictionary {
	seen := make(map[string]Entry, len(entries))
	defs := make([]core.VariableDef, 0, len(entries))
	for _, e := range entries {
		if first, dup := seen[e.InternalName]; dup {
			slog.Debug("duplicate dictionary variable ignored",
				"variable", e.InternalName,
				"kept", first.Section+"."+first.Subsection,
				"dropped", e.Section+"."+e.Subsection,
			)
			continue
		}
		seen[e.InternalName] = e
		defs = append(defs, e.VariableDef)
	}
	return core.NewDictionary(defs)
}

// Default returns the embedded LI-6800 dictionary.
func Default() (*core.Dictionary, error) {
	entries, err := DefaultEntries()
	if err != nil {
		return nil, err
	}
	return Build(entries), nil
}

// DefaultEntries returns the entries of the embedded dictionary.
func DefaultEntries() ([]Entry, error) {
	return Parse(defaultTOML, FormatTOML)
}

// LoadEntries reads and parses the dictionary file at path.
func LoadEntries(path string) ([]Entry, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, core.DictionaryError(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.IOError(err)
	}
	return Parse(data, format)
}

// Load reads the dictionary file at path, or the embedded dictionary when
// path is empty.
func Load(path string) (*core.Dictionary, error) {
	entries, err := LoadEntriesOrDefault(path)
	if err != nil {
		return nil, err
	}

	dict := Build(entries)
	slog.Debug("dictionary loaded", "path", path, "variables", dict.Len())
	return dict, nil
}

// LoadEntriesOrDefault is LoadEntries with the embedded dictionary as the
// fallback for an empty path.
func LoadEntriesOrDefault(path string) ([]Entry, error) {
	if path == "" {
		return DefaultEntries()
	}
	return LoadEntries(path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
