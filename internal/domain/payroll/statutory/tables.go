package statutory

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var builtinFiles embed.FS

// ParseTableSet decodes a YAML (or JSON) table set and validates it.
func ParseTableSet(data []byte) (TableSet, error) {
	var tables TableSet
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return TableSet{}, fmt.Errorf("decode table set: %w", err)
	}
	tables.Normalize()
	if err := tables.Validate(); err != nil {
		return TableSet{}, err
	}
	return tables, nil
}

// BuiltinTableSets returns the table sets shipped with the binary.
func BuiltinTableSets() (StaticSource, error) {
	return loadFS(builtinFiles, "tables")
}

// LoadDir reads every .yaml, .yml or .json table set in dir.
func LoadDir(dir string) (StaticSource, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, root string) (StaticSource, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}
	out := StaticSource{}
	for _, entry := range entries {
		if entry.IsDir() || !IsTableFile(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, entry.Name())))
		if err != nil {
			return nil, err
		}
		tables, err := ParseTableSet(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, dup := out[tables.Year]; dup {
			return nil, fmt.Errorf("%s: duplicate table set for %d", entry.Name(), tables.Year)
		}
		out[tables.Year] = tables
	}
	return out, nil
}

func IsTableFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
