package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Aliases maps a year-specific header spelling to its canonical column
// name. Headers not in the map are taken as already canonical.
type Aliases map[string]string

// Canonical resolves a header through the alias map.
func (a Aliases) Canonical(header string) string {
	if a == nil {
		return header
	}
	if c, ok := a[header]; ok {
		return c
	}
	return header
}

// AliasFile is the YAML shape of a header-override file: year → header
// → canonical name. Years absent from the file use headers as-is.
type AliasFile map[int]Aliases

// LoadAliases reads per-year header overrides from a YAML file. An
// empty path means no overrides.
func LoadAliases(path string) (AliasFile, error) {
	if path == "" {
		return AliasFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read aliases %s", path)
	}
	var f AliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "schema: parse aliases yaml")
	}
	return f, nil
}

// ForYear returns the alias map for a year, which may be nil.
func (f AliasFile) ForYear(year int) Aliases {
	if f == nil {
		return nil
	}
	return f[year]
}
