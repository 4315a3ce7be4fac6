package sources

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// catalogVersion is the only catalog schema version understood by Load.
const catalogVersion = 1

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	// ErrInvalidCatalog is returned when a catalog fails validation.
	ErrInvalidCatalog = errors.New("invalid source catalog")

	defaultTable     *Table
	defaultTableOnce sync.Once
)

// catalogFile mirrors the on-disk YAML layout.
type catalogFile struct {
	Version     int                     `yaml:"version"`
	QuerySpaces map[string][]queryEntry `yaml:"query_spaces"`
	Models      []modelEntry            `yaml:"models"`
}

type queryEntry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type sourceEntry struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

type modelEntry struct {
	Name       string        `yaml:"name"`
	QuerySpace string        `yaml:"query_space"`
	Sources    []sourceEntry `yaml:"sources"`
}

// modelCodes holds the lookup tables for a single projector model.
type modelCodes struct {
	name       string
	order      []string          // source names in catalog order
	setCodes   map[string]string // name -> set code
	queryNames map[string]string // query code -> name
}

// Table is the read-only source catalog for all known models.
type Table struct {
	models map[string]*modelCodes
}

// Default returns the table built from the embedded catalog.
// The catalog is parsed on the first call only.
func Default() *Table {
	defaultTableOnce.Do(func() {
		t, err := Load(defaultCatalog)
		if err != nil {
			// The embedded catalog ships with the binary; failing here is a build defect.
			panic(fmt.Sprintf("sources: embedded catalog: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Table, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse source catalog: %w", err)
	}

	if file.Version != catalogVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalidCatalog, file.Version, catalogVersion)
	}

	spaces := make(map[string]map[string]string, len(file.QuerySpaces))
	for spaceName, entries := range file.QuerySpaces {
		space := make(map[string]string, len(entries))
		for _, e := range entries {
			if err := checkCode(e.Code); err != nil {
				return nil, fmt.Errorf("%w: query space %q: %v", ErrInvalidCatalog, spaceName, err)
			}
			if e.Name == "" {
				return nil, fmt.Errorf("%w: query space %q: code %s has no name", ErrInvalidCatalog, spaceName, e.Code)
			}
			if _, dup := space[e.Code]; dup {
				return nil, fmt.Errorf("%w: query space %q: duplicate code %s", ErrInvalidCatalog, spaceName, e.Code)
			}
			space[e.Code] = e.Name
		}
		spaces[spaceName] = space
	}

	t := &Table{models: make(map[string]*modelCodes, len(file.Models))}
	for _, me := range file.Models {
		if me.Name == "" {
			return nil, fmt.Errorf("%w: model with empty name", ErrInvalidCatalog)
		}
		if _, dup := t.models[me.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate model %q", ErrInvalidCatalog, me.Name)
		}

		space, ok := spaces[me.QuerySpace]
		if !ok {
			return nil, fmt.Errorf("%w: model %q references unknown query space %q", ErrInvalidCatalog, me.Name, me.QuerySpace)
		}

		m := &modelCodes{
			name:       me.Name,
			order:      make([]string, 0, len(me.Sources)),
			setCodes:   make(map[string]string, len(me.Sources)),
			queryNames: space,
		}
		for _, s := range me.Sources {
			if s.Name == "" {
				return nil, fmt.Errorf("%w: model %q: source with empty name", ErrInvalidCatalog, me.Name)
			}
			if err := checkCode(s.Code); err != nil {
				return nil, fmt.Errorf("%w: model %q: source %q: %v", ErrInvalidCatalog, me.Name, s.Name, err)
			}
			if _, dup := m.setCodes[s.Name]; dup {
				return nil, fmt.Errorf("%w: model %q: duplicate source %q", ErrInvalidCatalog, me.Name, s.Name)
			}
			m.setCodes[s.Name] = s.Code
			m.order = append(m.order, s.Name)
		}
		t.models[me.Name] = m
	}

	return t, nil
}

func checkCode(code string) error {
	if code == "" {
		return errors.New("empty code")
	}
	if _, err := strconv.ParseUint(code, 10, 16); err != nil {
		return fmt.Errorf("code %q is not numeric", code)
	}
	return nil
}

// SetCode returns the set-direction code for a source name.
// Matching is exact and case-sensitive.
func (t *Table) SetCode(model, name string) (string, bool) {
	m, ok := t.models[model]
	if !ok {
		return "", false
	}
	code, ok := m.setCodes[name]
	return code, ok
}

// QueryName returns the source name the projector means when it reports code
// in response to a source query.
func (t *Table) QueryName(model, code string) (string, bool) {
	m, ok := t.models[model]
	if !ok {
		return "", false
	}
	name, ok := m.queryNames[code]
	return name, ok
}

// Sources returns the settable source names for a model in catalog order.
func (t *Table) Sources(model string) ([]string, bool) {
	m, ok := t.models[model]
	if !ok {
		return nil, false
	}
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names, true
}

// HasModel reports whether the catalog contains model.
func (t *Table) HasModel(model string) bool {
	_, ok := t.models[model]
	return ok
}

// Models returns all model identifiers, sorted.
func (t *Table) Models() []string {
	names := make([]string, 0, len(t.models))
	for name := range t.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
