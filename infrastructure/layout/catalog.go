package layout

import (
	_ "embed"
	"sort"

	"github.com/thoas/go-funk"
	"golang.org/x/xerrors"

	"netscan/constant"
	"netscan/domain/entity"
	"netscan/infrastructure/log"
)

//go:embed catalog.yml
var defaultCatalog []byte

// Catalog maps layout names to network object layouts.
type Catalog struct {
	layouts map[string]*entity.StructLayout
	tagSets map[string]map[entity.RecordKind][]string
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	catalog, err := NewYamlParser(log.Nop()).Parse(defaultCatalog)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse embedded catalog: %w", err)
	}
	return catalog, nil
}

// LoadCatalog loads a catalog file from path.
func LoadCatalog(path string, logger log.Logger) (catalog *Catalog, err error) {
	parser := NewYamlParser(logger)
	var rawCatalogData []byte
	rawCatalogData, err = parser.Load(path)
	if err != nil {
		err = xerrors.Errorf(": %w", err)
		return
	}

	catalog, err = parser.Parse(rawCatalogData)
	if err != nil {
		err = xerrors.Errorf(": %w", err)
		return
	}
	return
}

// Get returns the layout called name with the tags of tagSet attached.
func (c *Catalog) Get(name, tagSet string) (*entity.StructLayout, error) {
	base, ok := c.layouts[name]
	if !ok {
		return nil, xerrors.Errorf("%q: %w", name, constant.ErrLayoutNotFound)
	}
	tags, ok := c.tagSets[tagSet]
	if !ok {
		return nil, xerrors.Errorf("tag set %q: %w", tagSet, constant.ErrLayoutNotFound)
	}

	l := *base
	l.Tags = tags
	return &l, nil
}

// Names lists the layouts of the catalog.
func (c *Catalog) Names() []string {
	names := funk.Keys(c.layouts).([]string)
	sort.Strings(names)
	return names
}
