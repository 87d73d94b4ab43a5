package layout

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"netscan/domain/entity"
	"netscan/infrastructure/log"
)

type Parser interface {
	Load(path string) ([]byte, error)
	Parse(rawCatalogData []byte) (*Catalog, error)
}

type yamlField struct {
	Offset int    `yaml:"offset"`
	Width  int    `yaml:"width"`
	Rule   string `yaml:"rule"`
}

type yamlKind struct {
	Size   int                  `yaml:"size"`
	Fields map[string]yamlField `yaml:"fields"`
}

type yamlLocalAddress struct {
	PData       int `yaml:"pdata"`
	Indirection int `yaml:"indirection"`
}

type yamlTagSet struct {
	TCPListener []string `yaml:"tcp_listener"`
	TCPEndpoint []string `yaml:"tcp_endpoint"`
	UDPEndpoint []string `yaml:"udp_endpoint"`
}

type YamlCatalog struct {
	TagSets map[string]yamlTagSet `yaml:"tag_sets"`
	Layouts []struct {
		Name   string `yaml:"name"`
		Arch   string `yaml:"arch"`
		InetAF struct {
			Family int `yaml:"family"`
		} `yaml:"inet_af"`
		LocalAddress    yamlLocalAddress  `yaml:"local_address"`
		UDPLocalAddress *yamlLocalAddress `yaml:"udp_local_address"`
		AddrInfo        struct {
			Local  int `yaml:"local"`
			Remote int `yaml:"remote"`
		} `yaml:"addr_info"`
		TCPListener yamlKind `yaml:"tcp_listener"`
		TCPEndpoint yamlKind `yaml:"tcp_endpoint"`
		UDPEndpoint yamlKind `yaml:"udp_endpoint"`
	} `yaml:"layouts"`
}

// requiredFields are the fields every layout must describe for a kind.
var requiredFields = map[entity.RecordKind][]string{
	entity.TCPListener: {entity.FieldOwner, entity.FieldLocalAddr, entity.FieldInetAF, entity.FieldPort},
	entity.TCPEndpoint: {entity.FieldInetAF, entity.FieldAddrInfo, entity.FieldState, entity.FieldLocalPort, entity.FieldRemotePort, entity.FieldOwner},
	entity.UDPEndpoint: {entity.FieldOwner, entity.FieldLocalAddr, entity.FieldInetAF, entity.FieldPort},
}

func ruleWidth(rule entity.DecodeRule, arch entity.Architecture) (int, error) {
	switch rule {
	case entity.RulePointer:
		return arch.PointerWidth(), nil
	case entity.RuleU16BE, entity.RuleU16LE:
		return 2, nil
	case entity.RuleU32LE:
		return 4, nil
	case entity.RuleWinTime:
		return 8, nil
	}
	return 0, xerrors.Errorf("unknown decode rule: %q", rule)
}

func toKindLayout(kind entity.RecordKind, y yamlKind, arch entity.Architecture) (*entity.KindLayout, error) {
	if y.Size <= 0 {
		return nil, xerrors.Errorf("%s has no size", kind)
	}
	k := &entity.KindLayout{Size: y.Size, Fields: make(map[string]entity.FieldDescriptor, len(y.Fields))}
	for name, f := range y.Fields {
		rule := entity.DecodeRule(f.Rule)
		width, err := ruleWidth(rule, arch)
		if err != nil {
			return nil, xerrors.Errorf("%s.%s: %w", kind, name, err)
		}
		if f.Width != 0 {
			width = f.Width
		}
		if f.Offset < 0 || f.Offset+width > y.Size {
			return nil, xerrors.Errorf("%s.%s at 0x%x+%d exceeds size 0x%x", kind, name, f.Offset, width, y.Size)
		}
		k.Fields[name] = entity.FieldDescriptor{Name: name, Offset: f.Offset, Width: width, Rule: rule}
	}
	for _, name := range requiredFields[kind] {
		if _, ok := k.Fields[name]; !ok {
			return nil, xerrors.Errorf("%s is missing field %s", kind, name)
		}
	}
	return k, nil
}

func (y *YamlCatalog) ToCatalog() (catalog *Catalog, err error) {
	catalog = &Catalog{
		layouts: make(map[string]*entity.StructLayout, len(y.Layouts)),
		tagSets: make(map[string]map[entity.RecordKind][]string, len(y.TagSets)),
	}
	for name, set := range y.TagSets {
		catalog.tagSets[name] = map[entity.RecordKind][]string{
			entity.TCPListener: set.TCPListener,
			entity.TCPEndpoint: set.TCPEndpoint,
			entity.UDPEndpoint: set.UDPEndpoint,
		}
	}

	for _, yamlLayout := range y.Layouts {
		arch := entity.Architecture(yamlLayout.Arch)
		if arch != entity.X86 && arch != entity.X64 {
			err = xerrors.Errorf("layout %q has unknown arch %q", yamlLayout.Name, yamlLayout.Arch)
			return
		}
		parsedLayout := &entity.StructLayout{
			Name:           yamlLayout.Name,
			Architecture:   arch,
			Kinds:          make(map[entity.RecordKind]*entity.KindLayout, len(entity.RecordKinds)),
			InetAFFamily:   yamlLayout.InetAF.Family,
			AddrInfoLocal:  yamlLayout.AddrInfo.Local,
			AddrInfoRemote: yamlLayout.AddrInfo.Remote,
		}

		local := entity.LocalAddressLayout{PData: yamlLayout.LocalAddress.PData, Indirection: yamlLayout.LocalAddress.Indirection}
		udpLocal := local
		if yamlLayout.UDPLocalAddress != nil {
			udpLocal = entity.LocalAddressLayout{PData: yamlLayout.UDPLocalAddress.PData, Indirection: yamlLayout.UDPLocalAddress.Indirection}
		}
		if local.Indirection < 1 || udpLocal.Indirection < 1 {
			err = xerrors.Errorf("layout %q: local address indirection must be at least 1", yamlLayout.Name)
			return
		}
		parsedLayout.LocalAddress = map[entity.RecordKind]entity.LocalAddressLayout{
			entity.TCPListener: local,
			entity.TCPEndpoint: local,
			entity.UDPEndpoint: udpLocal,
		}

		kinds := map[entity.RecordKind]yamlKind{
			entity.TCPListener: yamlLayout.TCPListener,
			entity.TCPEndpoint: yamlLayout.TCPEndpoint,
			entity.UDPEndpoint: yamlLayout.UDPEndpoint,
		}
		for _, kind := range entity.RecordKinds {
			var k *entity.KindLayout
			k, err = toKindLayout(kind, kinds[kind], arch)
			if err != nil {
				err = xerrors.Errorf("layout %q: %w", yamlLayout.Name, err)
				return
			}
			parsedLayout.Kinds[kind] = k
		}

		if _, exist := catalog.layouts[parsedLayout.Name]; exist {
			err = xerrors.Errorf("duplicate layout %q", parsedLayout.Name)
			return
		}
		catalog.layouts[parsedLayout.Name] = parsedLayout
	}
	return
}

type YamlParser struct {
	logger log.Logger
}

func NewYamlParser(logger log.Logger) (parser *YamlParser) {
	parser = &YamlParser{logger: logger}
	return
}

func (p *YamlParser) Load(path string) (rawCatalogData []byte, err error) {
	p.logger.Debugf("trying to load catalog path: %s", path)
	rawCatalogData, err = os.ReadFile(path)
	return
}

func (p *YamlParser) Parse(rawCatalogData []byte) (catalog *Catalog, err error) {
	var yamlData YamlCatalog
	err = yaml.Unmarshal(rawCatalogData, &yamlData)
	if err != nil {
		err = xerrors.Errorf("failed to unmarshal yaml catalog: %w", err)
		return
	}
	catalog, err = yamlData.ToCatalog()
	if err != nil {
		err = xerrors.Errorf("failed to yaml data to catalog: %w", err)
		return
	}
	return
}
