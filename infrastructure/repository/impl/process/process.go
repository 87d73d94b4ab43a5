package process

import (
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/xerrors"

	"netscan/constant"
	"netscan/domain/entity"
	"netscan/infrastructure/log"
	"netscan/infrastructure/memory"
	"netscan/infrastructure/repository/interface/process"
	"netscan/infrastructure/symbol"
	"netscan/pkg/convert"
)

const (
	fieldUniqueProcessID = "UniqueProcessId"
	fieldImageFileName   = "ImageFileName"
)

// Repository decodes owner processes out of the image. Lookups are cached per
// repository, so a repository must not outlive the scan it was created for.
type Repository struct {
	layer   memory.Layer
	symbols symbol.Resolver
	logger  log.Logger
	cache   *lru.Cache

	resolved      bool
	pidOffset     int
	nameOffset    int
	resolveFailed error
}

func NewProcessRepository(layer memory.Layer, symbols symbol.Resolver, logger log.Logger) (process.Repository, error) {
	cache, err := lru.New(constant.OwnerCacheSize)
	if err != nil {
		err = xerrors.Errorf("failed to create owner cache: %w", err)
		return nil, err
	}
	return &Repository{
		layer:   layer,
		symbols: symbols,
		logger:  logger,
		cache:   cache,
	}, nil
}

func (r *Repository) resolveOffsets() error {
	if r.resolved {
		return r.resolveFailed
	}
	r.resolved = true

	r.pidOffset, r.resolveFailed = r.symbols.FieldOffset(constant.ProcessTypeName, fieldUniqueProcessID)
	if r.resolveFailed != nil {
		r.resolveFailed = xerrors.Errorf("failed to resolve process id offset: %w", r.resolveFailed)
		return r.resolveFailed
	}
	r.nameOffset, r.resolveFailed = r.symbols.FieldOffset(constant.ProcessTypeName, fieldImageFileName)
	if r.resolveFailed != nil {
		r.resolveFailed = xerrors.Errorf("failed to resolve image file name offset: %w", r.resolveFailed)
	}
	return r.resolveFailed
}

// FindByAddress returns the process whose _EPROCESS lives at address.
func (r *Repository) FindByAddress(address uint64) (proc *entity.Process, err error) {
	if cached, ok := r.cache.Get(address); ok {
		proc = cached.(*entity.Process)
		return
	}

	if err = r.resolveOffsets(); err != nil {
		return
	}

	width := r.layer.BitsPerRegister() / 8
	var pid uint64
	pid, err = memory.ReadPointer(r.layer, address+uint64(r.pidOffset), width)
	if err != nil {
		err = xerrors.Errorf("failed to read process id at 0x%x: %w", address, err)
		return
	}

	var name []byte
	name, err = r.layer.Read(address+uint64(r.nameOffset), constant.ImageFileNameLen)
	if err != nil {
		err = xerrors.Errorf("failed to read image file name at 0x%x: %w", address, err)
		return
	}

	if err = plausible(pid, name); err != nil {
		err = xerrors.Errorf("process at 0x%x: %w", address, err)
		return
	}

	proc = &entity.Process{
		Address:       address,
		Pid:           pid,
		ImageFileName: convert.ImageFileNameToString(name),
	}
	r.logger.Debugf("decoded owner process: %s", proc)
	r.cache.Add(address, proc)
	return
}

// plausible rejects owners whose pid is not a multiple of 4 or above
// constant.MaxEndpointPID, or whose image name is empty or not printable ASCII.
func plausible(pid uint64, name []byte) error {
	if pid%4 != 0 || pid > constant.MaxEndpointPID {
		return xerrors.Errorf("pid %d: %w", pid, constant.ErrImplausibleProcess)
	}
	if len(name) == 0 || name[0] == 0 {
		return xerrors.Errorf("empty image file name: %w", constant.ErrImplausibleProcess)
	}
	for _, c := range name {
		if c == 0 {
			break
		}
		if c < 0x20 || c > 0x7e {
			return xerrors.Errorf("image file name %q: %w", name, constant.ErrImplausibleProcess)
		}
	}
	return nil
}
