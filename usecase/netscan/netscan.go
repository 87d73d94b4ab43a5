// Package netscan recovers network connections from a memory image by
// scanning the kernel pools for TCP and UDP objects.
package netscan

import (
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"netscan/domain/entity"
	"netscan/infrastructure/layout"
	"netscan/infrastructure/log"
	"netscan/infrastructure/memory"
	implprocess "netscan/infrastructure/repository/impl/process"
	"netscan/infrastructure/scanner"
	"netscan/infrastructure/symbol"
	"netscan/usecase/classify"
	"netscan/usecase/constraint"
	"netscan/usecase/decode"
	"netscan/usecase/extract"
	"netscan/usecase/validate"
	"netscan/usecase/version"
)

type Options struct {
	// IncludeCorrupt keeps records that fail validation.
	IncludeCorrupt bool
	// Driver overrides the pool scanner built over the layer.
	Driver scanner.Driver
}

type NetScan struct {
	layer   memory.Layer
	symbols symbol.Resolver
	catalog *layout.Catalog
	logger  log.Logger
	opts    Options
}

func New(layer memory.Layer, symbols symbol.Resolver, catalog *layout.Catalog, logger log.Logger, opts Options) *NetScan {
	return &NetScan{
		layer:   layer,
		symbols: symbols,
		catalog: catalog,
		logger:  logger,
		opts:    opts,
	}
}

// Scan resolves the OS version and starts the scan. Errors returned here are
// fatal and happen before any record is produced.
func (n *NetScan) Scan() (stream *Stream, err error) {
	scanID := uuid.New().String()
	logger := n.logger.With("scan_id", scanID)

	var profile *entity.OsVersionProfile
	profile, err = version.NewResolver(logger).Resolve(n.layer, n.symbols)
	if err != nil {
		err = xerrors.Errorf("failed to resolve os version: %w", err)
		return
	}

	name, tagSet, err := version.Select(profile)
	if err != nil {
		err = xerrors.Errorf("failed to select layout for %s: %w", profile, err)
		return
	}

	var structLayout *entity.StructLayout
	structLayout, err = n.catalog.Get(name, tagSet)
	if err != nil {
		err = xerrors.Errorf(": %w", err)
		return
	}

	constraints := constraint.Build(structLayout)
	logger.Infof("scanning %s with layout %s: %v", profile, structLayout.Name, constraints)

	driver := n.opts.Driver
	if driver == nil {
		driver, err = scanner.NewPoolScanner(n.layer, logger)
		if err != nil {
			err = xerrors.Errorf("failed to create pool scanner: %w", err)
			return
		}
	}

	processes, err := implprocess.NewProcessRepository(n.layer, n.symbols, logger)
	if err != nil {
		err = xerrors.Errorf(": %w", err)
		return
	}
	decoder := decode.NewDecoder(n.layer, processes)

	stream = &Stream{
		id:         scanID,
		profile:    profile,
		layout:     structLayout,
		candidates: driver.Scan(constraints),
		classifier: classify.NewClassifier(structLayout, logger),
		validator:  validate.New(n.opts.IncludeCorrupt, decoder, logger),
		extractor:  extract.NewExtractor(decoder, logger),
		logger:     logger,
	}
	return
}
