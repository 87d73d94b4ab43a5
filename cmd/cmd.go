package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"netscan/config"
	"netscan/constant"
	"netscan/handler"
	"netscan/infrastructure/layout"
	"netscan/infrastructure/log"
	"netscan/infrastructure/memory"
	"netscan/infrastructure/symbol"
	"netscan/usecase/netscan"
)

type options struct {
	imagePath      string
	mapPath        string
	symbolsPath    string
	catalogPath    string
	includeCorrupt bool
}

// NewRootCmd builds the netscan command. Logs go to logger, the table to the
// command's output.
func NewRootCmd(logger log.Logger) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   constant.ProgName,
		Short: "Recover network connections from a Windows memory image",
		Long: `netscan scans the kernel pools of a Windows memory image for TCP
listeners, TCP endpoints and UDP endpoints and prints one row per socket.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, logger)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.imagePath, "image", "", "raw memory image")
	flags.StringVar(&opts.mapPath, "map", "", "YAML run list translating kernel addresses to image offsets")
	flags.StringVar(&opts.symbolsPath, "symbols", "", "YAML kernel symbol file")
	flags.StringVar(&opts.catalogPath, "catalog", "", "YAML layout catalog overriding the built-in one")
	flags.BoolVar(&opts.includeCorrupt, "include-corrupt", config.IncludeCorrupt(), "keep records that fail validation")
	_ = rootCmd.MarkFlagRequired("image")
	_ = rootCmd.MarkFlagRequired("map")
	_ = rootCmd.MarkFlagRequired("symbols")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd
}

func loadCatalog(path string, logger log.Logger) (*layout.Catalog, error) {
	if path == "" {
		return layout.Default()
	}
	return layout.LoadCatalog(path, logger)
}

func run(cmd *cobra.Command, opts *options, logger log.Logger) (err error) {
	var layer *memory.RunLayer
	layer, err = memory.OpenRunLayer(opts.imagePath, opts.mapPath)
	if err != nil {
		err = xerrors.Errorf("failed to open memory image: %w", err)
		return
	}
	defer func() {
		if cerr := layer.Close(); cerr != nil {
			logger.Warnf("failed to close memory image: %+v", cerr)
		}
	}()

	var symbols *symbol.File
	symbols, err = symbol.Load(opts.symbolsPath)
	if err != nil {
		err = xerrors.Errorf(": %w", err)
		return
	}

	var catalog *layout.Catalog
	catalog, err = loadCatalog(opts.catalogPath, logger)
	if err != nil {
		err = xerrors.Errorf("failed to load layout catalog: %w", err)
		return
	}

	var stream *netscan.Stream
	stream, err = netscan.New(layer, symbols, catalog, logger, netscan.Options{IncludeCorrupt: opts.includeCorrupt}).Scan()
	if err != nil {
		err = xerrors.Errorf(": %w", err)
		return
	}

	n, err := handler.NewTable(cmd.OutOrStdout()).Render(stream)
	if err != nil {
		err = xerrors.Errorf("scan %s: %w", stream.ID(), err)
		return
	}
	logger.Infof("scan %s found %d sockets", stream.ID(), n)
	return
}

func newLogger() log.Logger {
	if config.IsTest() {
		return log.Nop()
	}
	return log.New(config.IsDebug())
}

// Execute runs the root command with a logger chosen by the environment.
func Execute() error {
	logger := newLogger()
	defer logger.Sync()

	if err := NewRootCmd(logger).Execute(); err != nil {
		logger.Errorf("%+v", err)
		return err
	}
	return nil
}
