package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

const (
	configFlag     = "config"
	hadoopFlag     = "hadoop"
	javaFlag       = "java"
	cacheDirFlag   = "cache-dir"
	listingURLFlag = "listing-url"
	strictFlag     = "strict"
	noConvertFlag  = "no-convert"
	keepSourceFlag = "keep-source"
)

var errBatchFailed = errors.New("one or more items failed")

// runError marks an error raised while running a command, as opposed to a
// usage error reported by the argument parser.
type runError struct{ err error }

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

// app carries what the commands share for one invocation.
type app struct {
	runner    Runner
	factories []ListingSourceFactory
	// workDir is where downloads land; empty means the process working directory.
	workDir string

	cfg    *Config
	logger *slog.Logger
}

func newApp() *app {
	return &app{runner: ExecRunner{}, factories: listingSourceFactories}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hh [sub-command]",
		Short: "HDFS helpers",
		Long: `hh wraps "hadoop fs" to fetch and upload files. Avro files that come back from
a get are converted to line-delimited JSON with avro-tools, which is looked up in
the cache directory or downloaded from the Apache mirror listing.`,
		PersistentPreRunE: a.setup,
		DisableAutoGenTag: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(configFlag, "", "path to the configuration file (default $HOME/"+defaultConfigName+")")
	flags.String(hadoopFlag, "", `filesystem client command (default "hadoop fs")`)
	flags.String(javaFlag, "", `java launcher used for avro-tools (default "java")`)
	flags.String(cacheDirFlag, "", "directory avro-tools is cached in (default $HOME)")
	flags.String(listingURLFlag, "", "mirror directory listing avro-tools releases (http, https, ftp, sftp or scp)")
	flags.Bool(strictFlag, false, "exit with status 1 if any item failed")
	registerLoggingFlags(flags)

	cmd.AddCommand(a.newGetCmd(), a.newPutCmd())
	return cmd
}

func (a *app) newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>...",
		Short: "Download paths and convert Avro files to JSON",
		Example: `  # fetch a directory; every .avro under it is replaced by a .json
  hh get /data/events/2024-01-01

  # keep the .avro files next to the converted ones
  hh get --keep-source /data/events/part-00000.avro`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.get,
	}
	cmd.Flags().Bool(noConvertFlag, false, "do not convert downloaded files")
	cmd.Flags().Bool(keepSourceFlag, false, "keep source files after converting them")
	return cmd
}

func (a *app) newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <src>... <dst>",
		Short: "Upload local files into a remote directory, replacing existing ones",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.put,
	}
}

// setup loads the configuration, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	flags := cmd.Flags()
	path, _ := flags.GetString(configFlag)
	cfg, loaded, err := LoadConfig(path)
	if err != nil {
		return &runError{fmt.Errorf("failed to load configuration: %w", err)}
	}
	if loaded != "" {
		logger.Debug("loaded configuration", "path", loaded)
	}

	if flags.Changed(hadoopFlag) {
		v, _ := flags.GetString(hadoopFlag)
		cfg.Hadoop = strings.Fields(v)
	}
	if flags.Changed(javaFlag) {
		cfg.Java, _ = flags.GetString(javaFlag)
	}
	if flags.Changed(cacheDirFlag) {
		cfg.CacheDir, _ = flags.GetString(cacheDirFlag)
	}
	if flags.Changed(listingURLFlag) {
		cfg.ListingURL, _ = flags.GetString(listingURLFlag)
	}
	if flags.Changed(strictFlag) {
		cfg.Strict, _ = flags.GetBool(strictFlag)
	}
	if err := cfg.Validate(); err != nil {
		return &runError{fmt.Errorf("invalid configuration: %w", err)}
	}
	a.cfg = cfg
	return nil
}

func (a *app) hadoop(out io.Writer, removeSource bool) *HadoopFS {
	return &HadoopFS{
		Client:       a.cfg.Hadoop,
		Dir:          a.workDir,
		Runner:       a.runner,
		Out:          out,
		RemoveSource: removeSource,
	}
}

func (a *app) get(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	noConvert, _ := cmd.Flags().GetBool(noConvertFlag)
	keepSource, _ := cmd.Flags().GetBool(keepSourceFlag)

	var converters ConverterSet
	if !noConvert {
		if err := a.cfg.validateCache(); err != nil {
			return &runError{fmt.Errorf("invalid configuration: %w", err)}
		}
		pattern, err := a.cfg.Pattern()
		if err != nil {
			return &runError{err}
		}
		resolver := &Resolver{
			CacheDir:   a.cfg.CacheDir,
			ListingURL: a.cfg.ListingURL,
			Pattern:    pattern,
			Factories:  a.factories,
			Out:        out,
		}
		tool, err := resolver.Resolve(ctx)
		if err != nil {
			return &runError{err}
		}
		a.logger.Info("resolved converter tool", "tool", tool.String())
		converters = ConverterSet{
			ExtAvro: &AvroTools{Tool: tool, Java: a.cfg.Java, Runner: a.runner, Out: out},
		}
	}

	removeSource := a.cfg.removeSource() && !keepSource
	batch := a.hadoop(out, removeSource).Download(ctx, args, converters)
	return a.finish(batch)
}

func (a *app) put(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := cmd.OutOrStdout()
	if len(args) < 2 {
		fmt.Fprintln(out, "missing destination path")
		return nil
	}
	dst := remoteDir(args[len(args)-1])
	batch := a.hadoop(out, false).Upload(cmd.Context(), args[:len(args)-1], dst)
	return a.finish(batch)
}

func (a *app) finish(batch *Batch) error {
	batch.logSummary(a.logger)
	if a.cfg.Strict && len(batch.Failed()) > 0 {
		return &runError{errBatchFailed}
	}
	return nil
}

// exitCode maps an Execute error to the process exit status: 1 for
// failures while running, 2 for usage errors.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var re *runError
	if errors.As(err, &re) {
		return 1
	}
	return 2
}
