// Command subspace reads and writes namespaced keys in an ordered
// key-value store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andreyvit/subspace"
	"github.com/andreyvit/subspace/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "subspace",
		Short: "Namespaced access to an ordered key-value store",
		Long: `subspace partitions one ordered key-value store into nested namespaces.

Keys written under --ns a/b never collide with keys of any other namespace,
and range listings never cross namespace boundaries.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("engine", "", "storage engine: mem, bolt, leveldb, pebble, badger")
	pf.String("path", "", "database file or directory")
	pf.String("ns", "", "namespace path, segments separated by /")
	pf.Bool("hex", false, "hex-encode physical keys")
	pf.String("key-encoding", "", "key encoding: utf8, binary, tuple")
	pf.String("value-encoding", "", "value encoding: utf8, binary, json, msgpack")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("verbose", false, "log every committed batch")

	getCmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
	rootCmd.AddCommand(getCmd)

	putCmd := &cobra.Command{
		Use:   "put KEY VALUE [KEY VALUE...]",
		Short: "Write one or more keys in a single batch",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected KEY VALUE pairs, got %d arguments", len(args))
			}
			return nil
		},
		RunE: runPut,
	}
	rootCmd.AddCommand(putCmd)

	delCmd := &cobra.Command{
		Use:   "del KEY [KEY...]",
		Short: "Delete keys in a single batch",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDel,
	}
	rootCmd.AddCommand(delCmd)

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List a range of keys",
		Args:  cobra.NoArgs,
		RunE:  runLs,
	}
	for _, name := range []string{"start", "end", "gt", "gte", "lt", "lte", "min", "max"} {
		lsCmd.Flags().String(name, "", name+" bound")
	}
	lsCmd.Flags().Bool("reverse", false, "iterate in descending order")
	lsCmd.Flags().Int("limit", 0, "maximum number of entries (0 = unlimited)")
	lsCmd.Flags().Bool("keys", false, "print keys only")
	lsCmd.Flags().Bool("values", false, "print values only")
	rootCmd.AddCommand(lsCmd)

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the physical layout of the whole store by namespace",
		Args:  cobra.NoArgs,
		RunE:  runDump,
	}
	dumpCmd.Flags().Bool("raw-keys", false, "print physical keys instead of namespace-relative ones")
	rootCmd.AddCommand(dumpCmd)

	return rootCmd
}

// app is what every subcommand works with: the resolved configuration, the
// open store and the subspace selected by --ns.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  subspace.Store
	space  *subspace.Subspace
}

func openApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	strFlag := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	boolFlag := func(name string, dst *bool) {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}
	strFlag("engine", &cfg.Storage.Engine)
	strFlag("path", &cfg.Storage.Path)
	strFlag("key-encoding", &cfg.Keys.KeyEncoding)
	strFlag("value-encoding", &cfg.Keys.ValueEncoding)
	strFlag("log-level", &cfg.Log.Level)
	boolFlag("hex", &cfg.Keys.Hex)
	boolFlag("verbose", &cfg.Log.Verbose)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	logger.Debug("subspace: opening store", "config", cfg.String())

	store, err := cfg.OpenStore(logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Engine, err)
	}

	space := subspace.Root(store, cfg.Options(logger))
	ns, _ := flags.GetString("ns")
	for _, seg := range splitNamespace(ns) {
		space = space.Sublevel(seg, subspace.Options{})
	}
	return &app{cfg: cfg, logger: logger, store: store, space: space}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func splitNamespace(ns string) []string {
	ns = strings.Trim(ns, "/")
	if ns == "" {
		return nil
	}
	return strings.Split(ns, "/")
}
