// Package cli implements the querybind command line.
package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/atlekbai/querybind/internal/binding"
	"github.com/atlekbai/querybind/internal/config"
	"github.com/atlekbai/querybind/internal/db"
	"github.com/atlekbai/querybind/internal/schema"
	"github.com/atlekbai/querybind/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Schema   string
	Bindings string
	Object   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the querybind CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querybind",
		Short: "Bind query strings to typed predicates",
		Long: `Translate query strings such as 'firstname=tam&inceptionYear:gt=1950'
into predicates over a registered object, and render them as PostgreSQL.

The object catalog comes from --schema (YAML) or, without it, from the
metadata tables behind DATABASE_URL.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log skipped parameters to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "YAML object catalog (default: SCHEMA_FILE, then the database)")
	cmd.PersistentFlags().StringVar(&opts.Bindings, "bindings", "", "YAML per-object bindings (default: BINDINGS_FILE)")
	cmd.PersistentFlags().StringVarP(&opts.Object, "object", "o", "", "object API name")

	cmd.AddCommand(NewPredicateCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))

	return cmd
}

// newService loads configuration, the catalog and bindings, and builds the
// query service the subcommands run against.
func newService(ctx context.Context, opts *RootOptions, stderr io.Writer) (*service.QueryService, error) {
	if opts.Object == "" {
		return nil, fmt.Errorf("--object is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cache, err := loadCatalog(ctx, cmp.Or(opts.Schema, cfg.SchemaFile), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("schema cache loaded", "objects", cache.ObjectCount())

	var bindings map[string]*binding.Bindings
	if path := cmp.Or(opts.Bindings, cfg.BindingsFile); path != "" {
		if bindings, err = binding.LoadBindingsFile(path); err != nil {
			return nil, err
		}
	}

	return service.NewQueryService(cache, bindings, logger), nil
}

func loadCatalog(ctx context.Context, schemaFile, databaseURL string) (*schema.Cache, error) {
	if schemaFile != "" {
		objs, err := schema.LoadFile(schemaFile)
		if err != nil {
			return nil, err
		}
		return schema.NewCacheFromObjects(objs...), nil
	}

	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	cache := schema.NewCache()
	if err := cache.Load(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to load schema cache: %w", err)
	}
	return cache, nil
}
