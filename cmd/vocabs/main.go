// Package main provides the vocabs binary: the RDF vocabulary editor's web
// server plus a few maintenance commands.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/vocabs/internal/config"
	"github.com/aleksaelezovic/vocabs/internal/logging"
	"github.com/aleksaelezovic/vocabs/internal/server"
	"github.com/aleksaelezovic/vocabs/internal/storage"
	"github.com/aleksaelezovic/vocabs/pkg/rdf"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

const (
	Version = "0.1.0"
	appName = "vocabs"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the flags shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "RDF vocabulary editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.prefixesCmd(),
		a.exportCmd(),
		a.importCmd(),
		envCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// setup loads the configuration and builds the logger and namespace
// registry it describes.
func (a *app) setup() (*config.Config, *zap.Logger, *rdf.NamespaceManager, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, err
	}

	ns, err := rdf.NewNamespaceManager(cfg.Namespaces)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid namespaces: %w", err)
	}
	return cfg, logger, ns, nil
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, ns, err := a.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repo, err := storage.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := vocab.NewService(repo, ns, logger)
			srv, err := server.NewServer(cfg.Server, cfg.SessionSecret, svc, logger)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply storage migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, _, err := a.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := storage.Migrate(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			logger.Info("Storage is up to date", zap.String("driver", cfg.Storage.Driver))
			return nil
		},
	}
}

func (a *app) prefixesCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "prefixes",
		Short: "Print the namespace prefixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, ns, err := a.setup()
			if err != nil {
				return err
			}
			return writePrefixes(cmd.OutOrStdout(), ns, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, yaml)")
	return cmd
}

// writePrefixes prints the registry as aligned text or as a YAML map that
// can be pasted into the namespaces section of the config file.
func writePrefixes(w io.Writer, ns *rdf.NamespaceManager, output string) error {
	namespaces := ns.Namespaces()
	switch output {
	case "yaml":
		m := make(map[string]string, len(namespaces))
		for _, n := range namespaces {
			m[n.Prefix] = n.URI
		}
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(map[string]any{"namespaces": m}); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		width := 0
		for _, n := range namespaces {
			width = max(width, len(n.Prefix)+1)
		}
		for _, n := range namespaces {
			if _, err := fmt.Fprintf(w, "%-*s %s\n", width, n.Prefix+":", n.URI); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func (a *app) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <vocabulary-uri>",
		Short: "Write a vocabulary graph to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := rdf.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, logger, ns, err := a.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			repo, err := storage.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			return exportVocabulary(cmd.Context(), cmd.OutOrStdout(), vocab.NewService(repo, ns, logger), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "jsonld", "Output format (jsonld, nt, ttl)")
	return cmd
}

func exportVocabulary(ctx context.Context, w io.Writer, svc *vocab.Service, uri string, f rdf.Format) error {
	_, g, err := svc.GraphByURI(ctx, uri)
	if err != nil {
		return fmt.Errorf("export %s: %w", uri, err)
	}
	data, err := rdf.Serialize(g, f, svc.Namespaces())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (a *app) importCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <vocabulary-uri> <file>",
		Short: "Load terms and properties from an RDF file",
		Long: "Load terms and properties from an RDF file into a vocabulary, creating the\n" +
			"vocabulary when needed. The format is taken from --format or the file extension.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(args[1]), ".")
			}
			f, err := rdf.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, logger, ns, err := a.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			file, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer file.Close()

			repo, err := storage.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			summary, err := importVocabulary(cmd.Context(), file, vocab.NewService(repo, ns, logger), args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "terms: %d, properties: %d, skipped: %d\n",
				summary.Terms, summary.Properties, summary.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (jsonld, nt, ttl)")
	return cmd
}

func importVocabulary(ctx context.Context, r io.Reader, svc *vocab.Service, uri string, f rdf.Format) (vocab.ImportSummary, error) {
	parser, err := rdf.NewParser(f.MediaType())
	if err != nil {
		return vocab.ImportSummary{}, err
	}
	triples, err := parser.Parse(r)
	if err != nil {
		return vocab.ImportSummary{}, err
	}
	v, err := svc.CreateVocabulary(ctx, uri)
	if err != nil {
		return vocab.ImportSummary{}, err
	}
	return svc.ImportGraph(ctx, v.ID, triples)
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables vocabs reads",
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := config.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usage)
			return nil
		},
	}
}
