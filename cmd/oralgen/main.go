// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oralgen/oralgen-mcp/internal/config"
	"github.com/oralgen/oralgen-mcp/internal/logging"
	"github.com/oralgen/oralgen-mcp/internal/pedigree"
	"github.com/oralgen/oralgen-mcp/internal/session"
	"github.com/oralgen/oralgen-mcp/internal/tool"
)

var version = "dev"

// app carries what the subcommands share once the root has loaded the
// configuration.
type app struct {
	configPath string
	verbose    bool
	strict     bool
	producer   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "oralgen",
		Short: "Turn transcribed MZ11 genealogical forms into GEDCOM",
		Long: `oralgen resolves the relation codes of a transcribed MZ11 survey form
(75 rows over three pages) into families and writes a GEDCOM 5.5.1
lineage-linked document. It can run as an MCP server or convert files
directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.strict {
				cfg.Strict = true
			}
			if a.producer != "" {
				cfg.Producer = a.producer
			}
			a.cfg = cfg
			a.logger, err = logging.New(cfg.Log, a.verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "fail on schema violations instead of warning")
	root.PersistentFlags().StringVar(&a.producer, "producer", "", "SOUR name written in the GEDCOM header")

	root.AddCommand(a.serveCmd(), a.exportCmd(), a.validateCmd(), versionCmd())
	return root
}

func (a *app) pipeline() (*pedigree.Pipeline, error) {
	return pedigree.NewPipeline(tool.DefaultParsers(),
		pedigree.WithProducerName(a.cfg.Producer),
		pedigree.WithStrict(a.cfg.Strict),
		pedigree.WithLogger(a.logger))
}

func (a *app) serveCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.cfg.Database
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			store, err := session.Open(dbPath, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			server := tool.NewServer(tool.New(p, store, a.logger), version)
			a.logger.Info("serving MCP over stdio", zap.String("database", dbPath))
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "session database path (default from config)")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		outDir string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export <file>...",
		Short: "Convert form files to GEDCOM",
		Long: `Converts each form file (YAML, JSON or CSV) to a .ged file. The output is
written next to the input, or into --out when given. Files are converted
concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			return exportFiles(cmd.Context(), p, args, outDir, format, a.cfg.Concurrency, cmd.OutOrStdout(), a.logger)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format hint (yaml, json, csv)")
	return cmd
}

// exportFiles converts every file in paths. It stops at the first failure.
func exportFiles(ctx context.Context, p *pedigree.Pipeline, paths []string, outDir, format string, limit int, out io.Writer, logger *zap.Logger) error {
	type done struct {
		in, out  string
		warnings int
	}
	results := make([]done, len(paths))
	dests := make([]string, len(paths))
	writer := make(map[string]string, len(paths))
	for i, path := range paths {
		dests[i] = outputPath(path, outDir)
		if prev, ok := writer[dests[i]]; ok {
			return fmt.Errorf("%s and %s both write %s", prev, path, dests[i])
		}
		writer[dests[i]] = path
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, path := range paths {
		g.Go(func() error {
			res, err := runFile(ctx, p, path, format)
			if err != nil {
				return err
			}
			dest := dests[i]
			if err := os.WriteFile(dest, []byte(res.GEDCOM), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			for _, w := range res.Warnings {
				logger.Warn("row warning", zap.String("file", path), zap.Int("rin", w.RIN), zap.String("kind", string(w.Kind)), zap.String("message", w.Message))
			}
			results[i] = done{in: path, out: dest, warnings: len(res.Warnings)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(out, "%s -> %s (%d warnings)\n", r.in, r.out, r.warnings)
	}
	return nil
}

func runFile(ctx context.Context, p *pedigree.Pipeline, path, format string) (pedigree.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return pedigree.Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	if format == "" {
		format = formatFromExt(path)
	}
	res, err := p.Run(ctx, pedigree.Source{Content: content, Format: format, ID: path})
	if err != nil {
		return pedigree.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	}
	return ""
}

func outputPath(in, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".ged"
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), base)
	}
	return filepath.Join(outDir, base)
}

func (a *app) validateCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Report anomalies in form files without writing output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			var failed []error
			for _, path := range args {
				res, err := runFile(cmd.Context(), p, path, format)
				if err != nil {
					failed = append(failed, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d individuals, %d families, %d warnings\n",
					path, len(res.Pedigree.Individuals), len(res.Pedigree.Families), len(res.Warnings))
				for _, w := range res.Warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", w)
				}
			}
			return errors.Join(failed...)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format hint (yaml, json, csv)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
