package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"farmisian/internal/config"
	"farmisian/internal/db"
	"farmisian/internal/importer"
	"farmisian/internal/logging"
	categoryrepo "farmisian/internal/repository/category"
	productrepo "farmisian/internal/repository/product"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "importer <file.csv>...",
		Short: "Import catalog CSV files into the storefront database",
		Long: `Reads product or category CSV exports and upserts every row.
Category files (id,name,icon,image) should be imported before the products
that reference them. Products upsert by slug, categories by id.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return detectAll(cmd.OutOrStdout(), args)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what each file contains")
	return cmd
}

func detectAll(out io.Writer, paths []string) error {
	for _, path := range paths {
		kind, err := detect(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", path, kind)
	}
	return nil
}

func detect(path string) (importer.Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	kind, err := importer.DetectKind(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return kind, nil
}

func run(ctx context.Context, out io.Writer, paths []string) error {
	cfg := config.FromEnv()
	base, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()
	logger := base.Named("importer")

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	for _, path := range paths {
		start := time.Now()
		count, err := importFile(ctx, pool, path, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Imported %d rows from %s in %s\n", count, path, time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

func importFile(ctx context.Context, pool *pgxpool.Pool, path string, logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f,
		productrepo.NewPostgres(pool, logger),
		categoryrepo.NewPostgres(pool),
		logger.With(zap.String("file", path)),
	)
	count, err := imp.Run(ctx)
	if err != nil {
		return count, fmt.Errorf("import %s: %w", path, err)
	}
	return count, nil
}
