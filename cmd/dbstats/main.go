package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yigit/storetrainer/internal/app/repositories"
	"github.com/yigit/storetrainer/internal/bootstrap"
	"github.com/yigit/storetrainer/internal/config"
	"github.com/yigit/storetrainer/internal/db"
)

var (
	configFlag string
	jsonFlag   bool
	rootCmd    = &cobra.Command{
		Use:          "dbstats",
		Short:        "Print row counts of the store trainer tables",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return run(ctx, cmd.OutOrStdout())
		},
	}
)

// tableCounter is satisfied by repositories.StatsRepository
type tableCounter interface {
	TableCounts(ctx context.Context) ([]repositories.TableCount, error)
}

func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	return report(ctx, out, repositories.NewStatsRepository(database.Pool), jsonFlag)
}

func report(ctx context.Context, out io.Writer, counter tableCounter, asJSON bool) error {
	counts, err := counter.TableCounts(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TABLE\tROWS\t")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\t\n", c.Table, c.Rows)
	}
	return tw.Flush()
}

func main() {
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", bootstrap.ConfigPath(), "Configuration file")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of a table")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
