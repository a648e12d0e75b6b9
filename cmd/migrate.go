package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LexorConsultingLtd/mysql2oracle/internal/engine"
	"github.com/LexorConsultingLtd/mysql2oracle/internal/schema"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dryRun   bool
	noVerify bool
	tables   []string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Replace destination table data with the source rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if noVerify {
			settings.Verify = false
		}
		// Flag > config > all tables.
		if len(tables) > 0 {
			settings.Tables = tables
		}
		policy, err := engine.ParseErrorPolicy(settings.OnError)
		if err != nil {
			return err
		}

		sess, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		opts := engine.Options{
			BatchSize: settings.BatchSize,
			Tables:    settings.Tables,
			OnError:   policy,
		}

		planner := engine.NewRunner(sess.src, sess.dst, opts, logger)
		if dryRun {
			return printPlan(ctx, planner)
		}

		bars, err := progressBars(ctx, sess.src, planner)
		if err != nil {
			return err
		}
		opts.OnProgress = func(s engine.Stats) {
			if bar, ok := bars[s.Table]; ok {
				bar.Set(min(s.Rows, bar.Total))
			}
		}

		log.Printf("Starting migration with batch_size=%d, on_error=%s...", settings.BatchSize, policy)
		start := time.Now()

		uiprogress.Start()
		results, runErr := engine.NewRunner(sess.src, sess.dst, opts, logger).Run(ctx)
		uiprogress.Stop()

		if settings.Verify {
			results = engine.Verify(context.WithoutCancel(ctx), sess.dst, results)
		}
		printSummary(results)
		log.Printf("Migration Done! Time Elapsed: %s", time.Since(start))
		return runErr
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Int("batch-size", 0, "rows per destination commit (overrides config)")
	migrateCmd.Flags().String("on-error", "", "continue or abort after a table fails (overrides config)")
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without touching any data")
	migrateCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the destination row count check")
	migrateCmd.Flags().StringSliceVarP(&tables, "tables", "t", []string{}, "specific tables to migrate (comma-separated)")

	viper.BindPFlag("settings.batch_size", migrateCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("settings.on_error", migrateCmd.Flags().Lookup("on-error"))
}

// progressBars counts the source rows of every planned table up front; the
// source connection is busy streaming once a copy starts.
func progressBars(ctx context.Context, src *schema.Source, runner *engine.Runner) (map[string]*uiprogress.Bar, error) {
	plan, _, err := runner.ResolveTables(ctx)
	if err != nil {
		return nil, err
	}
	bars := make(map[string]*uiprogress.Bar, len(plan))
	for _, name := range plan {
		total, err := src.CountRows(ctx, name)
		if err != nil {
			logger.Warn("could not count source rows", "table", name, "error", err)
		}
		bar := uiprogress.AddBar(max(int(total), 1)).AppendCompleted().PrependElapsed()
		label := fmt.Sprintf("%-20s %10s rows ", name, humanize.Comma(total))
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return label
		})
		bars[name] = bar
	}
	return bars, nil
}

func printPlan(ctx context.Context, runner *engine.Runner) error {
	plans, missing, err := runner.Describe(ctx)
	if err != nil {
		return err
	}
	log.Println("[SIMULATION] Dry-Run Mode Active: No data will be written.")
	fmt.Printf("Migration plan:\n")
	for i, p := range plans {
		fmt.Printf("[%02d] %s (triggers: %d, checks: %d, primary keys: %d, foreign keys: %d)\n",
			i+1, p.Table, p.Triggers,
			p.Constraints[schema.Check], p.Constraints[schema.PrimaryKey], p.Constraints[schema.ForeignKey])
		fmt.Printf("     read:  %s\n", p.SelectSQL)
		fmt.Printf("     write: %s\n", p.InsertSQL)
		if len(p.Unmapped) > 0 {
			fmt.Printf("     null:  %v (unsupported column types)\n", p.Unmapped)
		}
	}
	for _, name := range missing {
		fmt.Printf("[--] %s (no destination table, skipped)\n", name)
	}
	return nil
}

func printSummary(results []schema.CopyResult) {
	fmt.Println("\nSummary Report:")
	total := 0
	for i, r := range results {
		icon := "✓"
		if r.Status != schema.StatusOK && r.Status != schema.StatusVerified {
			icon = "!"
		}
		status := r.Status
		if status == schema.StatusVerified {
			status = "OK (Verified)"
		}

		fmt.Printf("[%s] [%02d/%02d] %-20s : %s rows in %d commits (%s) - %s\n",
			icon, i+1, len(results), r.TableName, humanize.Comma(int64(r.Copied)), r.Commits,
			r.Elapsed.Round(time.Millisecond), status)
		if r.ErrorMsg != "" {
			fmt.Printf("    └ Error: %s\n", r.ErrorMsg)
		}
		total += r.Copied
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Total Rows: %s\n", humanize.Comma(int64(total)))
}
