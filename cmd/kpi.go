package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harsheyeditor/OneBlood/config"
	"github.com/harsheyeditor/OneBlood/core/matchlog"
	"github.com/harsheyeditor/OneBlood/infra/kpi"
	"github.com/harsheyeditor/OneBlood/jobs/donorkpi"
)

var kpiDBPath string

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Donor KPI commands",
}

var kpiBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild donor KPI totals from the match log",
	RunE:  runKpiBackfill,
}

func init() {
	kpiCmd.PersistentFlags().StringVar(&kpiDBPath, "db", "kpi.db", "KPI database path")
	kpiCmd.AddCommand(kpiBackfillCmd)
	rootCmd.AddCommand(kpiCmd)
}

func runKpiBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logStore, err := cfg.Logging.NewStore()
	if err != nil {
		return fmt.Errorf("match log: %w", err)
	}
	defer func() { _ = logStore.Close() }()

	records, err := logStore.Query(cmd.Context(), matchlog.Query{})
	if err != nil {
		return fmt.Errorf("query match log: %w", err)
	}
	store, err := kpi.NewSQLiteStore(kpiDBPath)
	if err != nil {
		return fmt.Errorf("kpi store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := donorkpi.Backfill(store, records); err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	fmt.Printf("backfilled %d match records\n", len(records))
	return nil
}
