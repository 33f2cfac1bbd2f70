package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harsheyeditor/OneBlood/config"
	"github.com/harsheyeditor/OneBlood/core/matchlog"
	"github.com/harsheyeditor/OneBlood/pkg/export"
)

var logsFormat string

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Export the match log",
	RunE:  exportLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsFormat, "format", "json", "output format: json or csv")
	rootCmd.AddCommand(logsCmd)
}

func exportLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := cfg.Logging.NewStore()
	if err != nil {
		return fmt.Errorf("match log: %w", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Query(cmd.Context(), matchlog.Query{})
	if err != nil {
		return fmt.Errorf("query match log: %w", err)
	}
	switch logsFormat {
	case "json":
		return export.WriteJSON(os.Stdout, records)
	case "csv":
		return export.WriteCSV(os.Stdout, records)
	default:
		return fmt.Errorf("unknown format %s", logsFormat)
	}
}
