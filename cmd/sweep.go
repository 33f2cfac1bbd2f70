package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harsheyeditor/OneBlood/app"
	"github.com/harsheyeditor/OneBlood/config"
	"github.com/harsheyeditor/OneBlood/infra/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expiry sweep pass and exit",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("sweep-command").Errorf("service close: %v", err)
		}
	}()
	expired, err := svc.Sweeper.Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Printf("%d requests expired\n", expired)
	return nil
}
