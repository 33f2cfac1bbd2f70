package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harsheyeditor/OneBlood/app"
	"github.com/harsheyeditor/OneBlood/config"
	"github.com/harsheyeditor/OneBlood/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "oneblood",
	Short: "Blood donation matching and dispatch service",
	Long: "oneblood matches emergency blood requests against a registry of donors\n" +
		"and dispatches notifications over MQTT.",
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
