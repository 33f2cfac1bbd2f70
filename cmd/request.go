package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harsheyeditor/OneBlood/app"
	"github.com/harsheyeditor/OneBlood/config"
	"github.com/harsheyeditor/OneBlood/core/fabric"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/infra/logger"
)

var (
	reqBloodType string
	reqUrgency   string
	reqLat       float64
	reqLon       float64
	reqCondition string
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Inject a test emergency request",
	RunE:  injectRequest,
}

func init() {
	requestCmd.Flags().StringVar(&reqBloodType, "blood-type", "O+", "requested blood type")
	requestCmd.Flags().StringVar(&reqUrgency, "urgency", "normal", "urgency tier: critical, urgent or normal")
	requestCmd.Flags().Float64Var(&reqLat, "lat", 0, "request latitude")
	requestCmd.Flags().Float64Var(&reqLon, "lon", 0, "request longitude")
	requestCmd.Flags().StringVar(&reqCondition, "condition", "", "patient condition note")
	rootCmd.AddCommand(requestCmd)
}

func injectRequest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New("request-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	sub := fabric.EmergencyRequest{
		Requester: model.Contact{Name: "cli", Phone: "000"},
		Location:  model.GeoPoint{Lat: reqLat, Lon: reqLon},
		BloodType: model.BloodType(reqBloodType),
		Urgency:   model.Urgency(reqUrgency),
		Condition: reqCondition,
	}
	ack, err := svc.Fabric.HandleEmergencyRequest(cmd.Context(), sub)
	if err != nil {
		return fmt.Errorf("emergency request: %w", err)
	}
	fmt.Printf("request %s created, %d donors notified, expires %s\n",
		ack.RequestID, ack.Matched, ack.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}
