package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/application/service"
	"github.com/garyjia/funding-workflow/internal/config"
	"github.com/garyjia/funding-workflow/internal/container"
	"github.com/garyjia/funding-workflow/internal/domain/breakdown"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/pkg/utils"
)

// Sends a sample approver notification through the configured notifier,
// without touching the store.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	to := flag.String("to", "", "recipient email address")
	flag.Parse()

	fmt.Println("=== Funding Request Notification Test ===")

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	recipient := utils.NormalizeEmail(*to)
	if err := utils.ValidateEmail(recipient); err != nil {
		fmt.Fprintf(os.Stderr, "invalid recipient: %v\n", err)
		fmt.Fprintln(os.Stderr, "usage: test-notification -to someone@example.org [-config path]")
		os.Exit(2)
	}

	logger, err := utils.NewDevelopmentLogger("test-notification")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cc := cfg.ToContainerConfig()
	notifier, err := container.ProvideNotifier(&cc.Notifier, logger)
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}
	fmt.Printf("Notifier: %s\n", cc.Notifier.Driver)

	req := sampleRequest()
	token, err := service.GenerateDecisionToken()
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	req.DecisionToken = token

	bd := breakdown.Compute(req.FormData)
	subject, body := service.RenderSubmitted(req, bd, service.DecisionLink(cc.Server.BaseURL, req.ID, token))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("\nSending %q to %s...\n", subject, recipient)
	if err := notifier.Send(ctx, port.Message{
		To:      []string{recipient},
		Subject: subject,
		Body:    body,
	}); err != nil {
		logger.Error("Notification failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("✓ Notification sent")
	fmt.Println("\n--- Message body ---")
	fmt.Println(body)
}

func sampleRequest() *entity.FundingRequest {
	return &entity.FundingRequest{
		ID:            fmt.Sprintf("sample-%s-1", time.Now().UTC().Format("20060102")),
		Status:        workflow.StatePending,
		SubmittedAt:   time.Now().UTC(),
		SubmittedBy:   "sample@example.org",
		SubmitterName: "Sample Requester",
		FormData: entity.FormData{
			entity.FieldEventName:            "Annual Conference",
			entity.FieldEventLocation:        "Chicago, IL",
			entity.FieldEventStart:           "2025-06-10",
			entity.FieldEventEnd:             "2025-06-12",
			entity.FieldPurpose:              "Present the results of the pilot programme",
			entity.FieldRegistrationFee:      "450.00",
			entity.FieldPayAheadRegistration: true,
			entity.FieldHotelTotal:           "612.40",
			entity.FieldPayAheadHotel:        false,
			entity.FieldFlightTotal:          "389.99",
			entity.FieldPayAheadFlight:       true,
			entity.FieldMealsNeeded:          true,
			entity.FieldMealsTotal:           "150",
		},
	}
}
