package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linuxmathew/customer-success-workflow/internal/api"
	"github.com/linuxmathew/customer-success-workflow/internal/config"
	"github.com/linuxmathew/customer-success-workflow/internal/mailer"
	"github.com/linuxmathew/customer-success-workflow/internal/pipeline"
	"github.com/linuxmathew/customer-success-workflow/internal/sheets"
	"github.com/linuxmathew/customer-success-workflow/internal/trello"
)

func main() {
	log.Println("Starting customer-success workflow server...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	p, err := buildPipeline(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	server := api.NewServer(cfg.Server, p, cfg.Pipeline.SpreadsheetID, cfg.Pipeline.Ranges)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// buildPipeline wires the sheets fetcher, mail provider and ticketing
// client into a pipeline per the configuration.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
	fetcher := sheets.NewClient(sheets.Config{
		BaseURL:        cfg.Sheets.BaseURL,
		AccessToken:    cfg.Sheets.AccessToken,
		TimeoutSeconds: cfg.Sheets.TimeoutSeconds,
	})

	var sender mailer.Sender
	var fromName, fromAddress string
	switch cfg.Pipeline.MailProvider {
	case "ses":
		sesSender, err := mailer.NewSESSender(ctx, cfg.SES)
		if err != nil {
			return nil, fmt.Errorf("initializing SES sender: %w", err)
		}
		sender = sesSender
		fromName, fromAddress = cfg.SES.FromName, cfg.SES.FromAddress
	case "smtp":
		sender = mailer.NewSMTPSender(cfg.SMTP)
		fromName, fromAddress = cfg.SMTP.FromName, cfg.SMTP.FromAddress
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Pipeline.MailProvider)
	}

	mailService := mailer.NewService(sender, fromName, fromAddress, cfg.Pipeline.DryRun)
	escalator := trello.NewEscalator(trello.NewClient(cfg.Trello))

	dispatcher := pipeline.NewDispatcher(
		mailService,
		escalator,
		cfg.Pipeline.DispatchWorkers,
		cfg.Pipeline.ActionTimeout(),
	)

	return pipeline.New(fetcher, dispatcher), nil
}
