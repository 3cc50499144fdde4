// Command runner executes one pipeline run and prints the summary as JSON,
// for cron jobs and manual invocations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/linuxmathew/customer-success-workflow/internal/config"
	"github.com/linuxmathew/customer-success-workflow/internal/mailer"
	"github.com/linuxmathew/customer-success-workflow/internal/pipeline"
	"github.com/linuxmathew/customer-success-workflow/internal/sheets"
	"github.com/linuxmathew/customer-success-workflow/internal/trello"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	spreadsheetID := flag.String("spreadsheet", "", "spreadsheet id (overrides config)")
	ranges := flag.String("ranges", "", "comma-separated A1 ranges (overrides config)")
	today := flag.String("today", "", "reference date YYYY-MM-DD (default: current UTC date)")
	dryRun := flag.Bool("dry-run", false, "log actions instead of calling email/ticket APIs")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *spreadsheetID != "" {
		cfg.Pipeline.SpreadsheetID = *spreadsheetID
	}
	if *ranges != "" {
		cfg.Pipeline.Ranges = strings.Split(*ranges, ",")
	}
	if *dryRun {
		cfg.Pipeline.DryRun = true
	}
	if cfg.Pipeline.SpreadsheetID == "" {
		log.Fatal("spreadsheet id is required (flag or config)")
	}

	refDate := time.Now().UTC()
	if *today != "" {
		refDate, err = time.Parse("2006-01-02", *today)
		if err != nil {
			log.Fatalf("Invalid -today value %q: %v", *today, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	summary, err := p.Run(ctx, cfg.Pipeline.SpreadsheetID, cfg.Pipeline.Ranges, refDate)
	if err != nil {
		log.Fatalf("Pipeline run failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		log.Fatalf("Failed to encode summary: %v", err)
	}
}

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
