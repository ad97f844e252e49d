// cmd/stepwright/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/stepwright/stepwright/internal/browser"
	"github.com/stepwright/stepwright/internal/config"
	"github.com/stepwright/stepwright/internal/monitoring"
	"github.com/stepwright/stepwright/internal/output"
	"github.com/stepwright/stepwright/internal/scraper"
	"github.com/stepwright/stepwright/pkg/stepwright"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: stepwright run <config.yaml>\n")
			os.Exit(1)
		}
		runScrape(os.Args[2])
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: stepwright validate <config.yaml>\n")
			os.Exit(1)
		}
		validateConfig(os.Args[2])
	case "template":
		printTemplate()
	case "version", "--version":
		fmt.Printf("stepwright %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runScrape(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := stepwright.OptionsFromConfig(cfg, logger)

	var metricsServer *monitoring.Server
	if cfg.Monitoring.Enabled {
		metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
		opts.Observers = append(opts.Observers, metrics)
		metricsServer = monitoring.NewServer(cfg.Monitoring.Address)
		metricsServer.Start()
		logger.Info("metrics endpoint up", zap.String("address", cfg.Monitoring.Address))
	}

	results, runErr := stepwright.RunTabs(ctx, cfg.Tabs, opts)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsServer.Shutdown(shutdownCtx)
		cancel()
	}

	if len(results) > 0 {
		if err := writeResults(cfg.Output, results); err != nil {
			logger.Error("writing results failed", zap.Error(err))
			os.Exit(1)
		}
	}

	if runErr != nil {
		logger.Error("scrape failed", zap.Error(runErr), zap.Int("records", len(results)))
		os.Exit(1)
	}
	logger.Info("scrape finished", zap.Int("records", len(results)))
}

func writeResults(cfg config.OutputConfig, results []interface{}) error {
	writer, err := output.NewWriter(cfg)
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := writer.Write(output.NormalizeRecords(results)); err != nil {
		return err
	}
	return writer.Flush()
}

func validateConfig(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result := cfg.ValidateDetailed()
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	fmt.Printf("Configuration file '%s' is valid (%d tabs)\n", configFile, len(cfg.Tabs))
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %v", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	return zapCfg.Build()
}

// printTemplate emits a starter configuration to stdout.
func printTemplate() {
	maxPages := 3
	cfg := config.RunConfig{
		Name:     "example-run",
		Browser:  browser.LaunchOptions{Headless: true, ViewportWidth: 1280, ViewportHeight: 800},
		Output:   config.OutputConfig{Format: "json", File: "results.json"},
		LogLevel: "info",
		Tabs: []*scraper.TabTemplate{
			{
				Tab: "listing",
				InitSteps: []*scraper.Step{
					{ID: "go-home", Action: scraper.ActionNavigate, Value: "https://example.com", WaitUntil: "networkidle"},
				},
				PerPageSteps: []*scraper.Step{
					{
						ID:           "rows",
						Action:       scraper.ActionForeach,
						SelectorType: scraper.SelectorClass,
						Selector:     "result-row",
						SubSteps: []*scraper.Step{
							{ID: "title", Action: scraper.ActionData, SelectorType: scraper.SelectorTag, Selector: "h2"},
							{ID: "link", Action: scraper.ActionData, SelectorType: scraper.SelectorTag, Selector: "a/@href", DataType: scraper.DataAttribute},
						},
					},
				},
				Pagination: &scraper.PaginationConfig{
					Strategy: scraper.PaginationNext,
					NextButton: &scraper.NextButtonConfig{
						SelectorType: scraper.SelectorClass,
						Selector:     "next-page",
					},
					MaxPages: &maxPages,
				},
			},
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func printUsage() {
	fmt.Println("stepwright - template-driven browser scraping")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  stepwright run <config.yaml>       Execute the configured tabs")
	fmt.Println("  stepwright validate <config.yaml>  Check a configuration file")
	fmt.Println("  stepwright template                Print a starter configuration")
	fmt.Println("  stepwright version                 Print version information")
}
