package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"drivewatch/internal/config"
	"drivewatch/internal/drive"
	"drivewatch/internal/extract"
	"drivewatch/internal/logger"
	"drivewatch/internal/monitor"
	"drivewatch/internal/server"
	"drivewatch/internal/sheets"
	"drivewatch/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	cfg, err := config.LoadConfig("configs/config.toml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Configure(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		fmt.Printf("Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		fmt.Println("Set google.spreadsheet_id and google.folder_id in configs/config.toml")
		os.Exit(1)
	}

	switch command {
	case "check":
		runCheck(cfg)
	case "watch":
		runWatch(cfg)
	case "process-all":
		runProcessAll(cfg, os.Args[2:])
	case "review":
		runReview(cfg)
	case "serve":
		runServe(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("DriveWatch - Drive Shipment File Monitor")
	fmt.Println("\nUsage:")
	fmt.Println("  drivewatch check                - Check the folder once and process new files")
	fmt.Println("  drivewatch watch                - Check on an interval until interrupted")
	fmt.Println("  drivewatch process-all [--min NN] - Process every folder file (optional 2-digit name prefix floor)")
	fmt.Println("  drivewatch review               - Pick recent files to process interactively")
	fmt.Println("  drivewatch serve                - Serve the check operation over HTTP")
}

// buildMonitor wires the Drive client and the sheet tracker into a Monitor.
func buildMonitor(ctx context.Context, cfg *config.Config) (*monitor.Monitor, error) {
	driveClient, err := drive.NewClient(ctx, cfg.Google.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tracker, err := sheets.NewTracker(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.Worksheet)
	if err != nil {
		return nil, err
	}
	if err := tracker.Init(ctx); err != nil {
		return nil, err
	}

	return monitor.New(driveClient, tracker, cfg.Google.FolderID, cfg.Poll.Window.Duration), nil
}

func runCheck(cfg *config.Config) {
	logger.Info("Starting check operation")

	ctx := signalContext()
	m, err := buildMonitor(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		fmt.Printf("Error initializing services: %v\n", err)
		os.Exit(1)
	}

	summary, err := m.CheckOnce(ctx)
	if err != nil {
		logger.Error("Check operation failed", "error", err)
		fmt.Printf("Error checking folder: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary)
}

func runWatch(cfg *config.Config) {
	interval := cfg.Poll.Interval.Duration
	logger.Info("Starting watch operation", "interval", interval.String())
	fmt.Printf("Watching folder every %s (ctrl-c to stop)\n", interval)

	ctx := signalContext()
	m, err := buildMonitor(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		fmt.Printf("Error initializing services: %v\n", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary, err := m.CheckOnce(ctx)
		if err != nil {
			logger.Error("Check pass failed", "error", err)
			fmt.Printf("Error checking folder: %v\n", err)
		} else if summary.Processed > 0 || summary.Failed > 0 {
			printSummary(summary)
		}

		select {
		case <-ctx.Done():
			fmt.Println("\nStopped.")
			return
		case <-ticker.C:
		}
	}
}

func runProcessAll(cfg *config.Config, args []string) {
	minPrefix, err := parseMinPrefix(args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Usage: drivewatch process-all [--min NN]   (NN in range 0-99)")
		os.Exit(1)
	}

	logger.Info("Starting process-all operation", "min_prefix", minPrefix)
	if minPrefix >= 0 {
		fmt.Printf("Processing all folder files with name prefix >= %02d\n", minPrefix)
	} else {
		fmt.Println("Processing all folder files")
	}

	ctx := signalContext()
	m, err := buildMonitor(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		fmt.Printf("Error initializing services: %v\n", err)
		os.Exit(1)
	}

	summary, err := m.ProcessAll(ctx, minPrefix)
	if err != nil {
		logger.Error("Process-all operation failed", "error", err)
		fmt.Printf("Error processing folder: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary)
}

func runReview(cfg *config.Config) {
	logger.Info("Starting review operation")

	ctx := signalContext()
	m, err := buildMonitor(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		fmt.Printf("Error initializing services: %v\n", err)
		os.Exit(1)
	}

	files, err := m.ListRecent(ctx)
	if err != nil {
		logger.Error("Failed to list recent files", "error", err)
		fmt.Printf("Error listing files: %v\n", err)
		os.Exit(1)
	}

	items := make([]tui.Item, 0, len(files))
	for _, f := range files {
		items = append(items, tui.Item{
			FileID:    f.ID,
			Name:      f.Name,
			Type:      extract.DetectFileType(f.Name),
			Created:   f.CreatedTime,
			Processed: m.IsProcessed(f.ID),
		})
	}

	picked, err := tui.Run(items)
	if err != nil {
		logger.Error("Review tool failed", "error", err)
		fmt.Printf("Error running review tool: %v\n", err)
		os.Exit(1)
	}
	if len(picked) == 0 {
		fmt.Println("Nothing selected.")
		return
	}

	selected := make([]drive.File, 0, len(picked))
	for _, item := range picked {
		selected = append(selected, drive.File{ID: item.FileID, Name: item.Name, CreatedTime: item.Created})
	}

	summary := m.ProcessFiles(ctx, selected)
	printSummary(summary)
}

func runServe(cfg *config.Config) {
	logger.Info("Starting server", "port", cfg.Server.Port)

	ctx := signalContext()
	m, err := buildMonitor(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		fmt.Printf("Error initializing services: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(m, cfg.Server.WriteTimeout.Duration)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("Listening on %s (ctrl-c to stop)\n", addr)

	err = srv.ListenAndServe(ctx, addr,
		cfg.Server.ReadTimeout.Duration,
		cfg.Server.WriteTimeout.Duration,
		cfg.Server.ShutdownTimeout.Duration)
	if err != nil {
		logger.Error("Server failed", "error", err)
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}

// parseMinPrefix reads an optional --min NN (or bare NN) argument.
// Returns -1 when no filter was requested.
func parseMinPrefix(args []string) (int, error) {
	if len(args) == 0 {
		return -1, nil
	}

	raw := args[0]
	if raw == "--min" {
		if len(args) < 2 {
			return 0, fmt.Errorf("--min requires a value")
		}
		raw = args[1]
	}

	minPrefix, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid prefix %q", raw)
	}
	if minPrefix < 0 || minPrefix > 99 {
		return 0, fmt.Errorf("prefix must be in range 0-99")
	}
	return minPrefix, nil
}

func printSummary(summary monitor.Summary) {
	fmt.Printf("\nDone: %d listed, %d processed, %d skipped", summary.Listed, summary.Processed, summary.Skipped)
	if summary.Failed > 0 {
		fmt.Printf(", %d failed", summary.Failed)
	}
	fmt.Println()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}
