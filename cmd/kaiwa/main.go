// Package main is the kaiwa CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kaiwa/internal/cli"
	"github.com/hyperjump/kaiwa/internal/config"
	"github.com/hyperjump/kaiwa/internal/export"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/ocr"
	"github.com/hyperjump/kaiwa/internal/pipeline"
	"github.com/hyperjump/kaiwa/internal/server"
	"github.com/hyperjump/kaiwa/internal/storage"
	"github.com/hyperjump/kaiwa/internal/watcher"
	"github.com/hyperjump/kaiwa/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kaiwa/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "parse":
		runParse()
	case "runs":
		runRuns()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kaiwa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// newRecoveryAdapter builds the text recovery adapter from config. When the
// capability is disabled or the engine cannot be constructed (no CGO, no
// libtesseract), a nil-engine adapter is returned and image attachments
// simply carry no recovered text.
func newRecoveryAdapter(cfg *config.OCRConfig, logger *zap.Logger) *ocr.Adapter {
	if !cfg.EnabledOrDefault() {
		return ocr.NewAdapter(nil)
	}
	engine, err := ocr.NewTesseractEngine(cfg.Languages)
	if err != nil {
		if logger != nil {
			logger.Warn("text recovery unavailable", zap.Error(err))
		}
		return ocr.NewAdapter(nil)
	}
	return ocr.NewAdapter(engine)
}

// loadParseConfig loads config for a one-shot parse. With the default path an
// absent config file is fine and defaults apply; an explicitly passed path
// must load.
func loadParseConfig(path string) (*config.Config, error) {
	cfg, _, err := loadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if path != defaultConfigPath {
		return nil, err
	}
	cfg = &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg, nil
}

// outputDocumentPaths returns the JSON and xlsx document paths inside dir.
func outputDocumentPaths(dir string) (jsonPath, excelPath string) {
	return filepath.Join(dir, export.JSONFileName), filepath.Join(dir, export.ExcelFileName)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	recovery := newRecoveryAdapter(&cfg.OCR, logger)
	defer recovery.Close()
	p := pipeline.NewPipeline(recovery, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			func(path string) {
				if err := parseAndRecord(watchCtx, p, store, cfg.Storage.OutputDir, path); err != nil {
					logger.Warn("inbox parse failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(p, store, &cfg.Server, cfg.Storage.OutputDir, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// parseAndRecord parses one archive, writes its documents under outputDir,
// and records the run. Used by the inbox watcher.
func parseAndRecord(ctx context.Context, p *pipeline.Pipeline, store storage.Storage, outputDir, zipPath string) error {
	doc, rows, err := p.Parse(ctx, zipPath)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	runDir := filepath.Join(outputDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	jsonPath, excelPath := outputDocumentPaths(runDir)
	if err := export.WriteJSON(jsonPath, doc); err != nil {
		return err
	}
	if err := export.WriteExcel(excelPath, rows); err != nil {
		return err
	}
	attachmentCount := 0
	for _, msg := range doc.Messages {
		attachmentCount += len(msg.Attachments)
	}
	return store.CreateRun(ctx, &models.Run{
		ID:              runID,
		ArchiveName:     filepath.Base(zipPath),
		MessageCount:    len(doc.Messages),
		AttachmentCount: attachmentCount,
		JSONPath:        jsonPath,
		ExcelPath:       excelPath,
	})
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", ".", "directory for the output documents")
	noOCR := fs.Bool("no-ocr", false, "skip text recovery even when available")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kaiwa parse [flags] <export.zip>")
		os.Exit(1)
	}
	zipPath := fs.Arg(0)

	cfg, err := loadParseConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ocrCfg := cfg.OCR
	if *noOCR {
		disabled := false
		ocrCfg.Enabled = &disabled
	}
	recovery := newRecoveryAdapter(&ocrCfg, logger)
	defer recovery.Close()

	doc, rows, err := pipeline.NewPipeline(recovery, logger).Parse(context.Background(), zipPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	jsonPath, excelPath := outputDocumentPaths(*outDir)
	if err := export.WriteJSON(jsonPath, doc); err != nil {
		fmt.Fprintf(os.Stderr, "JSON export failed: %v\n", err)
		os.Exit(1)
	}
	if err := export.WriteExcel(excelPath, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Excel export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Parsed %d message(s) from %s\n", len(doc.Messages), filepath.Base(zipPath))
	fmt.Printf("JSON:  %s\n", jsonPath)
	fmt.Printf("Excel: %s\n", excelPath)
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	resp, err := http.Get(*serverURL + "/api/v1/runs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Runs []*models.Run `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRuns(os.Stdout, out.Runs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status struct {
		Runs      int64  `json:"runs"`
		OutputDir string `json:"output_dir"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("runs:        %d\n", status.Runs)
	fmt.Printf("output_dir:  %s\n", status.OutputDir)
}

func printUsage() {
	fmt.Println(`kaiwa - chat export parsing service

Usage:
  kaiwa server [flags]              Start the HTTP server
  kaiwa parse [flags] <export.zip>  Parse one export archive to JSON + Excel
  kaiwa runs [flags]                List recorded parse runs
  kaiwa status [flags]              Show server status
  kaiwa version                     Show version
  kaiwa help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kaiwa/config.yaml)
  --debug            Enable debug logging

Parse Flags:
  --config string    Config file path (optional; defaults apply without one)
  --out string       Output directory for chat_data.json / chat_data.xlsx (default: .)
  --no-ocr           Skip text recovery even when available

Runs Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  kaiwa server
  kaiwa parse export.zip
  kaiwa parse --out ./parsed --no-ocr export.zip
  kaiwa runs --output json
  kaiwa status`)
}
