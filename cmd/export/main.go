package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"wikix/internal/app"
	"wikix/internal/config"
	"wikix/internal/export"
	"wikix/internal/logging"
)

func main() {
	outDir := flag.String("out", "", "output directory (default: output_dir from config)")
	flag.Parse()
	if err := run(*outDir); err != nil {
		slog.Error("export", "err", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	closeLog, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closeLog()

	wiki, err := app.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	defer wiki.Close()

	_, err = export.Build(wiki.Renderer, cfg.IndexPage, cfg.Path(outDir))
	return err
}
