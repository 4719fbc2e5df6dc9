package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	"teamfin/internal/cli"
	"teamfin/internal/services"
)

func main() {
	file := flag.String("file", "", "CSV file to import (default: stdin)")
	flag.Parse()

	cfg, logger := cli.LoadAndValidateConfig("import")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backend := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Error("Failed to open import file", "error", err, "path", *file)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	importer := services.NewImportService(services.Deps{Store: backend.Store, Publisher: backend.Publisher})
	result, err := importer.Import(ctx, in)
	if err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("Failed to write result", "error", err)
		os.Exit(1)
	}
	logger.Info("Import finished", "imported", result.Success, "failed_rows", len(result.Errors))
	if len(result.Errors) > 0 {
		os.Exit(2)
	}
}
