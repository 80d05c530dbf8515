package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/llm"
	"github.com/spherical-ai/docmill/internal/pdf"
	"github.com/spherical-ai/docmill/internal/pipeline"
)

var (
	processOutputDir string
	processModel     string
	processVision    bool
	processWorkers   int
)

var processCmd = &cobra.Command{
	Use:   "process <file.pdf>",
	Short: "Process a single PDF document",
	Long:  "Extract and optionally enrich one PDF, writing TXT, JSON and markdown artifacts.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processOutputDir, "output", "o", "", "output directory (defaults to config)")
	processCmd.Flags().StringVarP(&processModel, "model", "m", "", "vision model name")
	processCmd.Flags().BoolVar(&processVision, "vision", false, "enable vision enrichment")
	processCmd.Flags().IntVarP(&processWorkers, "workers", "w", 0, "page workers (defaults to config)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor := buildProcessor()
	opts := buildOptions(processModel, processVision, processWorkers)
	outputDir := processOutputDir
	if outputDir == "" {
		outputDir = cfg.Storage.OutputDir
	}

	var bar *progressbar.ProgressBar
	processor.OnPageDone(func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("processing pages"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(completed)
	})

	doc, artifacts, err := processor.ProcessPDF(ctx, args[0], outputDir, opts)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printDocumentSummary(doc, artifacts)
	return nil
}

// buildProcessor wires the pipeline from the loaded configuration.
func buildProcessor() *pipeline.Processor {
	opener := pdf.NewOpener(logger)
	enricher := llm.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.RequestTimeout, logger)
	return pipeline.NewProcessor(opener, enricher, logger)
}

// buildOptions layers command flags over the configured defaults.
func buildOptions(model string, vision bool, workers int) domain.Options {
	opts := cfg.Options()
	if model != "" {
		opts.Model = model
	}
	if vision {
		opts.UseVision = true
	}
	if workers > 0 {
		opts.MaxWorkers = workers
	}
	return opts.Normalize()
}

func printDocumentSummary(doc *domain.DocumentResult, artifacts *domain.DocumentArtifacts) {
	color.NoColor = noColor

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Printf("✓ %s processed: %d pages in %s\n", doc.Filename, doc.PageCount, doc.Duration.Round(time.Millisecond))
	for _, a := range artifacts.Artifacts {
		fmt.Printf("  %-8s %s (%d bytes)\n", a.Format, a.Path, a.ByteSize)
	}
	if len(doc.Errors) > 0 {
		yellow.Printf("⚠ %d page(s) reported errors:\n", len(doc.Errors))
		for _, e := range doc.Errors {
			yellow.Printf("  - %s\n", e)
		}
	}
}
