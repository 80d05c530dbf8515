package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	batchOutputDir string
	batchModel     string
	batchVision    bool
	batchWorkers   int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-files...>",
	Short: "Process multiple PDF documents sequentially",
	Long: `Process every named PDF, or every PDF in a named directory, one document
at a time. Pages within each document are still processed in parallel. A
failing document is reported and the batch continues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "", "output directory (defaults to config)")
	batchCmd.Flags().StringVarP(&batchModel, "model", "m", "", "vision model name")
	batchCmd.Flags().BoolVar(&batchVision, "vision", false, "enable vision enrichment")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "page workers (defaults to config)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	paths, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found in %s", strings.Join(args, ", "))
	}

	processor := buildProcessor()
	opts := buildOptions(batchModel, batchVision, batchWorkers)
	outputDir := batchOutputDir
	if outputDir == "" {
		outputDir = cfg.Storage.OutputDir
	}

	start := time.Now()
	entries, err := processor.ProcessBatch(ctx, paths, outputDir, opts)

	color.NoColor = noColor
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	succeeded := 0
	for _, entry := range entries {
		if entry.Success {
			succeeded++
			green.Printf("✓ %s (%s)\n", entry.Filename, entry.Duration.Round(time.Millisecond))
		} else {
			red.Printf("✗ %s: %s\n", entry.Filename, entry.Error)
		}
	}
	fmt.Printf("%d/%d documents processed in %s\n",
		succeeded, len(entries), time.Since(start).Round(time.Millisecond))

	return err
}

// collectPDFs expands directory arguments into their .pdf members and keeps
// file arguments as-is, deduplicated and sorted for a stable batch order.
func collectPDFs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(arg, "*.pdf"))
			if err != nil {
				return nil, fmt.Errorf("cannot scan %s: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}
		add(arg)
	}

	sort.Strings(paths)
	return paths, nil
}
