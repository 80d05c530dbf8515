package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/docmill/internal/export"
)

var (
	exportFormats   []string
	exportOutputDir string
)

var exportCmd = &cobra.Command{
	Use:   "export <document-stems...>",
	Short: "Bundle processed documents into an Open WebUI import package",
	Long: `Collect the artifacts of previously processed documents (named by their
output folder stem) and package them as a zip importable into an Open WebUI
collection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringSliceVarP(&exportFormats, "formats", "f", []string{".txt", ".md"}, "artifact extensions to include")
	exportCmd.Flags().StringVarP(&exportOutputDir, "output", "o", "", "processed-output directory (defaults to config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	outputDir := exportOutputDir
	if outputDir == "" {
		outputDir = cfg.Storage.OutputDir
	}

	formats := make([]string, 0, len(exportFormats))
	for _, f := range exportFormats {
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		formats = append(formats, f)
	}

	exporter := export.NewExporter(outputDir, logger)
	result, err := exporter.Package(args, formats)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	color.NoColor = noColor
	color.New(color.FgGreen).Printf("✓ %d file(s) packaged as %s\n", result.FileCount, result.Path)
	return nil
}
