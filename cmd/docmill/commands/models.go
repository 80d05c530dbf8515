package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/docmill/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the inference endpoint",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.RequestTimeout, logger)
	names, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("cannot list models from %s: %w", cfg.Ollama.BaseURL, err)
	}

	color.NoColor = noColor
	bold := color.New(color.Bold)

	bold.Printf("Models on %s:\n", cfg.Ollama.BaseURL)
	for _, name := range names {
		marker := " "
		if name == cfg.Ollama.Model {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, name)
	}
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	return nil
}
