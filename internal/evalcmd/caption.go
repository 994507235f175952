// Package evalcmd implements the eval subcommands.
package evalcmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/snapfactlabs/snapfact/internal/analysis"
	"github.com/snapfactlabs/snapfact/internal/eval/dataset"
	"github.com/snapfactlabs/snapfact/internal/eval/metrics"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// CaptionResult is one scored dataset item.
type CaptionResult struct {
	ImageURL   string  `yaml:"imageurl"`
	Reference  string  `yaml:"reference"`
	Generated  string  `yaml:"generated"`
	Similarity float64 `yaml:"similarity"`
	Error      string  `yaml:"error,omitempty"`
}

// CaptionReport is the full YAML report written by the caption eval.
type CaptionReport struct {
	Config struct {
		Provider    string `yaml:"provider"`
		Model       string `yaml:"model"`
		DatasetPath string `yaml:"datasetpath"`
		SampleSize  int    `yaml:"samplesize"`
		Timestamp   string `yaml:"timestamp"`
	} `yaml:"config"`
	Results []CaptionResult `yaml:"results"`
	Summary metrics.Summary `yaml:"summary"`
}

// NewCaptionCmd creates the `eval caption` command.
func NewCaptionCmd() *cobra.Command {
	var datasetPath string
	var outputDir string
	var limit int

	cmd := &cobra.Command{
		Use:   "caption",
		Short: "Score generated facts against reference captions",
		Long: `Runs the description stage against every image in a caption dataset
(.parquet or .jsonl with image_url and reference columns) and scores the
generated facts by token overlap with the reference captions.`,
		Example: `  # Evaluate the first 25 items of a dataset
  snapfact eval caption --dataset captions.parquet --limit 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}
			return executeCaption(cmd, datasetPath, outputDir, limit)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the caption dataset (.parquet or .jsonl)")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory to write the YAML report to")
	cmd.Flags().IntVar(&limit, "limit", 0, "Evaluate at most this many items (0 = all)")

	return cmd
}

func executeCaption(cmd *cobra.Command, datasetPath, outputDir string, limit int) error {
	slog.Info("Loading dataset", "path", datasetPath)
	records, err := dataset.NewLoader(datasetPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	slog.Info("Dataset loaded", "items", len(records))

	service, err := analysis.NewService()
	if err != nil {
		return err
	}

	provider := os.Getenv("ANALYZE_PROVIDER")
	if provider == "" {
		provider = "nebius"
	}

	report := CaptionReport{}
	report.Config.Provider = provider
	report.Config.Model = service.Model()
	report.Config.DatasetPath = datasetPath
	report.Config.SampleSize = len(records)
	report.Config.Timestamp = time.Now().Format("2006-01-02_15-04-05")

	scores := []float64{}
	failed := 0
	for i, record := range records {
		slog.Info("Processing item", "progress", fmt.Sprintf("%d/%d", i+1, len(records)))

		result := CaptionResult{
			ImageURL:  record.ImageURL,
			Reference: record.Reference,
		}

		generated, err := service.Describe(cmd.Context(), record.ImageURL)
		if err != nil {
			slog.Error("Description failed", "image_url", record.ImageURL, "err", err)
			result.Error = err.Error()
			failed++
		} else {
			result.Generated = generated
			result.Similarity = metrics.Similarity(generated, record.Reference)
			scores = append(scores, result.Similarity)
		}

		report.Results = append(report.Results, result)
	}

	report.Summary = metrics.Aggregate(scores, failed)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("caption_eval_%s.yaml", report.Config.Timestamp))
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Printf("Evaluated %d items (%d failed)\n", report.Summary.Count, report.Summary.Failed)
	fmt.Printf("Mean similarity: %.3f (min %.3f, max %.3f)\n",
		report.Summary.MeanSimilarity, report.Summary.MinSimilarity, report.Summary.MaxSimilarity)
	fmt.Printf("\nReport saved to: %s\n", outputPath)

	return nil
}
