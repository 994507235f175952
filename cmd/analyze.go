package cmd

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapfactlabs/snapfact/internal/analysis"
	"github.com/snapfactlabs/snapfact/internal/capture"
	"github.com/snapfactlabs/snapfact/internal/relay"
	"github.com/snapfactlabs/snapfact/internal/storage"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var server string
	var dbPath string
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze [image file or URL]",
		Short: "Generate a fact for a single image",
		Long: `Runs the moderation and description stages for one image and prints
the generated fact.

Local image files are encoded as data URLs; http(s) and data URLs are
passed through unchanged. With --save the discovery is persisted and the
updated recency list is printed.`,
		Example: `  # Describe a local photo
  snapfact analyze ./photo.jpg

  # Describe and save, then show the five most recent discoveries
  snapfact analyze ./photo.jpg --save

  # Send the image through a running snapfact server instead
  snapfact analyze ./photo.jpg --server http://localhost:8888`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageURL, err := resolveImageURL(args[0])
			if err != nil {
				return err
			}

			var analyzer capture.Analyzer
			if server != "" {
				analyzer = relay.NewClient(server)
			} else {
				service, err := analysis.NewService()
				if err != nil {
					return err
				}
				analyzer = service
			}

			if !save {
				fact, err := analyzer.Analyze(cmd.Context(), imageURL)
				if err != nil {
					return err
				}
				fmt.Println(fact)
				return nil
			}

			store, err := storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			notifier := capture.NotifierFunc(func(title, message string) {
				slog.Warn(title, "detail", message)
			})

			pipeline := capture.New(analyzer, store, notifier)
			state := pipeline.Capture(cmd.Context(), imageURL)
			if state.CurrentFact == "" {
				return fmt.Errorf("analysis did not produce a fact")
			}

			fmt.Println(state.CurrentFact)
			fmt.Println("\nRecent discoveries:")
			for i, d := range state.Recent {
				fmt.Printf("%d. %s\n", i+1, d.Fact)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Base URL of a running snapfact server (default: analyze in-process)")
	cmd.Flags().StringVar(&dbPath, "db", "snapfact.db", "Path to the discoveries database")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the discovery and print the recency list")

	return cmd
}

// resolveImageURL passes remote and data URLs through and converts local
// files into data URLs.
func resolveImageURL(arg string) (string, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "data:") {
		return arg, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	mimeType := "image/jpeg"
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".png":
		mimeType = "image/png"
	case ".gif":
		mimeType = "image/gif"
	case ".webp":
		mimeType = "image/webp"
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
