package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadzzz/sahayak/internal/embedding"
	"github.com/nadzzz/sahayak/internal/ingest"
	"github.com/nadzzz/sahayak/internal/vectordb"
)

func newIngestCmd() *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "ingest <document>",
		Short: "Build the vector index from a legal document (.pdf, .txt, .md)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if indexPath == "" {
				indexPath = cfg.Knowledge.IndexPath
			}
			ctx := cmd.Context()
			doc := args[0]

			// Check before opening the index so a mistyped path leaves no empty index behind.
			if _, err := os.Stat(doc); err != nil {
				return fmt.Errorf("document not found: %w", err)
			}

			var pdf ingest.Extractor
			if strings.EqualFold(filepath.Ext(doc), ".pdf") {
				parser := ingest.NewParserClient(cfg.Ingest.ParserEndpoint)
				if !parser.Healthy(ctx) {
					return fmt.Errorf("document parser at %s is not reachable", cfg.Ingest.ParserEndpoint)
				}
				pdf = parser
			}

			store, err := vectordb.Open(indexPath, false)
			if err != nil {
				return err
			}
			defer store.Close()

			embedder := embedding.NewOllama(cfg.Embedding)
			slog.Info("ingesting document",
				"path", doc, "index", indexPath, "embedding_model", embedder.Model())

			stats, err := ingest.New(cfg.Ingest, pdf, embedder, store).Run(ctx, doc)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", doc, err)
			}

			fmt.Printf("Indexed %d chunks from %d pages (%d scanned, %d skipped) in %s\n",
				stats.Chunks, stats.Pages, stats.ScannedPages, stats.SkippedPages, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&indexPath, "index", "", "index file to write (defaults to knowledge.index_path)")
	return cmd
}
