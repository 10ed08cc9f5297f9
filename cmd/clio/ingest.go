package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clio-assistant/internal/app"
	"clio-assistant/internal/indexer"
)

var ensureIndex bool

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestChunksCmd)
	ingestCmd.AddCommand(ingestEmbeddingsCmd)

	ingestCmd.PersistentFlags().BoolVar(&ensureIndex, "ensure-index", true, "Create the collection first if it is missing")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load preprocessed data into the vector index",
}

var ingestChunksCmd = &cobra.Command{
	Use:   "chunks <file.jsonl|->",
	Short: "Embed chunk records in document mode and upsert them",
	Long: `Reads one JSON object per line:
  {"chunk_id", "url", "title", "content", "year", "category", "page_type"}

Each chunk is embedded with the shared rate limit, so large files take
EMBEDDING_INTERVAL per chunk. Chunks that fail to embed are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args[0], func(ctx context.Context, p *indexer.Pipeline, r io.Reader) (*indexer.IngestStats, error) {
			return p.IndexChunks(ctx, r)
		})
	},
}

var ingestEmbeddingsCmd = &cobra.Command{
	Use:   "embeddings <file.jsonl|->",
	Short: "Upsert precomputed embeddings",
	Long: `Reads one JSON object per line:
  {"id", "values": [...], "metadata": {...}}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args[0], func(ctx context.Context, p *indexer.Pipeline, r io.Reader) (*indexer.IngestStats, error) {
			return p.UploadEmbeddings(ctx, r)
		})
	},
}

type ingestFunc func(ctx context.Context, p *indexer.Pipeline, r io.Reader) (*indexer.IngestStats, error)

func runIngest(cmd *cobra.Command, path string, ingest ingestFunc) error {
	input, closeInput, err := openInput(cmd, path)
	if err != nil {
		return withExit(ExitDataError, err)
	}
	defer closeInput()

	ctx, application, err := setup(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	cfg := application.Config
	if ensureIndex {
		if _, err := indexer.EnsureIndex(ctx, application.VectorStore, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
			return err
		}
	}

	stats, ingestErr := ingest(ctx, application.Pipeline, input)
	if stats != nil {
		if err := printIngestStats(cmd.OutOrStdout(), stats); err != nil {
			return err
		}
	}
	if ingestErr != nil {
		return withExit(ExitDataError, ingestErr)
	}
	return nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printIngestStats(w io.Writer, stats *indexer.IngestStats) error {
	if jsonOutput {
		return writeJSON(w, stats)
	}

	fmt.Fprintf(w, "%s\n", headingStyle("Ingestion complete"))
	fmt.Fprintf(w, "  Records read:    %d\n", stats.RecordsRead)
	if stats.ChunksEmbedded > 0 {
		fmt.Fprintf(w, "  Chunks embedded: %d\n", stats.ChunksEmbedded)
	}
	fmt.Fprintf(w, "  Points upserted: %s\n", okStyle(stats.PointsUpserted))
	if n := stats.Skipped(); n > 0 {
		fmt.Fprintf(w, "  Skipped:         %s %v\n", warnStyle(n), stats.SkippedReasons)
	}
	if stats.BatchesFailed > 0 {
		fmt.Fprintf(w, "  Failed batches:  %s\n", failStyle(stats.BatchesFailed))
	}
	if ts := stats.ChunkTokenStats; ts.Max > 0 {
		fmt.Fprintf(w, "  Chunk tokens:    min %d, mean %.1f, p95 %d, max %d\n", ts.Min, ts.Mean, ts.P95, ts.Max)
	}
	return nil
}
