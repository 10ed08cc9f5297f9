package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clio-assistant/internal/app"
	"clio-assistant/internal/indexer"
	"clio-assistant/internal/vectorstore"
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexEnsureCmd)
	indexCmd.AddCommand(indexStatsCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

// IndexInfo is the JSON output of the index commands.
type IndexInfo struct {
	Collection  string `json:"collection"`
	Dimension   int    `json:"dimension"`
	Metric      string `json:"metric"`
	Status      string `json:"status"`
	PointsCount int    `json:"points_count"`
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the collection if missing and check its dimension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, application, err := setup(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer application.Close()

		cfg := application.Config
		info, err := indexer.EnsureIndex(ctx, application.VectorStore, cfg.QdrantCollection, cfg.QdrantVectorSize)
		if err != nil {
			return err
		}
		return printIndexInfo(cmd.OutOrStdout(), cfg.QdrantCollection, info)
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dimension, metric, status and point count of the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, application, err := setup(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer application.Close()

		collection := application.Config.QdrantCollection
		info, err := indexer.Stats(ctx, application.VectorStore, collection)
		if err != nil {
			return err
		}
		return printIndexInfo(cmd.OutOrStdout(), collection, info)
	},
}

func printIndexInfo(w io.Writer, collection string, info *vectorstore.CollectionInfo) error {
	out := IndexInfo{
		Collection:  collection,
		Dimension:   info.VectorSize,
		Metric:      info.Distance,
		Status:      info.Status,
		PointsCount: info.PointsCount,
	}
	if jsonOutput {
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "%s %s\n", headingStyle("Collection"), out.Collection)
	fmt.Fprintf(w, "  Dimension: %d\n", out.Dimension)
	fmt.Fprintf(w, "  Metric:    %s\n", out.Metric)
	fmt.Fprintf(w, "  Status:    %s\n", out.Status)
	fmt.Fprintf(w, "  Points:    %d\n", out.PointsCount)
	return nil
}
