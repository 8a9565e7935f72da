package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/sarchlab/dmcache/datarecording"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/mem/trace"
	"github.com/sarchlab/dmcache/report"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <recording.sqlite3>",
		Short: "Print a recording made by run or sweep.",
		Long: "Show prints the counters stored in the cache_statistics " +
			"table of a recording, followed by the first accesses of the " +
			"cache_accesses table when the recording has one.",
		Args: cobra.ExactArgs(1),
		RunE: showRecording,
	}

	showCmd.Flags().Int("limit", 20,
		"Number of accesses to print. 0 prints all of them.")

	return showCmd
}

func showRecording(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", limit)
	}

	reader := datarecording.NewReader(path)
	defer reader.Close()

	trace.MapTables(reader)

	ctx := cmd.Context()

	tables, err := reader.StoredTables(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if !slices.Contains(tables, trace.StatisticsTable) {
		return fmt.Errorf("%s has no %s table", path, trace.StatisticsTable)
	}

	out := cmd.OutOrStdout()

	if err := showStatistics(ctx, out, reader); err != nil {
		return err
	}

	if !slices.Contains(tables, trace.AccessTable) {
		return nil
	}

	return showAccesses(ctx, out, reader, limit)
}

func showStatistics(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
) error {
	rows, _, err := reader.Query(ctx, trace.StatisticsTable,
		datarecording.QueryParams{OrderBy: "rowid"})
	if err != nil {
		return err
	}

	for _, row := range rows {
		entry := row.(*trace.StatisticsEntry)

		geometry, err := cache.NewGeometry(entry.AddressBits,
			entry.CacheBytes, entry.BlockBytes, entry.Associativity)
		if err != nil {
			return fmt.Errorf("cache %s: %w", entry.Cache, err)
		}

		err = report.WriteStatistics(out, geometry, cache.Statistics{
			Reads:       entry.Reads,
			ReadHits:    entry.ReadHits,
			ReadMisses:  entry.ReadMisses,
			Writes:      entry.Writes,
			WriteHits:   entry.WriteHits,
			WriteMisses: entry.WriteMisses,
			Evictions:   entry.Evictions,
			WriteBacks:  entry.WriteBacks,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func showAccesses(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
	limit int,
) error {
	rows, total, err := reader.Query(ctx, trace.AccessTable,
		datarecording.QueryParams{OrderBy: "rowid", Limit: limit})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "accesses:    %d\n", total)

	for _, row := range rows {
		entry := row.(*trace.AccessEntry)

		hit := "Miss"
		if entry.Hit {
			hit = "Hit"
		}

		fmt.Fprintf(out, "%-5s 0x%-6x %-4s tag 0x%x, index 0x%x, offset 0x%x\n",
			entry.Kind,
			entry.Address,
			hit,
			entry.Tag,
			entry.SetIndex,
			entry.Offset,
		)
	}

	if len(rows) < total {
		fmt.Fprintf(out, "... %d more\n", total-len(rows))
	}

	return nil
}
