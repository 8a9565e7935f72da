package cmd

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/dmcache/datarecording"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/mem/trace"
	"github.com/sarchlab/dmcache/report"
	"github.com/sarchlab/dmcache/workload"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Compare cache and block sizes on one random workload.",
		Long: "Sweep runs the same random workload against every " +
			"combination of cache size and block size that forms a valid " +
			"cache, and prints one line of counters per combination.",
		Args: cobra.NoArgs,
		RunE: sweep,
	}

	addCacheFlags(sweepCmd)
	sweepCmd.Flags().UintSlice("cache-sizes", []uint{8, 16, 32},
		"Cache sizes in bytes.")
	sweepCmd.Flags().UintSlice("block-sizes", []uint{1, 2, 4},
		"Block sizes in bytes.")
	sweepCmd.Flags().Int("ops", 1000, "Number of random operations.")
	sweepCmd.Flags().Float64("write-ratio", 0.5,
		"Fraction of writes in the workload.")
	sweepCmd.Flags().String("csv", "", "Also write the counters to a CSV file.")
	sweepCmd.Flags().String("record", "",
		"Also record the counters into <record>.sqlite3.")

	return sweepCmd
}

func sweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cacheSizes, _ := cmd.Flags().GetUintSlice("cache-sizes")
	blockSizes, _ := cmd.Flags().GetUintSlice("block-sizes")
	numOps, _ := cmd.Flags().GetInt("ops")
	writeRatio, _ := cmd.Flags().GetFloat64("write-ratio")

	ops, err := workload.Generator{
		Rand:        rand.New(rand.NewSource(cfg.Seed)),
		AddressBits: cfg.AddressBits,
		WriteRatio:  writeRatio,
	}.Generate(numOps)
	if err != nil {
		return err
	}

	var csvWriter *report.CSVWriter

	if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
		csvWriter, err = report.CreateCSVFile(csvPath)
		if err != nil {
			return err
		}
		defer csvWriter.Close()
	}

	var statsRecorder *trace.StatsRecorder

	if recordPath, _ := cmd.Flags().GetString("record"); recordPath != "" {
		recorder := datarecording.NewDataRecorder(recordPath)
		defer recorder.Close()

		statsRecorder = trace.NewStatsRecorder(recorder)
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	for _, cacheSize := range cacheSizes {
		for _, blockSize := range blockSizes {
			cfg.CacheBytes = uint64(cacheSize)
			cfg.BlockBytes = uint64(blockSize)

			store, err := buildCache(cfg)
			if errors.Is(err, cache.ErrInvalidGeometry) {
				fmt.Fprintf(errOut, "skipping %dB cache with %dB blocks: %v\n",
					cacheSize, blockSize, err)
				continue
			}

			if err != nil {
				return err
			}

			if err := workload.Run(store, ops, nil); err != nil {
				return err
			}

			stats := store.Statistics()
			fmt.Fprintf(out,
				"cache %4dB block %3dB: %5d reads %5d writes, "+
					"hit rate %6.2f%%\n",
				cacheSize, blockSize, stats.Reads, stats.Writes,
				100*stats.HitRate())

			if csvWriter != nil {
				if err := csvWriter.Write(store.Geometry(), stats); err != nil {
					return err
				}
			}

			if statsRecorder != nil {
				name := fmt.Sprintf("Cache_%d_%d", cacheSize, blockSize)
				statsRecorder.Record(name, store.Geometry(), stats)
			}
		}
	}

	return nil
}
