package cmd

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/sarchlab/dmcache/config"
	"github.com/sarchlab/dmcache/datarecording"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/mem/trace"
	"github.com/sarchlab/dmcache/report"
	"github.com/sarchlab/dmcache/sim/hooking"
	"github.com/sarchlab/dmcache/workload"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload against a cache.",
		Long: "Run applies the operations of a trace file, a random " +
			"workload or, without either, the demo sequence to a cache. " +
			"It then prints the lines and the counters of the cache.",
		Args: cobra.NoArgs,
		RunE: runWorkload,
	}

	addCacheFlags(runCmd)
	runCmd.Flags().String("trace", "",
		"File with one operation per line: R <addr> or W <addr> <value>.")
	runCmd.Flags().Int("random", 0, "Number of random operations to run.")
	runCmd.Flags().Float64("write-ratio", 0.5,
		"Fraction of writes in a random workload.")
	runCmd.Flags().String("record", "",
		"Record the accesses into <record>.sqlite3.")
	runCmd.Flags().Bool("log", false, "Print every cache event to stderr.")
	runCmd.Flags().Bool("flush", false,
		"Flush the cache after the workload.")
	runCmd.Flags().Bool("verbose", false, "Print the result of every operation.")

	return runCmd
}

func runWorkload(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("record") {
		cfg.RecordPath, _ = cmd.Flags().GetString("record")
	}

	ops, err := loadWorkload(cmd, cfg)
	if err != nil {
		return err
	}

	var hooks []hooking.Hook

	if logEvents, _ := cmd.Flags().GetBool("log"); logEvents {
		hooks = append(hooks,
			trace.NewLogTracer(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	var recorder datarecording.DataRecorder

	if cfg.RecordPath != "" {
		recorder = datarecording.NewDataRecorder(cfg.RecordPath)
		defer recorder.Close()

		hooks = append(hooks, trace.NewDBTracer(recorder))
	}

	store, err := buildCache(cfg, hooks...)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")

	err = workload.Run(store, ops, func(r workload.Result) {
		if verbose {
			printResult(cmd.OutOrStdout(), r)
		}
	})
	if err != nil {
		return err
	}

	if flush, _ := cmd.Flags().GetBool("flush"); flush {
		if err := store.Flush(); err != nil {
			return err
		}
	}

	if recorder != nil {
		trace.NewStatsRecorder(recorder).
			Record(store.Name(), store.Geometry(), store.Statistics())
	}

	return printStore(cmd.OutOrStdout(), store)
}

func loadWorkload(cmd *cobra.Command, cfg config.Config) ([]workload.Op, error) {
	tracePath, _ := cmd.Flags().GetString("trace")
	numRandom, _ := cmd.Flags().GetInt("random")

	switch {
	case tracePath != "" && numRandom > 0:
		return nil, fmt.Errorf("--trace and --random cannot be used together")
	case tracePath != "":
		f, err := os.Open(tracePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return workload.Parse(f)
	case numRandom > 0:
		writeRatio, _ := cmd.Flags().GetFloat64("write-ratio")

		return workload.Generator{
			Rand:        rand.New(rand.NewSource(cfg.Seed)),
			AddressBits: cfg.AddressBits,
			WriteRatio:  writeRatio,
		}.Generate(numRandom)
	default:
		return workload.Demo(), nil
	}
}

func printResult(w io.Writer, r workload.Result) {
	fmt.Fprintf(w, "%-16s -> 0x%02x\n", r.Op, r.Value)
}

func printStore(w io.Writer, store *cache.Store) error {
	if err := report.WriteLines(w, store.DumpLines()); err != nil {
		return err
	}

	return report.WriteStatistics(w, store.Geometry(), store.Statistics())
}
