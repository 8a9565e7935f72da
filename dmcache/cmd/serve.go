package cmd

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/sarchlab/dmcache/config"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/monitoring"
	"github.com/sarchlab/dmcache/workload"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a cache over HTTP.",
		Long: "Serve builds a cache and exposes it through the monitoring " +
			"API until interrupted. Reads, writes and flushes can be sent " +
			"to /api/read, /api/write and /api/flush.",
		Args: cobra.NoArgs,
		RunE: serve,
	}

	addCacheFlags(serveCmd)
	serveCmd.Flags().Int("port", 0,
		"Port of the server. 0 picks a random port.")
	serveCmd.Flags().Bool("open", false, "Open the API in a browser.")
	serveCmd.Flags().String("trace", "",
		"Trace file to run in the background once the server is up.")
	serveCmd.Flags().Int("random", 0,
		"Random operations to run in the background once the server is up.")
	serveCmd.Flags().Float64("write-ratio", 0.5,
		"Fraction of writes in a random workload.")

	return serveCmd
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.MonitorPort, _ = cmd.Flags().GetInt("port")
	}

	if cmd.Flags().Changed("open") {
		cfg.OpenBrowser, _ = cmd.Flags().GetBool("open")
	}

	ops, err := backgroundWorkload(cmd, cfg)
	if err != nil {
		return err
	}

	store, err := buildCache(cfg)
	if err != nil {
		return err
	}

	lockedStore := cache.NewLockedStore(store)
	monitor := monitoring.NewMonitor(lockedStore).
		WithPortNumber(cfg.MonitorPort)

	url, err := monitor.StartServer()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", url)

	if cfg.OpenBrowser {
		if err := browser.OpenURL(url + "/api/geometry"); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "cannot open browser: %v\n", err)
		}
	}

	if len(ops) > 0 {
		go runInBackground(cmd, monitor, lockedStore, ops)
	}

	<-cmd.Context().Done()

	return nil
}

func backgroundWorkload(cmd *cobra.Command, cfg config.Config) ([]workload.Op, error) {
	tracePath, _ := cmd.Flags().GetString("trace")
	numRandom, _ := cmd.Flags().GetInt("random")

	if tracePath == "" && numRandom == 0 {
		return nil, nil
	}

	return loadWorkload(cmd, cfg)
}

func runInBackground(
	cmd *cobra.Command,
	monitor *monitoring.Monitor,
	target workload.Target,
	ops []workload.Op,
) {
	bar := monitor.CreateProgressBar("workload", uint64(len(ops)))
	defer monitor.CompleteProgressBar(bar)

	err := workload.Run(target, ops, func(workload.Result) {
		bar.IncrementFinished(1)
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "workload stopped: %v\n", err)
	}
}
