package cmd

import (
	"log"

	"github.com/sarchlab/dmcache/config"
	"github.com/sarchlab/dmcache/mem/trace"
	"github.com/sarchlab/dmcache/workload"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the demo sequence on the demo cache.",
		Long: "Demo builds an 8-byte direct-mapped cache with 2-byte " +
			"blocks over a 4-bit address space, reads 0x0, writes 0x1 to " +
			"0x3 and reads 0x3 back. Every cache event is printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			store, err := buildCache(
				config.Default(),
				trace.NewLogTracer(log.New(out, "", 0)),
			)
			if err != nil {
				return err
			}

			err = workload.Run(store, workload.Demo(), func(r workload.Result) {
				printResult(out, r)
			})
			if err != nil {
				return err
			}

			return printStore(out, store)
		},
	}
}
