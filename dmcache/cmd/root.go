// Package cmd provides the command-line interface of dmcache.
package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"

	"github.com/sarchlab/dmcache/config"
	"github.com/sarchlab/dmcache/mem"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/sim/hooking"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dmcache",
		Short: "dmcache simulates a data cache in front of a main memory.",
		Long: `dmcache simulates a direct-mapped or set-associative data ` +
			`cache with write-back and write-allocate policies. It runs ` +
			`workloads against the cache, reports hits and misses, and ` +
			`can serve the cache state over HTTP.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("env", ".env",
		"Dotenv file with DMCACHE_ defaults. Ignored if missing.")

	rootCmd.AddCommand(
		newRunCmd(),
		newDemoCmd(),
		newSweepCmd(),
		newServeCmd(),
		newShowCmd(),
	)

	return rootCmd
}

// Execute runs the command line tool. Interrupts cancel the running command.
// Exit goes through atexit so that recorders flush.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// addCacheFlags registers the flags that override the cache part of the
// configuration.
func addCacheFlags(cmd *cobra.Command) {
	d := config.Default()

	cmd.Flags().Int("address-bits", d.AddressBits, "Width of an address.")
	cmd.Flags().Uint64("cache-bytes", d.CacheBytes, "Capacity of the cache.")
	cmd.Flags().Uint64("block-bytes", d.BlockBytes, "Size of a cache line.")
	cmd.Flags().Int("ways", d.Associativity,
		"Lines per set. 1 builds a direct-mapped cache.")
	cmd.Flags().String("policy", d.ReplacementPolicy,
		"Replacement policy of a set: lru, lfu or random.")
	cmd.Flags().Int64("seed", d.Seed, "Seed of every random source.")
	cmd.Flags().String("memory-init", d.MemoryInit,
		"Initial memory content: zero, pattern or random.")
}

// loadConfig reads the dotenv file and then applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envPath, _ := cmd.Flags().GetString("env")

	cfg, err := config.Load(envPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()

	if flags.Lookup("address-bits") != nil {
		if flags.Changed("address-bits") {
			cfg.AddressBits, _ = flags.GetInt("address-bits")
		}

		if flags.Changed("cache-bytes") {
			cfg.CacheBytes, _ = flags.GetUint64("cache-bytes")
		}

		if flags.Changed("block-bytes") {
			cfg.BlockBytes, _ = flags.GetUint64("block-bytes")
		}

		if flags.Changed("ways") {
			cfg.Associativity, _ = flags.GetInt("ways")
		}

		if flags.Changed("policy") {
			cfg.ReplacementPolicy, _ = flags.GetString("policy")
		}

		if flags.Changed("seed") {
			cfg.Seed, _ = flags.GetInt64("seed")
		}

		if flags.Changed("memory-init") {
			cfg.MemoryInit, _ = flags.GetString("memory-init")
		}
	}

	return cfg, cfg.Validate()
}

// maxInitializedMemory bounds the memory that a pattern or random
// initializer has to touch.
const maxInitializedMemory = 64 * mem.MB

// buildCache creates the main memory described by cfg and a cache in front
// of it.
func buildCache(
	cfg config.Config,
	hooks ...hooking.Hook,
) (*cache.Store, error) {
	geometry, err := cfg.Geometry()
	if err != nil {
		return nil, err
	}

	if cfg.MemoryInit != "" && cfg.MemoryInit != "zero" &&
		geometry.AddressSpace() > maxInitializedMemory {
		return nil, fmt.Errorf(
			"memory init %q needs an address space of at most %d bytes",
			cfg.MemoryInit, maxInitializedMemory)
	}

	storage := mem.NewStorage(geometry.AddressSpace())

	initializer, err := mem.InitializerByName(
		cfg.MemoryInit, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}

	if err := initializer.Initialize(storage); err != nil {
		return nil, fmt.Errorf("initialize memory: %w", err)
	}

	builder := cfg.Builder().
		WithBackingMemory(storage).
		WithRandSource(rand.New(rand.NewSource(cfg.Seed)))

	for _, hook := range hooks {
		builder = builder.WithHook(hook)
	}

	return builder.Build("Cache")
}
