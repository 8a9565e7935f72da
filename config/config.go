// Package config holds the parameters of a simulation run and loads them
// from dotenv files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/dmcache/mem"
	"github.com/sarchlab/dmcache/mem/cache"
)

// Keys recognized in a dotenv file.
const (
	KeyAddressBits       = "DMCACHE_ADDRESS_BITS"
	KeyCacheBytes        = "DMCACHE_CACHE_BYTES"
	KeyBlockBytes        = "DMCACHE_BLOCK_BYTES"
	KeyAssociativity     = "DMCACHE_ASSOCIATIVITY"
	KeyReplacementPolicy = "DMCACHE_REPLACEMENT_POLICY"
	KeySeed              = "DMCACHE_SEED"
	KeyMemoryInit        = "DMCACHE_MEMORY_INIT"
	KeyRecordPath        = "DMCACHE_RECORD_PATH"
	KeyMonitorPort       = "DMCACHE_MONITOR_PORT"
	KeyOpenBrowser       = "DMCACHE_OPEN_BROWSER"
)

// Config is the full set of parameters of a run.
type Config struct {
	AddressBits       int
	CacheBytes        uint64
	BlockBytes        uint64
	Associativity     int
	ReplacementPolicy string

	// Seed drives the random workload, the random replacement policy and
	// the random memory initializer.
	Seed int64

	// MemoryInit names the initializer of the backing memory: "zero",
	// "pattern" or "random".
	MemoryInit string

	// RecordPath, if not empty, is where the SQLite trace is written,
	// without the .sqlite3 extension.
	RecordPath string

	MonitorPort int
	OpenBrowser bool
}

// Default returns the parameters of the demo: a 4-bit address space in front
// of an 8-byte direct-mapped cache with 2-byte blocks.
func Default() Config {
	return Config{
		AddressBits:       4,
		CacheBytes:        8,
		BlockBytes:        2,
		Associativity:     1,
		ReplacementPolicy: "lru",
		Seed:              1,
		MemoryInit:        "zero",
	}
}

// Load returns the defaults overridden by the keys found in the dotenv file
// at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	c := Default()

	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}

	if err != nil {
		return c, fmt.Errorf("load %s: %w", path, err)
	}

	if err := c.Apply(env); err != nil {
		return c, fmt.Errorf("load %s: %w", path, err)
	}

	return c, nil
}

// Apply overrides the fields whose keys are present in env.
func (c *Config) Apply(env map[string]string) error {
	var err error

	setInt := func(key string, dst *int) {
		if v, ok := env[key]; ok && err == nil {
			*dst, err = parseInt(key, v)
		}
	}

	setUint := func(key string, dst *uint64) {
		if v, ok := env[key]; ok && err == nil {
			*dst, err = strconv.ParseUint(v, 0, 64)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	setString := func(key string, dst *string) {
		if v, ok := env[key]; ok {
			*dst = v
		}
	}

	setInt(KeyAddressBits, &c.AddressBits)
	setUint(KeyCacheBytes, &c.CacheBytes)
	setUint(KeyBlockBytes, &c.BlockBytes)
	setInt(KeyAssociativity, &c.Associativity)
	setString(KeyReplacementPolicy, &c.ReplacementPolicy)
	setString(KeyMemoryInit, &c.MemoryInit)
	setString(KeyRecordPath, &c.RecordPath)
	setInt(KeyMonitorPort, &c.MonitorPort)

	if v, ok := env[KeySeed]; ok && err == nil {
		c.Seed, err = strconv.ParseInt(v, 0, 64)
		if err != nil {
			err = fmt.Errorf("%s: %w", KeySeed, err)
		}
	}

	if v, ok := env[KeyOpenBrowser]; ok && err == nil {
		c.OpenBrowser, err = strconv.ParseBool(v)
		if err != nil {
			err = fmt.Errorf("%s: %w", KeyOpenBrowser, err)
		}
	}

	return err
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.ParseInt(v, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return int(n), nil
}

// Geometry derives the cache geometry. It returns an error wrapping
// cache.ErrInvalidGeometry if the sizes do not describe a cache.
func (c Config) Geometry() (cache.Geometry, error) {
	return cache.NewGeometry(
		c.AddressBits, c.CacheBytes, c.BlockBytes, c.Associativity)
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := c.Geometry(); err != nil {
		return err
	}

	switch c.ReplacementPolicy {
	case "", "lru", "lfu", "random":
	default:
		return fmt.Errorf("unknown replacement policy %q", c.ReplacementPolicy)
	}

	if _, err := mem.InitializerByName(c.MemoryInit, nil); err != nil {
		return err
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("monitor port %d out of range", c.MonitorPort)
	}

	return nil
}

// Builder returns a cache builder set up with the geometry and replacement
// policy of the configuration.
func (c Config) Builder() cache.Builder {
	return cache.MakeBuilder().
		WithAddressBits(c.AddressBits).
		WithCacheByteSize(c.CacheBytes).
		WithBlockByteSize(c.BlockBytes).
		WithWayAssociativity(c.Associativity).
		WithReplacementPolicy(c.ReplacementPolicy)
}
