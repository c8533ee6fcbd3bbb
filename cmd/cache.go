package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lepinkainen/cadastro/internal/cache"
	"github.com/lepinkainen/cadastro/internal/cmdutil"
	"github.com/spf13/viper"
)

// CacheCmd groups the cache maintenance subcommands.
type CacheCmd struct {
	Stats CacheStatsCmd `cmd:"" help:"Show how many lookup results each cache namespace holds"`
	Clear CacheClearCmd `cmd:"" help:"Delete every cached lookup result"`
}

var cacheNamespaces = []string{cache.NamespaceCEP, cache.NamespaceCNPJ}

// persistentBackend reports the configured cache backend, rejecting the
// per-process memory cache that holds no state a CLI run could operate
// on.
func persistentBackend() (string, error) {
	backend := viper.GetString("cache.backend")
	if backend == "" {
		backend = "none"
	}
	if backend == "memory" {
		return "", fmt.Errorf("the memory cache lives inside a single process; use the sqlite or redis backend to work with cached results")
	}
	return backend, nil
}

// CacheStatsCmd reports entry counts per cache namespace.
type CacheStatsCmd struct {
	Format string `help:"Output format (text, json, yaml)" enum:"text,json,yaml" default:"text"`
}

type cacheStats struct {
	Backend    string           `json:"backend"`
	Namespaces []namespaceStats `json:"namespaces,omitempty"`
}

type namespaceStats struct {
	Namespace string `json:"namespace"`
	Entries   int    `json:"entries"`
}

func (c *CacheStatsCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *CacheStatsCmd) run(ctx context.Context, w io.Writer) error {
	backend, err := persistentBackend()
	if err != nil {
		return err
	}

	stats := cacheStats{Backend: backend}
	if backend != "none" {
		for _, ns := range cacheNamespaces {
			store, err := cache.Open(ns)
			if err != nil {
				return fmt.Errorf("failed to open %s cache: %w", ns, err)
			}
			entries, err := store.Len(ctx)
			closeErr := store.Close()
			if err != nil {
				return fmt.Errorf("failed to count %s cache entries: %w", ns, err)
			}
			if closeErr != nil {
				return fmt.Errorf("failed to close %s cache: %w", ns, closeErr)
			}
			stats.Namespaces = append(stats.Namespaces, namespaceStats{Namespace: ns, Entries: entries})
		}
	}

	if c.Format == cmdutil.FormatText || c.Format == "" {
		if backend == "none" {
			fmt.Fprintln(w, "Caching is disabled (cache.backend: none)")
			return nil
		}
		fmt.Fprintf(w, "Cache backend: %s\n", backend)
		for _, ns := range stats.Namespaces {
			fmt.Fprintf(w, "  %-5s %d entries\n", ns.Namespace+":", ns.Entries)
		}
		return nil
	}
	return cmdutil.Render(w, c.Format, stats)
}

// CacheClearCmd empties every cache namespace.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *CacheClearCmd) run(ctx context.Context, w io.Writer) error {
	backend, err := persistentBackend()
	if err != nil {
		return err
	}
	if backend == "none" {
		fmt.Fprintln(w, "Caching is disabled (cache.backend: none)")
		return nil
	}

	var removed int64
	for _, ns := range cacheNamespaces {
		store, err := cache.Open(ns)
		if err != nil {
			return fmt.Errorf("failed to open %s cache: %w", ns, err)
		}
		n, err := store.Clear(ctx)
		closeErr := store.Close()
		if err != nil {
			return fmt.Errorf("failed to clear %s cache: %w", ns, err)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close %s cache: %w", ns, closeErr)
		}
		removed += n
	}

	fmt.Fprintf(w, "Removed %d cached results\n", removed)
	return nil
}
