package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lepinkainen/cadastro/internal/cmdutil"
	"github.com/lepinkainen/cadastro/internal/config"
	"github.com/lepinkainen/cadastro/internal/csvutil"
	"github.com/lepinkainen/cadastro/internal/lookup"
)

// gatherKeys combines positional arguments with keys read from an
// optional input file.
func gatherKeys(args []string, inputPath string) ([]string, error) {
	keys := make([]string, 0, len(args))
	keys = append(keys, args...)

	if inputPath != "" {
		fileKeys, err := csvutil.ReadKeys(inputPath)
		if err != nil {
			return nil, err
		}
		keys = append(keys, fileKeys...)
	}
	return keys, nil
}

// lookupTimeout prefers the per-command flag over the configured default.
func lookupTimeout(flag time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return config.LookupTimeout
}

// resolveKeys runs the lookups: a named driver queries that driver alone,
// one key races all drivers directly, and several keys go through the
// bulk path.
func resolveKeys[T any](ctx context.Context, mgr *lookup.Manager[T], keys []string, driver string, drivers []string) []lookup.BulkResult[T] {
	if driver != "" {
		results := make([]lookup.BulkResult[T], len(keys))
		for i, key := range keys {
			value, err := mgr.Lookup(ctx, key, driver)
			results[i] = lookup.BulkResult[T]{Key: key, Value: value, Err: err}
		}
		return results
	}

	var opts []lookup.RaceOption
	if len(drivers) > 0 {
		opts = append(opts, lookup.WithDrivers(drivers...))
	}

	if len(keys) == 1 {
		value, err := mgr.FirstResponse(ctx, keys[0], opts...)
		return []lookup.BulkResult[T]{{Key: keys[0], Value: value, Err: err}}
	}
	return mgr.Bulk(ctx, keys, config.BulkConcurrency, opts...)
}

// lookupRecord is the structured-output shape of one lookup result.
type lookupRecord[T any] struct {
	Key    string `json:"key"`
	Result T      `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func lookupRecords[T any](results []lookup.BulkResult[T]) []lookupRecord[T] {
	records := make([]lookupRecord[T], len(results))
	for i, res := range results {
		records[i] = lookupRecord[T]{Key: res.Key}
		if res.Err != nil {
			records[i].Error = res.Err.Error()
		} else {
			records[i].Result = res.Value
		}
	}
	return records
}

// renderLookupResults writes results in the requested format, delegating
// text output to the command-specific renderer.
func renderLookupResults[T any](w io.Writer, format string, results []lookup.BulkResult[T], text func(io.Writer, []lookup.BulkResult[T])) error {
	if format == cmdutil.FormatText || format == "" {
		text(w, results)
		return nil
	}
	return cmdutil.Render(w, format, lookupRecords(results))
}

// writeField prints one aligned "label: value" line, skipping empty
// values.
func writeField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %-13s %s\n", label+":", value)
}

// failureSummary reduces per-key errors to a single command error so the
// process exits non-zero when anything failed.
func failureSummary[T any](results []lookup.BulkResult[T]) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d lookups failed", failed, len(results))
}
