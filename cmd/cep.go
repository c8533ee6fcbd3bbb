package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lepinkainen/cadastro/internal/address"
	"github.com/lepinkainen/cadastro/internal/cache"
	"github.com/lepinkainen/cadastro/internal/cep"
	"github.com/lepinkainen/cadastro/internal/config"
	"github.com/lepinkainen/cadastro/internal/lookup"
)

// CepCmd looks up Brazilian postal codes across the registered drivers.
type CepCmd struct {
	Keys    []string      `arg:"" optional:"" name:"cep" help:"Postal codes to look up"`
	Input   string        `short:"f" help:"Read postal codes from a CSV or plain-text file"`
	Driver  string        `help:"Query a single driver instead of racing all of them"`
	Drivers []string      `help:"Restrict the race to these drivers"`
	Timeout time.Duration `help:"Overall deadline per lookup (default: lookup.timeout from config)"`
	Format  string        `help:"Output format (text, json, yaml)" enum:"text,json,yaml" default:"text"`
}

func (c *CepCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *CepCmd) run(ctx context.Context, w io.Writer) error {
	keys, err := gatherKeys(c.Keys, c.Input)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("at least one CEP is required (pass it as an argument or use --input)")
	}

	store, err := cache.Open(cache.NamespaceCEP)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	mgr := newCEPManager(cep.Config{
		Cache:     store,
		PoolSize:  config.PoolSize,
		Timeout:   lookupTimeout(c.Timeout),
		UserAgent: config.UserAgent,
	})

	results := resolveKeys(ctx, mgr, keys, c.Driver, c.Drivers)
	if err := renderLookupResults(w, c.Format, results, renderAddresses); err != nil {
		return err
	}
	return failureSummary(results)
}

func renderAddresses(w io.Writer, results []lookup.BulkResult[*address.Address]) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if res.Err != nil {
			fmt.Fprintf(w, "CEP %s: %v\n", res.Key, res.Err)
			continue
		}

		addr := res.Value
		header := "CEP " + postalCodeLabel(addr, res.Key)
		if addr.VerificationSource != "" {
			header += " (via " + addr.VerificationSource + ")"
		}
		fmt.Fprintln(w, header)

		writeField(w, "Street", addr.FullStreetAddress())
		writeField(w, "Neighborhood", addr.Neighborhood)
		writeField(w, "City", addr.Locality)
		writeField(w, "State", addr.AdministrativeArea1)
		if ibge := addr.Component("ibge_code"); ibge != nil {
			writeField(w, "IBGE", ibge.Value)
		}
		if ddd := addr.Component("area_code"); ddd != nil {
			writeField(w, "DDD", ddd.Value)
		}
	}
}

func postalCodeLabel(addr *address.Address, key string) string {
	if addr.PostalCode != "" {
		return addr.PostalCode
	}
	return key
}
